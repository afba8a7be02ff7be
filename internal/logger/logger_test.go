package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestLogEventCarriesContext(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	l := New(&buf, "hub").WithField("session", "abc")

	l.LogEvent("warn", "keepalive_timeout", "alice", "no heartbeat for 10s")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	checks := map[string]string{
		"level":     "warn",
		"component": "hub",
		"session":   "abc",
		"event":     "keepalive_timeout",
		"username":  "alice",
		"detail":    "no heartbeat for 10s",
		"message":   "keepalive timeout: no heartbeat for 10s",
	}
	for k, want := range checks {
		if got, _ := e[k].(string); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	parent := New(&buf, "api")
	child := parent.WithFields(map[string]interface{}{"remote": "127.0.0.1"})

	parent.Info("parent")
	child.Infof("child %d", 1)

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if _, ok := entries[0]["remote"]; ok {
		t.Error("parent logger picked up child field")
	}
	if entries[1]["remote"] != "127.0.0.1" || entries[1]["message"] != "child 1" {
		t.Errorf("unexpected child entry %v", entries[1])
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	l.LogEvent("error", "read_error", "bob", "boom")
}

func TestLogEventLevels(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	tests := []struct {
		level string
		want  string
	}{
		{"debug", "debug"},
		{"error", "error"},
		{"", "info"},
		{"loud", "info"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		New(&buf, "hub").LogEvent(tt.level, "peer_error", "bob", "")
		entries := decodeLines(t, &buf)
		if len(entries) != 1 || entries[0]["level"] != tt.want {
			t.Errorf("LogEvent(%q) entries = %v, want level %s", tt.level, entries, tt.want)
		}
	}
}
