package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	def := DefaultConfig()
	if cfg.TCPAddr != def.TCPAddr || cfg.Framing != "length" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.KeepaliveInterval.Std() != 5*time.Second || cfg.KeepaliveTimeout.Std() != 10*time.Second {
		t.Errorf("keepalive defaults = %v/%v", cfg.KeepaliveInterval.Std(), cfg.KeepaliveTimeout.Std())
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"tcp_addr": ":9000",
		"framing": "raw",
		"keepalive_interval": "250ms",
		"verify_interval": 2,
		"logger": {"level": "debug"}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHAT_KEEPALIVE_TIMEOUT", "3s")
	t.Setenv("CHAT_HTTP_ADDR", "")
	t.Setenv("NATS_URL", "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TCPAddr != ":9000" || cfg.Framing != "raw" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.KeepaliveInterval.Std() != 250*time.Millisecond {
		t.Errorf("keepalive interval = %v", cfg.KeepaliveInterval.Std())
	}
	if cfg.VerifyInterval.Std() != 2*time.Second {
		t.Errorf("verify interval = %v", cfg.VerifyInterval.Std())
	}
	if cfg.KeepaliveTimeout.Std() != 3*time.Second {
		t.Errorf("env timeout not applied: %v", cfg.KeepaliveTimeout.Std())
	}
	if cfg.HTTPAddr != "" || cfg.NatsURL != "" {
		t.Errorf("empty env values should disable http/nats, got %q %q", cfg.HTTPAddr, cfg.NatsURL)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("logger level = %q", cfg.Logger.Level)
	}
}

func TestLoadConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("CHAT_VERIFY_INTERVAL", "soon")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestSanitize(t *testing.T) {
	cfg := Config{Framing: "xml", MaxFrameSize: -1}.Sanitize()
	def := DefaultConfig()
	if cfg.Framing != def.Framing || cfg.MaxFrameSize != def.MaxFrameSize || cfg.SendQueueSize != def.SendQueueSize {
		t.Errorf("sanitize did not restore defaults: %+v", cfg)
	}
	if cfg.KeepaliveTimeout != def.KeepaliveTimeout {
		t.Errorf("keepalive timeout = %v", cfg.KeepaliveTimeout.Std())
	}
}
