package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erilali/roomchat/internal/hub"
	"github.com/erilali/roomchat/internal/logger"
	"github.com/erilali/roomchat/internal/util"
)

func newTestRouter(t *testing.T) (*hub.Hub, http.Handler) {
	t.Helper()
	cfg := util.DefaultConfig()
	cfg.NatsURL = ""
	h := hub.NewHub(cfg, nil, nil, logger.NewNop())
	t.Cleanup(func() { h.Shutdown(time.Second) })
	return h, NewRouter(h, nil, logger.NewNop())
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealthWithoutNats(t *testing.T) {
	h, router := newTestRouter(t)
	h.Rooms.JoinOrCreate("lobby", "alice")

	rec := get(t, router, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "ok" || body["nats"] != "disconnected" {
		t.Fatalf("health = %v", body)
	}
	if body["rooms"] != float64(1) || body["clients"] != float64(0) {
		t.Fatalf("counts = %v/%v", body["rooms"], body["clients"])
	}
	if _, ok := body["jetstream"]; ok {
		t.Fatal("jetstream section reported without JetStream")
	}
}

func TestRoomsEndpoints(t *testing.T) {
	h, router := newTestRouter(t)
	h.Rooms.JoinOrCreate("lobby", "bob")
	h.Rooms.JoinOrCreate("lobby", "alice")
	h.Rooms.JoinOrCreate("annex", "carol")
	h.Rooms.Leave("annex", "carol")

	body := decode(t, get(t, router, "/api/rooms"))
	if body["count"] != float64(2) {
		t.Fatalf("count = %v", body["count"])
	}
	rooms := body["rooms"].([]interface{})
	first := rooms[0].(map[string]interface{})
	if first["name"] != "annex" || first["count"] != float64(0) {
		t.Fatalf("first room = %v", first)
	}

	rec := get(t, router, "/api/rooms/lobby")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	room := decode(t, rec)
	members := room["members"].([]interface{})
	if len(members) != 2 || members[0] != "alice" || members[1] != "bob" {
		t.Fatalf("members = %v", members)
	}

	if rec := get(t, router, "/api/rooms/nowhere"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing room status = %d", rec.Code)
	}
	if rec := get(t, router, "/api/rooms/"); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name status = %d", rec.Code)
	}
}

func TestUsersEndpointEmpty(t *testing.T) {
	_, router := newTestRouter(t)
	body := decode(t, get(t, router, "/api/users"))
	if body["count"] != float64(0) {
		t.Fatalf("users = %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, router := newTestRouter(t)
	rec := get(t, router, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"roomchat_registered_clients", "roomchat_rooms", "go_goroutines"} {
		if !strings.Contains(string(out), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestStartServerStopsOnCancel(t *testing.T) {
	cfg := util.DefaultConfig()
	cfg.TCPAddr = "127.0.0.1:0"
	cfg.HTTPAddr = ""
	cfg.NatsURL = ""
	cfg.ShutdownTimeout = util.Duration(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- StartServer(ctx, cfg, logger.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("StartServer: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("StartServer did not return after cancel")
	}
}

func TestStartServerListenError(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer taken.Close()

	cfg := util.DefaultConfig()
	cfg.TCPAddr = taken.Addr().String()
	cfg.HTTPAddr = ""
	cfg.NatsURL = ""
	if err := StartServer(context.Background(), cfg, logger.NewNop()); err == nil {
		t.Fatal("expected listen error")
	}
}
