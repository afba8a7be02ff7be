// internal/api/api.go
// Provides StartServer: the event feed connection, the TCP chat listener and
// the HTTP admin surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/erilali/roomchat/internal/hub"
	"github.com/erilali/roomchat/internal/logger"
	"github.com/erilali/roomchat/internal/util"
	"github.com/nats-io/nats.go"
)

const (
	// EventStream is the JetStream stream holding the chat event feed.
	EventStream = "CHAT_EVENTS"

	natsConnectTimeout = 2 * time.Second
	readHeaderTimeout  = 5 * time.Second
	version            = "1.0.0"
)

// StartServer runs the chat server until ctx is cancelled, then shuts the
// HTTP server, the TCP listener and every session down.
func StartServer(ctx context.Context, cfg util.Config, serverLogger *logger.Logger) error {
	cfg = cfg.Sanitize()

	nc, js := connectEventFeed(cfg, serverLogger)
	if nc != nil {
		defer func() {
			if err := nc.Drain(); err != nil {
				serverLogger.Warnf("Error draining NATS connection: %v", err)
			}
		}()
	}

	ln, err := net.Listen("tcp", cfg.TCPAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.TCPAddr, err)
	}
	h := hub.NewHub(cfg, nc, js, logger.NewLogger("hub"))
	serverLogger.Infof("Chat server listening on %s", ln.Addr())

	errCh := make(chan error, 2)
	go func() {
		if err := h.Serve(ln); err != nil {
			errCh <- fmt.Errorf("tcp listener: %w", err)
		}
	}()

	var srv *http.Server
	if cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           NewRouter(h, js, serverLogger),
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			serverLogger.Infof("HTTP server started at %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		serverLogger.Info("Shutdown requested")
	case runErr = <-errCh:
		serverLogger.Errorf("Server failed: %v", runErr)
	}

	timeout := cfg.ShutdownTimeout.Std()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			serverLogger.Warnf("HTTP shutdown: %v", err)
		}
		cancel()
	}
	if err := h.Shutdown(timeout); err != nil {
		serverLogger.Warnf("Hub shutdown: %v", err)
	}
	return runErr
}

// connectEventFeed connects to NATS and prepares the event stream. Any
// failure degrades to running without an event feed.
func connectEventFeed(cfg util.Config, serverLogger *logger.Logger) (*nats.Conn, nats.JetStreamContext) {
	if cfg.NatsURL == "" {
		serverLogger.Info("NATS disabled, events will not be published")
		return nil, nil
	}

	serverLogger.Infof("Connecting to NATS at %s", cfg.NatsURL)
	nc, err := nats.Connect(cfg.NatsURL,
		nats.Name("roomchat"),
		nats.Timeout(natsConnectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				serverLogger.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			serverLogger.Infof("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		serverLogger.Errorf("Error connecting to NATS: %v", err)
		serverLogger.Warn("Running without NATS connection. Events will not be published.")
		return nil, nil
	}
	serverLogger.Info("Successfully connected to NATS")

	js, err := nc.JetStream()
	if err != nil {
		serverLogger.Errorf("Error getting JetStream context: %v", err)
		serverLogger.Warn("Running without JetStream. Events go to core NATS only.")
		return nc, nil
	}
	if err := ensureStream(js, cfg.EventRetention.Std()); err != nil {
		serverLogger.Errorf("Error preparing stream %s: %v", EventStream, err)
		serverLogger.Warn("Running without JetStream. Events go to core NATS only.")
		return nc, nil
	}
	serverLogger.Infof("JetStream stream %s ready", EventStream)
	return nc, js
}

// ensureStream creates the event stream, or updates it if it already exists.
func ensureStream(js nats.JetStreamManager, retention time.Duration) error {
	streamConfig := &nats.StreamConfig{
		Name:     EventStream,
		Subjects: []string{hub.EventSubjects},
		Storage:  nats.MemoryStorage,
		MaxAge:   retention,
	}
	if _, err := js.StreamInfo(EventStream); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return fmt.Errorf("stream info: %w", err)
		}
		if _, err := js.AddStream(streamConfig); err != nil {
			return fmt.Errorf("add stream: %w", err)
		}
		return nil
	}
	if _, err := js.UpdateStream(streamConfig); err != nil {
		return fmt.Errorf("update stream: %w", err)
	}
	return nil
}

// NewRouter builds the HTTP admin surface for h. js may be nil.
func NewRouter(h *hub.Hub, js nats.JetStreamContext, serverLogger *logger.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWs)
	mux.Handle("/metrics", h.Metrics.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		natsStatus := "disconnected"
		if h.NatsConn != nil && h.NatsConn.Status() == nats.CONNECTED {
			natsStatus = "connected"
		}
		health := map[string]interface{}{
			"status":  "ok",
			"nats":    natsStatus,
			"version": version,
			"clients": h.Clients.Len(),
			"rooms":   h.Rooms.Len(),
			"uptime":  time.Since(h.StartTime).Round(time.Second).String(),
		}
		if js != nil {
			if info, err := js.StreamInfo(EventStream); err == nil {
				health["jetstream"] = map[string]interface{}{
					"stream":    EventStream,
					"messages":  info.State.Msgs,
					"bytes":     info.State.Bytes,
					"retention": info.Config.MaxAge.String(),
				}
			} else {
				health["jetstream"] = map[string]interface{}{"error": err.Error()}
			}
		}
		writeJSON(w, http.StatusOK, health, serverLogger)
	})

	mux.HandleFunc("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"rooms": h.Rooms.Summaries(),
			"count": h.Rooms.Len(),
		}, serverLogger)
	})

	mux.HandleFunc("/api/rooms/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
		if name == "" {
			http.Error(w, "Room name required", http.StatusBadRequest)
			return
		}
		members, ok := h.Rooms.ListMembers(name)
		if !ok {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name":    name,
			"members": members,
			"count":   len(members),
		}, serverLogger)
	})

	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		users := h.Clients.Usernames()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"users": users,
			"count": len(users),
		}, serverLogger)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, serverLogger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		serverLogger.Errorf("Error encoding response: %v", err)
	}
}
