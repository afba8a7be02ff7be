// internal/hub/hub.go
// Provides the Hub: the client and room registries plus the per-connection
// session, write pump and keepalive goroutines that operate on them.
package hub

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/erilali/roomchat/internal/logger"
	"github.com/erilali/roomchat/internal/message"
	"github.com/erilali/roomchat/internal/util"
	"github.com/nats-io/nats.go"
)

// Hub owns the shared registries and every connection session.
type Hub struct {
	Clients *ClientRegistry
	Rooms   *RoomRegistry

	NatsConn  *nats.Conn
	Js        nats.JetStreamContext
	Metrics   *Metrics
	Logger    *logger.Logger
	StartTime time.Time

	cfg     util.Config
	framing message.Framing
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// closingMu orders wg.Add calls from outside Serve against Shutdown's
	// wg.Wait.
	closingMu sync.Mutex
	closing   bool
}

// NewHub creates a Hub. nc and js may be nil, in which case no events are
// published.
func NewHub(cfg util.Config, nc *nats.Conn, js nats.JetStreamContext, logger *logger.Logger) *Hub {
	cfg = cfg.Sanitize()
	framing, _ := message.ParseFraming(cfg.Framing)
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		Clients:   NewClientRegistry(),
		Rooms:     NewRoomRegistry(),
		NatsConn:  nc,
		Js:        js,
		Metrics:   NewMetrics(),
		Logger:    logger,
		StartTime: time.Now(),
		cfg:       cfg,
		framing:   framing,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Serve accepts stream connections on ln until ln is closed or the hub shuts
// down, running one session per connection.
func (h *Hub) Serve(ln net.Listener) error {
	h.wg.Add(1)
	defer h.wg.Done()

	stop := context.AfterFunc(h.ctx, func() { ln.Close() })
	defer stop()

	h.Logger.Infof("Accepting %s-framed connections on %s", h.framing, ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if h.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				h.Logger.Warnf("Temporary accept error: %v", err)
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return err
		}
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.handleConn(newStreamConn(conn, h.framing, h.cfg.MaxFrameSize))
		}()
	}
}

// Shutdown closes every connection and waits for all session goroutines,
// giving up after timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.Logger.Info("Initiating hub shutdown...")
	h.closingMu.Lock()
	h.closing = true
	h.closingMu.Unlock()
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.Logger.Info("Hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.Logger.Warn("Hub shutdown timeout reached, some sessions may still be running")
		return context.DeadlineExceeded
	}
}

// track registers a session started outside Serve with the WaitGroup. It
// returns false once Shutdown has begun; callers that get true must call
// h.wg.Done.
func (h *Hub) track() bool {
	h.closingMu.Lock()
	defer h.closingMu.Unlock()
	if h.closing {
		return false
	}
	h.wg.Add(1)
	return true
}

// writePump is the only writer of c.conn. When the client closes it flushes
// what is already queued, so a final QUIT still reaches the peer, and then
// closes the connection.
func (h *Hub) writePump(c *Client) {
	defer c.conn.Close()
	timeout := h.cfg.WriteTimeout.Std()
	for {
		select {
		case frame := <-c.send:
			if err := c.conn.WriteFrame(frame, timeout); err != nil {
				if !isExpectedCloseError(err) {
					c.logger.Warnf("Write error: %v", err)
				}
				h.disconnect(c, "write_error")
				return
			}
		case <-c.ctx.Done():
			for {
				select {
				case frame := <-c.send:
					if err := c.conn.WriteFrame(frame, timeout); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// deliver queues frame for c. A client whose queue is full is too slow to
// keep up and is disconnected.
func (h *Hub) deliver(c *Client, frame string) bool {
	if c.enqueue(frame) {
		return true
	}
	if c.Alive() && c.ctx.Err() == nil {
		c.logger.Warn("Send queue full, dropping slow client")
		h.disconnect(c, "slow_consumer")
	}
	return false
}

// disconnect is the single cleanup path for a client. It is idempotent and
// safe to call concurrently from the session, the keepalive verifier and the
// write pump; only the first call does anything.
func (h *Hub) disconnect(c *Client, reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		username, registered := c.username, c.registered
		c.mu.Unlock()

		c.alive.Store(false)
		c.cancel()
		h.Metrics.disconnects.WithLabelValues(reason).Inc()

		if !registered {
			c.logger.LogEvent("debug", "client_disconnected", "", reason)
			return
		}

		// Rooms first: the name stays reserved until Release, so nobody can
		// re-register it and join a room in between.
		left := h.Rooms.RemoveUserEverywhere(username)
		if h.Clients.Release(username, c) {
			h.Metrics.connectedClients.Dec()
			h.publishEvent(subjectUserLeft, message.Event{
				Type:      message.EventLeft,
				Username:  username,
				Reason:    reason,
				SessionID: c.SessionID,
			})
		}
		c.logger.WithFields(map[string]interface{}{
			"reason": reason,
			"rooms":  left,
		}).LogEvent("info", "client_disconnected", username, reason)
	})
}
