// internal/hub/client.go
package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erilali/roomchat/internal/logger"
	"github.com/google/uuid"
)

// ErrClientClosed is returned when an operation races with disconnect.
var ErrClientClosed = errors.New("client closed")

// Client represents one connection, registered or not.
type Client struct {
	SessionID string
	Addr      string

	conn   Conn
	send   chan string
	ctx    context.Context
	cancel context.CancelFunc
	logger *logger.Logger

	mu         sync.Mutex
	username   string
	registered bool
	closed     bool

	lastHeartbeat atomic.Int64 // unix nanos
	alive         atomic.Bool
	closeOnce     sync.Once
}

func newClient(parent context.Context, conn Conn, queueSize int, log *logger.Logger) *Client {
	ctx, cancel := context.WithCancel(parent)
	c := &Client{
		SessionID: uuid.NewString(),
		Addr:      conn.RemoteAddr(),
		conn:      conn,
		send:      make(chan string, queueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	c.logger = log.WithFields(map[string]interface{}{
		"session": c.SessionID,
		"remote":  c.Addr,
	})
	c.alive.Store(true)
	c.touch()
	return c
}

// Username returns the registered name, or "" before registration.
func (c *Client) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// Alive reports whether disconnect has not started yet.
func (c *Client) Alive() bool { return c.alive.Load() }

// whileOpen runs fn under the client lock unless disconnect has begun.
// Room changes go through it so none can land after cleanup has removed the
// user from every room.
func (c *Client) whileOpen(fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	fn()
	return nil
}

// LastHeartbeat is the time of the most recent liveness signal.
func (c *Client) LastHeartbeat() time.Time {
	return time.Unix(0, c.lastHeartbeat.Load())
}

func (c *Client) touch() {
	c.lastHeartbeat.Store(time.Now().UnixNano())
}

func (c *Client) sinceHeartbeat() time.Duration {
	return time.Since(c.LastHeartbeat())
}

// enqueue queues a frame without blocking. It returns false when the client
// is closing or its queue is full.
func (c *Client) enqueue(frame string) bool {
	if !c.alive.Load() {
		return false
	}
	select {
	case <-c.ctx.Done():
		return false
	case c.send <- frame:
		return true
	default:
		return false
	}
}
