// internal/hub/session.go
package hub

import (
	"errors"
	"os"
	"time"

	"github.com/erilali/roomchat/internal/message"
)

var (
	// errQuit ends a session after the peer sent QUIT.
	errQuit                = errors.New("client quit")
	errRegistrationTimeout = errors.New("registration timed out")
)

// handleConn runs one connection from accept to cleanup: registration
// handshake, keepalive, then the command loop.
func (h *Hub) handleConn(conn Conn) {
	c := newClient(h.ctx, conn, h.cfg.SendQueueSize, h.Logger)
	h.Metrics.connectionsAccepted.Inc()
	c.logger.LogEvent("debug", "client_connected", "", c.Addr)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.writePump(c)
	}()

	reason := "closed"
	defer func() { h.disconnect(c, reason) }()

	err := h.awaitRegistration(c)
	if err == nil {
		// The first STILL_ALIVE doubles as the registration ack; queueing it
		// here orders it before any reply to a pipelined command.
		h.deliver(c, message.CmdStillAlive)
		h.startKeepalive(c)
		err = h.dispatch(c)
	}
	reason = h.closeReason(c, err)
}

// awaitRegistration re-reads frames until the peer claims a valid, unused
// username. Only transport failures end it early. The whole handshake must
// finish within the registration timeout.
func (h *Hub) awaitRegistration(c *Client) error {
	deadline := time.Now().Add(h.cfg.RegistrationTimeout.Std())
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	for {
		raw, err := c.conn.ReadFrame()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return errRegistrationTimeout
			}
			return err
		}
		err = h.tryRegister(c, message.Parse(raw))
		if err == nil {
			return c.conn.SetReadDeadline(time.Time{})
		}
		var perr *message.ProtocolError
		if !errors.As(err, &perr) {
			return err
		}
		h.replyError(c, perr)
	}
}

func (h *Hub) tryRegister(c *Client, f message.Frame) error {
	if perr := message.ValidateCommand(f.Command); perr != nil {
		return perr
	}
	username := f.Param(0)
	if f.Command == message.CmdName || len(f.Fields) > 0 {
		if perr := message.ValidateParam(username); perr != nil {
			return perr
		}
	}
	if f.Command != message.CmdName {
		return message.ErrNotRegistered()
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	if err := h.Clients.Insert(username, c); err != nil {
		c.mu.Unlock()
		return message.ErrUsernameInUse()
	}
	c.username = username
	c.registered = true
	c.mu.Unlock()

	c.touch()
	h.Metrics.connectedClients.Inc()
	c.logger.LogEvent("info", "client_registered", username, "")
	h.publishEvent(subjectUserRegistered, message.Event{
		Type:      message.EventRegistered,
		Username:  username,
		SessionID: c.SessionID,
	})
	return nil
}

// dispatch is the command loop of a registered client. Protocol errors are
// reported to the peer and the loop continues; anything else ends it.
func (h *Hub) dispatch(c *Client) error {
	for {
		raw, err := c.conn.ReadFrame()
		if err != nil {
			return err
		}
		f := message.Parse(raw)
		h.Metrics.frameReceived(f.Command)

		err = h.handleFrame(c, f)
		if err == nil {
			continue
		}
		var perr *message.ProtocolError
		if !errors.As(err, &perr) {
			return err
		}
		h.replyError(c, perr)
	}
}

func (h *Hub) replyError(c *Client, perr *message.ProtocolError) {
	h.Metrics.protocolError(perr.Code)
	c.logger.Debugf("Rejected frame: %v", perr)
	h.deliver(c, perr.Frame())
}

// closeReason classifies why a session ended, logging unexpected failures.
func (h *Hub) closeReason(c *Client, err error) string {
	switch {
	case errors.Is(err, errQuit):
		return "quit"
	case errors.Is(err, errRegistrationTimeout):
		c.logger.LogEvent("info", "registration_timeout", "", c.Addr)
		return "registration_timeout"
	case errors.Is(err, message.ErrFrameTooLarge):
		c.logger.LogEvent("warn", "read_error", c.Username(), err.Error())
		return "frame_too_large"
	case isExpectedCloseError(err):
		return "peer_closed"
	default:
		c.logger.LogEvent("warn", "read_error", c.Username(), err.Error())
		return "read_error"
	}
}
