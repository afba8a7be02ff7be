// internal/hub/keepalive.go
package hub

import (
	"fmt"
	"time"

	"github.com/erilali/roomchat/internal/message"
)

// startKeepalive launches the heartbeat emitter and verifier for a newly
// registered client. Both stop when the client's context is cancelled.
func (h *Hub) startKeepalive(c *Client) {
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		h.emitHeartbeats(c)
	}()
	go func() {
		defer h.wg.Done()
		h.verifyHeartbeats(c)
	}()
}

// emitHeartbeats sends STILL_ALIVE once per keepalive interval. The first
// one, the registration ack, is queued by the session itself.
func (h *Hub) emitHeartbeats(c *Client) {
	ticker := time.NewTicker(h.cfg.KeepaliveInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		}
		if !h.deliver(c, message.CmdStillAlive) {
			return
		}
	}
}

// verifyHeartbeats disconnects the client once no STILL_ALIVE has arrived
// within the keepalive timeout. Detection lags by up to one verify interval.
func (h *Hub) verifyHeartbeats(c *Client) {
	ticker := time.NewTicker(h.cfg.VerifyInterval.Std())
	defer ticker.Stop()
	timeout := h.cfg.KeepaliveTimeout.Std()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			silent := c.sinceHeartbeat()
			if silent <= timeout {
				continue
			}
			h.Metrics.keepaliveTimeouts.Inc()
			c.logger.LogEvent("warn", "keepalive_timeout", c.Username(),
				fmt.Sprintf("no heartbeat for %s", silent.Round(time.Millisecond)))
			h.disconnect(c, "keepalive_timeout")
			return
		}
	}
}
