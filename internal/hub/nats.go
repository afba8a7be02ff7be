// internal/hub/nats.go
package hub

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/erilali/roomchat/internal/message"
)

// Event feed subjects. Room names are embedded as a single subject token.
const (
	EventSubjects         = "chat.>"
	subjectUserRegistered = "chat.users.registered"
	subjectUserLeft       = "chat.users.left"
	subjectDirect         = "chat.direct"
)

var subjectReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_")

// roomSubject builds chat.rooms.<room>.<kind>; characters with meaning in
// NATS subjects are replaced.
func roomSubject(room, kind string) string {
	return "chat.rooms." + subjectReplacer.Replace(room) + "." + kind
}

// publishEvent publishes evt to NATS if a connection is available. JetStream
// publishes are asynchronous so sessions never wait on the broker.
func (h *Hub) publishEvent(subject string, evt message.Event) {
	if h.NatsConn == nil {
		return
	}
	evt.Timestamp = time.Now().Unix()
	data, err := json.Marshal(evt)
	if err != nil {
		h.Logger.Errorf("Failed to marshal %s event: %v", evt.Type, err)
		return
	}
	if h.Js != nil {
		if _, err := h.Js.PublishAsync(subject, data); err != nil {
			h.Logger.Errorf("Failed to publish %s to JetStream: %v", subject, err)
		}
		return
	}
	if err := h.NatsConn.Publish(subject, data); err != nil {
		h.Logger.Errorf("Failed to publish %s to NATS: %v", subject, err)
	}
}
