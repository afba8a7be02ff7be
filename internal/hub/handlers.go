// internal/hub/handlers.go
package hub

import (
	"slices"

	"github.com/erilali/roomchat/internal/message"
)

// handlerFunc processes one frame from a registered client. A returned
// *message.ProtocolError is reported to the peer; any other error ends the
// session.
type handlerFunc func(h *Hub, c *Client, f message.Frame) error

var handlers = map[string]handlerFunc{
	message.CmdStillAlive:  (*Hub).handleStillAlive,
	message.CmdJoin:        (*Hub).handleJoin,
	message.CmdRooms:       (*Hub).handleRooms,
	message.CmdUsers:       (*Hub).handleUsers,
	message.CmdLeave:       (*Hub).handleLeave,
	message.CmdMessage:     (*Hub).handleMessage,
	message.CmdMessageUser: (*Hub).handleMessageUser,
	message.CmdQuit:        (*Hub).handleQuit,
	message.CmdError:       (*Hub).handlePeerError,
}

// handleFrame validates the command token and routes the frame. NAME is not
// in the table: once registered it is just an unknown command.
func (h *Hub) handleFrame(c *Client, f message.Frame) error {
	if perr := message.ValidateCommand(f.Command); perr != nil {
		return perr
	}
	handler, ok := handlers[f.Command]
	if !ok {
		return message.ErrUnknownCommand()
	}
	return handler(h, c, f)
}

func (h *Hub) handleStillAlive(c *Client, _ message.Frame) error {
	c.touch()
	return nil
}

func (h *Hub) handleJoin(c *Client, f message.Frame) error {
	room := f.Param(0)
	if perr := message.ValidateParam(room); perr != nil {
		return perr
	}
	username := c.Username()
	var created bool
	if err := c.whileOpen(func() { created = h.Rooms.JoinOrCreate(room, username) }); err != nil {
		return err
	}
	if created {
		h.Metrics.rooms.Set(float64(h.Rooms.Len()))
		c.logger.Infof("Room %s created by %s", room, username)
	}
	h.deliver(c, message.JoinResponse(room))
	h.publishEvent(roomSubject(room, "joined"), message.Event{
		Type:     message.EventJoinedRoom,
		Username: username,
		Room:     room,
	})
	return nil
}

func (h *Hub) handleRooms(c *Client, _ message.Frame) error {
	h.deliver(c, message.RoomsResponse(h.Rooms.ListRooms()))
	return nil
}

func (h *Hub) handleUsers(c *Client, f message.Frame) error {
	room := f.Param(0)
	if perr := message.ValidateParam(room); perr != nil {
		return perr
	}
	members, ok := h.Rooms.ListMembers(room)
	if !ok {
		return message.ErrNoSuchRoom(room)
	}
	h.deliver(c, message.UsersResponse(room, members))
	return nil
}

// handleLeave always acknowledges, whether or not the client was a member.
func (h *Hub) handleLeave(c *Client, f message.Frame) error {
	room := f.Param(0)
	if perr := message.ValidateParam(room); perr != nil {
		return perr
	}
	username := c.Username()
	var left bool
	if err := c.whileOpen(func() { left = h.Rooms.Leave(room, username) }); err != nil {
		return err
	}
	h.deliver(c, message.LeaveResponse(room))
	if left {
		h.publishEvent(roomSubject(room, "left"), message.Event{
			Type:     message.EventLeftRoom,
			Username: username,
			Room:     room,
		})
	}
	return nil
}

// handleMessage fans a room message out to every member that is still
// registered, the sender included.
func (h *Hub) handleMessage(c *Client, f message.Frame) error {
	room := f.Param(0)
	if perr := message.ValidateParam(room); perr != nil {
		return perr
	}
	body := f.Payload(1)
	if perr := message.ValidatePayload(body); perr != nil {
		return perr
	}
	members, ok := h.Rooms.ListMembers(room)
	if !ok {
		return message.ErrNoSuchRoom(room)
	}
	sender := c.Username()
	if !slices.Contains(members, sender) {
		return message.ErrNotMember(room)
	}

	frame := message.RoomMessage(room, sender, body)
	delivered := 0
	for _, member := range members {
		target, ok := h.Clients.Lookup(member)
		if !ok {
			continue
		}
		if h.deliver(target, frame) {
			delivered++
		}
	}
	c.logger.Debugf("Message to %s delivered to %d of %d members", room, delivered, len(members))
	h.publishEvent(roomSubject(room, "messages"), message.Event{
		Type:     message.EventRoomChat,
		Username: sender,
		Room:     room,
		Body:     body,
	})
	return nil
}

// handleMessageUser delivers a private message and echoes it to the sender,
// once only when both are the same client.
func (h *Hub) handleMessageUser(c *Client, f message.Frame) error {
	targetName := f.Param(0)
	if perr := message.ValidateParam(targetName); perr != nil {
		return perr
	}
	body := f.Payload(1)
	if perr := message.ValidatePayload(body); perr != nil {
		return perr
	}
	target, ok := h.Clients.Lookup(targetName)
	if !ok {
		return message.ErrNoSuchUser(targetName)
	}

	sender := c.Username()
	frame := message.DirectMessage(targetName, sender, body)
	h.deliver(target, frame)
	if target != c {
		h.deliver(c, frame)
	}
	h.publishEvent(subjectDirect, message.Event{
		Type:     message.EventDirectChat,
		Username: sender,
		Target:   targetName,
		Body:     body,
	})
	return nil
}

func (h *Hub) handleQuit(c *Client, _ message.Frame) error {
	h.deliver(c, message.CmdQuit)
	return errQuit
}

// handlePeerError records an error reported by the peer. No reply is sent.
func (h *Hub) handlePeerError(c *Client, f message.Frame) error {
	c.logger.LogEvent("warn", "peer_error", c.Username(), f.Payload(0))
	return nil
}
