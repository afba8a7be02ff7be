// internal/message/message.go
// Contains the colon-delimited wire frames exchanged between clients and server.
package message

import "strings"

// Separator delimits the fields of a frame.
const Separator = ":"

// Commands accepted from clients.
const (
	CmdName        = "NAME"
	CmdStillAlive  = "STILL_ALIVE"
	CmdJoin        = "JOIN"
	CmdRooms       = "ROOMS"
	CmdUsers       = "USERS"
	CmdLeave       = "LEAVE"
	CmdMessage     = "MESSAGE"
	CmdMessageUser = "MESSAGE_USER"
	CmdQuit        = "QUIT"
	CmdError       = "ERROR"
)

// Responses and pushes sent by the server.
const (
	RespJoin  = "JOIN_RESPONSE"
	RespRooms = "ROOMS_RESPONSE"
	RespUsers = "USERS_RESPONSE"
	RespLeave = "LEAVE_RESPONSE"
)

// emptyList is what the server sends in place of an empty name list.
const emptyList = " "

// Frame is one decoded protocol message. Fields holds everything after the
// command, still split on the separator.
type Frame struct {
	Command string
	Fields  []string
}

// Parse splits a raw frame into its command and fields. It never fails;
// syntax checks happen in the Validate functions.
func Parse(raw string) Frame {
	parts := strings.Split(raw, Separator)
	return Frame{Command: parts[0], Fields: parts[1:]}
}

// Param returns the positional field i (0 is the first field after the
// command) or "" when the frame is too short.
func (f Frame) Param(i int) string {
	if i < 0 || i >= len(f.Fields) {
		return ""
	}
	return f.Fields[i]
}

// Payload rejoins every field from index from onwards, so message bodies may
// carry the separator themselves.
func (f Frame) Payload(from int) string {
	if from >= len(f.Fields) {
		return ""
	}
	return strings.Join(f.Fields[from:], Separator)
}

// String renders the frame back to wire form.
func (f Frame) String() string {
	return Encode(f.Command, f.Fields...)
}

// Encode builds a wire frame from a command and its fields.
func Encode(command string, fields ...string) string {
	if len(fields) == 0 {
		return command
	}
	return command + Separator + strings.Join(fields, Separator)
}

// JoinNames renders a list of rooms or users the way list responses expect:
// space separated, or a single space when there is nothing to list.
func JoinNames(names []string) string {
	if len(names) == 0 {
		return emptyList
	}
	return strings.Join(names, " ")
}

// JoinResponse acknowledges a JOIN.
func JoinResponse(room string) string { return Encode(RespJoin, room) }

// LeaveResponse acknowledges a LEAVE.
func LeaveResponse(room string) string { return Encode(RespLeave, room) }

// RoomsResponse lists every known room.
func RoomsResponse(rooms []string) string { return Encode(RespRooms, JoinNames(rooms)) }

// UsersResponse lists the members of a room.
func UsersResponse(room string, members []string) string {
	return Encode(RespUsers, room, JoinNames(members))
}

// RoomMessage is the frame fanned out to room members.
func RoomMessage(room, sender, body string) string {
	return Encode(CmdMessage, room, sender, body)
}

// DirectMessage is the frame delivered to the target of a MESSAGE_USER and
// echoed to its sender.
func DirectMessage(target, sender, body string) string {
	return Encode(CmdMessageUser, target, sender, body)
}
