package message

import (
	"fmt"
	"strconv"
)

// Numbered protocol error codes.
const (
	CodeUnknownCommand = 100
	CodeParamTooLong   = 101
	CodePayloadTooLong = 102
	CodeCommandSpaces  = 103
	CodeParamSpaces    = 104
	CodeUsernameInUse  = 105
	CodeNotRegistered  = 106
	CodeNoSuchRoom     = 107
	CodeNotMember      = 108
	CodeNoSuchUser     = 109
)

// ProtocolError is a recoverable error reported back to the peer as an
// ERROR frame. The connection stays open.
type ProtocolError struct {
	Code   int
	Detail string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error %d: %s", e.Code, e.Detail)
}

// Frame renders the error as ERROR:<code>:<detail>.
func (e *ProtocolError) Frame() string {
	return Encode(CmdError, strconv.Itoa(e.Code), e.Detail)
}

func ErrUnknownCommand() *ProtocolError {
	return &ProtocolError{CodeUnknownCommand, "Command is not included in the list of approved commands"}
}

func ErrParamTooLong() *ProtocolError {
	return &ProtocolError{CodeParamTooLong, fmt.Sprintf("Parameter has exceeded allowed value of %d characters", MaxParamLength)}
}

func ErrPayloadTooLong() *ProtocolError {
	return &ProtocolError{CodePayloadTooLong, fmt.Sprintf("Payload has exceeded allowed value of %d characters", MaxPayloadLength)}
}

func ErrCommandSpaces() *ProtocolError {
	return &ProtocolError{CodeCommandSpaces, "Command contains spaces"}
}

func ErrParamSpaces() *ProtocolError {
	return &ProtocolError{CodeParamSpaces, "Parameter contains spaces"}
}

// ErrParamMissing shares code 104 with ErrParamSpaces; the protocol has no
// dedicated code for an absent parameter.
func ErrParamMissing() *ProtocolError {
	return &ProtocolError{CodeParamSpaces, "Parameter is missing"}
}

func ErrUsernameInUse() *ProtocolError {
	return &ProtocolError{CodeUsernameInUse, "Username already in use"}
}

func ErrNotRegistered() *ProtocolError {
	return &ProtocolError{CodeNotRegistered, "Client not registered with server"}
}

// ErrNoSuchRoom, ErrNotMember and ErrNoSuchUser carry the referenced name as
// their detail; clients render their own text around it.
func ErrNoSuchRoom(room string) *ProtocolError {
	return &ProtocolError{CodeNoSuchRoom, room}
}

func ErrNotMember(room string) *ProtocolError {
	return &ProtocolError{CodeNotMember, room}
}

func ErrNoSuchUser(username string) *ProtocolError {
	return &ProtocolError{CodeNoSuchUser, username}
}
