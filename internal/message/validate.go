package message

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxParamLength bounds usernames and room names, in characters.
	MaxParamLength = 50
	// MaxPayloadLength bounds message bodies, in characters.
	MaxPayloadLength = 500
)

// ValidateCommand rejects command tokens containing a space.
func ValidateCommand(command string) *ProtocolError {
	if strings.Contains(command, " ") {
		return ErrCommandSpaces()
	}
	return nil
}

// ValidateParam checks a username, room name or target name.
func ValidateParam(param string) *ProtocolError {
	switch {
	case param == "":
		return ErrParamMissing()
	case strings.Contains(param, " "):
		return ErrParamSpaces()
	case utf8.RuneCountInString(param) > MaxParamLength:
		return ErrParamTooLong()
	}
	return nil
}

// ValidatePayload checks a message body. Empty bodies are allowed.
func ValidatePayload(payload string) *ProtocolError {
	if utf8.RuneCountInString(payload) > MaxPayloadLength {
		return ErrPayloadTooLong()
	}
	return nil
}
