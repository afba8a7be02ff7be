package message

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestParseReassemblesPayload(t *testing.T) {
	f := Parse("MESSAGE:lobby:see you at 10:30: ok")
	if f.Command != CmdMessage {
		t.Fatalf("command = %q, want %q", f.Command, CmdMessage)
	}
	if got := f.Param(0); got != "lobby" {
		t.Errorf("room = %q, want lobby", got)
	}
	if got := f.Payload(1); got != "see you at 10:30: ok" {
		t.Errorf("payload = %q", got)
	}
	if got := f.Param(5); got != "" {
		t.Errorf("missing param = %q, want empty", got)
	}
	if got := f.Payload(7); got != "" {
		t.Errorf("missing payload = %q, want empty", got)
	}
}

func TestParseBareCommand(t *testing.T) {
	f := Parse("ROOMS")
	if f.Command != CmdRooms || len(f.Fields) != 0 {
		t.Fatalf("unexpected frame %+v", f)
	}
	if f.String() != "ROOMS" {
		t.Errorf("String() = %q", f.String())
	}
}

func TestListResponses(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"no rooms", RoomsResponse(nil), "ROOMS_RESPONSE: "},
		{"rooms", RoomsResponse([]string{"a", "b"}), "ROOMS_RESPONSE:a b"},
		{"empty room", UsersResponse("lobby", nil), "USERS_RESPONSE:lobby: "},
		{"members", UsersResponse("lobby", []string{"alice", "bob"}), "USERS_RESPONSE:lobby:alice bob"},
		{"room message", RoomMessage("lobby", "bob", "hi:there"), "MESSAGE:lobby:bob:hi:there"},
		{"direct", DirectMessage("bob", "alice", "yo"), "MESSAGE_USER:bob:alice:yo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		err  *ProtocolError
		code int
	}{
		{"command ok", ValidateCommand("JOIN"), 0},
		{"command with space", ValidateCommand("JO IN"), CodeCommandSpaces},
		{"param ok", ValidateParam("alice"), 0},
		{"param at limit", ValidateParam(strings.Repeat("a", MaxParamLength)), 0},
		{"param too long", ValidateParam(strings.Repeat("a", MaxParamLength+1)), CodeParamTooLong},
		{"param multibyte at limit", ValidateParam(strings.Repeat("é", MaxParamLength)), 0},
		{"param with space", ValidateParam("al ice"), CodeParamSpaces},
		{"param missing", ValidateParam(""), CodeParamSpaces},
		{"payload ok", ValidatePayload("hello world"), 0},
		{"payload empty", ValidatePayload(""), 0},
		{"payload too long", ValidatePayload(strings.Repeat("x", MaxPayloadLength+1)), CodePayloadTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code == 0 {
				if tt.err != nil {
					t.Fatalf("unexpected error %v", tt.err)
				}
				return
			}
			if tt.err == nil {
				t.Fatalf("expected code %d, got nil", tt.code)
			}
			if tt.err.Code != tt.code {
				t.Errorf("code = %d, want %d", tt.err.Code, tt.code)
			}
		})
	}
}

func TestProtocolErrorFrames(t *testing.T) {
	if got := ErrUsernameInUse().Frame(); got != "ERROR:105:Username already in use" {
		t.Errorf("105 frame = %q", got)
	}
	if got := ErrUnknownCommand().Frame(); got != "ERROR:100:Command is not included in the list of approved commands" {
		t.Errorf("100 frame = %q", got)
	}
	if got := ErrNoSuchRoom("kitchen").Frame(); got != "ERROR:107:kitchen" {
		t.Errorf("107 frame = %q", got)
	}
	if got := ErrParamTooLong().Frame(); got != "ERROR:101:Parameter has exceeded allowed value of 50 characters" {
		t.Errorf("101 frame = %q", got)
	}
}

func TestLengthFramingSplitsConcatenatedFrames(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf, FramingLength)
	for _, f := range []string{"NAME:alice", "JOIN:lobby", "MESSAGE:lobby:a:b"} {
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	r := NewFrameReader(&buf, FramingLength, 0)
	for _, want := range []string{"NAME:alice", "JOIN:lobby", "MESSAGE:lobby:a:b"} {
		got, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if _, err := r.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF after last frame, got %v", err)
	}
}

func TestLengthFramingRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	NewFrameWriter(&buf, FramingLength).WriteFrame(strings.Repeat("x", 100))

	r := NewFrameReader(&buf, FramingLength, 16)
	if _, err := r.ReadFrame(); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}

}

func TestLengthFramingWritesFramesBeyondReadLimit(t *testing.T) {
	var buf bytes.Buffer
	big := strings.Repeat("r", 3*DefaultMaxFrameSize)
	if err := NewFrameWriter(&buf, FramingLength).WriteFrame(big); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := NewFrameReader(&buf, FramingLength, 4*DefaultMaxFrameSize).ReadFrame()
	if err != nil || got != big {
		t.Fatalf("read back %d bytes, %v", len(got), err)
	}
}

func TestLengthFramingTruncatedBody(t *testing.T) {
	r := NewFrameReader(bytes.NewReader([]byte{0, 0, 0, 10, 'a', 'b'}), FramingLength, 0)
	if _, err := r.ReadFrame(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestRawFramingOneReadPerFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFrameWriter(&buf, FramingRaw).WriteFrame("ROOMS"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "ROOMS" {
		t.Fatalf("raw writer added bytes: %q", buf.String())
	}
	got, err := NewFrameReader(&buf, FramingRaw, 0).ReadFrame()
	if err != nil || got != "ROOMS" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestParseFraming(t *testing.T) {
	if f, err := ParseFraming("raw"); err != nil || f != FramingRaw {
		t.Errorf("raw: %v %v", f, err)
	}
	if _, err := ParseFraming("xml"); !errors.Is(err, ErrUnknownFraming) {
		t.Errorf("expected ErrUnknownFraming, got %v", err)
	}
}
