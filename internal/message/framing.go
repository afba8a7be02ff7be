package message

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Framing selects how frames are delimited on a byte stream.
type Framing string

const (
	// FramingLength prefixes every frame with its size as a 4-byte
	// big-endian integer.
	FramingLength Framing = "length"
	// FramingRaw treats each read of up to the maximum frame size as one
	// frame. Frames written back to back may be merged or split by the
	// transport; it exists for peers that speak the unframed protocol.
	FramingRaw Framing = "raw"
)

// DefaultMaxFrameSize bounds a single frame in bytes.
const DefaultMaxFrameSize = 4096

var (
	ErrFrameTooLarge  = errors.New("frame exceeds maximum size")
	ErrUnknownFraming = errors.New("unknown framing")
	ErrEmptyRawFrame  = errors.New("empty frame")
)

// ParseFraming maps a configuration value to a Framing.
func ParseFraming(s string) (Framing, error) {
	switch Framing(s) {
	case FramingLength, FramingRaw:
		return Framing(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFraming, s)
}

// FrameReader decodes frames from a stream. It is not safe for concurrent
// use; each connection has a single reader.
type FrameReader struct {
	r       io.Reader
	framing Framing
	max     int
	buf     []byte
}

// NewFrameReader returns a reader for the given framing. A non-positive maxSize
// falls back to DefaultMaxFrameSize.
func NewFrameReader(r io.Reader, framing Framing, maxSize int) *FrameReader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &FrameReader{r: r, framing: framing, max: maxSize, buf: make([]byte, maxSize)}
}

// ReadFrame blocks until a full frame is available.
func (fr *FrameReader) ReadFrame() (string, error) {
	if fr.framing == FramingRaw {
		return fr.readRaw()
	}
	return fr.readLength()
}

func (fr *FrameReader) readLength() (string, error) {
	var header [4]byte
	if _, err := io.ReadFull(fr.r, header[:]); err != nil {
		return "", err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > uint32(fr.max) {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, size, fr.max)
	}
	body := fr.buf[:size]
	if _, err := io.ReadFull(fr.r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	return string(body), nil
}

func (fr *FrameReader) readRaw() (string, error) {
	n, err := fr.r.Read(fr.buf)
	if n > 0 {
		return string(fr.buf[:n]), nil
	}
	if err == nil {
		err = ErrEmptyRawFrame
	}
	return "", err
}

// FrameWriter encodes frames onto a stream. Outbound frames are not bounded
// by the read limit: list responses grow with the number of rooms and members.
type FrameWriter struct {
	w       io.Writer
	framing Framing
}

// NewFrameWriter returns a writer for the given framing.
func NewFrameWriter(w io.Writer, framing Framing) *FrameWriter {
	return &FrameWriter{w: w, framing: framing}
}

// WriteFrame writes one frame in a single Write call.
func (fw *FrameWriter) WriteFrame(frame string) error {
	if uint64(len(frame)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(frame))
	}
	var out []byte
	if fw.framing == FramingRaw {
		out = []byte(frame)
	} else {
		out = make([]byte, 4+len(frame))
		binary.BigEndian.PutUint32(out, uint32(len(frame)))
		copy(out[4:], frame)
	}
	_, err := fw.w.Write(out)
	return err
}
