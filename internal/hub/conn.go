// internal/hub/conn.go
package hub

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/erilali/roomchat/internal/message"
	"github.com/gorilla/websocket"
)

// Conn is one bidirectional frame transport. ReadFrame and SetReadDeadline
// are called from a single goroutine and WriteFrame from another; Close may be
// called from anywhere, any number of times.
type Conn interface {
	ReadFrame() (string, error)
	// SetReadDeadline bounds pending and future reads; the zero time clears it.
	SetReadDeadline(t time.Time) error
	WriteFrame(frame string, timeout time.Duration) error
	Close() error
	RemoteAddr() string
}

// streamConn carries frames over a TCP (or any net.Conn) byte stream.
type streamConn struct {
	conn      net.Conn
	reader    *message.FrameReader
	writer    *message.FrameWriter
	closeOnce sync.Once
	closeErr  error
}

func newStreamConn(conn net.Conn, framing message.Framing, maxFrame int) *streamConn {
	return &streamConn{
		conn:   conn,
		reader: message.NewFrameReader(conn, framing, maxFrame),
		writer: message.NewFrameWriter(conn, framing),
	}
}

func (s *streamConn) ReadFrame() (string, error) {
	return s.reader.ReadFrame()
}

func (s *streamConn) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

func (s *streamConn) WriteFrame(frame string, timeout time.Duration) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return s.writer.WriteFrame(frame)
}

func (s *streamConn) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.conn.Close() })
	return s.closeErr
}

func (s *streamConn) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

// isExpectedCloseError checks if an error is an ordinary end of connection
// rather than something worth a warning.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, ErrClientClosed) {
		return true
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "broken pipe")
}
