// internal/hub/websocket.go
package hub

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const webSocketCloseWait = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Any peer speaking the protocol may connect, as over TCP.
		return true
	},
}

// wsConn carries one frame per WebSocket text message.
type wsConn struct {
	conn      *websocket.Conn
	addr      string
	closeOnce sync.Once
	closeErr  error
}

func newWSConn(conn *websocket.Conn, addr string, maxFrame int) *wsConn {
	conn.SetReadLimit(int64(maxFrame))
	return &wsConn{conn: conn, addr: addr}
}

func (w *wsConn) ReadFrame() (string, error) {
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (w *wsConn) SetReadDeadline(t time.Time) error { return w.conn.SetReadDeadline(t) }

func (w *wsConn) WriteFrame(frame string, timeout time.Duration) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

func (w *wsConn) Close() error {
	w.closeOnce.Do(func() {
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(webSocketCloseWait))
		w.closeErr = w.conn.Close()
	})
	return w.closeErr
}

func (w *wsConn) RemoteAddr() string { return w.addr }

// ServeWs upgrades the HTTP connection to a WebSocket and runs a chat
// session on it until the peer disconnects.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	if !h.track() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.wg.Done()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}
	h.handleConn(newWSConn(conn, r.RemoteAddr, h.cfg.MaxFrameSize))
}
