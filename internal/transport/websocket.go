package transport

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport carries the line protocol over a WebSocket connection
// for servers reachable only through an HTTP front. Each WebSocket message
// holds one or more raw protocol bytes; leftover bytes from a message larger
// than the caller's buffer are kept for the next Read, so the stream looks
// identical to TCP from the decoder's point of view.
type WebSocketTransport struct {
	conn    *websocket.Conn
	readBuf []byte

	closeOnce sync.Once
	closeErr  error
}

// DialWebSocket connects to the server at url (ws:// or wss://).
func DialWebSocket(url string, timeout time.Duration) (*WebSocketTransport, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
		conn.Close()
		return nil, fmt.Errorf("unexpected handshake status %d from %s", resp.StatusCode, url)
	}
	return &WebSocketTransport{conn: conn}, nil
}

// NewWebSocketTransport wraps an established WebSocket connection.
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{conn: conn}
}

// Read returns the next available bytes, reading a new WebSocket message
// only once the previous one is fully consumed.
func (t *WebSocketTransport) Read(p []byte) (int, error) {
	for len(t.readBuf) == 0 {
		_, message, err := t.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		t.readBuf = message
	}

	n := copy(p, t.readBuf)
	t.readBuf = t.readBuf[n:]
	return n, nil
}

// Write sends raw bytes to the server as a single text message.
func (t *WebSocketTransport) Write(p []byte) error {
	return t.conn.WriteMessage(websocket.TextMessage, p)
}

// Close closes the WebSocket connection.
func (t *WebSocketTransport) Close() error {
	t.closeOnce.Do(func() {
		// Best effort close handshake before dropping the connection
		deadline := time.Now().Add(time.Second)
		t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

// RemoteAddr returns the server address as a string.
func (t *WebSocketTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
