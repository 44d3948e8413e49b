package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// echoUpgrader accepts a WebSocket connection and echoes every message back
// with an "ok:" prefix.
func echoUpgrader(t *testing.T) http.HandlerFunc {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			reply := append([]byte("ok:"), message...)
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}
		}
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocketTransportReadWrite(t *testing.T) {
	server := httptest.NewServer(echoUpgrader(t))
	defer server.Close()

	tr, err := DialWebSocket(wsURL(server), 2*time.Second)
	if err != nil {
		t.Fatalf("DialWebSocket failed: %v", err)
	}
	defer tr.Close()

	if err := tr.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	buf := make([]byte, 64)
	n, err := tr.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf[:n]) != "ok:hello\n" {
		t.Errorf("Read = %q, want %q", buf[:n], "ok:hello\n")
	}
}

func TestWebSocketTransportPartialReads(t *testing.T) {
	server := httptest.NewServer(echoUpgrader(t))
	defer server.Close()

	tr, err := DialWebSocket(wsURL(server), 2*time.Second)
	if err != nil {
		t.Fatalf("DialWebSocket failed: %v", err)
	}
	defer tr.Close()

	if err := tr.Write([]byte("abcdef\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Reply is "ok:abcdef\n" (10 bytes); drain it through a 4-byte buffer
	var got []byte
	buf := make([]byte, 4)
	for len(got) < 10 {
		n, err := tr.Read(buf)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != "ok:abcdef\n" {
		t.Errorf("reassembled read = %q, want %q", got, "ok:abcdef\n")
	}
}

func TestDialWebSocketRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websockets here", http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := DialWebSocket(wsURL(server), 2*time.Second); err == nil {
		t.Error("DialWebSocket to non-websocket endpoint succeeded, want error")
	}
}
