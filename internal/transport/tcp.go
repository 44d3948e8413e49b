package transport

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// TCPTransport wraps a raw TCP connection to the game server.
type TCPTransport struct {
	conn net.Conn

	closeOnce sync.Once
	closeErr  error
}

// DialTCP connects to the server at address ("host:port"). A timeout of zero
// blocks until the operating system gives up.
func DialTCP(address string, timeout time.Duration) (*TCPTransport, error) {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return &TCPTransport{conn: conn}, nil
}

// NewTCPTransport wraps an existing connection. Used by tests that need both
// ends of a pipe.
func NewTCPTransport(conn net.Conn) *TCPTransport {
	return &TCPTransport{conn: conn}
}

// Read reads the next chunk of bytes from the connection (blocking).
func (t *TCPTransport) Read(p []byte) (int, error) {
	return t.conn.Read(p)
}

// Write sends raw bytes to the server.
func (t *TCPTransport) Write(p []byte) error {
	_, err := t.conn.Write(p)
	return err
}

// Close closes the underlying connection. Subsequent calls return the result
// of the first.
func (t *TCPTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

// RemoteAddr returns the server address as a string.
func (t *TCPTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
