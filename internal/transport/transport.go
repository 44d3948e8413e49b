// Package transport provides the byte-stream connections the session client
// runs over. The server speaks the same newline-framed protocol regardless of
// carrier, so both the plain TCP and the WebSocket transport expose a raw
// chunked read/write surface and leave framing to the protocol package.
package transport

// Transport abstracts one persistent connection to the game server.
// Reads and writes may happen concurrently from different goroutines, but
// each side has a single owner: the listener reads, the session client writes.
type Transport interface {
	// Read fills p with the next available bytes, blocking until data
	// arrives or the connection fails.
	Read(p []byte) (int, error)

	// Write sends raw bytes to the server.
	Write(p []byte) error

	// Close closes the connection. Closing unblocks a pending Read.
	// Safe to call more than once.
	Close() error

	// RemoteAddr returns the server's address for logging.
	RemoteAddr() string
}
