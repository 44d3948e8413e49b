package client

import (
	"errors"
	"fmt"
)

// ErrConnectionClosed reports that the stream ended or an I/O operation
// failed. Pending blocking waits resolve with it, and every network
// operation on a closed client fails fast with it.
var ErrConnectionClosed = errors.New("connection closed")

// ErrAlreadyConnected reports a Connect call on a client that already has a
// live connection. One client drives exactly one connection.
var ErrAlreadyConnected = errors.New("already connected")

// ErrIndexOutOfRange reports a card index outside the current hand or stage.
var ErrIndexOutOfRange = errors.New("card index out of range")

// ProtocolError carries the server's own err reply. The message text is
// server-defined and passed through verbatim.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("server rejected command: %s", e.Message)
}
