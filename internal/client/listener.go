package client

import (
	"errors"
	"io"
	"net"

	"github.com/opentichu/tichu/client/internal/logger"
	"github.com/opentichu/tichu/client/internal/protocol"
	"github.com/opentichu/tichu/client/internal/transport"
)

// readBufferSize is the chunk size for socket reads.
const readBufferSize = 4096

// listen is the background receive loop. It owns the read side of the
// transport for the lifetime of the connection: it decodes frames, applies
// push side effects and routes every frame to the right queue. It never
// propagates a failure into the foreground; instead it marks the client
// disconnected and closes the response channel, which resolves any pending
// blocking wait with ErrConnectionClosed.
func (c *Client) listen(tr transport.Transport, responses chan<- response, done chan struct{}) {
	defer close(done)
	defer close(responses)
	defer c.markDisconnected(tr)

	decoder := protocol.NewDecoder(c.cfg.MaxFrameSize)
	buf := make([]byte, readBufferSize)

	for {
		n, err := tr.Read(buf)
		if n > 0 {
			frames, decodeErr := decoder.Feed(buf[:n])
			for _, frame := range frames {
				if err := c.dispatch(frame, responses); err != nil {
					logger.Error("dropping connection",
						"server", tr.RemoteAddr(), "error", err)
					return
				}
			}
			if decodeErr != nil {
				// The server broke the framing contract. Recovering
				// risks desynchronizing response ordering, so the
				// connection is dropped instead.
				logger.Error("protocol violation from server, closing connection",
					"server", tr.RemoteAddr(), "error", decodeErr)
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info("server closed the connection", "server", tr.RemoteAddr())
			} else if !errors.Is(err, net.ErrClosed) {
				logger.Warning("connection read failed", "server", tr.RemoteAddr(), "error", err)
			}
			return
		}
	}
}

// markDisconnected flips the connected flag and closes the transport so the
// write side fails fast too.
func (c *Client) markDisconnected(tr transport.Transport) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	tr.Close()
}

// dispatch routes one decoded frame: replies to the response channel in
// arrival order, pushes through their side effects and into the push queue.
// A reply that arrives while the previous one is still unconsumed means the
// server broke the one-reply-per-request contract; blocking the listener on
// it would wedge the whole session, so the connection is dropped.
func (c *Client) dispatch(frame protocol.Frame, responses chan<- response) error {
	if frame.Kind == protocol.KindResponse {
		select {
		case responses <- response{status: frame.Status, payload: frame.Payload}:
			return nil
		default:
			return errors.New("unsolicited reply from server")
		}
	}
	c.handlePush(frame)
	return nil
}

// handlePush applies topic-specific side effects before enqueueing.
func (c *Client) handlePush(frame protocol.Frame) {
	switch frame.Topic {
	case TopicYourTurn:
		// A state update, not a displayable event: no queue entry.
		c.mu.Lock()
		c.turn = true
		c.mu.Unlock()
		logger.Debug("turn granted")

	case TopicClearCards:
		c.mu.Lock()
		c.hand = nil
		c.stage = nil
		c.mu.Unlock()
		c.pushes.put(PushMessage{Topic: frame.Topic, Payload: frame.Payload})

	case TopicNewTrick:
		cards := protocol.ParseCardList(frame.Payload)
		c.mu.Lock()
		recorder, sessionID := c.recorder, c.sessionID
		c.mu.Unlock()
		if recorder != nil {
			if err := recorder.RecordTrick(sessionID, cards); err != nil {
				logger.Warning("failed to record trick", "error", err)
			}
		}
		c.pushes.put(PushMessage{Topic: frame.Topic, Payload: frame.Payload, Cards: cards})

	default:
		c.pushes.put(PushMessage{Topic: frame.Topic, Payload: frame.Payload})
	}
}
