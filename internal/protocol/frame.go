// Package protocol implements the line-oriented wire format spoken by the
// Tichu server: every frame is a newline-terminated UTF-8 line of the form
// "prefix:payload". The prefix "push" marks a server-initiated notification
// whose payload is itself "topic:message"; any other prefix is the status of
// a reply to the most recent client command ("ok" or "err").
package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxFrameSize bounds the rolling decode buffer. A well-behaved server
// never comes near this; a line that exceeds it poisons the connection.
const DefaultMaxFrameSize = 64 * 1024

// PushPrefix marks a frame as a server-initiated notification.
const PushPrefix = "push"

// Reply statuses the server is known to send.
const (
	StatusOK  = "ok"
	StatusErr = "err"
)

// FrameKind distinguishes replies from notifications.
type FrameKind int

const (
	// KindResponse is a reply correlated to the most recent client command.
	KindResponse FrameKind = iota
	// KindPush is an unsolicited server notification.
	KindPush
)

// Frame is one decoded unit of the wire protocol.
type Frame struct {
	Kind FrameKind

	// Status holds the reply status ("ok", "err", ...) for KindResponse.
	Status string

	// Topic holds the notification topic for KindPush.
	Topic string

	// Payload is the text after the classifying prefix, verbatim.
	Payload string
}

// ErrFrameTooLarge is returned when the decode buffer grows past the
// configured maximum without a newline arriving.
var ErrFrameTooLarge = errors.New("protocol: frame exceeds maximum size")

// MalformedFrameError reports a line that lacks the colon-delimited structure
// the protocol requires. It is a contract violation by the server and is
// fatal for the connection.
type MalformedFrameError struct {
	Line string
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("protocol: malformed frame %q", e.Line)
}

// EncodeCommand frames an outgoing command by appending the newline
// terminator. The command must not contain a newline itself; that is a
// caller error and produces garbage on the wire.
func EncodeCommand(cmd string) []byte {
	buf := make([]byte, 0, len(cmd)+1)
	buf = append(buf, cmd...)
	return append(buf, '\n')
}

// Decoder turns a byte stream back into frames. It keeps the bytes after the
// last newline as a remainder for the next Feed call and holds no other
// state, so a fresh Decoder per connection is all the setup required.
type Decoder struct {
	buf     []byte
	maxSize int
}

// NewDecoder creates a Decoder. maxFrameSize bounds the rolling buffer;
// values <= 0 select DefaultMaxFrameSize.
func NewDecoder(maxFrameSize int) *Decoder {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Decoder{maxSize: maxFrameSize}
}

// Feed appends data to the rolling buffer and extracts every complete frame.
// Frames already decoded are returned even when a later line is malformed;
// the error tells the caller the connection is no longer trustworthy.
func (d *Decoder) Feed(data []byte) ([]Frame, error) {
	d.buf = append(d.buf, data...)

	var frames []Frame
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			break
		}
		line := string(d.buf[:idx])
		d.buf = d.buf[idx+1:]

		frame, err := parseLine(line)
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}

	if len(d.buf) > d.maxSize {
		return frames, ErrFrameTooLarge
	}
	return frames, nil
}

// Buffered returns the number of bytes waiting for a newline.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// parseLine splits one newline-stripped line into a classified Frame.
func parseLine(line string) (Frame, error) {
	prefix, payload, ok := strings.Cut(line, ":")
	if !ok {
		return Frame{}, &MalformedFrameError{Line: line}
	}

	if prefix == PushPrefix {
		// Push payloads carry their own topic prefix. A topic with no
		// message is legal ("push:yourturn:").
		topic, message, ok := strings.Cut(payload, ":")
		if !ok {
			return Frame{}, &MalformedFrameError{Line: line}
		}
		return Frame{Kind: KindPush, Topic: topic, Payload: message}, nil
	}

	return Frame{Kind: KindResponse, Status: prefix, Payload: payload}, nil
}

// ParseCardList decodes a comma-separated card list. The protocol mandates a
// trailing comma, so the final empty element is dropped, and card names are
// normalized to lower case.
func ParseCardList(payload string) []string {
	if payload == "" {
		return nil
	}
	parts := strings.Split(strings.ToLower(payload), ",")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return nil
	}
	return parts
}
