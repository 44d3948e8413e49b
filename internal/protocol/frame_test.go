package protocol

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeCommand(t *testing.T) {
	got := EncodeCommand("stage 0 1")
	if string(got) != "stage 0 1\n" {
		t.Errorf("EncodeCommand = %q, want %q", got, "stage 0 1\n")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := NewDecoder(0)
	frames, err := d.Feed(EncodeCommand("ok:green 2,red k,"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	f := frames[0]
	if f.Kind != KindResponse {
		t.Errorf("Kind = %v, want KindResponse", f.Kind)
	}
	if f.Status != "ok" {
		t.Errorf("Status = %q, want %q", f.Status, "ok")
	}
	if f.Payload != "green 2,red k," {
		t.Errorf("Payload = %q, want %q", f.Payload, "green 2,red k,")
	}
}

func TestDecoderPartialReads(t *testing.T) {
	d := NewDecoder(0)

	// First chunk ends mid-frame
	frames, err := d.Feed([]byte("ok:hel"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(frames) != 0 {
		t.Fatalf("got %d frames before newline, want 0", len(frames))
	}
	if d.Buffered() != 6 {
		t.Errorf("Buffered = %d, want 6", d.Buffered())
	}

	// Second chunk completes the first frame and starts another
	frames, err = d.Feed([]byte("lo\nerr:bad"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(frames) != 1 || frames[0].Payload != "hello" {
		t.Fatalf("frames = %+v, want single frame with payload hello", frames)
	}

	frames, err = d.Feed([]byte(" move\n"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(frames) != 1 || frames[0].Status != "err" || frames[0].Payload != "bad move" {
		t.Fatalf("frames = %+v, want err frame with payload 'bad move'", frames)
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffered = %d after full drain, want 0", d.Buffered())
	}
}

func TestDecoderMultipleFramesInOneChunk(t *testing.T) {
	d := NewDecoder(0)
	frames, err := d.Feed([]byte("ok:one\npush:newtrick:red 2,\nerr:two\n"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	if frames[0].Kind != KindResponse || frames[0].Status != "ok" {
		t.Errorf("frame 0 = %+v, want ok response", frames[0])
	}
	if frames[1].Kind != KindPush || frames[1].Topic != "newtrick" || frames[1].Payload != "red 2," {
		t.Errorf("frame 1 = %+v, want newtrick push", frames[1])
	}
	if frames[2].Kind != KindResponse || frames[2].Status != "err" {
		t.Errorf("frame 2 = %+v, want err response", frames[2])
	}
}

func TestDecoderPushClassification(t *testing.T) {
	d := NewDecoder(0)
	frames, err := d.Feed([]byte("push:yourturn:\n"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	f := frames[0]
	if f.Kind != KindPush {
		t.Errorf("Kind = %v, want KindPush", f.Kind)
	}
	if f.Topic != "yourturn" {
		t.Errorf("Topic = %q, want %q", f.Topic, "yourturn")
	}
	if f.Payload != "" {
		t.Errorf("Payload = %q, want empty", f.Payload)
	}
}

func TestDecoderMalformedFrame(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no colon at all", "garbage\n"},
		{"push without topic separator", "push:yourturn\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(0)
			_, err := d.Feed([]byte(tt.line))
			var malformed *MalformedFrameError
			if !errors.As(err, &malformed) {
				t.Fatalf("Feed error = %v, want MalformedFrameError", err)
			}
		})
	}
}

func TestDecoderMalformedFrameKeepsEarlierFrames(t *testing.T) {
	d := NewDecoder(0)
	frames, err := d.Feed([]byte("ok:fine\nnocolon\n"))
	var malformed *MalformedFrameError
	if !errors.As(err, &malformed) {
		t.Fatalf("Feed error = %v, want MalformedFrameError", err)
	}
	if len(frames) != 1 || frames[0].Payload != "fine" {
		t.Errorf("frames = %+v, want the frame decoded before the bad line", frames)
	}
}

func TestDecoderFrameTooLarge(t *testing.T) {
	d := NewDecoder(16)
	_, err := d.Feed([]byte(strings.Repeat("x", 17)))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("Feed error = %v, want ErrFrameTooLarge", err)
	}
}

func TestDecoderLargeFrameWithinLimit(t *testing.T) {
	d := NewDecoder(32)
	payload := strings.Repeat("a", 20)
	frames, err := d.Feed([]byte("ok:" + payload + "\n"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(frames) != 1 || frames[0].Payload != payload {
		t.Errorf("frames = %+v, want one frame with the full payload", frames)
	}
}

func TestParseCardList(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{"trailing comma dropped and lower-cased", "GREEN 2,Red K,", []string{"green 2", "red k"}},
		{"single card", "dragon,", []string{"dragon"}},
		{"empty payload", "", nil},
		{"no trailing comma still parses", "green 2,red k", []string{"green 2", "red k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCardList(tt.payload)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCardList(%q) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}
