package client

import (
	"fmt"
	"sync"
	"testing"
)

func TestPushQueueFIFO(t *testing.T) {
	q := newPushQueue()

	q.put(PushMessage{Topic: "a"})
	q.put(PushMessage{Topic: "b"})
	q.put(PushMessage{Topic: "c"})

	if q.size() != 3 {
		t.Fatalf("size = %d, want 3", q.size())
	}

	for _, want := range []string{"a", "b", "c"} {
		msg, ok := q.next()
		if !ok {
			t.Fatalf("next returned no message, want topic %q", want)
		}
		if msg.Topic != want {
			t.Errorf("topic = %q, want %q", msg.Topic, want)
		}
	}

	if _, ok := q.next(); ok {
		t.Error("next on drained queue returned a message")
	}
}

func TestPushQueueEmpty(t *testing.T) {
	q := newPushQueue()

	if q.size() != 0 {
		t.Errorf("size = %d, want 0", q.size())
	}
	if _, ok := q.next(); ok {
		t.Error("next on empty queue returned a message")
	}
}

func TestPushQueueConcurrentProducers(t *testing.T) {
	q := newPushQueue()

	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.put(PushMessage{Topic: fmt.Sprintf("p%d", p), Payload: fmt.Sprintf("%d", i)})
			}
		}(p)
	}
	wg.Wait()

	if q.size() != producers*perProducer {
		t.Fatalf("size = %d, want %d", q.size(), producers*perProducer)
	}

	// Per-producer order is preserved even under interleaving
	lastSeen := make(map[string]int)
	for {
		msg, ok := q.next()
		if !ok {
			break
		}
		var n int
		fmt.Sscanf(msg.Payload, "%d", &n)
		if last, seen := lastSeen[msg.Topic]; seen && n <= last {
			t.Fatalf("producer %s out of order: %d after %d", msg.Topic, n, last)
		}
		lastSeen[msg.Topic] = n
	}
}
