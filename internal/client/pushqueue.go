package client

import "sync"

// pushQueue is the unbounded FIFO between the listener and the application's
// polling loop. Appends never block, so the listener is never back-pressured
// by a slow consumer.
type pushQueue struct {
	mu   sync.Mutex
	msgs []PushMessage
}

func newPushQueue() *pushQueue {
	return &pushQueue{}
}

// put appends a message to the queue.
func (q *pushQueue) put(msg PushMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
}

// next removes and returns the oldest message. The second return value is
// false when the queue is empty.
func (q *pushQueue) next() (PushMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.msgs) == 0 {
		return PushMessage{}, false
	}
	msg := q.msgs[0]
	q.msgs = q.msgs[1:]
	return msg, true
}

// size returns the number of queued messages.
func (q *pushQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}
