package osc

import (
	"sync"

	"github.com/dotfeel/dotbridged/internal/config"
)

// Queue is the bounded buffer between the UDP listener and the decoder. When
// full it evicts the oldest entry, so a stalled consumer sees fresh input
// rather than stale backlog. Enqueue never blocks.
type Queue struct {
	mu      sync.Mutex
	buf     []Message
	limit   int
	onEvict func(Message)
}

// NewQueue creates a queue holding at most limit messages. onEvict, if set,
// is called outside the lock for every message dropped on overflow.
func NewQueue(limit int, onEvict func(Message)) *Queue {
	if limit < 1 {
		limit = config.DefaultQueueCapacity
	}
	return &Queue{
		buf:     make([]Message, 0, limit),
		limit:   limit,
		onEvict: onEvict,
	}
}

// Enqueue appends a message, evicting the oldest entry if the queue is full.
func (q *Queue) Enqueue(m Message) {
	var evicted *Message

	q.mu.Lock()
	if len(q.buf) >= q.limit {
		old := q.buf[0]
		copy(q.buf, q.buf[1:])
		q.buf = q.buf[:len(q.buf)-1]
		evicted = &old
	}
	q.buf = append(q.buf, m)
	q.mu.Unlock()

	if evicted != nil && q.onEvict != nil {
		q.onEvict(*evicted)
	}
}

// Drain atomically removes and returns all queued messages in arrival order.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return nil
	}
	out := q.buf
	q.buf = make([]Message, 0, q.limit)
	return out
}

// Len reports the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
