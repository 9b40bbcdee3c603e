package osc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	var evicted []Message
	q := NewQueue(2, func(m Message) { evicted = append(evicted, m) })

	q.Enqueue(Message{Address: "/a"})
	q.Enqueue(Message{Address: "/b"})
	q.Enqueue(Message{Address: "/c"})

	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "/b", drained[0].Address)
	assert.Equal(t, "/c", drained[1].Address)

	require.Len(t, evicted, 1)
	assert.Equal(t, "/a", evicted[0].Address)
}

func TestQueueDrainEmpties(t *testing.T) {
	q := NewQueue(10, nil)
	q.Enqueue(Message{Address: "/a"})
	assert.Equal(t, 1, q.Len())

	require.Len(t, q.Drain(), 1)
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.Drain())
}

func TestQueuePreservesArrivalOrder(t *testing.T) {
	q := NewQueue(100, nil)
	for i := int32(0); i < 50; i++ {
		q.Enqueue(Message{Address: "/seq", Args: []any{i}})
	}

	drained := q.Drain()
	require.Len(t, drained, 50)
	for i, m := range drained {
		assert.Equal(t, int32(i), m.Args[0])
	}
}
