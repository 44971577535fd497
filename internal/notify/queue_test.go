package notify

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueue_Defaults(t *testing.T) {
	q := NewQueue(0, -1)
	assert.Equal(t, DefaultTTL, q.ttl)
	assert.Equal(t, DefaultGrace, q.grace)

	q = NewQueue(time.Second, 0)
	assert.Equal(t, time.Duration(0), q.grace, "zero grace is allowed")
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "info", Info.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "warning", Warning.String())
	assert.Equal(t, "error", Error.String())
}

func TestQueue_PushStacksWithoutDedup(t *testing.T) {
	at := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	q := NewQueue(time.Hour, 0, WithClock(func() time.Time { return at }))
	defer q.Close()

	id1 := q.Push("Process 42 terminated", Success)
	id2 := q.Push("Process 42 terminated", Success)

	require.NotEqual(t, id1, id2)
	entries := q.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Process 42 terminated", entries[0].Message)
	assert.Equal(t, Success, entries[1].Kind)
	assert.Equal(t, at, entries[0].CreatedAt)
	assert.Equal(t, time.Hour, entries[0].TTL)
	assert.False(t, entries[0].Exiting)
}

func TestQueue_ExpiresAfterTTLPlusGrace(t *testing.T) {
	q := NewQueue(30*time.Millisecond, 30*time.Millisecond)
	defer q.Close()

	q.Push("RAM cleaned", Info)

	assert.Eventually(t, func() bool {
		e := q.Entries()
		return len(e) == 1 && e[0].Exiting
	}, time.Second, 2*time.Millisecond, "entry enters grace period")

	assert.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 2*time.Millisecond)
}

func TestQueue_EntriesExpireIndependently(t *testing.T) {
	q := NewQueue(40*time.Millisecond, 0)
	defer q.Close()

	q.Push("first", Info)
	time.Sleep(25 * time.Millisecond)
	q.Push("second", Warning)

	assert.Eventually(t, func() bool {
		e := q.Entries()
		return len(e) == 1 && e[0].Message == "second"
	}, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, time.Millisecond)
}

func TestQueue_OnChange(t *testing.T) {
	q := NewQueue(10*time.Millisecond, 10*time.Millisecond)
	defer q.Close()

	var n atomic.Int32
	q.OnChange(func() {
		n.Add(1)
		_ = q.Len() // callbacks may read the queue
	})

	q.Push("hello", Info)
	// push, exit mark, removal
	assert.Eventually(t, func() bool { return n.Load() == 3 }, time.Second, time.Millisecond)
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(10*time.Millisecond, 0)
	q.Push("x", Error)
	q.Close()

	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Push("after close", Info))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, q.Len())
}
