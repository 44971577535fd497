// Package notify holds short-lived advisory messages.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTTL   = 3 * time.Second
	DefaultGrace = 300 * time.Millisecond
)

// Kind is the severity of a notification.
type Kind int

const (
	Info Kind = iota
	Success
	Warning
	Error
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Entry is one notification. Exiting is set once TTL has passed and the
// entry is in its grace period before removal.
type Entry struct {
	ID        string
	Message   string
	Kind      Kind
	CreatedAt time.Time
	TTL       time.Duration
	Exiting   bool
}

// Queue stacks entries and removes each one TTL+grace after it was pushed.
// There is no dedup and no limit.
type Queue struct {
	ttl   time.Duration
	grace time.Duration
	now   func() time.Time

	mu       sync.Mutex
	entries  []Entry
	timers   map[string][]*time.Timer
	onChange func()
	closed   bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock replaces time.Now for CreatedAt.
func WithClock(fn func() time.Time) Option {
	return func(q *Queue) { q.now = fn }
}

// NewQueue creates a queue. Non-positive ttl uses DefaultTTL; negative grace
// uses DefaultGrace.
func NewQueue(ttl, grace time.Duration, opts ...Option) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if grace < 0 {
		grace = DefaultGrace
	}
	q := &Queue{
		ttl:    ttl,
		grace:  grace,
		now:    time.Now,
		timers: make(map[string][]*time.Timer),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// OnChange registers fn to run after every push, exit mark and removal.
// fn runs without the queue lock held.
func (q *Queue) OnChange(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = fn
}

// Push adds a notification and schedules its removal. Returns the entry id.
func (q *Queue) Push(message string, kind Kind) string {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ""
	}
	e := Entry{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: q.now(),
		TTL:       q.ttl,
	}
	q.entries = append(q.entries, e)
	q.timers[e.ID] = []*time.Timer{
		time.AfterFunc(q.ttl, func() { q.markExiting(e.ID) }),
		time.AfterFunc(q.ttl+q.grace, func() { q.remove(e.ID) }),
	}
	q.mu.Unlock()

	q.changed()
	return e.ID
}

// Entries returns a copy of the visible entries, oldest first.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of visible entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Close stops pending timers and drops all entries.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, ts := range q.timers {
		for _, t := range ts {
			t.Stop()
		}
	}
	q.timers = map[string][]*time.Timer{}
	q.entries = nil
	q.closed = true
}

func (q *Queue) markExiting(id string) {
	q.mu.Lock()
	found := false
	for i := range q.entries {
		if q.entries[i].ID == id {
			q.entries[i].Exiting = true
			found = true
			break
		}
	}
	q.mu.Unlock()
	if found {
		q.changed()
	}
}

func (q *Queue) remove(id string) {
	q.mu.Lock()
	found := false
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			found = true
			break
		}
	}
	delete(q.timers, id)
	q.mu.Unlock()
	if found {
		q.changed()
	}
}

func (q *Queue) changed() {
	q.mu.Lock()
	fn := q.onChange
	q.mu.Unlock()
	if fn != nil {
		fn()
	}
}
