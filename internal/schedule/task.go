// Package schedule runs recurring background work as cancellable tasks.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/karasu/internal/logger"
)

// Task calls fn on a fixed interval until stopped. Cycles never overlap:
// the ticker drops ticks while a cycle is still running. A cycle that panics
// is logged and the next tick proceeds as usual.
type Task struct {
	name      string
	interval  time.Duration
	fn        func(ctx context.Context)
	immediate bool
	log       logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Task.
type Option func(*Task)

// Immediately runs the first cycle at start instead of after one interval.
func Immediately() Option {
	return func(t *Task) { t.immediate = true }
}

// WithLogger sets the logger for recovered panics.
func WithLogger(l logger.Logger) Option {
	return func(t *Task) { t.log = l }
}

// Every creates a stopped task.
func Every(name string, interval time.Duration, fn func(ctx context.Context), opts ...Option) *Task {
	t := &Task{
		name:     name,
		interval: interval,
		fn:       fn,
		log:      logger.Noop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Interval returns the task period.
func (t *Task) Interval() time.Duration { return t.interval }

// Start launches the loop and returns the task as its own handle. Starting a
// running task is a no-op. The loop ends when ctx is done or Stop is called.
func (t *Task) Start(ctx context.Context) *Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return t
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		if t.immediate {
			t.RunNow(ctx)
		}
		for {
			select {
			case <-ticker.C:
				t.RunNow(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return t
}

// Stop cancels the loop and waits for the current cycle to return. It must
// not be called from inside fn.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
}

// Running reports whether the loop is started.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// RunNow executes one cycle synchronously on the caller's goroutine.
func (t *Task) RunNow(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("task %s: cycle panicked: %v", t.name, r)
		}
	}()
	t.fn(ctx)
}
