package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/logger"
	"github.com/rileyhilliard/karasu/internal/schedule"
)

// DefaultPollInterval is the metrics cadence.
const DefaultPollInterval = 5 * time.Second

// MetricsSource fetches one metrics snapshot.
type MetricsSource interface {
	Metrics(ctx context.Context) (*backend.MetricsResponse, error)
}

// Poller fetches metrics, appends them to the Store and keeps the formatted
// Display current. At most one fetch is in flight; a cycle that finds the
// previous fetch still pending is skipped.
type Poller struct {
	src      MetricsSource
	store    *Store
	active   func() bool
	bootTime func() time.Time
	onSample func(Sample, Display)
	now      func() time.Time
	log      logger.Logger

	inflight atomic.Bool

	mu      sync.RWMutex
	display Display
	hasData bool
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithActive gates polling on the consuming view being visible.
func WithActive(fn func() bool) PollerOption {
	return func(p *Poller) { p.active = fn }
}

// WithBootTime supplies the host boot time for the uptime estimate. A zero
// time falls back to time since the first sample of this session.
func WithBootTime(fn func() time.Time) PollerOption {
	return func(p *Poller) { p.bootTime = fn }
}

// WithOnSample registers a callback run after each accepted sample while the
// view is still active.
func WithOnSample(fn func(Sample, Display)) PollerOption {
	return func(p *Poller) { p.onSample = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) PollerOption {
	return func(p *Poller) { p.now = fn }
}

// WithLogger sets the logger for skipped cycles.
func WithLogger(l logger.Logger) PollerOption {
	return func(p *Poller) { p.log = l }
}

// NewPoller creates a poller writing into store.
func NewPoller(src MetricsSource, store *Store, opts ...PollerOption) *Poller {
	p := &Poller{
		src:     src,
		store:   store,
		active:  func() bool { return true },
		now:     time.Now,
		log:     logger.Noop(),
		display: Placeholder(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the history the poller appends to.
func (p *Poller) Store() *Store { return p.store }

// Poll runs one cycle and reports whether a sample was recorded. Failures
// leave the history untouched.
func (p *Poller) Poll(ctx context.Context) bool {
	if !p.active() {
		return false
	}
	if !p.inflight.CompareAndSwap(false, true) {
		p.log.Debug("metrics: previous fetch still pending, skipping cycle")
		return false
	}
	defer p.inflight.Store(false)

	m, err := p.src.Metrics(ctx)
	if err != nil {
		p.log.Debug("metrics: %s", errors.Short(err))
		return false
	}

	now := p.now()
	sample := NewSample(m.CPU.Percent, m.RAM.Percent, m.Disk.Percent, m.Processes, now)
	p.store.Append(sample)

	display := NewDisplay(m, p.uptime(now))
	p.mu.Lock()
	p.display = display
	p.hasData = true
	p.mu.Unlock()

	if p.onSample != nil && p.active() {
		p.onSample(sample, display)
	}
	return true
}

// Display returns the most recent formatted values. ok is false until the
// first successful poll, in which case the placeholder is returned.
func (p *Poller) Display() (d Display, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.display, p.hasData
}

// Task wraps Poll in a scheduled task that runs immediately on start.
func (p *Poller) Task(interval time.Duration) *schedule.Task {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return schedule.Every("metrics", interval, func(ctx context.Context) {
		p.Poll(ctx)
	}, schedule.Immediately(), schedule.WithLogger(p.log))
}

func (p *Poller) uptime(now time.Time) time.Duration {
	if p.bootTime != nil {
		if bt := p.bootTime(); !bt.IsZero() {
			return now.Sub(bt)
		}
	}
	first := p.store.FirstCapturedAt()
	if first.IsZero() {
		return 0
	}
	return now.Sub(first)
}
