// Package health tracks whether the backend is reachable.
//
// The monitor starts in Checking and moves between Connected and Error on
// probe outcomes. Subscribers hear about transitions only: two failures in a
// row produce one event. There is no backoff; the fixed probe period is the
// retry.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/logger"
	"github.com/rileyhilliard/karasu/internal/schedule"
)

// DefaultInterval is the probe period.
const DefaultInterval = 10 * time.Second

// State is the backend connection state.
type State int

const (
	Checking State = iota
	Connected
	Error
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Connected:
		return "connected"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Label is the human-readable status text for the status bar.
func (s State) Label() string {
	switch s {
	case Connected:
		return "Backend connected"
	case Error:
		return "Backend unavailable"
	default:
		return "Checking backend..."
	}
}

// Transition is delivered to subscribers when the state changes.
type Transition struct {
	From  State
	To    State
	Label string
	At    time.Time
}

// Prober performs one liveness check.
type Prober interface {
	Health(ctx context.Context) (*backend.HealthResponse, error)
}

// Monitor is the health state machine. Safe for concurrent use.
type Monitor struct {
	prober Prober
	log    logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   State
	version string
	subs    []func(Transition)
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger for probe outcomes.
func WithLogger(l logger.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

// WithClock replaces time.Now for transition timestamps.
func WithClock(fn func() time.Time) Option {
	return func(m *Monitor) { m.now = fn }
}

// NewMonitor creates a monitor in the Checking state.
func NewMonitor(p Prober, opts ...Option) *Monitor {
	m := &Monitor{
		prober: p,
		log:    logger.Noop(),
		now:    time.Now,
		state:  Checking,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers fn for every future transition. Callbacks run on the
// probing goroutine after the state is updated.
func (m *Monitor) Subscribe(fn func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Label returns the status text for the current state.
func (m *Monitor) Label() string {
	return m.State().Label()
}

// Version returns the backend version from the last successful probe.
func (m *Monitor) Version() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// Probe runs one liveness check, applies the outcome and returns the
// resulting state. A response that cannot be parsed counts as a failure.
// A probe abandoned because ctx ended leaves the state unchanged.
func (m *Monitor) Probe(ctx context.Context) State {
	resp, err := m.prober.Health(ctx)
	if err != nil {
		if ctx.Err() != nil {
			m.log.Debug("health: probe abandoned: %v", ctx.Err())
			return m.State()
		}
		m.log.Debug("health: probe failed: %s", errors.Short(err))
		return m.apply(Error, "")
	}
	return m.apply(Connected, resp.Version)
}

func (m *Monitor) apply(next State, version string) State {
	m.mu.Lock()
	prev := m.state
	m.state = next
	if version != "" {
		m.version = version
	}
	if prev == next {
		m.mu.Unlock()
		return next
	}
	subs := make([]func(Transition), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	m.log.Info("health: %s -> %s", prev, next)
	tr := Transition{From: prev, To: next, Label: next.Label(), At: m.now()}
	for _, fn := range subs {
		fn(tr)
	}
	return next
}

// Task wraps Probe in a scheduled task that runs immediately on start.
func (m *Monitor) Task(interval time.Duration) *schedule.Task {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return schedule.Every("health", interval, func(ctx context.Context) {
		m.Probe(ctx)
	}, schedule.Immediately(), schedule.WithLogger(m.log))
}
