// Package processes holds the process table state and the destructive
// actions issued from it.
//
// The backend returns up to limit rows ranked by a sort hint; the table
// re-sorts them locally so the direction, which the backend never sees, is
// honoured. A failed fetch keeps the last rows on screen. Termination is a
// two-step protocol: RequestTermination returns a Pending which must be
// confirmed before the backend is called.
package processes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/logger"
	"github.com/rileyhilliard/karasu/internal/notify"
	"github.com/rileyhilliard/karasu/internal/schedule"
)

// Source is the slice of the backend the table needs.
type Source interface {
	Processes(ctx context.Context, limit int, sortBy string) ([]backend.ProcessInfo, error)
	KillProcess(ctx context.Context, pid int) (*backend.ActionResponse, error)
}

// Notifier receives outcome messages for destructive actions.
type Notifier interface {
	Push(message string, kind notify.Kind) string
}

// State is a point-in-time copy of the table.
type State struct {
	// Items are ordered by SortColumn and SortDirection.
	Items         []backend.ProcessInfo
	SortColumn    Column
	SortDirection Direction
	Limit         int
	UpdatedAt     time.Time
	Loaded        bool
	// Rev increases with every change. Observers receiving states out of
	// order keep the highest.
	Rev uint64
}

// Controller owns the process table. Safe for concurrent use.
type Controller struct {
	src      Source
	notes    Notifier
	log      logger.Logger
	now      func() time.Time
	onChange func(State)

	mu        sync.Mutex
	items     []backend.ProcessInfo
	col       Column
	dir       Direction
	limit     int
	updatedAt time.Time
	loaded    bool
	rev       uint64
	seq       uint64
	sortRev   uint64
	pending   *Pending
}

// Option configures a Controller.
type Option func(*Controller)

// WithInitial sets the starting limit and sort column.
func WithInitial(limit int, col Column) Option {
	return func(c *Controller) {
		if limit > 0 {
			c.limit = limit
		}
		c.col = col
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithOnChange registers a callback run after every state change, outside
// the controller lock.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(c *Controller) { c.now = fn }
}

// NewController creates an empty table sorted by CPU, descending, showing
// the first of Limits.
func NewController(src Source, notes Notifier, opts ...Option) *Controller {
	c := &Controller{
		src:   src,
		notes: notes,
		log:   logger.Noop(),
		now:   time.Now,
		col:   ByCPU,
		dir:   Desc,
		limit: Limits[0],
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the sorted table.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Items:         Sorted(c.items, c.col, c.dir),
		SortColumn:    c.col,
		SortDirection: c.dir,
		Limit:         c.limit,
		UpdatedAt:     c.updatedAt,
		Loaded:        c.loaded,
		Rev:           c.rev,
	}
}

// Refresh fetches up to limit rows ranked by col. On success the rows,
// limit and column are replaced; a new column starts descending. A SetSort
// made while the fetch was in flight wins over col. On failure nothing
// changes. A fetch overtaken by a later Refresh or Invalidate is discarded
// and reported as ErrStale.
func (c *Controller) Refresh(ctx context.Context, limit int, col Column) error {
	c.mu.Lock()
	c.seq++
	seq, sortRev := c.seq, c.sortRev
	c.mu.Unlock()

	items, err := c.src.Processes(ctx, limit, col.String())
	if err != nil {
		c.log.Debug("processes: refresh failed: %s", errors.Short(err))
		return err
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.log.Debug("processes: discarding superseded fetch #%d", seq)
		return errors.New(errors.ErrStale, "Process list superseded by a newer request", "")
	}
	c.items = items
	c.limit = limit
	if sortRev == c.sortRev && col != c.col {
		c.col = col
		c.dir = Desc
	}
	c.updatedAt = c.now()
	c.loaded = true
	c.rev++
	st := c.stateLocked()
	c.mu.Unlock()

	c.changed(st)
	return nil
}

// RefreshCurrent refreshes with the current limit and column.
func (c *Controller) RefreshCurrent(ctx context.Context) error {
	c.mu.Lock()
	limit, col := c.limit, c.col
	c.mu.Unlock()
	return c.Refresh(ctx, limit, col)
}

// CycleLimit refreshes with the next limit from Limits.
func (c *Controller) CycleLimit(ctx context.Context) error {
	c.mu.Lock()
	limit, col := NextLimit(c.limit), c.col
	c.mu.Unlock()
	return c.Refresh(ctx, limit, col)
}

// SetSort selects col. Selecting the current column flips the direction;
// any other column starts descending. No network call is made.
func (c *Controller) SetSort(col Column) State {
	c.mu.Lock()
	c.rev++
	c.sortRev++
	if col == c.col {
		c.dir = c.dir.Flip()
	} else {
		c.col = col
		c.dir = Desc
	}
	st := c.stateLocked()
	c.mu.Unlock()

	c.changed(st)
	return st
}

// Invalidate makes every in-flight fetch stale. Called when a new dashboard
// instance takes over the table.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
}

// Task refreshes the current view on a fixed period while active reports
// true.
func (c *Controller) Task(interval time.Duration, active func() bool) *schedule.Task {
	return schedule.Every("processes", interval, func(ctx context.Context) {
		if active != nil && !active() {
			return
		}
		_ = c.RefreshCurrent(ctx)
	}, schedule.WithLogger(c.log))
}

// RequestTermination starts the confirmation step for pid. It replaces any
// earlier pending request.
func (c *Controller) RequestTermination(pid int) *Pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := ""
	for _, it := range c.items {
		if it.PID == pid {
			name = it.Name
			break
		}
	}
	p := &Pending{c: c, pid: pid, name: name}
	c.pending = p
	return p
}

// PendingTermination returns the outstanding request, or nil.
func (c *Controller) PendingTermination() *Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Controller) takePending(p *Pending) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != p {
		return false
	}
	c.pending = nil
	return true
}

func (c *Controller) changed(st State) {
	if c.onChange != nil {
		c.onChange(st)
	}
}

// Pending is an unconfirmed termination. Exactly one of Confirm or Cancel
// takes effect.
type Pending struct {
	c    *Controller
	pid  int
	name string
}

// PID returns the target process id.
func (p *Pending) PID() int { return p.pid }

// Name returns the target process name, if it was in the table.
func (p *Pending) Name() string { return p.name }

// Prompt is the confirmation question.
func (p *Pending) Prompt() string {
	if p.name != "" {
		return fmt.Sprintf("Terminate %s (PID %d)?", p.name, p.pid)
	}
	return fmt.Sprintf("Terminate process %d?", p.pid)
}

// Confirm issues the kill. On success a success notification is pushed and
// the table is refreshed once with the limit and column in effect before the
// kill. On failure an error notification is pushed and the table is left as
// it was.
func (p *Pending) Confirm(ctx context.Context) error {
	c := p.c
	if !c.takePending(p) {
		return errors.New(errors.ErrStale, "Termination request is no longer pending", "")
	}

	c.mu.Lock()
	limit, col := c.limit, c.col
	c.mu.Unlock()

	resp, err := c.src.KillProcess(ctx, p.pid)
	if err != nil {
		c.log.Error("processes: kill %d failed: %s", p.pid, errors.Short(err))
		c.notes.Push(fmt.Sprintf("Failed to terminate process %d: %s", p.pid, errors.Short(err)), notify.Error)
		return err
	}

	msg := resp.Message()
	if msg == "" {
		msg = fmt.Sprintf("Process %d terminated", p.pid)
	}
	c.log.Warn("processes: terminated pid %d", p.pid)
	c.notes.Push(msg, notify.Success)

	if err := c.Refresh(ctx, limit, col); err != nil {
		c.log.Debug("processes: refresh after kill: %s", errors.Short(err))
	}
	return nil
}

// Cancel abandons the request without contacting the backend.
func (p *Pending) Cancel() error {
	if !p.c.takePending(p) {
		return nil
	}
	p.c.log.Info("processes: termination of %d cancelled", p.pid)
	return errors.New(errors.ErrCancelled, "Termination cancelled", "")
}
