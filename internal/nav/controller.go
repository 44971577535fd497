// Package nav selects the active page and sequences its loading.
//
// Each navigation moves through Loading to Content or Error. The loading
// placeholder is published before any I/O. Content appears after a short
// cosmetic delay and then the page initializers run. A later navigation
// supersedes an earlier one: the earlier load is cancelled and, should it
// still finish, its result is dropped.
package nav

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/logger"
)

// DefaultDelay is the pause between a successful load and showing it.
const DefaultDelay = 300 * time.Millisecond

// Phase is the navigation state of the current page.
type Phase int

const (
	Idle Phase = iota
	Loading
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Loaded:
		return "content"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

// View is what the UI renders.
type View struct {
	Page    Page
	Phase   Phase
	Content Content
	// Err is set in the Failed phase.
	Err error
	// Seq identifies the navigation that produced this view.
	Seq uint64
}

// Controller is the navigation state machine. Safe for concurrent use.
type Controller struct {
	loaders Loaders
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	log     logger.Logger

	mu     sync.Mutex
	view   View
	seq    uint64
	cancel context.CancelFunc
	inits  map[Page][]func(ctx context.Context)
	subs   []func(View)
}

// Option configures a Controller.
type Option func(*Controller)

// WithDelay sets the cosmetic delay.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

// WithSleep replaces the delay implementation.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.sleep = fn }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController creates an idle controller.
func NewController(loaders Loaders, opts ...Option) *Controller {
	c := &Controller{
		loaders: loaders,
		delay:   DefaultDelay,
		sleep:   sleepCtx,
		log:     logger.Noop(),
		inits:   make(map[Page][]func(ctx context.Context)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnInit registers fn to run each time p finishes loading successfully.
func (c *Controller) OnInit(p Page, fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inits[p] = append(c.inits[p], fn)
}

// Subscribe registers fn for every published view, including the loading
// placeholder. fn runs without the controller lock held.
func (c *Controller) Subscribe(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Current returns the current view.
func (c *Controller) Current() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Active returns the page being shown or loaded.
func (c *Controller) Active() Page {
	return c.Current().Page
}

// IsActive reports whether p is showing its content. Pollers use this to
// decide whether their results should be rendered.
func (c *Controller) IsActive(p Page) bool {
	v := c.Current()
	return v.Page == p && v.Phase == Loaded
}

// Navigate loads p and returns the view it settled in. If a newer
// navigation superseded this one, the returned view is the newer one's
// current state and nothing from this load was published.
func (c *Controller) Navigate(ctx context.Context, p Page) View {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	lctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.view = View{Page: p, Phase: Loading, Content: Content{Page: p, Title: p.Title()}, Seq: seq}
	placeholder := c.view
	c.mu.Unlock()

	c.publish(placeholder)
	c.log.Debug("nav: loading %s (#%d)", p, seq)

	content, err := c.load(lctx, p)
	if err == nil {
		err = c.sleep(lctx, c.delay)
	}

	c.mu.Lock()
	if seq != c.seq {
		current := c.view
		c.mu.Unlock()
		c.log.Debug("nav: dropping superseded load of %s (#%d)", p, seq)
		return current
	}

	if err != nil {
		c.view = View{
			Page:    p,
			Phase:   Failed,
			Content: Content{Page: p, Title: p.Title()},
			Err: errors.WrapWithCode(err, errors.ErrRender,
				"Failed to load "+p.Title(),
				"Press R to reload"),
			Seq: seq,
		}
	} else {
		content.Page = p
		if content.Title == "" {
			content.Title = p.Title()
		}
		c.view = View{Page: p, Phase: Loaded, Content: content, Seq: seq}
	}
	final := c.view
	inits := append([]func(context.Context){}, c.inits[p]...)
	c.mu.Unlock()

	c.publish(final)
	if final.Phase == Failed {
		c.log.Warn("nav: %s failed: %s", p, errors.Short(err))
		return final
	}
	for _, fn := range inits {
		fn(lctx)
	}
	return final
}

// Reload navigates to the current page again. Used by the error panel.
func (c *Controller) Reload(ctx context.Context) View {
	return c.Navigate(ctx, c.Active())
}

// Close cancels any load in progress.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) load(ctx context.Context, p Page) (content Content, err error) {
	l := c.loaders.For(p)
	if l == nil {
		return Content{}, errors.New(errors.ErrRender, "No content for page "+p.String(), "")
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrRender, "Page construction panicked", "")
			c.log.Error("nav: loader for %s panicked: %v", p, r)
		}
	}()
	content, err = l.Load(ctx)
	if err != nil && stderrors.Is(err, context.Canceled) {
		c.log.Debug("nav: load of %s cancelled", p)
	}
	return content, err
}

func (c *Controller) publish(v View) {
	c.mu.Lock()
	subs := make([]func(View), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}
