package dash

import (
	"context"
	"strconv"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/bridge"
	"github.com/rileyhilliard/karasu/internal/config"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/health"
	"github.com/rileyhilliard/karasu/internal/logger"
	"github.com/rileyhilliard/karasu/internal/nav"
	"github.com/rileyhilliard/karasu/internal/notify"
	"github.com/rileyhilliard/karasu/internal/processes"
	"github.com/rileyhilliard/karasu/internal/schedule"
	"github.com/rileyhilliard/karasu/internal/sysinfo"
	"github.com/rileyhilliard/karasu/internal/telemetry"
	"golang.org/x/time/rate"
)

// Backend is the slice of the backend client the dashboard drives.
type Backend interface {
	health.Prober
	telemetry.MetricsSource
	processes.Source
	sysinfo.Source
	Command(ctx context.Context, text string) (*backend.CommandResponse, error)
	Chat(ctx context.Context, message string, chatContext any) (*backend.ChatResponse, error)
	CleanRAM(ctx context.Context) (*backend.ActionResponse, error)
}

// QuickCommands are the preset commands bound to F1-F4.
var QuickCommands = []string{"system info", "time", "open browser", "screenshot"}

// StartupMessage is pushed the first time the dashboard is shown.
const StartupMessage = "karasu started"

// App owns the background services behind the dashboard and forwards
// their events to the Bubble Tea program.
type App struct {
	cfg *config.Config
	be  Backend
	log logger.Logger

	notes   *notify.Queue
	health  *health.Monitor
	metrics *telemetry.Poller
	procs   *processes.Controller
	nav     *nav.Controller
	info    *sysinfo.Cache
	router  *bridge.Router
	refresh *rate.Limiter

	bridgePath string
	navSleep   func(ctx context.Context, d time.Duration) error
	started    sync.Once

	mu     sync.RWMutex
	send   func(tea.Msg)
	ctx    context.Context
	cancel context.CancelFunc
	tasks  []*schedule.Task
	wg     sync.WaitGroup
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger shared by every service.
func WithLogger(l logger.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithBridge serves the host message bridge on a unix socket at path.
func WithBridge(path string) Option {
	return func(a *App) { a.bridgePath = path }
}

// WithNavSleep replaces the cosmetic navigation delay. Used in tests.
func WithNavSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(a *App) { a.navSleep = fn }
}

// NewApp assembles the services from cfg. Nothing runs until Start.
func NewApp(cfg *config.Config, be Backend, opts ...Option) (*App, error) {
	a := &App{
		cfg: cfg,
		be:  be,
		log: logger.Noop(),
		ctx: context.Background(),
	}
	for _, opt := range opts {
		opt(a)
	}

	col, err := processes.ParseColumn(cfg.Processes.Sort)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid value for processes.sort: "+cfg.Processes.Sort,
			"Use one of: name, pid, cpu, memory")
	}

	info, err := sysinfo.New(be, sysinfo.DefaultTTL, sysinfo.WithLogger(a.log))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Failed to create system info cache", "")
	}
	a.info = info

	a.notes = notify.NewQueue(cfg.Notify.TTL, cfg.Notify.Grace)
	a.health = health.NewMonitor(be, health.WithLogger(a.log))
	a.metrics = telemetry.NewPoller(be, telemetry.NewStore(cfg.History.Size),
		telemetry.WithActive(a.dashboardActive),
		telemetry.WithBootTime(a.info.BootTime),
		telemetry.WithOnSample(func(s telemetry.Sample, d telemetry.Display) {
			a.emit(sampleMsg{sample: s, display: d, series: a.series()})
		}),
		telemetry.WithLogger(a.log),
	)
	a.procs = processes.NewController(be, a.notes,
		processes.WithInitial(cfg.Processes.Limit, col),
		processes.WithOnChange(func(st processes.State) { a.emit(procsMsg(st)) }),
		processes.WithLogger(a.log),
	)

	navOpts := []nav.Option{nav.WithDelay(cfg.Nav.Delay), nav.WithLogger(a.log)}
	if a.navSleep != nil {
		navOpts = append(navOpts, nav.WithSleep(a.navSleep))
	}
	a.nav = nav.NewController(a.loaders(), navOpts...)

	a.refresh = rate.NewLimiter(rate.Limit(cfg.Refresh.Rate), 1)
	a.router = bridge.NewRouter(bridge.WithLogger(a.log))
	if err := a.registerBridge(); err != nil {
		return nil, err
	}

	a.health.Subscribe(func(tr health.Transition) {
		a.emit(healthMsg{transition: tr, version: a.health.Version()})
	})
	a.notes.OnChange(func() { a.emit(notesMsg(a.notes.Entries())) })
	a.nav.Subscribe(func(v nav.View) {
		if v.Phase == nav.Loading {
			a.procs.Invalidate()
		}
		a.emit(navMsg(v))
	})
	a.nav.OnInit(nav.Dashboard, func(ctx context.Context) {
		a.started.Do(func() { a.notes.Push(StartupMessage, notify.Info) })
		a.metrics.Poll(ctx)
		_ = a.procs.RefreshCurrent(ctx)
	})

	return a, nil
}

// Start launches the pollers, the clock and the bridge, then navigates to
// the configured start page. send receives every event for the UI.
func (a *App) Start(ctx context.Context, send func(tea.Msg)) {
	ctx, cancel := context.WithCancel(ctx)

	a.mu.Lock()
	a.send = send
	a.ctx = ctx
	a.cancel = cancel
	a.tasks = []*schedule.Task{
		a.health.Task(a.cfg.Poll.Health).Start(ctx),
		a.metrics.Task(a.cfg.Poll.Metrics).Start(ctx),
		a.procs.Task(a.cfg.Poll.Processes, a.dashboardActive).Start(ctx),
		schedule.Every("clock", time.Second, func(context.Context) {
			a.emit(clockMsg(time.Now()))
		}).Start(ctx),
	}
	a.mu.Unlock()

	if a.bridgePath != "" {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.router.ListenAndServe(ctx, a.bridgePath); err != nil {
				a.log.Warn("bridge: %v", err)
			}
		}()
	}

	start, err := nav.ParsePage(a.cfg.Nav.StartPage)
	if err != nil {
		start = nav.Dashboard
	}
	a.goNavigate(start)
}

// Stop cancels every background task and waits for them to exit.
func (a *App) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	tasks := a.tasks
	a.tasks = nil
	a.send = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, t := range tasks {
		t.Stop()
	}
	a.nav.Close()
	a.wg.Wait()
	a.notes.Close()
	a.info.Close()
}

// Navigate switches page and blocks until the page settles.
func (a *App) Navigate(p nav.Page) nav.View {
	return a.nav.Navigate(a.context(), p)
}

// Reload reloads the active page.
func (a *App) Reload() nav.View {
	return a.nav.Reload(a.context())
}

// Refresh re-polls metrics and the process table. It reports false when
// the refresh rate limit rejected the request.
func (a *App) Refresh(ctx context.Context) bool {
	if !a.refresh.Allow() {
		a.log.Debug("dash: refresh throttled")
		return false
	}
	a.metrics.Poll(ctx)
	_ = a.procs.RefreshCurrent(ctx)
	return true
}

// CleanRAM asks the backend to free memory and reports the outcome as a
// notification.
func (a *App) CleanRAM(ctx context.Context) error {
	resp, err := a.be.CleanRAM(ctx)
	if err != nil {
		a.log.Warn("dash: clean_ram failed: %s", errors.Short(err))
		a.notes.Push("RAM cleanup failed: "+errors.Short(err), notify.Error)
		return err
	}
	msg := resp.Message()
	if msg == "" {
		msg = "RAM cleaned"
	}
	a.notes.Push(msg, notify.Success)
	return nil
}

// RunCommand sends a free-text command and reports the reply as a
// notification.
func (a *App) RunCommand(ctx context.Context, text string) error {
	resp, err := a.be.Command(ctx, text)
	if err != nil {
		a.log.Debug("dash: command %q failed: %s", text, errors.Short(err))
		a.notes.Push("Command failed: "+errors.Short(err), notify.Error)
		return err
	}
	msg := resp.Response
	if msg == "" {
		msg = "Command sent: " + text
	}
	a.notes.Push(msg, notify.Success)
	return nil
}

// Chat sends message to the assistant along with the active page.
func (a *App) Chat(ctx context.Context, message string) (string, error) {
	resp, err := a.be.Chat(ctx, message, map[string]any{"page": a.nav.Active().String()})
	if err != nil {
		a.log.Debug("dash: chat failed: %s", errors.Short(err))
		return "", err
	}
	return resp.Reply(), nil
}

// Notify pushes a notification.
func (a *App) Notify(message string, kind notify.Kind) {
	a.notes.Push(message, kind)
}

// Processes returns the process table controller.
func (a *App) Processes() *processes.Controller { return a.procs }

func (a *App) dashboardActive() bool {
	return a.nav.IsActive(nav.Dashboard)
}

func (a *App) series() history {
	st := a.metrics.Store()
	return history{
		cpu:  st.Series(telemetry.CPU),
		ram:  st.Series(telemetry.RAM),
		disk: st.Series(telemetry.Disk),
	}
}

func (a *App) context() context.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ctx
}

func (a *App) goNavigate(p nav.Page) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Navigate(p)
	}()
}

func (a *App) emit(msg tea.Msg) {
	a.mu.RLock()
	send := a.send
	a.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

func (a *App) registerBridge() error {
	handlers := map[bridge.Channel]bridge.Handler{
		bridge.Command: func(m bridge.Message) {
			p := m.Payload.(*bridge.CommandPayload)
			_ = a.RunCommand(a.context(), p.Command)
		},
		bridge.Speak: func(m bridge.Message) {
			a.emit(speakMsg(m.Payload.(*bridge.SpeakPayload).Text))
		},
		bridge.Action: func(m bridge.Message) {
			a.handleAction(m.Payload.(*bridge.ActionPayload))
		},
		bridge.VoiceStart: func(bridge.Message) { a.emit(voiceMsg(true)) },
		bridge.VoiceStop:  func(bridge.Message) { a.emit(voiceMsg(false)) },
		bridge.AIChat: func(m bridge.Message) {
			p := m.Payload.(*bridge.ChatPayload)
			reply, err := a.Chat(a.context(), p.Message)
			a.emit(chatMsg{prompt: p.Message, reply: reply, err: err})
		},
		bridge.Minimize: func(bridge.Message) { a.emit(windowMsg(bridge.Minimize)) },
		bridge.Maximize: func(bridge.Message) { a.emit(windowMsg(bridge.Maximize)) },
		bridge.Close:    func(bridge.Message) { a.emit(windowMsg(bridge.Close)) },
	}
	for ch, h := range handlers {
		if err := a.router.Handle(ch, h); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) handleAction(p *bridge.ActionPayload) {
	switch p.Action {
	case backend.ActionCleanRAM:
		_ = a.CleanRAM(a.context())
	case backend.ActionKillProcess:
		pid, ok := intParam(p.Params, "pid")
		if !ok {
			a.log.Debug("bridge: kill_process without a usable pid")
			return
		}
		// The bridge can only ask; the user still has to confirm.
		a.emit(pendingMsg{pending: a.procs.RequestTermination(pid)})
	case backend.ActionGetSystemInfo:
		a.info.Invalidate()
		a.goNavigate(nav.System)
	}
}

func intParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		if v <= 0 || v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil && n > 0
	}
	return 0, false
}
