package dash

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/bridge"
	"github.com/rileyhilliard/karasu/internal/config"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/nav"
	"github.com/rileyhilliard/karasu/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	down     bool
	kills    []int
	commands []string
	chats    []string
	cleaned  int
}

func (f *fakeBackend) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errors.New(errors.ErrBackend, "Backend unreachable", "")
	}
	return nil
}

func (f *fakeBackend) Health(ctx context.Context) (*backend.HealthResponse, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return &backend.HealthResponse{Status: "healthy", Version: "1.4.0"}, nil
}

func (f *fakeBackend) Metrics(ctx context.Context) (*backend.MetricsResponse, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return &backend.MetricsResponse{
		CPU:       backend.CPUStat{Percent: 45.2, Cores: 8},
		RAM:       backend.UsageStat{Percent: 72.5, FreeGB: 4.1},
		Disk:      backend.UsageStat{Percent: 33, FreeGB: 120},
		Processes: 134,
	}, nil
}

func (f *fakeBackend) Processes(ctx context.Context, limit int, sortBy string) ([]backend.ProcessInfo, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return []backend.ProcessInfo{
		{PID: 300, Name: "python", CPU: 80, Memory: 12},
		{PID: 12, Name: "bash", CPU: 1, Memory: 0.5},
	}, nil
}

func (f *fakeBackend) KillProcess(ctx context.Context, pid int) (*backend.ActionResponse, error) {
	f.mu.Lock()
	f.kills = append(f.kills, pid)
	f.mu.Unlock()
	return &backend.ActionResponse{Success: true, Result: map[string]any{"message": "killed"}}, nil
}

func (f *fakeBackend) SystemInfo(ctx context.Context) (*backend.SystemInfo, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return &backend.SystemInfo{Hostname: "kestrel", OS: "Linux", OSVersion: "6.8"}, nil
}

func (f *fakeBackend) Command(ctx context.Context, text string) (*backend.CommandResponse, error) {
	f.mu.Lock()
	f.commands = append(f.commands, text)
	f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	return &backend.CommandResponse{Success: true, Response: "It is 10:00"}, nil
}

func (f *fakeBackend) Chat(ctx context.Context, message string, chatContext any) (*backend.ChatResponse, error) {
	f.mu.Lock()
	f.chats = append(f.chats, message)
	f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	return &backend.ChatResponse{Raw: map[string]any{"response": "hello back"}}, nil
}

func (f *fakeBackend) CleanRAM(ctx context.Context) (*backend.ActionResponse, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.cleaned++
	f.mu.Unlock()
	return &backend.ActionResponse{Success: true, Result: map[string]any{"message": "Freed 512 MB"}}, nil
}

func (f *fakeBackend) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeBackend) killCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.kills)
}

// inbox records every message the App sends to the program.
type inbox struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (in *inbox) send(msg tea.Msg) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.msgs = append(in.msgs, msg)
}

func (in *inbox) has(match func(tea.Msg) bool) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, m := range in.msgs {
		if match(m) {
			return true
		}
	}
	return false
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestApp(t *testing.T, be Backend) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Notify.TTL = time.Minute
	cfg.Refresh.Rate = 1
	app, err := NewApp(cfg, be, WithNavSleep(noSleep))
	require.NoError(t, err)
	return app
}

func noteMessages(app *App) []string {
	var out []string
	for _, e := range app.notes.Entries() {
		out = append(out, e.Message)
	}
	return out
}

func TestNewApp_InvalidSort(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Processes.Sort = "threads"
	_, err := NewApp(cfg, &fakeBackend{})
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestApp_StartShowsDashboard(t *testing.T) {
	be := &fakeBackend{}
	app := newTestApp(t, be)
	in := &inbox{}

	app.Start(context.Background(), in.send)
	defer app.Stop()

	assert.Eventually(t, func() bool {
		return in.has(func(m tea.Msg) bool {
			v, ok := m.(navMsg)
			return ok && v.Page == nav.Dashboard && v.Phase == nav.Loaded
		})
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return in.has(func(m tea.Msg) bool {
			s, ok := m.(sampleMsg)
			return ok && s.display.RAM == "73%" && len(s.series.cpu) > 0
		})
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return in.has(func(m tea.Msg) bool {
			p, ok := m.(procsMsg)
			return ok && p.Loaded && len(p.Items) == 2
		})
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return in.has(func(m tea.Msg) bool {
			h, ok := m.(healthMsg)
			return ok && h.transition.Label == "Backend connected" && h.version == "1.4.0"
		})
	}, 2*time.Second, 10*time.Millisecond)

	assert.Contains(t, noteMessages(app), StartupMessage)
}

func TestApp_StartupNotificationOnce(t *testing.T) {
	app := newTestApp(t, &fakeBackend{})
	app.Navigate(nav.Dashboard)
	app.Navigate(nav.Voice)
	app.Navigate(nav.Dashboard)

	count := 0
	for _, m := range noteMessages(app) {
		if m == StartupMessage {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

// gatedBackend holds every process fetch until the test releases it. The
// first fetch returns an old row, later ones a fresh row.
type gatedBackend struct {
	*fakeBackend
	gate  chan chan struct{}
	mu    sync.Mutex
	calls int
}

func (g *gatedBackend) Processes(ctx context.Context, limit int, sortBy string) ([]backend.ProcessInfo, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()

	release := make(chan struct{})
	g.gate <- release
	<-release
	if first {
		return []backend.ProcessInfo{{PID: 1, Name: "old", CPU: 5}}, nil
	}
	return []backend.ProcessInfo{{PID: 2, Name: "fresh", CPU: 9}}, nil
}

func TestApp_ReturningToDashboardIgnoresOldFetch(t *testing.T) {
	be := &gatedBackend{fakeBackend: &fakeBackend{}, gate: make(chan chan struct{})}
	app := newTestApp(t, be)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		app.Navigate(nav.Dashboard)
	}()
	releaseFirst := <-be.gate

	require.Equal(t, nav.Loaded, app.Navigate(nav.Voice).Phase)

	secondDone := make(chan nav.View, 1)
	go func() { secondDone <- app.Navigate(nav.Dashboard) }()
	releaseSecond := <-be.gate
	close(releaseSecond)
	assert.Equal(t, nav.Loaded, (<-secondDone).Phase)

	close(releaseFirst)
	<-firstDone

	st := app.Processes().State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "fresh", st.Items[0].Name, "late response from the first visit is dropped")
}

func TestApp_SystemPageFailureShowsErrorPanel(t *testing.T) {
	be := &fakeBackend{down: true}
	app := newTestApp(t, be)

	v := app.Navigate(nav.System)
	assert.Equal(t, nav.Failed, v.Phase)
	assert.True(t, errors.IsCode(v.Err, errors.ErrRender))

	be.setDown(false)

	v = app.Reload()
	assert.Equal(t, nav.Loaded, v.Phase)
	assert.Contains(t, v.Content.Body, "kestrel")
	assert.Contains(t, v.Content.Body, "Linux 6.8")
}

func TestApp_SettingsPageRendersConfig(t *testing.T) {
	app := newTestApp(t, &fakeBackend{})
	v := app.Navigate(nav.Settings)
	require.Equal(t, nav.Loaded, v.Phase)
	assert.Contains(t, v.Content.Body, "http://localhost:5000")
}

func TestApp_CleanRAM(t *testing.T) {
	be := &fakeBackend{}
	app := newTestApp(t, be)

	require.NoError(t, app.CleanRAM(context.Background()))
	assert.Equal(t, []string{"Freed 512 MB"}, noteMessages(app))

	be.setDown(true)
	assert.Error(t, app.CleanRAM(context.Background()))
	entries := app.notes.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, notify.Error, entries[1].Kind)
}

func TestApp_RunCommand(t *testing.T) {
	be := &fakeBackend{}
	app := newTestApp(t, be)

	require.NoError(t, app.RunCommand(context.Background(), QuickCommands[1]))
	assert.Equal(t, []string{"time"}, be.commands)
	assert.Equal(t, []string{"It is 10:00"}, noteMessages(app))
}

func TestApp_RefreshIsRateLimited(t *testing.T) {
	app := newTestApp(t, &fakeBackend{})
	assert.True(t, app.Refresh(context.Background()))
	assert.False(t, app.Refresh(context.Background()))
}

func TestApp_BridgeKillNeedsConfirmation(t *testing.T) {
	be := &fakeBackend{}
	app := newTestApp(t, be)
	in := &inbox{}
	app.send = in.send

	require.True(t, app.router.Dispatch("action", []byte(`{"action":"kill_process","params":{"pid":300}}`)))

	assert.Equal(t, 0, be.killCount())
	require.True(t, in.has(func(m tea.Msg) bool {
		p, ok := m.(pendingMsg)
		return ok && p.pending.PID() == 300
	}))
}

func TestApp_BridgeChannels(t *testing.T) {
	be := &fakeBackend{}
	app := newTestApp(t, be)
	in := &inbox{}
	app.send = in.send

	assert.True(t, app.router.Dispatch("voice-start", []byte(`{}`)))
	assert.True(t, app.router.Dispatch("speak", []byte(`{"text":"hi there"}`)))
	assert.True(t, app.router.Dispatch("minimize-window", []byte(`{}`)))
	assert.True(t, app.router.Dispatch("ai-chat", []byte(`{"message":"how busy?"}`)))
	assert.False(t, app.router.Dispatch("exec", []byte(`{}`)))

	assert.True(t, in.has(func(m tea.Msg) bool { v, ok := m.(voiceMsg); return ok && bool(v) }))
	assert.True(t, in.has(func(m tea.Msg) bool { s, ok := m.(speakMsg); return ok && s == "hi there" }))
	assert.True(t, in.has(func(m tea.Msg) bool { w, ok := m.(windowMsg); return ok && bridge.Channel(w) == bridge.Minimize }))
	assert.True(t, in.has(func(m tea.Msg) bool { c, ok := m.(chatMsg); return ok && c.reply == "hello back" }))
}

func TestIntParam(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   int
		ok     bool
	}{
		{"json number", map[string]any{"pid": float64(42)}, 42, true},
		{"string", map[string]any{"pid": "42"}, 42, true},
		{"fraction", map[string]any{"pid": 4.5}, 0, false},
		{"negative", map[string]any{"pid": float64(-1)}, 0, false},
		{"missing", map[string]any{}, 0, false},
		{"garbage", map[string]any{"pid": "abc"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := intParam(tt.params, "pid")
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
