package dash

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/karasu/internal/bridge"
	"github.com/rileyhilliard/karasu/internal/health"
	"github.com/rileyhilliard/karasu/internal/nav"
	"github.com/rileyhilliard/karasu/internal/notify"
	"github.com/rileyhilliard/karasu/internal/processes"
	"github.com/rileyhilliard/karasu/internal/telemetry"
	"github.com/rileyhilliard/karasu/internal/ui"
)

// chatLine is one entry of the AI transcript.
type chatLine struct {
	user bool
	text string
}

// Model is the Bubble Tea model for the dashboard. All backend work runs
// in commands or in the App's background tasks; Update only folds their
// results into view state.
type Model struct {
	app *App

	width  int
	height int
	now    time.Time

	view nav.View

	health  health.State
	label   string
	version string

	display telemetry.Display
	series  history

	procs   processes.State
	cursor  int
	pending *processes.Pending

	notes []notify.Entry

	listening  bool
	lastSpoken string

	chat     []chatLine
	chatBusy bool
	input    textinput.Model

	spinner  spinner.Model
	settings viewport.Model

	showHelp  bool
	minimized bool
	quitting  bool
}

// NewModel creates the dashboard model for app.
func NewModel(app *App) Model {
	in := textinput.New()
	in.Placeholder = "Ask about this machine..."
	in.CharLimit = 4000
	in.Prompt = "> "

	return Model{
		app:      app,
		now:      time.Now(),
		view:     nav.View{Page: nav.Dashboard, Phase: nav.Idle},
		health:   health.Checking,
		label:    health.Checking.Label(),
		display:  telemetry.Placeholder(),
		procs:    app.Processes().State(),
		input:    in,
		spinner:  ui.NewSpinner(),
		settings: viewport.New(80, 20),
	}
}

// Init starts the spinner. Data arrives from the App's tasks.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-6, 10)
		m.settings.Width = msg.Width
		m.settings.Height = max(msg.Height-8, 3)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clockMsg:
		m.now = time.Time(msg)

	case healthMsg:
		m.health = msg.transition.To
		m.label = msg.transition.Label
		if msg.version != "" {
			m.version = msg.version
		}

	case sampleMsg:
		m.display = msg.display
		m.series = msg.series

	case procsMsg:
		if msg.Rev >= m.procs.Rev {
			m.procs = processes.State(msg)
			m.clampCursor()
		}

	case navMsg:
		m.applyView(nav.View(msg))

	case notesMsg:
		m.notes = msg

	case pendingMsg:
		m.pending = msg.pending

	case confirmDoneMsg:
		// Outcome is reported through notifications.

	case chatMsg:
		m.chatBusy = false
		m.chat = append(m.chat, chatLine{user: true, text: msg.prompt})
		if msg.err != nil {
			m.chat = append(m.chat, chatLine{text: "Assistant unavailable."})
		} else {
			m.chat = append(m.chat, chatLine{text: msg.reply})
		}

	case speakMsg:
		m.lastSpoken = string(msg)

	case voiceMsg:
		m.listening = bool(msg)

	case windowMsg:
		switch bridge.Channel(msg) {
		case bridge.Minimize:
			m.minimized = true
		case bridge.Maximize:
			m.minimized = false
		case bridge.Close:
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.minimized {
		return m.renderStatusBar()
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderScreen()
}

// applyView accepts v unless an older navigation produced it. Views reach
// the program from several goroutines, so a superseded load's view can
// arrive after its successor's.
func (m *Model) applyView(v nav.View) {
	if v.Seq < m.view.Seq {
		return
	}
	m.view = v
	if v.Page == nav.AI && v.Phase == nav.Loaded {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	if v.Page == nav.Settings && v.Phase == nav.Loaded {
		m.settings.SetContent(v.Content.Body)
		m.settings.GotoTop()
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.procs.Items) {
		m.cursor = len(m.procs.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) inputFocused() bool {
	return m.view.Page == nav.AI && m.input.Focused()
}

// Commands. Each runs off the program goroutine; results come back as
// messages or through the App's subscriptions.

func (m Model) navigateCmd(p nav.Page) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		app.Navigate(p)
		return nil
	}
}

func (m Model) reloadCmd() tea.Cmd {
	app := m.app
	return func() tea.Msg {
		app.Reload()
		return nil
	}
}

func (m Model) refreshCmd() tea.Cmd {
	app := m.app
	return func() tea.Msg {
		app.Refresh(app.context())
		return nil
	}
}

// sortCmd changes the sort off the program goroutine: the controller
// publishes the new state through the App, which sends it back here.
func (m Model) sortCmd(col processes.Column) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		app.Processes().SetSort(col)
		return nil
	}
}

func (m Model) cycleLimitCmd() tea.Cmd {
	app := m.app
	return func() tea.Msg {
		_ = app.Processes().CycleLimit(app.context())
		return nil
	}
}

func (m Model) cleanRAMCmd() tea.Cmd {
	app := m.app
	return func() tea.Msg {
		_ = app.CleanRAM(app.context())
		return nil
	}
}

func (m Model) commandCmd(text string) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		_ = app.RunCommand(app.context(), text)
		return nil
	}
}

func (m Model) chatCmd(text string) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		reply, err := app.Chat(app.context(), text)
		return chatMsg{prompt: text, reply: reply, err: err}
	}
}

func (m Model) confirmCmd(p *processes.Pending) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		return confirmDoneMsg{err: p.Confirm(app.context())}
	}
}
