package dash

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/karasu/internal/nav"
	"github.com/rileyhilliard/karasu/internal/processes"
)

// Key bindings as constants for consistency.
const (
	KeyQuit       = "q"
	KeyQuitAlt    = "ctrl+c"
	KeyToggleHelp = "?"
	KeyNextPage   = "tab"
	KeyPrevPage   = "shift+tab"
	KeyReload     = "R"
	KeyCleanRAM   = "C"

	KeyRefresh      = "r"
	KeyCycleLimit   = "l"
	KeyTerminate    = "x"
	KeySortName     = "n"
	KeySortPID      = "p"
	KeySortCPU      = "c"
	KeySortMemory   = "m"
	KeySelectPrev   = "up"
	KeySelectPrevK  = "k"
	KeySelectNext   = "down"
	KeySelectNextJ  = "j"
	KeyConfirm      = "y"
	KeyConfirmEnter = "enter"
	KeyDecline      = "n"
	KeyEscape       = "esc"
	KeyFocusInput   = "i"
)

// pageKeys maps the number row to pages.
var pageKeys = map[string]nav.Page{
	"1": nav.Dashboard,
	"2": nav.Voice,
	"3": nav.System,
	"4": nav.AI,
	"5": nav.Settings,
}

// sortKeys maps the sort shortcuts to table columns.
var sortKeys = map[string]processes.Column{
	KeySortName:   processes.ByName,
	KeySortPID:    processes.ByPID,
	KeySortCPU:    processes.ByCPU,
	KeySortMemory: processes.ByMemory,
}

// quickKeys maps F1-F4 to QuickCommands.
var quickKeys = map[string]int{"f1": 0, "f2": 1, "f3": 2, "f4": 3}

// HandleKeyMsg processes keyboard input and returns the command to run.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyQuitAlt {
		m.quitting = true
		return true, tea.Quit
	}

	// An open confirmation swallows every other key.
	if m.pending != nil {
		switch key {
		case KeyConfirm, KeyConfirmEnter:
			p := m.pending
			m.pending = nil
			return true, m.confirmCmd(p)
		case KeyDecline, KeyEscape:
			_ = m.pending.Cancel()
			m.pending = nil
		}
		return true, nil
	}

	if m.inputFocused() {
		return m.handleInputKey(msg)
	}

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyEscape {
		m.showHelp = false
		return true, nil
	}

	if p, ok := pageKeys[key]; ok {
		return true, m.navigateCmd(p)
	}
	if i, ok := quickKeys[key]; ok {
		return true, m.commandCmd(QuickCommands[i])
	}

	switch key {
	case KeyQuit:
		m.quitting = true
		return true, tea.Quit
	case KeyNextPage:
		return true, m.navigateCmd(m.view.Page.Next())
	case KeyPrevPage:
		return true, m.navigateCmd(prevPage(m.view.Page))
	case KeyReload:
		return true, m.reloadCmd()
	case KeyCleanRAM:
		return true, m.cleanRAMCmd()
	}

	switch m.view.Page {
	case nav.Dashboard:
		return m.handleDashboardKey(key)
	case nav.AI:
		if key == KeyFocusInput || key == KeyConfirmEnter {
			m.input.Focus()
			return true, nil
		}
	case nav.Settings:
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		return true, cmd
	}
	return false, nil
}

func (m *Model) handleDashboardKey(key string) (bool, tea.Cmd) {
	if col, ok := sortKeys[key]; ok {
		return true, m.sortCmd(col)
	}

	switch key {
	case KeySelectPrev, KeySelectPrevK:
		if m.cursor > 0 {
			m.cursor--
		}
		return true, nil
	case KeySelectNext, KeySelectNextJ:
		if m.cursor < len(m.procs.Items)-1 {
			m.cursor++
		}
		return true, nil
	case KeyRefresh:
		return true, m.refreshCmd()
	case KeyCycleLimit:
		return true, m.cycleLimitCmd()
	case KeyTerminate:
		if m.cursor < 0 || m.cursor >= len(m.procs.Items) {
			return true, nil
		}
		m.pending = m.app.Processes().RequestTermination(m.procs.Items[m.cursor].PID)
		return true, nil
	}
	return false, nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case KeyEscape:
		m.input.Blur()
		return true, nil
	case KeyNextPage:
		m.input.Blur()
		return true, m.navigateCmd(m.view.Page.Next())
	case KeyConfirmEnter:
		text := m.input.Value()
		if text == "" || m.chatBusy {
			return true, nil
		}
		m.input.Reset()
		m.chatBusy = true
		return true, m.chatCmd(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return true, cmd
}

func prevPage(p nav.Page) nav.Page {
	for i, q := range nav.Pages {
		if q == p {
			return nav.Pages[(i+len(nav.Pages)-1)%len(nav.Pages)]
		}
	}
	return nav.Dashboard
}
