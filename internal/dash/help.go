package dash

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/karasu/internal/ui"
)

// HelpBinding represents a single keyboard shortcut entry.
type HelpBinding struct {
	Key  string
	Desc string
}

// helpBindings defines all keyboard shortcuts shown in the help overlay.
var helpBindings = []HelpBinding{
	{Key: "q / Ctrl+C", Desc: "Quit"},
	{Key: "1-5 / Tab", Desc: "Switch page"},
	{Key: "n p c m", Desc: "Sort by name, PID, CPU, memory (again to flip)"},
	{Key: "up / k", Desc: "Select previous process"},
	{Key: "down / j", Desc: "Select next process"},
	{Key: "x", Desc: "Terminate selected process (asks first)"},
	{Key: "l", Desc: "Cycle process limit (10, 20, 50)"},
	{Key: "r", Desc: "Refresh now"},
	{Key: "C", Desc: "Clean RAM"},
	{Key: "F1-F4", Desc: "System info, time, open browser, screenshot"},
	{Key: "R", Desc: "Reload page"},
	{Key: "?", Desc: "Toggle this help"},
}

var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorAccent).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(ui.ColorAccent).
			Bold(true).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary).
			Bold(true).
			Width(14)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)
)

// renderHelpOverlay renders a centered help box with keyboard shortcuts.
func (m Model) renderHelpOverlay() string {
	lines := []string{helpTitleStyle.Render("Keyboard Shortcuts"), ""}
	for _, binding := range helpBindings {
		lines = append(lines, helpKeyStyle.Render(binding.Key)+helpDescStyle.Render(binding.Desc))
	}
	lines = append(lines, "", labelStyle.Render("Press ? to close"))

	box := helpBoxStyle.Render(strings.Join(lines, "\n"))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
