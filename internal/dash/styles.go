package dash

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/karasu/internal/health"
	"github.com/rileyhilliard/karasu/internal/notify"
	"github.com/rileyhilliard/karasu/internal/ui"
)

// Layout constants
const (
	cardWidth      = 24
	sparklineWidth = 20
	barWidth       = 18
	minWideLayout  = 4*(cardWidth+3) + 2
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ui.ColorAccent).
			Bold(true)

	pageTabStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Padding(0, 1)

	pageTabActiveStyle = lipgloss.NewStyle().
				Foreground(ui.ColorAccent).
				Bold(true).
				Underline(true).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorMuted).
			Padding(0, 1).
			Width(cardWidth).
			MarginRight(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)

	valueStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(ui.ColorSecondary).
			Bold(true).
			MarginTop(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorWarning).
			Foreground(ui.ColorWarning).
			Bold(true).
			Padding(0, 1)

	errorPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorError).
			Padding(1, 2)

	bodyStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary).
			Padding(0, 1)

	chatUserStyle = lipgloss.NewStyle().
			Foreground(ui.ColorInfo).
			Bold(true)

	chatBotStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary)
)

// healthStyle colors the status bar indicator.
func healthStyle(s health.State) lipgloss.Style {
	switch s {
	case health.Connected:
		return lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	case health.Error:
		return lipgloss.NewStyle().Foreground(ui.ColorError)
	default:
		return lipgloss.NewStyle().Foreground(ui.ColorWarning)
	}
}

// healthSymbol is the status bar indicator glyph.
func healthSymbol(s health.State) string {
	switch s {
	case health.Connected:
		return ui.SymbolComplete
	case health.Error:
		return ui.SymbolFail
	default:
		return ui.SymbolProgress
	}
}

// noteStyle colors a notification by kind. Exiting entries are dimmed.
func noteStyle(k notify.Kind, exiting bool) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if exiting {
		return s.Foreground(ui.ColorMuted).Bold(false)
	}
	switch k {
	case notify.Success:
		return s.Foreground(ui.ColorSuccess)
	case notify.Warning:
		return s.Foreground(ui.ColorWarning)
	case notify.Error:
		return s.Foreground(ui.ColorError)
	default:
		return s.Foreground(ui.ColorInfo)
	}
}

func noteSymbol(k notify.Kind) string {
	switch k {
	case notify.Success:
		return ui.SymbolSuccess
	case notify.Warning:
		return ui.SymbolWarning
	case notify.Error:
		return ui.SymbolFail
	default:
		return ui.SymbolInfo
	}
}
