package dash

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/nav"
	"github.com/rileyhilliard/karasu/internal/processes"
	"github.com/rileyhilliard/karasu/internal/ui"
)

// Process table column widths, in table order.
var columnWidths = map[processes.Column]int{
	processes.ByPID:    8,
	processes.ByName:   28,
	processes.ByCPU:    9,
	processes.ByMemory: 11,
}

// renderScreen renders the complete dashboard view.
func (m Model) renderScreen() string {
	var b strings.Builder

	b.WriteString(m.renderPageBar())
	b.WriteString("\n")
	if notes := m.renderNotifications(); notes != "" {
		b.WriteString(notes)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	if m.pending != nil {
		b.WriteString("\n")
		b.WriteString(promptStyle.Render(m.pending.Prompt() + "  [y] yes  [n] no"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderPageBar renders the title and one tab per page.
func (m Model) renderPageBar() string {
	tabs := []string{titleStyle.Render("karasu")}
	for i, p := range nav.Pages {
		label := fmt.Sprintf("%d %s", i+1, p.Title())
		if p == m.view.Page {
			tabs = append(tabs, pageTabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, pageTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderNotifications renders the visible notifications, oldest first.
func (m Model) renderNotifications() string {
	if len(m.notes) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.notes))
	for _, n := range m.notes {
		lines = append(lines, noteStyle(n.Kind, n.Exiting).Render(noteSymbol(n.Kind)+" "+n.Message))
	}
	return strings.Join(lines, "\n")
}

// renderBody renders the active page according to its load phase.
func (m Model) renderBody() string {
	switch m.view.Phase {
	case nav.Loading:
		return bodyStyle.Render(m.spinner.View() + " Loading " + m.view.Content.Title + "...")
	case nav.Failed:
		return m.renderErrorPanel()
	case nav.Loaded:
		return m.renderPage()
	default:
		return ""
	}
}

func (m Model) renderErrorPanel() string {
	msg := "Failed to load " + m.view.Page.Title()
	if m.view.Err != nil {
		msg = errors.Short(m.view.Err)
	}
	body := lipgloss.NewStyle().Foreground(ui.ColorError).Bold(true).Render(ui.SymbolFail+" "+msg) +
		"\n\n" + labelStyle.Render("Press R to reload")
	return errorPanelStyle.Render(body)
}

func (m Model) renderPage() string {
	switch m.view.Page {
	case nav.Dashboard:
		return m.renderDashboard()
	case nav.Voice:
		return m.renderVoice()
	case nav.System:
		return bodyStyle.Render(m.view.Content.Body)
	case nav.AI:
		return m.renderChat()
	case nav.Settings:
		return m.settings.View()
	}
	return ""
}

// renderDashboard renders the metric cards and the process table.
func (m Model) renderDashboard() string {
	d := m.display
	cards := []string{
		m.renderCard("CPU", d.CPU, d.CPUPercent, m.series.cpu, d.CPULoad),
		m.renderCard("RAM", d.RAM, d.RAMPercent, m.series.ram, d.FreeRAM+" free"),
		m.renderCard("Disk", d.Disk, d.DiskPercent, m.series.disk, d.FreeDisk+" free"),
		m.renderCard("Processes", d.Processes, -1, nil, "up "+d.Uptime),
	}

	var row string
	if m.width > 0 && m.width < minWideLayout {
		row = lipgloss.JoinVertical(lipgloss.Left, cards...)
	} else {
		row = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	return row + "\n" + sectionStyle.Render("Processes") + "\n" + m.renderProcessTable()
}

// renderCard renders one metric card. A negative percent hides the bar.
func (m Model) renderCard(label, value string, percent float64, series []float64, detail string) string {
	lines := []string{labelStyle.Render(label)}

	if percent >= 0 && value != placeholder {
		lines = append(lines, lipgloss.NewStyle().Foreground(ui.ThresholdColor(percent)).Bold(true).Render(value))
		lines = append(lines, ui.RenderBar(percent, barWidth))
	} else {
		lines = append(lines, valueStyle.Render(value))
		lines = append(lines, "")
	}

	if len(series) > 0 {
		lines = append(lines, ui.RenderSparkline(series, sparklineWidth))
	} else {
		lines = append(lines, "")
	}
	lines = append(lines, labelStyle.Render(detail))

	return cardStyle.Render(strings.Join(lines, "\n"))
}

// renderProcessTable renders the table with per-cell threshold colors.
// The active sort column carries the direction arrow.
func (m Model) renderProcessTable() string {
	st := m.procs
	var b strings.Builder

	header := make([]string, 0, len(processes.Columns))
	for _, col := range processes.Columns {
		title := col.Title()
		if col == st.SortColumn {
			title += " " + st.SortDirection.Arrow()
		}
		header = append(header, cell(title, columnWidths[col], col == st.SortColumn))
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ui.ColorPrimary).Render(strings.Join(header, " ")))
	b.WriteString("\n")

	if !st.Loaded {
		b.WriteString(labelStyle.Render("  Loading processes..."))
		return b.String()
	}
	if len(st.Items) == 0 {
		b.WriteString(labelStyle.Render("  No processes"))
		return b.String()
	}

	for i, p := range st.Items {
		cells := []string{
			padRight(fmt.Sprintf("%d", p.PID), columnWidths[processes.ByPID]),
			padRight(truncate(p.Name, columnWidths[processes.ByName]), columnWidths[processes.ByName]),
			lipgloss.NewStyle().Foreground(ui.ProcessCellColor(p.CPU)).
				Render(padRight(fmt.Sprintf("%.1f", p.CPU), columnWidths[processes.ByCPU])),
			lipgloss.NewStyle().Foreground(ui.ProcessCellColor(p.Memory)).
				Render(padRight(fmt.Sprintf("%.1f", p.Memory), columnWidths[processes.ByMemory])),
		}
		line := strings.Join(cells, " ")
		if i == m.cursor {
			line = lipgloss.NewStyle().Reverse(true).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	meta := fmt.Sprintf("showing %d, limit %d", len(st.Items), st.Limit)
	if !st.UpdatedAt.IsZero() {
		meta += ", updated " + st.UpdatedAt.Format("15:04:05")
	}
	b.WriteString(labelStyle.Render(meta))
	return b.String()
}

func (m Model) renderVoice() string {
	state := labelStyle.Render(ui.SymbolPending + " Idle")
	if m.listening {
		state = lipgloss.NewStyle().Foreground(ui.ColorSuccess).Render(ui.SymbolComplete + " Listening")
	}
	lines := []string{bodyStyle.Render(m.view.Content.Body), "", "  " + state}
	if m.lastSpoken != "" {
		lines = append(lines, "", labelStyle.Render("  Last spoken: ")+m.lastSpoken)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderChat() string {
	lines := []string{bodyStyle.Render(m.view.Content.Body), ""}
	for _, l := range m.chat {
		if l.user {
			lines = append(lines, chatUserStyle.Render("you: ")+l.text)
		} else {
			lines = append(lines, chatBotStyle.Render("assistant: "+l.text))
		}
	}
	if m.chatBusy {
		lines = append(lines, m.spinner.View()+labelStyle.Render(" thinking..."))
	}
	lines = append(lines, "", m.input.View())
	return strings.Join(lines, "\n")
}

// renderStatusBar renders the health indicator, backend version and clock.
func (m Model) renderStatusBar() string {
	status := healthStyle(m.health).Render(healthSymbol(m.health) + " " + m.label)
	parts := []string{status}
	if m.version != "" {
		parts = append(parts, labelStyle.Render("v"+strings.TrimPrefix(m.version, "v")))
	}
	parts = append(parts, m.now.Format("15:04:05"), labelStyle.Render(m.now.Format("Mon 02 Jan 2006")))
	return statusBarStyle.Render(strings.Join(parts, "  "))
}

// renderFooter renders the keyboard hints for the active page.
func (m Model) renderFooter() string {
	hints := []string{"q quit", "1-5 pages", "? help"}
	switch m.view.Page {
	case nav.Dashboard:
		hints = append(hints, "n/p/c/m sort", "x kill", "l limit", "r refresh")
	case nav.AI:
		hints = append(hints, "enter send", "esc leave input")
	}
	if m.view.Phase == nav.Failed {
		hints = append(hints, "R reload")
	}
	return footerStyle.Render(strings.Join(hints, " | "))
}

func cell(s string, width int, active bool) string {
	s = padRight(s, width)
	if active {
		return lipgloss.NewStyle().Foreground(ui.ColorAccent).Render(s)
	}
	return s
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// truncate shortens s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
