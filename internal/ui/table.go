package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// TableStyles returns the bubbles table styles used across karasu. The
// selected row is only highlighted when focused is true.
func TableStyles(focused bool) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.Foreground(ColorPrimary)
	if focused {
		s.Selected = s.Selected.
			Foreground(ColorPrimary).
			Background(ColorMuted).
			Bold(false)
	} else {
		s.Selected = s.Cell
	}
	return s
}

// NewTable creates a bubbles table with the shared styling. Height is the
// number of visible rows; zero sizes the table to fit every row.
func NewTable(columns []TableColumn, rows []table.Row, height int, focused bool) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}
	if height <= 0 {
		height = len(rows) + 2 // header and its border
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(focused),
		table.WithHeight(height),
	)
	t.SetStyles(TableStyles(focused))
	return t
}

// RenderSimpleTable renders a non-interactive table string for CLI output.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}
	return NewTable(columns, tableRows, 0, false).View()
}
