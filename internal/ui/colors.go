package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorAccent    lipgloss.Color = "5" // Magenta
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// Metric thresholds, in percent.
const (
	MetricWarning  = 60
	MetricCritical = 80

	ProcessWarning  = 30
	ProcessCritical = 70
)

// ThresholdColor colors a host metric: above 80 red, above 60 yellow,
// green otherwise.
func ThresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent > MetricCritical:
		return ColorError
	case percent > MetricWarning:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// ProcessCellColor colors a per-process CPU or memory cell: above 70 red,
// above 30 yellow, default text otherwise.
func ProcessCellColor(percent float64) lipgloss.Color {
	switch {
	case percent > ProcessCritical:
		return ColorError
	case percent > ProcessWarning:
		return ColorWarning
	default:
		return ColorPrimary
	}
}
