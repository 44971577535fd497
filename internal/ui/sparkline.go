package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

var sparklineBlockRunes = []rune(sparklineBlocks)

// Usage bar characters.
const (
	BarFilled = '█'
	BarEmpty  = '░'
)

// ClampPercent clamps a percentage to the 0-100 range.
func ClampPercent(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// SparklineLevels maps each value on a fixed 0-100 scale to one of the
// eight block levels. Only the most recent width values are used.
func SparklineLevels(data []float64, width int) []int {
	if len(data) == 0 || width <= 0 {
		return nil
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	top := len(sparklineBlockRunes) - 1
	levels := make([]int, len(data))
	for i, v := range data {
		levels[i] = int(ClampPercent(v) / 100 * float64(top))
	}
	return levels
}

// RenderSparkline draws data as a sparkline colored by the latest value.
// The scale is fixed at 0-100 so a flat 5% line stays low.
func RenderSparkline(data []float64, width int) string {
	levels := SparklineLevels(data, width)
	if levels == nil {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(levels) * 3)
	for _, l := range levels {
		sb.WriteRune(sparklineBlockRunes[l])
	}

	last := data[len(data)-1]
	return lipgloss.NewStyle().Foreground(ThresholdColor(last)).Render(sb.String())
}

// BarString builds the unstyled bar for percent at the given width.
func BarString(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(ClampPercent(percent) / 100 * float64(width))
	return strings.Repeat(string(BarFilled), filled) + strings.Repeat(string(BarEmpty), width-filled)
}

// RenderBar renders a usage bar colored with ThresholdColor.
func RenderBar(percent float64, width int) string {
	bar := BarString(percent, width)
	if bar == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(ThresholdColor(percent)).Render(bar)
}
