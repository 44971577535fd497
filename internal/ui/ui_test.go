package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestThresholdColor(t *testing.T) {
	tests := []struct {
		percent float64
		want    lipgloss.Color
	}{
		{0, ColorSuccess},
		{60, ColorSuccess},
		{60.1, ColorWarning},
		{80, ColorWarning},
		{80.5, ColorError},
		{100, ColorError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ThresholdColor(tt.percent), "percent %v", tt.percent)
	}
}

func TestProcessCellColor(t *testing.T) {
	tests := []struct {
		percent float64
		want    lipgloss.Color
	}{
		{0, ColorPrimary},
		{30, ColorPrimary},
		{31, ColorWarning},
		{70, ColorWarning},
		{70.1, ColorError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProcessCellColor(tt.percent), "percent %v", tt.percent)
	}
}

func TestSparklineLevels(t *testing.T) {
	tests := []struct {
		name  string
		data  []float64
		width int
		want  []int
	}{
		{"empty", nil, 10, nil},
		{"zero width", []float64{50}, 0, nil},
		{"fixed scale", []float64{0, 50, 100}, 10, []int{0, 3, 7}},
		{"flat low line stays low", []float64{5, 5, 5}, 10, []int{0, 0, 0}},
		{"clamped", []float64{-10, 150}, 10, []int{0, 7}},
		{"keeps most recent", []float64{100, 0, 100}, 2, []int{0, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SparklineLevels(tt.data, tt.width))
		})
	}
}

func TestRenderSparkline(t *testing.T) {
	assert.Empty(t, RenderSparkline(nil, 10))

	out := RenderSparkline([]float64{0, 100}, 10)
	assert.Contains(t, out, "▁")
	assert.Contains(t, out, "█")
}

func TestBarString(t *testing.T) {
	assert.Equal(t, "", BarString(50, 0))
	assert.Equal(t, "█████░░░░░", BarString(50, 10))
	assert.Equal(t, "░░░░", BarString(-5, 4))
	assert.Equal(t, "████", BarString(120, 4))
	assert.Equal(t, 10, len([]rune(BarString(33.3, 10))))
}

func TestRenderSimpleTable(t *testing.T) {
	assert.Empty(t, RenderSimpleTable([]TableColumn{{Title: "PID", Width: 6}}, nil))

	out := RenderSimpleTable(
		[]TableColumn{{Title: "PID", Width: 6}, {Title: "Name", Width: 12}},
		[][]string{{"42", "python"}, {"7", "bash"}},
	)
	assert.Contains(t, out, "PID")
	assert.Contains(t, out, "python")
	assert.Contains(t, out, "bash")
	assert.GreaterOrEqual(t, strings.Count(out, "\n"), 2)
}
