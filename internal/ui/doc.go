// Package ui holds the terminal styling shared by the dashboard and the
// plain CLI commands.
//
// # Color Scheme
//
// Colors are ANSI codes so they degrade well on limited terminals:
//
//	ColorSuccess   (green)  - healthy values, successful actions
//	ColorError     (red)    - failures, values above the critical threshold
//	ColorWarning   (yellow) - values above the warning threshold
//	ColorInfo      (cyan)   - informational notifications
//	ColorAccent    (magenta)- the active page and sort column
//	ColorMuted     (gray)   - placeholders, timestamps, help text
//
// Metric cards and sparklines use ThresholdColor (warning above 60,
// critical above 80). Process table cells use ProcessCellColor (warning
// above 30, critical above 70).
//
// # Widgets
//
//	RenderSparkline - history line on a fixed 0-100 scale
//	RenderBar       - usage bar with threshold coloring
//	NewSpinner      - bubbles spinner used for loading placeholders
//	NewTable        - bubbles table with the shared styles
package ui
