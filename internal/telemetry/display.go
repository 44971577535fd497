package telemetry

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rileyhilliard/karasu/internal/backend"
)

// Display holds the formatted values shown on the dashboard cards.
type Display struct {
	CPU       string // "45%"
	RAM       string
	Disk      string
	Processes string // "134"

	CPULoad  string // "8 cores, 45.2%"
	FreeRAM  string // "4.1 GB"
	FreeDisk string
	Uptime   string // "3h 12m"

	CPUPercent  float64
	RAMPercent  float64
	DiskPercent float64
}

// RoundPercent rounds half away from zero for non-negative inputs, so 72.5
// becomes 73 and 45.2 becomes 45.
func RoundPercent(v float64) int {
	return int(math.Floor(v + 0.5))
}

// FormatPercent renders v as a whole percentage.
func FormatPercent(v float64) string {
	return strconv.Itoa(RoundPercent(v)) + "%"
}

// FormatGB renders gigabytes with one decimal.
func FormatGB(gb float64) string {
	return fmt.Sprintf("%.1f GB", gb)
}

// FormatUptime renders a duration as "2d 4h", "3h 12m" or "7m".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	mins := int(d/time.Minute) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

// NewDisplay formats a metrics response. uptime is the estimate computed by
// the poller.
func NewDisplay(m *backend.MetricsResponse, uptime time.Duration) Display {
	return Display{
		CPU:         FormatPercent(m.CPU.Percent),
		RAM:         FormatPercent(m.RAM.Percent),
		Disk:        FormatPercent(m.Disk.Percent),
		Processes:   strconv.Itoa(m.Processes),
		CPULoad:     fmt.Sprintf("%d cores, %.1f%%", m.CPU.Cores, m.CPU.Percent),
		FreeRAM:     FormatGB(m.RAM.FreeGB),
		FreeDisk:    FormatGB(m.Disk.FreeGB),
		Uptime:      FormatUptime(uptime),
		CPUPercent:  m.CPU.Percent,
		RAMPercent:  m.RAM.Percent,
		DiskPercent: m.Disk.Percent,
	}
}

// Placeholder is shown before the first successful poll.
func Placeholder() Display {
	return Display{
		CPU: "--", RAM: "--", Disk: "--", Processes: "--",
		CPULoad: "--", FreeRAM: "--", FreeDisk: "--", Uptime: "--",
	}
}
