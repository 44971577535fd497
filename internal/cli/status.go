package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/health"
	"github.com/rileyhilliard/karasu/internal/telemetry"
	"github.com/rileyhilliard/karasu/internal/ui"
	"github.com/spf13/cobra"
)

const statusBarWidth = 20

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print backend health and a metrics snapshot",
	Long: `Probe the backend once and print its health and current metrics.

Exits non-zero when the backend is unreachable.

Examples:
  karasu status
  karasu status --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusSource is the part of the backend client the report needs.
type statusSource interface {
	Health(ctx context.Context) (*backend.HealthResponse, error)
	Metrics(ctx context.Context) (*backend.MetricsResponse, error)
}

// StatusOutput represents the JSON output for status command.
type StatusOutput struct {
	URL     string                   `json:"url"`
	Health  string                   `json:"health"`
	Version string                   `json:"version,omitempty"`
	Metrics *backend.MetricsResponse `json:"metrics,omitempty"`
}

func statusCommand(cmd *cobra.Command) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := collectStatus(cmd.Context(), s.client, s.cfg.Backend.URL)
	if MachineMode() {
		if err != nil {
			return err
		}
		return WriteJSONSuccess(cmd.OutOrStdout(), out)
	}

	renderStatus(cmd.OutOrStdout(), out)
	return err
}

// collectStatus probes health and fetches metrics. Metrics are skipped when
// the backend is down; the returned error explains why.
func collectStatus(ctx context.Context, src statusSource, url string) (*StatusOutput, error) {
	out := &StatusOutput{URL: url}

	h, err := src.Health(ctx)
	if err != nil {
		out.Health = health.Error.String()
		return out, err
	}
	out.Health = health.Connected.String()
	out.Version = h.Version

	m, err := src.Metrics(ctx)
	if err != nil {
		return out, errors.WrapWithCode(err, errors.ErrBackend, "Backend is up but metrics failed", "")
	}
	out.Metrics = m
	return out, nil
}

func renderStatus(w io.Writer, out *StatusOutput) {
	label := lipgloss.NewStyle().Foreground(ui.ColorMuted)

	if out.Health != health.Connected.String() {
		fmt.Fprintf(w, "%s %s  %s\n",
			lipgloss.NewStyle().Foreground(ui.ColorError).Render(ui.SymbolFail),
			health.Error.Label(), label.Render(out.URL))
		return
	}

	version := ""
	if out.Version != "" {
		version = "  v" + strings.TrimPrefix(out.Version, "v")
	}
	fmt.Fprintf(w, "%s %s%s  %s\n",
		lipgloss.NewStyle().Foreground(ui.ColorSuccess).Render(ui.SymbolSuccess),
		health.Connected.Label(), version, label.Render(out.URL))

	if out.Metrics == nil {
		return
	}
	d := telemetry.NewDisplay(out.Metrics, 0)
	fmt.Fprintln(w)
	rows := []struct {
		name    string
		value   string
		percent float64
		detail  string
	}{
		{"CPU", d.CPU, d.CPUPercent, d.CPULoad},
		{"RAM", d.RAM, d.RAMPercent, d.FreeRAM + " free"},
		{"Disk", d.Disk, d.DiskPercent, d.FreeDisk + " free"},
	}
	for _, r := range rows {
		value := lipgloss.NewStyle().Foreground(ui.ThresholdColor(r.percent)).Render(fmt.Sprintf("%-5s", r.value))
		fmt.Fprintf(w, "  %-10s %s %s  %s\n", r.name, value, ui.RenderBar(r.percent, statusBarWidth), label.Render(r.detail))
	}
	fmt.Fprintf(w, "  %-10s %s\n", "Processes", d.Processes)
}
