package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/notify"
	"github.com/rileyhilliard/karasu/internal/processes"
	"github.com/rileyhilliard/karasu/internal/ui"
	"github.com/spf13/cobra"
)

var (
	psLimitFlag int
	psSortFlag  string
	killYesFlag bool
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List the busiest processes",
	Long: `Fetch the process list from the backend and print it sorted.

Rows are ordered descending by the chosen column.

Examples:
  karasu ps
  karasu ps --limit 50 --sort memory
  karasu ps --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		col, err := processes.ParseColumn(psSortFlag)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Invalid --sort value: "+psSortFlag,
				"Use one of: name, pid, cpu, memory")
		}
		if psLimitFlag < 1 {
			return errors.New(errors.ErrConfig, "--limit must be at least 1", "")
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		ctrl := processes.NewController(s.client, printNotifier{w: cmd.ErrOrStderr()}, processes.WithLogger(s.log))
		if err := ctrl.Refresh(cmd.Context(), psLimitFlag, col); err != nil {
			return err
		}
		st := ctrl.State()

		if MachineMode() {
			return WriteJSONSuccess(cmd.OutOrStdout(), st.Items)
		}
		renderProcessList(cmd.OutOrStdout(), st)
		return nil
	},
}

var killCmd = &cobra.Command{
	Use:   "kill <pid>",
	Short: "Terminate a process through the backend",
	Long: `Ask the backend to terminate a process. You are asked to confirm
first unless --yes is given.

Examples:
  karasu kill 4312
  karasu kill 4312 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.Atoi(args[0])
		if err != nil || pid <= 0 {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("%q is not a process id", args[0]),
				"Pass the numeric PID shown by 'karasu ps'")
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		ctrl := processes.NewController(s.client, printNotifier{w: cmd.OutOrStdout()},
			processes.WithInitial(processes.Limits[len(processes.Limits)-1], processes.ByCPU),
			processes.WithLogger(s.log))
		return killCommand(cmd.Context(), cmd.OutOrStdout(), ctrl, pid, func(title, description string) (bool, error) {
			return confirmAction(killYesFlag, title, description)
		})
	},
}

func init() {
	psCmd.Flags().IntVar(&psLimitFlag, "limit", 20, "number of processes to show")
	psCmd.Flags().StringVar(&psSortFlag, "sort", "cpu", "sort column: name, pid, cpu, memory")
	killCmd.Flags().BoolVarP(&killYesFlag, "yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(killCmd)
}

// confirmFunc asks a yes/no question.
type confirmFunc func(title, description string) (bool, error)

// confirmPrompt asks with huh. An aborted form counts as no.
func confirmPrompt(title, description string) (bool, error) {
	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		return false, nil
	}
	return confirm, nil
}

// killCommand runs the same two-step termination as the dashboard: the
// table is loaded so the prompt can name the process, then the request is
// confirmed or cancelled.
func killCommand(ctx context.Context, w io.Writer, ctrl *processes.Controller, pid int, confirm confirmFunc) error {
	st := ctrl.State()
	_ = ctrl.Refresh(ctx, st.Limit, st.SortColumn)

	p := ctrl.RequestTermination(pid)
	ok, err := confirm(p.Prompt(), "The process receives SIGTERM on the backend host")
	if err != nil {
		return err
	}
	if !ok {
		_ = p.Cancel()
		fmt.Fprintln(w, "Cancelled.")
		return nil
	}
	return p.Confirm(ctx)
}

func renderProcessList(w io.Writer, st processes.State) {
	if len(st.Items) == 0 {
		fmt.Fprintln(w, "No processes")
		return
	}

	cols := make([]ui.TableColumn, 0, len(processes.Columns))
	for _, c := range processes.Columns {
		title := c.Title()
		if c == st.SortColumn {
			title += " " + st.SortDirection.Arrow()
		}
		width := 12
		if c == processes.ByName {
			width = 28
		}
		cols = append(cols, ui.TableColumn{Title: title, Width: width})
	}

	rows := make([][]string, 0, len(st.Items))
	for _, p := range st.Items {
		rows = append(rows, []string{
			strconv.Itoa(p.PID),
			p.Name,
			fmt.Sprintf("%.1f", p.CPU),
			fmt.Sprintf("%.1f", p.Memory),
		})
	}
	fmt.Fprintln(w, ui.RenderSimpleTable(cols, rows))
}

// printNotifier writes controller notifications as terminal lines.
type printNotifier struct {
	w io.Writer
}

func (n printNotifier) Push(message string, kind notify.Kind) string {
	symbol, color := ui.SymbolInfo, ui.ColorInfo
	switch kind {
	case notify.Success:
		symbol, color = ui.SymbolSuccess, ui.ColorSuccess
	case notify.Warning:
		symbol, color = ui.SymbolWarning, ui.ColorWarning
	case notify.Error:
		symbol, color = ui.SymbolFail, ui.ColorError
	}
	fmt.Fprintf(n.w, "%s %s\n", lipgloss.NewStyle().Foreground(color).Render(symbol), message)
	return ""
}
