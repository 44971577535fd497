package cli

import (
	"os"

	"github.com/rileyhilliard/karasu/internal/dash"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var dashBridgeFlag string

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the full-screen dashboard",
	Long: `Open the interactive dashboard.

Pages: 1 Dashboard, 2 Voice, 3 System, 4 AI Chat, 5 Settings.
Press ? inside the dashboard for every keyboard shortcut.

The --bridge flag listens on a unix socket for newline-delimited
{"channel": ..., "payload": {...}} messages from a host application
(voice engine, launcher). Only allow-listed channels are accepted.

Examples:
  karasu dash
  karasu dash --url http://localhost:5001
  karasu dash --bridge /tmp/karasu.sock`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashCommand(cmd, dashBridgeFlag)
	},
}

func init() {
	dashCmd.Flags().StringVar(&dashBridgeFlag, "bridge", "", "unix socket path for host application messages")
	rootCmd.AddCommand(dashCmd)
}

// dashCommand runs the dashboard, or prints status when there is no
// terminal to draw on.
func dashCommand(cmd *cobra.Command, bridgePath string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return statusCommand(cmd)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	opts := []dash.Option{dash.WithLogger(s.log)}
	if bridgePath != "" {
		opts = append(opts, dash.WithBridge(bridgePath))
	}
	app, err := dash.NewApp(s.cfg, s.client, opts...)
	if err != nil {
		return err
	}

	s.log.Info("dashboard starting against %s", s.cfg.Backend.URL)
	if err := dash.Run(cmd.Context(), app); err != nil {
		return errors.WrapWithCode(err, errors.ErrRender, "Dashboard exited with an error", "")
	}
	return nil
}
