package cli

import (
	"github.com/rileyhilliard/karasu/internal/devserver"
	"github.com/spf13/cobra"
)

var (
	serveAddrFlag      string
	serveAllowKillFlag bool
)

var serveDevCmd = &cobra.Command{
	Use:   "serve-dev",
	Short: "Run a development backend backed by this machine",
	Long: `Serve the backend HTTP API from live samples of this machine, so the
dashboard can be developed without the assistant backend.

kill_process is refused unless devserver.allow_kill is set or
--allow-kill is given.

Examples:
  karasu serve-dev
  karasu serve-dev --addr 127.0.0.1:5001 --allow-kill`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		addr := s.cfg.DevServer.Addr
		if serveAddrFlag != "" {
			addr = serveAddrFlag
		}
		allowKill := s.cfg.DevServer.AllowKill || serveAllowKillFlag

		srv := devserver.New(devserver.NewHostSampler(),
			devserver.WithVersion(version),
			devserver.WithAllowKill(allowKill),
			devserver.WithLogger(s.log),
		)
		cmd.Printf("Serving the dev backend on http://%s (ctrl+c to stop)\n", addr)
		return srv.Run(cmd.Context(), addr)
	},
}

func init() {
	serveDevCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "listen address (overrides devserver.addr)")
	serveDevCmd.Flags().BoolVar(&serveAllowKillFlag, "allow-kill", false, "enable the kill_process action")
	rootCmd.AddCommand(serveDevCmd)
}
