package cli

import (
	"fmt"

	"github.com/rileyhilliard/karasu/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration karasu would run with, after the config
file, .env and KARASU_* environment overrides are merged.

Examples:
  karasu config
  KARASU_BACKEND_URL=http://10.0.0.5:5000 karasu config`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := config.Render(cfg)
		if err != nil {
			return err
		}
		source := "defaults"
		if cfg.Path != "" {
			source = cfg.Path
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", source, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
