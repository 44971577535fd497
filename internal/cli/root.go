package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/config"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/logger"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile   string
	urlFlag   string
	debugFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "karasu",
	Short: "Terminal dashboard for the local assistant backend",
	Long: `karasu watches the local assistant backend: live CPU, RAM and disk
telemetry, a sortable process table with guarded termination, quick
actions, and an AI chat page.

Running karasu with no subcommand opens the dashboard. When stdout is
not a terminal it prints a one-shot status report instead.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashCommand(cmd, "")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./karasu.yaml or ~/.config/karasu/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&urlFlag, "url", "", "backend base URL (overrides backend.url)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log at debug level")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "output in JSON format where supported")
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			err = errors.New(errors.ErrConfig,
				fmt.Sprintf("Unknown command %q", name),
				"Run 'karasu --help' to see the available commands.")
		} else {
			err = errors.WrapWithCode(err, errors.ErrConfig, "Invalid arguments", "Run 'karasu --help' for usage.")
		}
	}

	if MachineMode() {
		_ = WriteJSONFromError(os.Stdout, err)
	} else {
		fmt.Fprint(os.Stderr, err.Error())
		if !strings.HasSuffix(err.Error(), "\n") {
			fmt.Fprintln(os.Stderr)
		}
	}
	stop()
	os.Exit(1)
}

// isUnknownCommandError reports whether cobra rejected the command line
// itself rather than a command failing.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "karasu"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// loadConfig loads the effective config and applies --url.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if urlFlag != "" {
		cfg.Backend.URL = urlFlag
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	if debugFlag {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// openLogger opens the file logger. Commands that print to the terminal
// still log to the file so runs can be compared with dashboard sessions.
func openLogger(cfg *config.Config) (logger.Logger, func() error, error) {
	log, closeFn, err := logger.NewFileLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot open log file "+cfg.Log.File,
			"Set log.file to a writable path")
	}
	return log, closeFn, nil
}

// newClient builds the backend client for cfg.
func newClient(cfg *config.Config, log logger.Logger) *backend.Client {
	return backend.New(cfg.Backend.URL, cfg.Backend.Timeout,
		backend.WithLogger(log),
		backend.WithUserAgent("karasu/"+version),
	)
}

// session is the config, logger and client shared by one command run.
type session struct {
	cfg    *config.Config
	log    logger.Logger
	client *backend.Client
	close  func() error
}

func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, closeFn, err := openLogger(cfg)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log, client: newClient(cfg, log), close: closeFn}, nil
}

func (s *session) Close() {
	if s.close != nil {
		_ = s.close()
	}
}
