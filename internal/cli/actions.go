package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/ui"
	"github.com/spf13/cobra"
)

var cleanYesFlag bool

var cleanRAMCmd = &cobra.Command{
	Use:   "clean-ram",
	Short: "Ask the backend to release cached memory",
	Long: `Run the backend's clean_ram action and print its result.

Examples:
  karasu clean-ram
  karasu clean-ram --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := confirmAction(cleanYesFlag, "Clean RAM on the backend host?", "Cached memory is released")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		return cleanRAMCommand(cmd.Context(), cmd.OutOrStdout(), s.client)
	},
}

var commandCmd = &cobra.Command{
	Use:   "cmd <text>",
	Short: "Send a command to the assistant backend",
	Long: `Send a natural-language or system command and print the reply.

The dashboard's quick commands are "system info", "time",
"open browser" and "screenshot".

Examples:
  karasu cmd time
  karasu cmd "system info"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		resp, err := s.client.Command(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if MachineMode() {
			return WriteJSONSuccess(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Response)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send one message to the AI assistant",
	Long: `Send a single chat turn to the assistant and print its reply.

Examples:
  karasu chat "why is my fan so loud?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		resp, err := s.client.Chat(cmd.Context(), strings.Join(args, " "), map[string]any{"source": "cli"})
		if err != nil {
			return err
		}
		if MachineMode() {
			return WriteJSONSuccess(cmd.OutOrStdout(), resp.Raw)
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Reply())
		return nil
	},
}

func init() {
	cleanRAMCmd.Flags().BoolVarP(&cleanYesFlag, "yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(cleanRAMCmd)
	rootCmd.AddCommand(commandCmd)
	rootCmd.AddCommand(chatCmd)
}

// confirmAction asks title unless yes is set.
func confirmAction(yes bool, title, description string) (bool, error) {
	if yes {
		return true, nil
	}
	return confirmPrompt(title, description)
}

// ramCleaner is the slice of the backend clean-ram needs.
type ramCleaner interface {
	CleanRAM(ctx context.Context) (*backend.ActionResponse, error)
}

func cleanRAMCommand(ctx context.Context, w io.Writer, be ramCleaner) error {
	resp, err := be.CleanRAM(ctx)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrAction, "RAM cleanup failed", "")
	}
	msg := resp.Message()
	if msg == "" {
		msg = "RAM cleaned"
	}
	fmt.Fprintf(w, "%s %s\n", lipgloss.NewStyle().Foreground(ui.ColorSuccess).Render(ui.SymbolSuccess), msg)
	return nil
}
