package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/swc/internal/script"
	"github.com/bnema/swc/internal/ui"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Replay an input script on a headless seat",
	Long: `Replay a YAML script of client, input and hardware events on a headless
seat, checking its expectations along the way, and print the final status.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := script.Load(args[0])
		if err != nil {
			return err
		}

		runner, err := script.NewRunner(s)
		if err != nil {
			return fmt.Errorf("failed to create seat: %w", err)
		}
		defer runner.Close()

		if err := runner.Run(cmd.Context()); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderStatus(runner.Server().Status()))
		return nil
	},
}
