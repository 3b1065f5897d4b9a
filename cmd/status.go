package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/swc/internal/config"
	"github.com/bnema/swc/internal/ipc"
	"github.com/bnema/swc/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of the running seat",
	Long:  `Show the pointer position, focus, cursor and per-screen cursor plane state of the running seat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := ipc.NewClient(config.Get().IPC.Socket)

		status, err := client.SendStatus()
		if errors.Is(err, ipc.ErrNotRunning) {
			fmt.Fprintln(cmd.OutOrStdout(), "swc is not running")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get seat status: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderStatus(status))
		return nil
	},
}
