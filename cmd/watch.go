package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/swc/internal/config"
	"github.com/bnema/swc/internal/ipc"
	"github.com/bnema/swc/internal/ui"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the running seat",
	Long: `Poll the running seat and show its status live.
Press c to cycle through the built-in cursors, r to refresh and q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchInterval <= 0 {
			return fmt.Errorf("interval must be positive, got %s", watchInterval)
		}
		client := ipc.NewClient(config.Get().IPC.Socket)
		model := ui.NewWatchModel(client.SendStatus, client.SendSetCursor, watchInterval)

		if _, err := tea.NewProgram(model).Run(); err != nil {
			return err
		}
		return model.Err()
	},
}

func init() {
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 500*time.Millisecond, "Polling interval")
}
