package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/swc/internal/config"
	"github.com/bnema/swc/internal/logger"
	"github.com/bnema/swc/internal/server"
)

var (
	runHeadless bool
	runDevice   string
	runSocket   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the seat",
	Long: `Run the seat on a DRM device, reading evdev input and serving status
over the IPC socket until interrupted.`,
	RunE: runSeat,
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Simulate the display device")
	runCmd.Flags().StringVarP(&runDevice, "device", "d", "", "DRM device path")
	runCmd.Flags().StringVarP(&runSocket, "socket", "s", "", "IPC socket path")
}

func runSeat(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	applyRunFlags(cmd, cfg)

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create seat: %w", err)
	}
	defer srv.Close()

	for _, scr := range cfg.Screens {
		logger.Infof("  %s: %dx%d at (%d,%d) crtc %d", scr.Name, scr.Width, scr.Height, scr.X, scr.Y, scr.CRTC)
	}
	if cfg.IPC.Socket != "" {
		logger.Infof("IPC socket: %s", cfg.IPC.Socket)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

// applyRunFlags overrides the configuration with the flags given on the
// command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("headless") {
		cfg.DRM.Headless = runHeadless
	}
	if cmd.Flags().Changed("device") {
		cfg.DRM.Device = runDevice
	}
	if cmd.Flags().Changed("socket") {
		cfg.IPC.Socket = runSocket
	}
}
