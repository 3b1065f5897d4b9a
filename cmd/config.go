package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bnema/swc/internal/config"
	"github.com/bnema/swc/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage swc configuration",
	Long:  `Manage swc configuration including the screen layout and cursor settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Config file:\t%s\n", config.GetConfigPath())
		fmt.Fprintln(w, "\n[seat]")
		fmt.Fprintf(w, "  name\t%s\n", cfg.Seat.Name)
		fmt.Fprintln(w, "\n[cursor]")
		fmt.Fprintf(w, "  default\t%s\n", cfg.Cursor.Default)
		fmt.Fprintf(w, "  hardware\t%v\n", cfg.Cursor.Hardware)
		fmt.Fprintf(w, "  software_fallback\t%v\n", cfg.Cursor.SoftwareFallback)
		fmt.Fprintln(w, "\n[drm]")
		fmt.Fprintf(w, "  device\t%s\n", cfg.DRM.Device)
		fmt.Fprintf(w, "  headless\t%v\n", cfg.DRM.Headless)
		fmt.Fprintln(w, "\n[input]")
		fmt.Fprintf(w, "  devices\t%v\n", cfg.Input.Devices)
		fmt.Fprintf(w, "  grab\t%v\n", cfg.Input.Grab)
		fmt.Fprintf(w, "  grab_timeout\t%s\n", cfg.Input.GrabTimeout)
		fmt.Fprintln(w, "\n[session]")
		fmt.Fprintf(w, "  vt_switching\t%v\n", cfg.Session.VTSwitching)
		fmt.Fprintf(w, "  tty\t%s\n", cfg.Session.TTY)
		fmt.Fprintf(w, "  logind\t%v\n", cfg.Session.Logind)
		fmt.Fprintln(w, "\n[ipc]")
		fmt.Fprintf(w, "  socket\t%s\n", cfg.IPC.Socket)
		if err := w.Flush(); err != nil {
			return err
		}

		if len(cfg.Screens) > 0 {
			fmt.Fprintln(out, "\n[screens]")
			return writeScreens(out, cfg.Screens)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				logger.Infof("Configuration file already exists at: %s", configPath)
				logger.Info("Use --force to overwrite")
				return nil
			}
		}

		if err := config.Save(); err != nil {
			return err
		}

		logger.Infof("Configuration initialized at: %s", configPath)
		return nil
	},
}

var configScreenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Manage the screen layout",
}

var configScreenAddCmd = &cobra.Command{
	Use:   "add <name> <crtc> <x> <y> <width> <height>",
	Short: "Add or replace a screen",
	Long:  `Add a screen driven by the given CRTC at the given position of the layout. A screen with the same name is replaced.`,
	Args:  cobra.ExactArgs(6),
	RunE: func(cmd *cobra.Command, args []string) error {
		crtc, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid crtc %q: %w", args[1], err)
		}
		var geom [4]int32
		for i, arg := range args[2:] {
			v, err := strconv.ParseInt(arg, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid geometry %q: %w", arg, err)
			}
			geom[i] = int32(v)
		}

		scr := config.ScreenConfig{
			Name:   args[0],
			CRTC:   uint32(crtc),
			X:      geom[0],
			Y:      geom[1],
			Width:  geom[2],
			Height: geom[3],
		}
		if scr.Rect().Empty() {
			return fmt.Errorf("%w: screen %s: empty geometry", config.ErrInvalid, scr.Name)
		}

		if err := config.AddScreen(scr); err != nil {
			return err
		}

		logger.Infof("Added screen '%s' %dx%d at (%d,%d) on crtc %d", scr.Name, scr.Width, scr.Height, scr.X, scr.Y, scr.CRTC)
		return nil
	},
}

var configScreenRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a screen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.RemoveScreen(args[0]); err != nil {
			return err
		}

		logger.Infof("Removed screen '%s'", args[0])
		return nil
	},
}

var configScreenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured screens",
	RunE: func(cmd *cobra.Command, args []string) error {
		screens := config.Get().Screens
		if len(screens) == 0 {
			logger.Info("No screens configured")
			return nil
		}
		return writeScreens(cmd.OutOrStdout(), screens)
	},
}

func writeScreens(out io.Writer, screens []config.ScreenConfig) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Name\tCRTC\tGeometry")
	fmt.Fprintln(w, "----\t----\t--------")
	for _, s := range screens {
		fmt.Fprintf(w, "%s\t%d\t%dx%d+%d+%d\n", s.Name, s.CRTC, s.Width, s.Height, s.X, s.Y)
	}
	return w.Flush()
}

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")

	configScreenCmd.AddCommand(configScreenAddCmd)
	configScreenCmd.AddCommand(configScreenRemoveCmd)
	configScreenCmd.AddCommand(configScreenListCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configScreenCmd)
}
