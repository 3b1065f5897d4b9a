package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bnema/swc/internal/config"
	"github.com/bnema/swc/internal/logger"
)

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "swc",
		Short: "swc - compositor seat core",
		Long: `swc drives the pointer and keyboard of a compositor seat.
It tracks views across screens, routes focus to client surfaces and shows
the cursor on hardware cursor planes, compositing it in software when a
plane is unavailable.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default searches /etc/swc, ~/.config/swc, .)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and applies the log level. The flag wins
// over the config file, which wins over LOG_LEVEL.
func setup(cmd *cobra.Command, args []string) error {
	config.SetConfigPath(configPath)
	if err := config.Init(); err != nil {
		return err
	}

	switch {
	case logLevel != "":
		logger.SetLevel(logLevel)
	case config.Get().Logging.LogLevel != "":
		logger.SetLevel(config.Get().Logging.LogLevel)
	}
	return nil
}
