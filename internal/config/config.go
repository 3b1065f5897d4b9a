// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bnema/swc/internal/cursor"
	"github.com/bnema/swc/internal/region"
)

// ErrInvalid is returned by Validate for unusable settings
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	Seat    SeatConfig     `mapstructure:"seat"`
	Cursor  CursorConfig   `mapstructure:"cursor"`
	DRM     DRMConfig      `mapstructure:"drm"`
	Screens []ScreenConfig `mapstructure:"screens"`
	Input   InputConfig    `mapstructure:"input"`
	Session SessionConfig  `mapstructure:"session"`
	IPC     IPCConfig      `mapstructure:"ipc"`
	Logging LoggingConfig  `mapstructure:"logging"`
}

// SeatConfig names the seat
type SeatConfig struct {
	Name string `mapstructure:"name"`
}

// CursorConfig selects how the cursor is shown
type CursorConfig struct {
	Default          string `mapstructure:"default"`           // built-in cursor name
	Hardware         bool   `mapstructure:"hardware"`          // use cursor planes when available
	SoftwareFallback bool   `mapstructure:"software_fallback"` // composite in software when a plane fails
}

// DRMConfig selects the display device
type DRMConfig struct {
	Device   string `mapstructure:"device"`
	Headless bool   `mapstructure:"headless"` // no device, every hardware call is simulated
}

// ScreenConfig describes one screen of the layout
type ScreenConfig struct {
	Name   string `mapstructure:"name" yaml:"name"`
	CRTC   uint32 `mapstructure:"crtc" yaml:"crtc"`
	X      int32  `mapstructure:"x" yaml:"x"`
	Y      int32  `mapstructure:"y" yaml:"y"`
	Width  int32  `mapstructure:"width" yaml:"width"`
	Height int32  `mapstructure:"height" yaml:"height"`
}

// Rect returns the screen geometry
func (s ScreenConfig) Rect() region.Rect {
	return region.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// InputConfig lists the evdev devices feeding the seat
type InputConfig struct {
	Devices []string `mapstructure:"devices"` // empty means autodetect
	Grab    bool     `mapstructure:"grab"`    // take exclusive access to the devices
	// GrabTimeout releases a pointer grab after this long without input.
	// Zero disables it.
	GrabTimeout time.Duration `mapstructure:"grab_timeout"`
}

// SessionConfig selects what tells the seat it lost or regained the display
type SessionConfig struct {
	VTSwitching bool   `mapstructure:"vt_switching"`
	TTY         string `mapstructure:"tty"`
	// Logind follows the logind session Active property instead of VT
	// signals.
	Logind bool `mapstructure:"logind"`
}

// IPCConfig locates the control socket
type IPCConfig struct {
	Socket string `mapstructure:"socket"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Seat: SeatConfig{Name: "seat0"},
		Cursor: CursorConfig{
			Default:          "left_ptr",
			Hardware:         true,
			SoftwareFallback: true,
		},
		DRM: DRMConfig{
			Device:   "/dev/dri/card0",
			Headless: false,
		},
		Screens: []ScreenConfig{},
		Input: InputConfig{
			Devices:     []string{},
			Grab:        false,
			GrabTimeout: 30 * time.Second,
		},
		Session: SessionConfig{
			VTSwitching: true,
			TTY:         "/dev/tty0",
			Logind:      false,
		},
		IPC: IPCConfig{
			Socket: defaultSocketPath(),
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("swc")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		// Add config paths in order of precedence
		viper.AddConfigPath("/etc/swc")

		// If running with sudo, try the real user's config
		if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
			viper.AddConfigPath(fmt.Sprintf("/home/%s/.config/swc", sudoUser))
		} else if home := os.Getenv("HOME"); home != "" && home != "/root" {
			viper.AddConfigPath(filepath.Join(home, ".config", "swc"))
		}

		viper.AddConfigPath(".")
	}

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return cfg.Validate()
}

// SetDefaults registers the default of every key. Individual fields are set
// so a partial file merges with the defaults.
func SetDefaults() {
	viper.SetDefault("seat.name", DefaultConfig.Seat.Name)

	viper.SetDefault("cursor.default", DefaultConfig.Cursor.Default)
	viper.SetDefault("cursor.hardware", DefaultConfig.Cursor.Hardware)
	viper.SetDefault("cursor.software_fallback", DefaultConfig.Cursor.SoftwareFallback)

	viper.SetDefault("drm.device", DefaultConfig.DRM.Device)
	viper.SetDefault("drm.headless", DefaultConfig.DRM.Headless)

	viper.SetDefault("screens", DefaultConfig.Screens)

	viper.SetDefault("input.devices", DefaultConfig.Input.Devices)
	viper.SetDefault("input.grab", DefaultConfig.Input.Grab)
	viper.SetDefault("input.grab_timeout", DefaultConfig.Input.GrabTimeout)

	viper.SetDefault("session.vt_switching", DefaultConfig.Session.VTSwitching)
	viper.SetDefault("session.tty", DefaultConfig.Session.TTY)
	viper.SetDefault("session.logind", DefaultConfig.Session.Logind)

	viper.SetDefault("ipc.socket", DefaultConfig.IPC.Socket)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)
}

// Validate checks settings that would only fail later at startup.
func (c *Config) Validate() error {
	if _, err := cursor.ParseID(c.Cursor.Default); err != nil {
		return fmt.Errorf("%w: cursor.default: %w", ErrInvalid, err)
	}
	seen := make(map[string]bool)
	for i, s := range c.Screens {
		if s.Name == "" {
			return fmt.Errorf("%w: screens[%d]: missing name", ErrInvalid, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: screens[%d]: duplicate name %q", ErrInvalid, i, s.Name)
		}
		seen[s.Name] = true
		if s.Rect().Empty() {
			return fmt.Errorf("%w: screen %s: empty geometry", ErrInvalid, s.Name)
		}
	}
	if c.Input.GrabTimeout < 0 {
		return fmt.Errorf("%w: input.grab_timeout is negative", ErrInvalid)
	}
	if c.Session.VTSwitching && c.Session.Logind {
		return fmt.Errorf("%w: session.vt_switching and session.logind are exclusive", ErrInvalid)
	}
	if !c.DRM.Headless && c.DRM.Device == "" {
		return fmt.Errorf("%w: drm.device is required unless drm.headless is set", ErrInvalid)
	}
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	// For root/sudo, prefer system config
	if os.Getuid() == 0 || os.Getenv("SUDO_USER") != "" {
		return "/etc/swc/swc.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/swc/swc.toml"
	}
	return filepath.Join(home, ".config", "swc", "swc.toml")
}

// AddScreen adds or replaces a screen of the layout
func AddScreen(screen ScreenConfig) error {
	cfg := Get()

	for i, s := range cfg.Screens {
		if s.Name == screen.Name {
			cfg.Screens[i] = screen
			viper.Set("screens", cfg.Screens)
			return Save()
		}
	}

	cfg.Screens = append(cfg.Screens, screen)
	viper.Set("screens", cfg.Screens)
	return Save()
}

// RemoveScreen removes a screen from the layout
func RemoveScreen(name string) error {
	cfg := Get()

	for i, s := range cfg.Screens {
		if s.Name == name {
			cfg.Screens = append(cfg.Screens[:i], cfg.Screens[i+1:]...)
			viper.Set("screens", cfg.Screens)
			return Save()
		}
	}
	return fmt.Errorf("screen %s not found", name)
}

// GetScreen returns a screen by name
func GetScreen(name string) (*ScreenConfig, error) {
	for _, s := range Get().Screens {
		if s.Name == name {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("screen %s not found", name)
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "swc.sock")
	}
	return "/tmp/swc.sock"
}
