package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swc.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func withConfigPath(t *testing.T, path string) {
	t.Helper()
	viper.Reset()
	SetConfigPath(path)
	t.Cleanup(func() {
		SetConfigPath("")
		Set(nil)
		viper.Reset()
	})
}

func TestInit(t *testing.T) {
	t.Run("initializes with defaults when no config exists", func(t *testing.T) {
		viper.Reset()
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())
		t.Cleanup(func() { Set(nil) })

		require.NoError(t, Init())
		c := Get()
		assert.Equal(t, "seat0", c.Seat.Name)
		assert.Equal(t, "left_ptr", c.Cursor.Default)
		assert.True(t, c.Cursor.SoftwareFallback)
		assert.Equal(t, "/dev/dri/card0", c.DRM.Device)
	})

	t.Run("partial file merges with defaults", func(t *testing.T) {
		withConfigPath(t, writeConfig(t, `
[cursor]
default = "hand"

[drm]
headless = true

[[screens]]
name = "left"
crtc = 31
width = 1920
height = 1080

[[screens]]
name = "right"
crtc = 32
x = 1920
width = 1280
height = 1024
`))
		require.NoError(t, Init())
		c := Get()
		assert.Equal(t, "hand", c.Cursor.Default)
		assert.True(t, c.Cursor.Hardware, "untouched keys keep their default")
		assert.True(t, c.DRM.Headless)
		require.Len(t, c.Screens, 2)
		assert.Equal(t, uint32(32), c.Screens[1].CRTC)
		assert.Equal(t, int32(1920), c.Screens[1].Rect().X)
	})

	t.Run("invalid TOML is reported", func(t *testing.T) {
		withConfigPath(t, writeConfig(t, "[cursor\ndefault = 1"))
		assert.Error(t, Init())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "unknown cursor", mutate: func(c *Config) { c.Cursor.Default = "spinner" }},
		{name: "screen without name", mutate: func(c *Config) {
			c.Screens = []ScreenConfig{{Width: 10, Height: 10}}
		}},
		{name: "duplicate screen", mutate: func(c *Config) {
			c.Screens = []ScreenConfig{{Name: "a", Width: 10, Height: 10}, {Name: "a", Width: 10, Height: 10}}
		}},
		{name: "empty geometry", mutate: func(c *Config) {
			c.Screens = []ScreenConfig{{Name: "a"}}
		}},
		{name: "no device", mutate: func(c *Config) { c.DRM.Device = "" }},
		{name: "negative grab timeout", mutate: func(c *Config) { c.Input.GrabTimeout = -time.Second }},
		{name: "vt and logind", mutate: func(c *Config) { c.Session.Logind = true }},
		{name: "logind alone", mutate: func(c *Config) {
			c.Session.VTSwitching = false
			c.Session.Logind = true
		}, ok: true},
		{name: "headless needs no device", mutate: func(c *Config) {
			c.DRM.Device = ""
			c.DRM.Headless = true
		}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig
			c.Screens = nil
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestConfigPathResolution(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		withConfigPath(t, "/tmp/custom.toml")
		assert.Equal(t, "/tmp/custom.toml", GetConfigPath())
	})

	t.Run("normal user", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("root always uses the system config")
		}
		viper.Reset()
		t.Setenv("SUDO_USER", "")
		t.Setenv("HOME", "/home/testuser")
		assert.Equal(t, "/home/testuser/.config/swc/swc.toml", GetConfigPath())
	})

	t.Run("running with sudo", func(t *testing.T) {
		viper.Reset()
		t.Setenv("SUDO_USER", "testuser")
		assert.Equal(t, "/etc/swc/swc.toml", GetConfigPath())
	})
}

func TestScreens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swc.toml")
	withConfigPath(t, path)
	SetDefaults()
	c := DefaultConfig
	c.Screens = nil
	Set(&c)

	require.NoError(t, AddScreen(ScreenConfig{Name: "a", Width: 800, Height: 600}))
	require.NoError(t, AddScreen(ScreenConfig{Name: "a", Width: 1024, Height: 768}))
	require.NoError(t, AddScreen(ScreenConfig{Name: "b", X: 1024, Width: 800, Height: 600}))

	s, err := GetScreen("a")
	require.NoError(t, err)
	assert.Equal(t, int32(1024), s.Width)
	assert.Len(t, Get().Screens, 2)
	assert.FileExists(t, path)

	require.NoError(t, RemoveScreen("a"))
	assert.Error(t, RemoveScreen("a"))
	_, err = GetScreen("a")
	assert.Error(t, err)
}

func TestInitMissingExplicitFile(t *testing.T) {
	withConfigPath(t, filepath.Join(t.TempDir(), "absent.toml"))

	require.NoError(t, Init())
	assert.Equal(t, "left_ptr", Get().Cursor.Default)
}
