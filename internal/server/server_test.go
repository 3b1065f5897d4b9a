package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/swc/internal/config"
	"github.com/bnema/swc/internal/ipc"
	"github.com/bnema/swc/internal/pointer"
)

func headlessConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig
	cfg.DRM.Headless = true
	cfg.Session.VTSwitching = false
	cfg.IPC.Socket = filepath.Join(t.TempDir(), "swc.sock")
	cfg.Screens = []config.ScreenConfig{
		{Name: "left", CRTC: 1, Width: 1920, Height: 1080},
		{Name: "right", CRTC: 2, X: 1920, Width: 1280, Height: 1024},
	}
	return &cfg
}

func TestNewHeadless(t *testing.T) {
	s, err := New(headlessConfig(t))
	require.NoError(t, err)
	defer s.Close()

	assert.NotNil(t, s.Headless())
	assert.Equal(t, 2, s.Screens().Len())
	assert.Same(t, s.Headless(), s.Allocator())

	status := s.Status()
	assert.Equal(t, "seat0", status.Seat)
	assert.Equal(t, 960.0, status.PointerX)
	assert.Equal(t, 540.0, status.PointerY)
	assert.Equal(t, "left_ptr", status.Cursor)
	assert.True(t, status.SessionActive)
	require.Len(t, status.Screens, 2)
	assert.Equal(t, "hardware", status.Screens[0].Mode)
	assert.True(t, status.Screens[0].PlaneOK)
	assert.Equal(t, int32(1920), status.Screens[1].X)
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"unknown cursor", func(c *config.Config) { c.Cursor.Default = "spinner" }},
		{"duplicate screen", func(c *config.Config) { c.Screens[1].Name = "left" }},
		{"empty screen", func(c *config.Config) { c.Screens[0].Width = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := headlessConfig(t)
			tt.modify(cfg)
			_, err := New(cfg)
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestSoftwareOnlyConfig(t *testing.T) {
	cfg := headlessConfig(t)
	cfg.Cursor.Hardware = false
	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Close()

	for _, scr := range s.Status().Screens {
		assert.Equal(t, "software", scr.Mode)
		assert.False(t, scr.PlaneOK)
	}
}

func TestRunServesIPC(t *testing.T) {
	cfg := headlessConfig(t)
	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	client := ipc.NewClientWithTimeout(cfg.IPC.Socket, time.Second)
	require.Eventually(t, client.IsRunning, 2*time.Second, 10*time.Millisecond)

	status, err := client.SendSetCursor("hand")
	require.NoError(t, err)
	assert.Equal(t, "hand", status.Cursor)

	_, err = client.SendSetCursor("spinner")
	assert.Error(t, err)

	status, err = client.SendStatus()
	require.NoError(t, err)
	assert.Equal(t, "hand", status.Cursor)
	assert.Len(t, status.Screens, 2)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestEmergencyReleaseDropsGrab(t *testing.T) {
	s, err := New(headlessConfig(t))
	require.NoError(t, err)
	defer s.Close()

	p := s.Seat().Pointer()
	p.SetGrab(pointer.GrabFuncs{})
	require.NotNil(t, p.Grab())

	s.emergency.Release("test")
	assert.Nil(t, p.Grab())
	assert.Less(t, s.emergency.Idle(), time.Second)
}

func TestActivityPointerRecordsInput(t *testing.T) {
	s, err := New(headlessConfig(t))
	require.NoError(t, err)
	defer s.Close()

	s.emergency.lastActivity.Store(0)
	require.Greater(t, s.emergency.Idle(), time.Hour)

	ap := activityPointer{s.Seat().Pointer(), s.emergency}
	ap.HandleButton(1, 0x110, 1)
	assert.Less(t, s.emergency.Idle(), time.Second)
}
