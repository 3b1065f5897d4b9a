package script

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/swc/internal/drm"
	"github.com/bnema/swc/internal/pointer"
)

func run(t *testing.T, s *Script) (*Runner, error) {
	t.Helper()
	r, err := NewRunner(s)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, r.Run(context.Background())
}

func TestTestdataScripts(t *testing.T) {
	paths, err := filepath.Glob("testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := Load(path)
			require.NoError(t, err)
			_, err = run(t, s)
			assert.NoError(t, err)
		})
	}
}

func TestVTScriptRearmsCursor(t *testing.T) {
	s, err := Load("testdata/vt.yaml")
	require.NoError(t, err)
	r, err := run(t, s)
	require.NoError(t, err)

	null := r.Server().Headless()
	p := r.Server().Seat().Pointer()
	assert.Equal(t, []drm.Call{
		{Op: "move", CRTC: 1, X: 970, Y: 550},
		{Op: "set", CRTC: 1, Handle: null.Handle(p.CursorBuffer()), Width: pointer.CursorSize, Height: pointer.CursorSize},
	}, null.Calls)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid",
			yaml: "screens: [{name: a, width: 10, height: 10}]\nsteps: [{dispatch: true}]\n",
		},
		{
			name:    "unknown key",
			yaml:    "steps: [{teleport: {x: 1}}]\n",
			wantErr: "teleport",
		},
		{
			name:    "empty step",
			yaml:    "steps: [{}]\n",
			wantErr: "no action",
		},
		{
			name:    "two actions",
			yaml:    "steps: [{dispatch: true, cursor: hand}]\n",
			wantErr: "several actions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig(t *testing.T) {
	off := false
	s := &Script{Seat: "seat1", Cursor: "hand", Hardware: &off}
	cfg := s.Config()
	assert.True(t, cfg.DRM.Headless)
	assert.False(t, cfg.Session.VTSwitching)
	assert.Empty(t, cfg.IPC.Socket)
	assert.Equal(t, "seat1", cfg.Seat.Name)
	assert.Equal(t, "hand", cfg.Cursor.Default)
	assert.False(t, cfg.Cursor.Hardware)
	assert.True(t, cfg.Cursor.SoftwareFallback)
}

func TestFailedExpectation(t *testing.T) {
	s, err := Parse([]byte(`
screens: [{name: a, width: 100, height: 100}]
steps:
  - motion: {dx: 10, dy: 0}
  - expect: {pointer: [0, 0], cursor: hand}
`))
	require.NoError(t, err)

	_, err = run(t, s)
	require.ErrorIs(t, err, ErrExpectation)
	assert.Contains(t, err.Error(), "step 2")
	assert.Contains(t, err.Error(), "pointer at (60, 50)")
	assert.Contains(t, err.Error(), "cursor is left_ptr")
}

func TestExpectedErrorMustOccur(t *testing.T) {
	s, err := Parse([]byte(`
steps:
  - cursor: hand
    error: boom
`))
	require.NoError(t, err)

	_, err = run(t, s)
	assert.ErrorIs(t, err, ErrExpectation)
}

func TestStepErrorsStopTheRun(t *testing.T) {
	s, err := Parse([]byte(`
steps:
  - bind: {client: ghost, pointer: 1}
  - connect: never
`))
	require.NoError(t, err)

	r, err := run(t, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown client "ghost"`)
	assert.Empty(t, r.clients, "later steps did not run")
}

func TestManualDispatch(t *testing.T) {
	s, err := Parse([]byte(`
manual_dispatch: true
screens: [{name: a, width: 100, height: 100}]
steps:
  - connect: c
  - bind: {client: c, keyboard: 1}
  - window: {client: c, id: 5, width: 10, height: 10}
  - focus: {client: c, id: 5}
  - expect: {focus: none}
  - dispatch: true
  - expect: {focus: "c:5"}
`))
	require.NoError(t, err)

	_, err = run(t, s)
	assert.NoError(t, err)
}
