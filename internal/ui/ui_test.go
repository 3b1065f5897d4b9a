package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bnema/swc/internal/cursor"
	"github.com/bnema/swc/internal/ipc"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatus() *ipc.Status {
	return &ipc.Status{
		Seat:          "seat0",
		PointerX:      960,
		PointerY:      540.5,
		Cursor:        "left_ptr",
		SessionActive: true,
		Screens: []ipc.ScreenStatus{
			{Name: "eDP-1", CRTC: 41, Width: 1920, Height: 1080, Mode: "hardware", PlaneOK: true},
			{Name: "HDMI-A-1", CRTC: 42, X: 1920, Width: 2560, Height: 1440, Mode: "software"},
		},
	}
}

func TestFormatControl(t *testing.T) {
	got := FormatControl("q", "Quit")
	assert.Contains(t, got, "q")
	assert.Contains(t, got, "Quit")
}

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name      string
		active    bool
		indicator string
	}{
		{"active", true, "●"},
		{"inactive", false, "○"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatStatus(tt.active, "session")
			assert.Contains(t, got, "session")
			assert.Contains(t, got, tt.indicator)
		})
	}
}

func TestFormatListItem(t *testing.T) {
	active := FormatListItem("hand", true)
	inactive := FormatListItem("hand", false)
	assert.Contains(t, active, "hand")
	assert.Contains(t, inactive, "hand")
	assert.Contains(t, inactive, "•")
	assert.Equal(t, lipgloss.Width(inactive), lipgloss.Width(active), "highlighting keeps the layout")
}

func TestRenderCursors(t *testing.T) {
	out := RenderCursors("left_ptr")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 1+len(cursor.All))
	assert.Contains(t, lines[0], "Cursors")
	for i, id := range cursor.All {
		assert.Contains(t, lines[i+1], id.String())
	}
	assert.Equal(t, FormatListItem("left_ptr", true), lines[1])
	assert.Equal(t, FormatListItem("hand", false), lines[2])
}

func TestCenter(t *testing.T) {
	got := Center(11, "abc")
	assert.Equal(t, 11, lipgloss.Width(got))
	assert.Equal(t, "    abc", strings.TrimRight(got, " "))
}

func TestModeStyle(t *testing.T) {
	assert.Equal(t, SuccessStyle.GetForeground(), ModeStyle("hardware").GetForeground())
	assert.Equal(t, WarningStyle.GetForeground(), ModeStyle("software").GetForeground())
	assert.Equal(t, ErrorStyle.GetForeground(), ModeStyle("none").GetForeground())
}

func TestCreateSeparator(t *testing.T) {
	assert.Contains(t, CreateSeparator(0, ""), strings.Repeat("─", 50))
	assert.Contains(t, CreateSeparator(3, "="), "===")
}

func TestRenderStatus(t *testing.T) {
	out := RenderStatus(sampleStatus())
	for _, want := range []string{"seat0", "960.00, 540.50", "left_ptr", "eDP-1", "1920x1080+0+0", "2560x1440+1920+0", "software"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "none", "empty focus renders as none")

	empty := RenderStatus(&ipc.Status{Seat: "seat1"})
	assert.Contains(t, empty, "no screens")
}

func TestWatchModelPolls(t *testing.T) {
	calls := 0
	m := NewWatchModel(func() (*ipc.Status, error) {
		calls++
		return sampleStatus(), nil
	}, nil, time.Second)

	cmd := m.Init()
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, 1, calls)

	_, next := m.Update(msg)
	assert.NotNil(t, next, "a status schedules the next tick")
	assert.Equal(t, "seat0", m.Status().Seat)
	assert.Contains(t, m.View(), "seat0")
	assert.Contains(t, m.View(), "crosshair", "the cursor list is shown")

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, m.View(), "swc watch")

	_, next = m.Update(tickMsg(time.Now()))
	require.NotNil(t, next)
	next()
	assert.Equal(t, 2, calls)
}

func TestWatchModelKeepsStatusOnError(t *testing.T) {
	m := NewWatchModel(nil, nil, time.Second)
	m.Update(statusMsg{status: sampleStatus()})
	m.Update(statusMsg{err: errors.New("swc is not running")})

	require.NotNil(t, m.Status())
	assert.Error(t, m.Err())
	view := m.View()
	assert.Contains(t, view, "seat0")
	assert.Contains(t, view, "swc is not running")
}

func TestWatchModelCyclesCursor(t *testing.T) {
	var requested []string
	m := NewWatchModel(nil, func(name string) (*ipc.Status, error) {
		requested = append(requested, name)
		return sampleStatus(), nil
	}, time.Second)

	for i := 0; i < 2; i++ {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
		require.NotNil(t, cmd)
		cmd()
	}
	assert.Equal(t, []string{"hand", "text"}, requested)
}

func TestWatchModelQuit(t *testing.T) {
	m := NewWatchModel(nil, nil, time.Second)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
