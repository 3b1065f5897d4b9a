package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/swc/internal/cursor"
	"github.com/bnema/swc/internal/ipc"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusFunc fetches the current status
type StatusFunc func() (*ipc.Status, error)

// SetCursorFunc asks for a built-in cursor
type SetCursorFunc func(name string) (*ipc.Status, error)

type statusMsg struct {
	status *ipc.Status
	err    error
}

type tickMsg time.Time

// WatchModel polls a running seat and shows its status
type WatchModel struct {
	fetch     StatusFunc
	setCursor SetCursorFunc
	interval  time.Duration
	status    *ipc.Status
	err       error
	cursor    int
	width     int
	height    int
}

// NewWatchModel creates a model polling every interval
func NewWatchModel(fetch StatusFunc, setCursor SetCursorFunc, interval time.Duration) *WatchModel {
	return &WatchModel{
		fetch:     fetch,
		setCursor: setCursor,
		interval:  interval,
	}
}

func (m *WatchModel) Init() tea.Cmd {
	return m.poll()
}

func (m *WatchModel) poll() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		status, err := fetch()
		return statusMsg{status: status, err: err}
	}
}

func (m *WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.poll()
		case "c":
			if m.setCursor == nil {
				return m, nil
			}
			m.cursor = (m.cursor + 1) % len(cursor.All)
			name := cursor.All[m.cursor].String()
			set := m.setCursor
			return m, func() tea.Msg {
				status, err := set(name)
				return statusMsg{status: status, err: err}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case statusMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		return m, m.tick()

	case tickMsg:
		return m, m.poll()
	}
	return m, nil
}

func (m *WatchModel) View() string {
	var body string
	switch {
	case m.status != nil:
		body = RenderStatus(m.status) + "\n\n" + RenderCursors(m.status.Cursor)
	case m.err != nil:
		body = ErrorStyle.Render(fmt.Sprintf("%s %v", IconError, m.err))
	default:
		body = MutedStyle.Render("Waiting for seat...")
	}

	// A failed poll keeps the last status on screen.
	if m.status != nil && m.err != nil {
		body += "\n\n" + WarningStyle.Render(fmt.Sprintf("%s %v", IconWarning, m.err))
	}

	controls := []string{
		FormatControl("c", "Cycle cursor"),
		FormatControl("r", "Refresh"),
		FormatControl("q", "Quit"),
	}

	title := TitleStyle.Render("swc watch")
	if m.width > 0 {
		title = Center(m.width-BoxStyle.GetHorizontalFrameSize(), title)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		body,
		"",
		MutedStyle.Render(strings.Join(controls, "  •  ")),
	)

	if m.width == 0 {
		return content
	}
	return BoxStyle.Render(content)
}

// RenderCursors lists the built-in cursors the c key cycles through, marking
// the one in use.
func RenderCursors(current string) string {
	lines := []string{BoldStyle.Render("Cursors")}
	for _, id := range cursor.All {
		lines = append(lines, FormatListItem(id.String(), id.String() == current))
	}
	return strings.Join(lines, "\n")
}

// Status returns the last status received
func (m *WatchModel) Status() *ipc.Status {
	return m.status
}

// Err returns the last poll error
func (m *WatchModel) Err() error {
	return m.err
}
