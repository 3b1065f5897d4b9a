package ui

import (
	"fmt"
	"strings"

	"github.com/bnema/swc/internal/ipc"
	"github.com/charmbracelet/lipgloss"
)

// RenderStatus formats a seat status for the terminal
func RenderStatus(s *ipc.Status) string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("Seat " + s.Seat))
	b.WriteString("\n")

	session := "session inactive"
	if s.SessionActive {
		session = "session active"
	}
	b.WriteString(FormatStatus(s.SessionActive, session))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render("pointer"), InfoStyle.Render(fmt.Sprintf("%.2f, %.2f", s.PointerX, s.PointerY)))
	fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render("cursor "), TextStyle.Render(orNone(s.Cursor)))
	fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render("focus  "), TextStyle.Render(orNone(s.Focus)))

	if len(s.Screens) == 0 {
		b.WriteString(MutedStyle.Render("no screens"))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(RenderScreens(s.Screens))
	return b.String()
}

// RenderScreens formats the screen table
func RenderScreens(screens []ipc.ScreenStatus) string {
	header := []string{"SCREEN", "CRTC", "GEOMETRY", "CURSOR", "PLANE"}
	rows := make([][]string, 0, len(screens))
	for _, scr := range screens {
		plane := IconError
		if scr.PlaneOK {
			plane = IconSuccess
		}
		rows = append(rows, []string{
			scr.Name,
			fmt.Sprintf("%d", scr.CRTC),
			fmt.Sprintf("%dx%d+%d+%d", scr.Width, scr.Height, scr.X, scr.Y),
			scr.Mode,
			plane,
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(TableCellStyle.Width(widths[i] + 2).Render(TableHeaderStyle.Render(h)))
	}
	for _, row := range rows {
		b.WriteString("\n")
		for i, cell := range row {
			style := TextStyle
			if i == 3 {
				style = ModeStyle(cell)
			}
			b.WriteString(TableCellStyle.Width(widths[i] + 2).Render(style.Render(cell)))
		}
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
