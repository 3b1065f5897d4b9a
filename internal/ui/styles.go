// Package ui provides consistent styling and components for the swc CLI
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across the application
var (
	ColorPrimary   = lipgloss.Color("39")  // Bright blue
	ColorSecondary = lipgloss.Color("205") // Pink/magenta
	ColorSuccess   = lipgloss.Color("82")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorInfo      = lipgloss.Color("86")  // Cyan

	ColorText      = lipgloss.Color("252") // Light gray
	ColorSubtle    = lipgloss.Color("241") // Medium gray
	ColorMuted     = lipgloss.Color("238") // Dark gray
	ColorHighlight = lipgloss.Color("255") // White

	ColorActive   = ColorPrimary
	ColorInactive = ColorSubtle
)

// Base styles
var (
	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorMuted).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Padding(1, 2)

	ListItemStyle = lipgloss.NewStyle().
			Foreground(ColorText)
)

// Indicators
var (
	ActiveIndicator = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Render("●")

	InactiveIndicator = lipgloss.NewStyle().
				Foreground(ColorError).
				Render("○")

	ControlKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	ControlDescStyle = lipgloss.NewStyle().
				Foreground(ColorText)
)

// Table styles
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary)

	TableCellStyle = lipgloss.NewStyle().
			PaddingRight(2)
)

// Icons
var (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
)

func FormatControl(key, desc string) string {
	return ControlKeyStyle.Render(key) + " - " + ControlDescStyle.Render(desc)
}

func FormatStatus(active bool, status string) string {
	indicator := InactiveIndicator
	if active {
		indicator = ActiveIndicator
	}
	return indicator + " " + status
}

// FormatListItem renders one entry of a list, highlighting the active one.
func FormatListItem(item string, active bool) string {
	if active {
		bullet := lipgloss.NewStyle().Foreground(ColorActive).Render("•")
		return "  " + bullet + " " + BoldStyle.Foreground(ColorHighlight).Render(item)
	}
	return "  • " + ListItemStyle.Render(item)
}

// ModeStyle colors a cursor mode name: hardware is the healthy case,
// software is degraded, anything else means no cursor.
func ModeStyle(mode string) lipgloss.Style {
	switch mode {
	case "hardware":
		return SuccessStyle
	case "software":
		return WarningStyle
	default:
		return ErrorStyle
	}
}

// Center places content in the middle of a line of the given width.
func Center(width int, content string) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, content)
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50
	}
	if char == "" {
		char = "─"
	}

	return lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(strings.Repeat(char, width))
}
