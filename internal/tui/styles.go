// Package tui provides terminal styling and the history monitor for gitsync.
package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jayteealao/gitsync/internal/state"
)

// Colors
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorDanger    = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("240") // Dark gray
)

// Styles for the TUI
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)

	NormalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	StatusSucceeded = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	StatusFailed = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)

	StatusRunning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StatusInterrupted = lipgloss.NewStyle().
				Foreground(ColorMuted)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Padding(1, 0)

	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary).
			Width(14)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	OutputStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorMuted).
			PaddingLeft(1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)
)

// GetStatusStyle returns the appropriate style for a sync status.
func GetStatusStyle(status string) lipgloss.Style {
	switch status {
	case state.StatusSucceeded:
		return StatusSucceeded
	case state.StatusFailed:
		return StatusFailed
	case state.StatusRunning:
		return StatusRunning
	case state.StatusInterrupted:
		return StatusInterrupted
	default:
		return NormalStyle
	}
}

// GetStatusIcon returns an icon for the given sync status.
func GetStatusIcon(status string) string {
	switch status {
	case state.StatusSucceeded:
		return "●"
	case state.StatusFailed:
		return "✗"
	case state.StatusRunning:
		return "◐"
	case state.StatusInterrupted:
		return "⚠"
	default:
		return "?"
	}
}

// GetOperationIcon returns an arrow showing the direction of a sync.
func GetOperationIcon(operation string) string {
	switch operation {
	case "push":
		return "↑"
	case "pull":
		return "↓"
	default:
		return " "
	}
}
