// Package tui provides the interactive time-tracking dashboard for Tasktime.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/tasktime/internal/model"
)

// Color palette for the TUI dashboard.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#10B981") // Green
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorActive    = lipgloss.Color("#3B82F6") // Blue
	ColorBorder    = lipgloss.Color("#4B5563") // Dark gray
)

// Base styles for the TUI.
var (
	// StyleTitle is used for section titles.
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// StyleSubtitle is used for secondary information.
	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// StyleTask is used for task titles.
	StyleTask = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	// StyleDuration is used for timer values.
	StyleDuration = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorActive)

	StyleActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	StyleInactive = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// StyleSelected marks the row under the cursor.
	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// StyleHelp is used for help text at the bottom.
	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)

	StyleHelpKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	StyleHelpDesc = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Box styles for different sections.
var (
	// StyleCard is used for a metrics card.
	StyleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 2).
			MarginRight(1)

	// StyleActiveCard highlights the card of a running timer.
	StyleActiveCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSuccess).
			Padding(0, 2).
			MarginRight(1)

	// StyleTasksBox is used for the task list section.
	StyleTasksBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2).
			MarginBottom(1)

	// StyleFocusBox is used for the focus list section.
	StyleFocusBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 2).
			MarginBottom(1)
)

var priorityColors = map[model.Priority]lipgloss.Color{
	model.PriorityHigh:   ColorError,
	model.PriorityMedium: ColorWarning,
	model.PriorityLow:    ColorSecondary,
}

var statusColors = map[model.Status]lipgloss.Color{
	model.StatusTodo:       ColorMuted,
	model.StatusInProgress: ColorActive,
	model.StatusCompleted:  ColorSuccess,
}

// PriorityBadge renders a priority in its color.
func PriorityBadge(p model.Priority) string {
	return lipgloss.NewStyle().Foreground(priorityColors[p]).Render(string(p))
}

// StatusBadge renders a status label in its color.
func StatusBadge(s model.Status) string {
	return lipgloss.NewStyle().Foreground(statusColors[s]).Render(s.Label())
}

// ProgressBar creates a progress bar string.
func ProgressBar(percentage float64, width int) string {
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	filled := int(float64(width) * percentage / 100)
	empty := width - filled

	filledStyle := lipgloss.NewStyle().Foreground(ColorSuccess)
	emptyStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	return filledStyle.Render(strings.Repeat("█", filled)) + // Full block
		emptyStyle.Render(strings.Repeat("░", empty)) // Light shade
}
