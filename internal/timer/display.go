package timer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles for timer display.
var (
	runningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981")) // Green

	stoppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")) // Purple

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#6B7280")) // Gray
)

// FormatElapsed formats seconds as H:MM:SS when an hour or more has passed,
// otherwise M:SS.
func FormatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// Label is the timer button text: the elapsed time, or "Start Timer" for a
// stopped timer that has never logged anything.
func Label(elapsed int64, running bool) string {
	if !running && elapsed <= 0 {
		return "Start Timer"
	}
	return FormatElapsed(elapsed)
}

// Display renders timer state for terminals.
type Display struct {
	Writer   io.Writer
	UseColor bool
}

// NewDisplay creates a display writing to stdout.
func NewDisplay() *Display {
	return &Display{
		Writer:   os.Stdout,
		UseColor: true,
	}
}

// RenderButton renders the timer button: a play or pause glyph and Label.
func (d *Display) RenderButton(elapsed int64, running bool) string {
	icon := "▶"
	style := stoppedStyle
	if running {
		icon = "⏸"
		style = runningStyle
	}
	text := fmt.Sprintf("%s %s", icon, Label(elapsed, running))
	if d.UseColor {
		return style.Render(text)
	}
	return text
}

// RenderStopwatch renders the full-screen stopwatch view.
func (d *Display) RenderStopwatch(title string, elapsed int64, running bool) string {
	var output string

	if d.UseColor {
		output += titleStyle.Render(title)
	} else {
		output += title
	}
	output += "\n\n"

	output += d.RenderButton(elapsed, running)
	output += "\n\n"

	hint := "Press SPACE to pause, Q to quit"
	if !running {
		hint = "[PAUSED] Press SPACE to resume, Q to quit"
	}
	if d.UseColor {
		output += hintStyle.Render(hint)
	} else {
		output += hint
	}

	return output
}

// ClearScreen clears the terminal screen.
func (d *Display) ClearScreen() {
	fmt.Fprint(d.Writer, "\033[H\033[2J")
}

// Render clears the screen and writes the stopwatch view.
func (d *Display) Render(title string, elapsed int64, running bool) {
	d.ClearScreen()
	// Raw mode needs explicit carriage returns.
	for _, line := range strings.Split(d.RenderStopwatch(title, elapsed, running), "\n") {
		fmt.Fprint(d.Writer, line, "\r\n")
	}
}
