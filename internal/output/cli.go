package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/parser"
	"github.com/manav03panchal/tasktime/internal/report"
	"github.com/manav03panchal/tasktime/internal/timer"
)

// Styles for CLI output.
var (
	// Colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#10B981") // Green
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorWarning   = lipgloss.Color("#F59E0B") // Yellow
	colorError     = lipgloss.Color("#EF4444") // Red
	colorSuccess   = lipgloss.Color("#10B981") // Green
	colorInfo      = lipgloss.Color("#3B82F6") // Blue

	// Styles
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)

	styleTask = lipgloss.NewStyle().
			Foreground(colorSecondary)

	styleDuration = lipgloss.NewStyle().
			Bold(true)

	styleNote = lipgloss.NewStyle().
			Italic(true).
			Foreground(colorMuted)

	priorityStyles = map[model.Priority]lipgloss.Style{
		model.PriorityHigh:   lipgloss.NewStyle().Foreground(colorError),
		model.PriorityMedium: lipgloss.NewStyle().Foreground(colorWarning),
		model.PriorityLow:    lipgloss.NewStyle().Foreground(colorSecondary),
	}

	statusStyles = map[model.Status]lipgloss.Style{
		model.StatusTodo:       lipgloss.NewStyle().Foreground(colorMuted),
		model.StatusInProgress: lipgloss.NewStyle().Foreground(colorInfo),
		model.StatusCompleted:  lipgloss.NewStyle().Foreground(colorSuccess),
	}
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

func (c *CLIFormatter) render(style lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return style.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// TaskName formats a task title.
func (c *CLIFormatter) TaskName(name string) string {
	return c.render(styleTask, name)
}

// Duration formats a duration.
func (c *CLIFormatter) Duration(text string) string {
	return c.render(styleDuration, text)
}

// Note formats a note.
func (c *CLIFormatter) Note(text string) string {
	return c.render(styleNote, text)
}

// Priority formats a priority badge.
func (c *CLIFormatter) Priority(p model.Priority) string {
	return c.render(priorityStyles[p], string(p))
}

// Status formats a status badge.
func (c *CLIFormatter) Status(s model.Status) string {
	return c.render(statusStyles[s], s.Label())
}

// PrintOffline prints the local-only notice for a write that did not reach
// the API.
func (c *CLIFormatter) PrintOffline(offline bool) {
	if offline {
		c.Warning("Saved locally; the task API is unreachable.")
	}
}

// PrintTask prints the detail view of one task. elapsed is the live timer
// value in seconds.
func (c *CLIFormatter) PrintTask(t *model.Task, elapsed int64, now time.Time) {
	c.Printf("%s  %s\n", c.TaskName(t.Title), c.render(styleMuted, "#"+t.ID))
	if t.Description != "" {
		c.Printf("  %s\n", c.Note(t.Description))
	}
	c.Printf("  Status:   %s\n", c.Status(t.Status))
	c.Printf("  Priority: %s\n", c.Priority(t.Priority))
	if due, ok := t.DueTime(); ok {
		c.Printf("  Due:      %s (%s)\n", t.DueDate, parser.FormatDueRelative(due, now))
	}
	c.Printf("  Time:     %s\n", c.Duration(timer.FormatElapsed(elapsed)))
	if t.AssignedUser != "" {
		c.Printf("  Assigned: %s\n", t.AssignedUser)
	}
	if !t.CreatedAt.IsZero() {
		c.Printf("  Created:  %s\n", FormatTimestamp(t.CreatedAt))
	}
}

// PrintTaskList prints tasks as a table. elapsed maps task IDs to live timer
// values; tasks missing from it show their stored time.
func (c *CLIFormatter) PrintTaskList(tasks []*model.Task, elapsed map[string]int64) {
	if len(tasks) == 0 {
		c.Muted("No tasks found.")
		c.Muted("Use 'tasktime task add <title>' to create one.")
		return
	}

	rows := make([]TableRow, len(tasks))
	var total int64
	for i, t := range tasks {
		secs, ok := elapsed[t.ID]
		if !ok {
			secs = t.TimeLogged
		}
		total += secs
		due := t.DueDate
		if due == "" {
			due = "-"
		}
		rows[i] = TableRow{Columns: []string{
			shortID(t.ID),
			truncate(t.Title, 40),
			string(t.Priority),
			t.Status.Label(),
			due,
			timer.FormatElapsed(secs),
		}}
	}

	c.PrintTable([]string{"ID", "TITLE", "PRIORITY", "STATUS", "DUE", "TIME"}, rows)
	c.Println()
	c.Printf("%d %s, %s tracked\n", len(tasks), plural(len(tasks), "task", "tasks"), c.Duration(report.FormatTime(total)))
}

// PrintTimerStarted prints the result of starting a task's timer.
func (c *CLIFormatter) PrintTimerStarted(t *model.Task, elapsed int64, paused *model.Task) {
	if paused != nil {
		c.Muted(fmt.Sprintf("Previous timer paused: %s", paused.Title))
	}
	c.Success(fmt.Sprintf("Timer started: %s", c.TaskName(t.Title)))
	c.Printf("  Elapsed: %s\n", c.Duration(timer.FormatElapsed(elapsed)))
}

// PrintTimerPaused prints the result of pausing a task's timer.
func (c *CLIFormatter) PrintTimerPaused(t *model.Task) {
	c.Success(fmt.Sprintf("Timer paused: %s", c.TaskName(t.Title)))
	c.Printf("  Logged: %s\n", c.Duration(timer.FormatElapsed(t.TimeLogged)))
}

// PrintCompleted prints the result of completing a task.
func (c *CLIFormatter) PrintCompleted(t *model.Task) {
	c.Success(fmt.Sprintf("Task completed: %s", c.TaskName(t.Title)))
	c.Printf("  Logged: %s\n", c.Duration(report.FormatTime(t.TimeLogged)))
}

// PrintStatus prints the running task, if any.
func (c *CLIFormatter) PrintStatus(t *model.Task, elapsed int64) {
	if t == nil {
		c.Muted("No active timer.")
		c.Muted("Use 'tasktime start <id>' to begin.")
		return
	}
	c.Printf("Currently tracking: %s\n", c.TaskName(t.Title))
	c.Printf("  ID:      %s\n", t.ID)
	c.Printf("  Elapsed: %s\n", c.Duration(timer.FormatElapsed(elapsed)))
	if t.StartedAt != nil {
		c.Printf("  Since:   %s\n", FormatTimestamp(*t.StartedAt))
	}
}

// PrintNoActiveTimer prints a message when there is nothing to stop.
func (c *CLIFormatter) PrintNoActiveTimer() {
	c.Warning("No active timer to stop.")
	c.Muted("Use 'tasktime start <id>' to begin tracking.")
}

// PrintReport prints a report with the distribution selected by its kind
// first.
func (c *CLIFormatter) PrintReport(rep *report.Report) {
	m := rep.Metrics
	c.Title(fmt.Sprintf("Report (%s)", rep.Period))
	c.Println()
	c.Printf("  Total tasks:     %d\n", m.TotalTasks)
	c.Printf("  Completed:       %d (%.1f%%)\n", m.Completed, m.CompletionRate)
	c.Printf("  Time tracked:    %s\n", c.Duration(report.FormatTime(m.TotalSeconds)))
	c.Printf("  Avg per task:    %s\n", report.FormatTime(m.AverageSeconds))
	if m.HighPriorityTotal > 0 {
		c.Printf("  High priority:   %.1f%% completed\n", m.HighPriorityRate)
	}
	c.Println()

	switch rep.Kind {
	case report.KindPriority:
		c.printBuckets("By priority", rep.ByPriority, m.TotalTasks, false)
		c.printBuckets("By status", rep.ByStatus, m.TotalTasks, false)
	case report.KindTime:
		c.printBuckets("Hours by status", rep.ByStatus, m.TotalTasks, true)
	default:
		c.printBuckets("By status", rep.ByStatus, m.TotalTasks, false)
		c.printBuckets("By priority", rep.ByPriority, m.TotalTasks, false)
	}

	c.Printf("%s\n", c.render(styleBold, "Insights"))
	for _, line := range rep.Insights {
		c.Printf("  • %s\n", line)
	}
}

func (c *CLIFormatter) printBuckets(title string, buckets []report.Bucket, total int, hours bool) {
	c.Printf("%s\n", c.render(styleBold, title))
	var maxHours float64
	for _, b := range buckets {
		if b.Hours > maxHours {
			maxHours = b.Hours
		}
	}
	for _, b := range buckets {
		var pct float64
		var value string
		if hours {
			if maxHours > 0 {
				pct = b.Hours / maxHours * 100
			}
			value = fmt.Sprintf("%.1fh", b.Hours)
		} else {
			if total > 0 {
				pct = float64(b.Count) / float64(total) * 100
			}
			value = fmt.Sprintf("%d", b.Count)
		}
		c.Printf("  %-12s %s %s\n", b.Label, ProgressBar(pct, 20), value)
	}
	c.Println()
}

// PrintCalendar prints the days of a month that have tasks due.
func (c *CLIFormatter) PrintCalendar(month parser.TimeRange, days []report.Day) {
	c.Title(month.Start.Format("January 2006"))
	if len(days) == 0 {
		c.Muted("No tasks due this month.")
		return
	}
	for _, d := range days {
		c.Println()
		c.Printf("%s\n", c.render(styleBold, d.Date.Format("Mon Jan 2")))
		for _, t := range d.Tasks {
			c.Printf("  %s %s  %s\n", c.Status(t.Status), c.TaskName(t.Title), c.Priority(t.Priority))
		}
	}
}

// ProgressBar creates a simple progress bar.
func ProgressBar(percentage float64, width int) string {
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	filled := int(float64(width) * percentage / 100)
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return bar
}

// Table helpers for CLI output.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && lipgloss.Width(col) > widths[i] {
				widths[i] = lipgloss.Width(col)
			}
		}
	}

	// Print headers
	var headerLine strings.Builder
	for i, h := range headers {
		headerLine.WriteString(pad(h, widths[i]) + "  ")
	}
	c.Println(c.render(styleBold, strings.TrimRight(headerLine.String(), " ")))

	// Print separator
	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	// Print rows
	for _, row := range rows {
		var rowLine strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				rowLine.WriteString(pad(col, widths[i]) + "  ")
			}
		}
		c.Println(strings.TrimRight(rowLine.String(), " "))
	}
}

func pad(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// shortID keeps numeric IDs whole and trims local UUIDs to eight characters.
func shortID(id string) string {
	if len(id) > 8 && strings.Count(id, "-") == 4 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
