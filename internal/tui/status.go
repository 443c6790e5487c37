package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/report"
	"github.com/manav03panchal/tasktime/internal/timer"
	"github.com/manav03panchal/tasktime/internal/tracker"
)

// MetricsComponent renders the metric cards above the task list.
type MetricsComponent struct {
	Metrics tracker.Metrics
	Total   int
}

// NewMetricsComponent creates a metrics component.
func NewMetricsComponent(m tracker.Metrics, total int) *MetricsComponent {
	return &MetricsComponent{Metrics: m, Total: total}
}

// View renders the cards side by side.
func (mc *MetricsComponent) View() string {
	timeCard := StyleCard
	if mc.Metrics.Active > 0 {
		timeCard = StyleActiveCard
	}

	rate := 0.0
	if mc.Total > 0 {
		rate = float64(mc.Metrics.Completed) * 100 / float64(mc.Total)
	}

	cards := []string{
		timeCard.Render(card("Total Time", StyleDuration.Render(report.FormatTime(mc.Metrics.TotalSeconds)))),
		StyleCard.Render(card("Active Tasks", StyleActive.Render(strconv.Itoa(mc.Metrics.Active)))),
		StyleCard.Render(card("Completed",
			StyleSuccess.Render(fmt.Sprintf("%d/%d", mc.Metrics.Completed, mc.Total))+"\n"+ProgressBar(rate, 12))),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func card(label, value string) string {
	return StyleSubtitle.Render(label) + "\n" + value
}

// TaskListComponent renders one row per task with its live timer.
type TaskListComponent struct {
	Tasks    []*model.Task
	Running  map[string]bool
	Selected int
	Width    int
}

// NewTaskListComponent creates a task list component.
func NewTaskListComponent(tasks []*model.Task, running map[string]bool, selected, width int) *TaskListComponent {
	return &TaskListComponent{
		Tasks:    tasks,
		Running:  running,
		Selected: selected,
		Width:    width,
	}
}

// View renders the task list.
func (tc *TaskListComponent) View() string {
	var content strings.Builder

	content.WriteString(StyleTitle.Render("Time Tracking"))
	content.WriteString("\n")

	if len(tc.Tasks) == 0 {
		content.WriteString(StyleInactive.Render("No tasks yet. Add one with 'tasktime task add'."))
	}
	for i, t := range tc.Tasks {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(tc.renderRow(t, i == tc.Selected))
	}

	return StyleTasksBox.Width(max(tc.Width-4, 20)).Render(content.String())
}

func (tc *TaskListComponent) renderRow(t *model.Task, selected bool) string {
	cursor := "  "
	title := StyleTask.Render(t.Title)
	if selected {
		cursor = StyleSelected.Render("> ")
		title = StyleSelected.Render(t.Title)
	}

	running := tc.Running[t.ID]
	icon := StyleInactive.Render("▶")
	clock := StyleInactive.Render(timer.Label(t.TimeLogged, false))
	if running {
		icon = StyleActive.Render("⏸")
		clock = StyleDuration.Render(timer.Label(t.TimeLogged, true))
	}

	return fmt.Sprintf("%s%s %s  %s  %s  %s", cursor, icon, clock, title,
		PriorityBadge(t.Priority), StatusBadge(t.Status))
}

// FocusComponent lists the pending tasks to work on next.
type FocusComponent struct {
	Tasks []*model.Task
	Limit int
}

// NewFocusComponent picks the first limit tasks of model.FocusList.
func NewFocusComponent(tasks []*model.Task, limit int) *FocusComponent {
	focus := model.FocusList(tasks)
	if limit > 0 && len(focus) > limit {
		focus = focus[:limit]
	}
	return &FocusComponent{Tasks: focus, Limit: limit}
}

// View renders the focus list, or nothing when no task is pending.
func (fc *FocusComponent) View() string {
	if len(fc.Tasks) == 0 {
		return ""
	}
	lines := []string{StyleSubtitle.Render("Focus next")}
	for i, t := range fc.Tasks {
		lines = append(lines, fmt.Sprintf("%d. %s %s", i+1, t.Title, PriorityBadge(t.Priority)))
	}
	return StyleFocusBox.Render(strings.Join(lines, "\n"))
}

// HelpBar renders the help bar at the bottom.
func HelpBar() string {
	keys := []struct {
		key  string
		desc string
	}{
		{"↑/↓", "select"},
		{"space", "start/pause"},
		{"c", "complete"},
		{"r", "refresh"},
		{"q", "quit"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, StyleHelpKey.Render(k.key)+" "+StyleHelpDesc.Render(k.desc))
	}

	return StyleHelp.Render(strings.Join(parts, "  •  "))
}
