package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/parser"
	"github.com/manav03panchal/tasktime/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Formatter Tests
// =============================================================================

func TestNewFormatter(t *testing.T) {
	f := NewFormatter()
	assert.NotNil(t, f)
	assert.Equal(t, FormatCLI, f.Format)
	assert.Equal(t, ColorAuto, f.ColorMode)
	assert.False(t, f.NoNewline)
}

func TestFormatterIsColorEnabled(t *testing.T) {
	t.Run("color_always", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorAlways}
		assert.True(t, f.IsColorEnabled())
	})

	t.Run("color_never", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorNever}
		assert.False(t, f.IsColorEnabled())
	})

	t.Run("plain_never_colors", func(t *testing.T) {
		f := &Formatter{Format: FormatPlain, ColorMode: ColorAlways}
		assert.False(t, f.IsColorEnabled())
	})

	t.Run("color_auto_non_terminal", func(t *testing.T) {
		var buf bytes.Buffer
		f := &Formatter{
			Writer:    &buf,
			ColorMode: ColorAuto,
		}
		// Buffer is not a terminal
		assert.False(t, f.IsColorEnabled())
	})
}

func TestFormatterPrint(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	f.Print("hello")
	assert.Equal(t, "hello", buf.String())
}

func TestFormatterPrintln(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	f.Println("hello")
	assert.Equal(t, "hello\n", buf.String())
}

func TestFormatterPrintf(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	f.Printf("hello %s", "world")
	assert.Equal(t, "hello world", buf.String())
}

func TestFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	data := map[string]string{"key": "value"}
	err := f.JSON(data)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"key": "value"`)
}

func TestFormatterPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	data := map[string]int{"count": 42}
	err := f.PrintJSON(data)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"count": 42`)
}

// =============================================================================
// Format and ColorMode Constants Tests
// =============================================================================

func TestFormatConstants(t *testing.T) {
	assert.Equal(t, Format("cli"), FormatCLI)
	assert.Equal(t, Format("json"), FormatJSON)
	assert.Equal(t, Format("plain"), FormatPlain)
}

func TestColorModeConstants(t *testing.T) {
	assert.Equal(t, ColorMode("auto"), ColorAuto)
	assert.Equal(t, ColorMode("always"), ColorAlways)
	assert.Equal(t, ColorMode("never"), ColorNever)
}

// =============================================================================
// Duration Formatting Tests
// =============================================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0s"},
		{30 * time.Second, "30s"},
		{59 * time.Second, "59s"},
		{60 * time.Second, "1m"},
		{90 * time.Second, "1m 30s"},
		{5 * time.Minute, "5m"},
		{5*time.Minute + 30*time.Second, "5m 30s"},
		{59 * time.Minute, "59m"},
		{60 * time.Minute, "1h"},
		{90 * time.Minute, "1h 30m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{8*time.Hour + 30*time.Minute, "8h 30m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatDuration(tt.duration)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseColorMode(t *testing.T) {
	m, err := ParseColorMode("never")
	require.NoError(t, err)
	assert.Equal(t, ColorNever, m)

	_, err = ParseColorMode("sometimes")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	tm := time.Date(2024, 1, 15, 14, 30, 45, 0, time.Local)
	assert.Equal(t, "2024-01-15", FormatDate(tm))
	assert.Equal(t, "2024-01-15 14:30", FormatTimestamp(tm))
}

// =============================================================================
// CLIFormatter Tests
// =============================================================================

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.Local)

func newCLI() (*CLIFormatter, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewCLIFormatter(&Formatter{Writer: &buf, ColorMode: ColorNever}), &buf
}

func sampleTask() *model.Task {
	return &model.Task{
		ID:          "42",
		Title:       "Write report",
		Description: "Quarterly numbers",
		Priority:    model.PriorityHigh,
		Status:      model.StatusInProgress,
		DueDate:     "Oct 19, 2026",
		TimeLogged:  125,
		CreatedAt:   now,
	}
}

func TestCLIFormatterMessages(t *testing.T) {
	c, buf := newCLI()

	c.Title("Tasks")
	c.Success("done")
	c.Warning("careful")
	c.Error("broken")
	c.Muted("quiet")

	assert.Equal(t, "Tasks\n✓ done\n⚠ careful\n✗ broken\nquiet\n", buf.String())
}

func TestCLIFormatterColor(t *testing.T) {
	var buf bytes.Buffer
	c := NewCLIFormatter(&Formatter{Writer: &buf, ColorMode: ColorAlways})
	assert.Contains(t, c.TaskName("x"), "x")
	assert.Equal(t, "high", NewCLIFormatter(&Formatter{ColorMode: ColorNever}).Priority(model.PriorityHigh))
	assert.Equal(t, "In Progress", NewCLIFormatter(&Formatter{ColorMode: ColorNever}).Status(model.StatusInProgress))
}

func TestCLIFormatterPrintTask(t *testing.T) {
	c, buf := newCLI()
	task := sampleTask()
	task.AssignedUser = "7"

	c.PrintTask(task, 130, now)

	out := buf.String()
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "#42")
	assert.Contains(t, out, "Quarterly numbers")
	assert.Contains(t, out, "In Progress")
	assert.Contains(t, out, "Oct 19, 2026 (tomorrow)")
	assert.Contains(t, out, "2:10")
	assert.Contains(t, out, "Assigned: 7")
}

func TestCLIFormatterPrintTaskList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		c, buf := newCLI()
		c.PrintTaskList(nil, nil)
		assert.Contains(t, buf.String(), "No tasks found.")
	})

	t.Run("rows_use_live_elapsed", func(t *testing.T) {
		c, buf := newCLI()
		local := &model.Task{
			ID:       "0b7f6c1e-5d7a-4f5e-9a55-3c8a1d2e4f60",
			Title:    "Offline task",
			Priority: model.PriorityLow,
			Status:   model.StatusTodo,
		}
		c.PrintTaskList([]*model.Task{sampleTask(), local}, map[string]int64{"42": 3600})

		out := buf.String()
		assert.Contains(t, out, "TITLE")
		assert.Contains(t, out, "1:00:00")
		assert.Contains(t, out, "0b7f6c1e ")
		assert.NotContains(t, out, "3c8a1d2e4f60")
		assert.Contains(t, out, "2 tasks, 1h 0m tracked")
	})
}

func TestCLIFormatterTimerMessages(t *testing.T) {
	c, buf := newCLI()
	paused := &model.Task{ID: "1", Title: "Old", TimeLogged: 10}

	c.PrintTimerStarted(sampleTask(), 125, paused)
	c.PrintTimerPaused(paused)
	c.PrintCompleted(&model.Task{Title: "Done", TimeLogged: 5400})
	c.PrintOffline(true)

	out := buf.String()
	assert.Contains(t, out, "Previous timer paused: Old")
	assert.Contains(t, out, "✓ Timer started: Write report")
	assert.Contains(t, out, "Elapsed: 2:05")
	assert.Contains(t, out, "Timer paused: Old")
	assert.Contains(t, out, "Logged: 0:10")
	assert.Contains(t, out, "Logged: 1h 30m")
	assert.Contains(t, out, "Saved locally")
}

func TestCLIFormatterPrintStatus(t *testing.T) {
	t.Run("tracking", func(t *testing.T) {
		c, buf := newCLI()
		c.PrintStatus(sampleTask(), 61)
		assert.Contains(t, buf.String(), "Currently tracking: Write report")
		assert.Contains(t, buf.String(), "1:01")
	})

	t.Run("idle", func(t *testing.T) {
		c, buf := newCLI()
		c.PrintStatus(nil, 0)
		assert.Contains(t, buf.String(), "No active timer.")
	})

	t.Run("nothing_to_stop", func(t *testing.T) {
		c, buf := newCLI()
		c.PrintNoActiveTimer()
		assert.Contains(t, buf.String(), "No active timer to stop.")
	})
}

func TestCLIFormatterPrintReport(t *testing.T) {
	tasks := []*model.Task{
		sampleTask(),
		{ID: "2", Title: "b", Priority: model.PriorityLow, Status: model.StatusCompleted, TimeLogged: 3600},
	}
	rep, err := report.Build(tasks, report.KindTime, "all", now)
	require.NoError(t, err)

	c, buf := newCLI()
	c.PrintReport(rep)

	out := buf.String()
	assert.Contains(t, out, "Report (all)")
	assert.Contains(t, out, "Completed:       1 (50.0%)")
	assert.Contains(t, out, "Hours by status")
	assert.Contains(t, out, "Insights")
	assert.Contains(t, out, report.InsightGoodProgress)
	assert.Contains(t, out, report.InsightFocusHighPrio)
}

func TestCLIFormatterPrintCalendar(t *testing.T) {
	month, err := parser.ParseMonth("2026-10", now)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		c, buf := newCLI()
		c.PrintCalendar(month, nil)
		assert.Contains(t, buf.String(), "October 2026")
		assert.Contains(t, buf.String(), "No tasks due this month.")
	})

	t.Run("days", func(t *testing.T) {
		c, buf := newCLI()
		days := report.Calendar([]*model.Task{sampleTask()}, month)
		c.PrintCalendar(month, days)
		assert.Contains(t, buf.String(), "Mon Oct 19")
		assert.Contains(t, buf.String(), "Write report")
	})
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░", ProgressBar(50, 10))
	assert.Equal(t, "██████████", ProgressBar(150, 10))
	assert.Equal(t, "░░░░░░░░░░", ProgressBar(-5, 10))
}

func TestPrintTable(t *testing.T) {
	c, buf := newCLI()
	c.PrintTable([]string{"A", "B"}, []TableRow{{Columns: []string{"long value", "x"}}})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "A           B", string(lines[0]))
	assert.Equal(t, "long value  x", string(lines[2]))

	buf.Reset()
	c.PrintTable([]string{"A"}, nil)
	assert.Empty(t, buf.String())
}

// =============================================================================
// JSONFormatter Tests
// =============================================================================

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestJSONFormatterPrintTasks(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf, Format: FormatJSON})

	require.NoError(t, j.PrintTasks([]*model.Task{sampleTask()}, 3, map[string]int64{"42": 200}, true))

	out := decode(t, &buf)
	assert.Equal(t, float64(3), out["totalCount"])
	assert.Equal(t, float64(1), out["shownCount"])
	assert.Equal(t, float64(200), out["totalSeconds"])
	assert.Equal(t, true, out["offline"])

	tasks := out["tasks"].([]any)
	task := tasks[0].(map[string]any)
	assert.Equal(t, "42", task["id"])
	assert.Equal(t, "in-progress", task["status"])
	assert.Equal(t, float64(125), task["timeLogged"])
	assert.Equal(t, float64(200), task["elapsedSeconds"])
	assert.Equal(t, true, task["running"])
}

func TestJSONFormatterPrintStart(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	paused := &model.Task{ID: "1", Title: "Old", Status: model.StatusTodo, TimeLogged: 10}
	require.NoError(t, j.PrintStart(sampleTask(), 125, paused, false))

	out := decode(t, &buf)
	assert.Equal(t, "started", out["status"])
	assert.Equal(t, "1", out["paused"].(map[string]any)["id"])
}

func TestJSONFormatterPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintStatus(nil, 0))
	out := decode(t, &buf)
	assert.Equal(t, "idle", out["status"])
	assert.NotContains(t, out, "task")
}

func TestJSONFormatterPrintCalendar(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	month, err := parser.ParseMonth("2026-10", now)
	require.NoError(t, err)
	require.NoError(t, j.PrintCalendar(month, report.Calendar([]*model.Task{sampleTask()}, month)))

	out := decode(t, &buf)
	assert.Equal(t, "2026-10", out["month"])
	days := out["days"].([]any)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-10-19", days[0].(map[string]any)["date"])
}

func TestJSONFormatterPrintReport(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	rep, err := report.Build([]*model.Task{sampleTask()}, report.KindStatus, "", now)
	require.NoError(t, err)
	require.NoError(t, j.PrintReport(rep))

	out := decode(t, &buf)
	assert.Equal(t, "status", out["type"])
	assert.Equal(t, "all", out["range"])
	assert.Equal(t, float64(1), out["metrics"].(map[string]any)["totalTasks"])
}

func TestJSONFormatterPrintError(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintError("error", "task not found", "check the ID"))
	out := decode(t, &buf)
	assert.Equal(t, "task not found", out["error"])
	assert.Equal(t, "check the ID", out["message"])

	buf.Reset()
	require.NoError(t, j.PrintDelete("42", true))
	out = decode(t, &buf)
	assert.Equal(t, "deleted", out["status"])
	assert.Equal(t, true, out["offline"])
}
