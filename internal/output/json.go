package output

import (
	"time"

	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/parser"
	"github.com/manav03panchal/tasktime/internal/report"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// TaskOutput represents a task in JSON output.
type TaskOutput struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Priority       string `json:"priority"`
	Status         string `json:"status"`
	DueDate        string `json:"dueDate,omitempty"`
	TimeLogged     int64  `json:"timeLogged"`
	ElapsedSeconds int64  `json:"elapsedSeconds"`
	Running        bool   `json:"running"`
	StartedAt      string `json:"startedAt,omitempty"`
	AssignedUser   string `json:"assignedUser,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// NewTaskOutput creates a TaskOutput from a Task and its live elapsed seconds.
func NewTaskOutput(t *model.Task, elapsed int64) *TaskOutput {
	out := &TaskOutput{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		DueDate:        t.DueDate,
		TimeLogged:     t.TimeLogged,
		ElapsedSeconds: elapsed,
		Running:        t.IsRunning(),
		AssignedUser:   t.AssignedUser,
	}
	if t.StartedAt != nil {
		out.StartedAt = t.StartedAt.Format(time.RFC3339)
	}
	if !t.CreatedAt.IsZero() {
		out.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	if !t.UpdatedAt.IsZero() {
		out.UpdatedAt = t.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

// TaskResponse represents a single-task command result in JSON.
type TaskResponse struct {
	Status  string      `json:"status"`
	Task    *TaskOutput `json:"task"`
	Paused  *TaskOutput `json:"paused,omitempty"`
	Offline bool        `json:"offline"`
}

// TasksResponse represents the task list output in JSON.
type TasksResponse struct {
	Tasks        []*TaskOutput `json:"tasks"`
	TotalCount   int           `json:"totalCount"`
	ShownCount   int           `json:"shownCount"`
	TotalSeconds int64         `json:"totalSeconds"`
	Offline      bool          `json:"offline"`
}

// NewTasksResponse creates a TasksResponse. elapsed maps task IDs to live
// timer values.
func NewTasksResponse(tasks []*model.Task, total int, elapsed map[string]int64, offline bool) *TasksResponse {
	outputs := make([]*TaskOutput, len(tasks))
	var seconds int64
	for i, t := range tasks {
		secs, ok := elapsed[t.ID]
		if !ok {
			secs = t.TimeLogged
		}
		outputs[i] = NewTaskOutput(t, secs)
		seconds += secs
	}
	return &TasksResponse{
		Tasks:        outputs,
		TotalCount:   total,
		ShownCount:   len(tasks),
		TotalSeconds: seconds,
		Offline:      offline,
	}
}

// StatusResponse represents the status output in JSON.
type StatusResponse struct {
	Status string      `json:"status"`
	Task   *TaskOutput `json:"task,omitempty"`
}

// DeleteResponse represents the delete command output in JSON.
type DeleteResponse struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Offline bool   `json:"offline"`
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CalendarResponse represents the calendar output in JSON.
type CalendarResponse struct {
	Month string            `json:"month"`
	Start string            `json:"start"`
	End   string            `json:"end"`
	Days  []*CalendarOutput `json:"days"`
}

// CalendarOutput is one day of the calendar in JSON.
type CalendarOutput struct {
	Date  string        `json:"date"`
	Tasks []*TaskOutput `json:"tasks"`
}

// PrintTask outputs a single-task command result.
func (j *JSONFormatter) PrintTask(status string, t *model.Task, elapsed int64, offline bool) error {
	return j.JSON(TaskResponse{
		Status:  status,
		Task:    NewTaskOutput(t, elapsed),
		Offline: offline,
	})
}

// PrintStart outputs the start command result.
func (j *JSONFormatter) PrintStart(t *model.Task, elapsed int64, paused *model.Task, offline bool) error {
	resp := TaskResponse{
		Status:  "started",
		Task:    NewTaskOutput(t, elapsed),
		Offline: offline,
	}
	if paused != nil {
		resp.Paused = NewTaskOutput(paused, paused.TimeLogged)
	}
	return j.JSON(resp)
}

// PrintStatus outputs status in JSON format.
func (j *JSONFormatter) PrintStatus(t *model.Task, elapsed int64) error {
	resp := StatusResponse{Status: "idle"}
	if t != nil {
		resp.Status = "tracking"
		resp.Task = NewTaskOutput(t, elapsed)
	}
	return j.JSON(resp)
}

// PrintTasks outputs tasks in JSON format.
func (j *JSONFormatter) PrintTasks(tasks []*model.Task, total int, elapsed map[string]int64, offline bool) error {
	return j.JSON(NewTasksResponse(tasks, total, elapsed, offline))
}

// PrintDelete outputs the delete command result.
func (j *JSONFormatter) PrintDelete(id string, offline bool) error {
	return j.JSON(DeleteResponse{Status: "deleted", ID: id, Offline: offline})
}

// PrintReport outputs a report in JSON format.
func (j *JSONFormatter) PrintReport(rep *report.Report) error {
	return j.JSON(rep)
}

// PrintCalendar outputs the calendar in JSON format.
func (j *JSONFormatter) PrintCalendar(month parser.TimeRange, days []report.Day) error {
	resp := CalendarResponse{
		Month: month.Start.Format("2006-01"),
		Start: FormatDate(month.Start),
		End:   FormatDate(month.End),
		Days:  make([]*CalendarOutput, len(days)),
	}
	for i, d := range days {
		day := &CalendarOutput{Date: FormatDate(d.Date), Tasks: make([]*TaskOutput, len(d.Tasks))}
		for k, t := range d.Tasks {
			day.Tasks[k] = NewTaskOutput(t, t.TimeLogged)
		}
		resp.Days[i] = day
	}
	return j.JSON(resp)
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(status, errMsg, message string) error {
	resp := ErrorResponse{
		Status:  status,
		Error:   errMsg,
		Message: message,
	}
	return j.JSON(resp)
}
