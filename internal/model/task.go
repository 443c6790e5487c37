package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manav03panchal/tasktime/internal/errors"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists all statuses in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

// ParseStatus parses a status name. Backend spellings are accepted as well.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to-do", "to do":
		return StatusTodo, nil
	case "in-progress", "in_progress", "inprogress", "active":
		return StatusInProgress, nil
	case "completed", "done", "complete":
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("invalid status %q (use todo, in-progress or completed)", s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusCompleted
}

// Label returns the human-readable label for the status.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// Priority is the importance of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists all priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority parses a priority name.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l":
		return PriorityLow, nil
	case "medium", "med", "m":
		return PriorityMedium, nil
	case "high", "h":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("invalid priority %q (use low, medium or high)", s)
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Rank orders priorities for "focus next" lists: high sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// DueDateLayout is the layout of due date labels, e.g. "Oct 18, 2026".
const DueDateLayout = "Jan 2, 2006"

// FormatDueDate formats t as a due date label.
func FormatDueDate(t time.Time) string {
	return t.Format(DueDateLayout)
}

// Task is a user-defined unit of work with priority, status and tracked time.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Priority     Priority   `json:"priority"`
	Status       Status     `json:"status"`
	DueDate      string     `json:"dueDate,omitempty"`
	TimeLogged   int64      `json:"timeLogged"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	AssignedUser string     `json:"assignedUser,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NewTask creates a todo task with a fresh random ID.
func NewTask(title string, priority Priority) *Task {
	now := time.Now()
	if !priority.Valid() {
		priority = PriorityMedium
	}
	return &Task{
		ID:        uuid.NewString(),
		Title:     title,
		Priority:  priority,
		Status:    StatusTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsRunning reports whether the task is conceptually being timed.
func (t *Task) IsRunning() bool {
	return t.Status == StatusInProgress
}

// ElapsedAt returns the logged seconds plus the open server-side session, if any.
func (t *Task) ElapsedAt(now time.Time) int64 {
	total := t.TimeLogged
	if t.StartedAt != nil && now.After(*t.StartedAt) {
		total += int64(now.Sub(*t.StartedAt) / time.Second)
	}
	return total
}

// StartTimer records now as the start of a server-side timing session and
// marks the task in progress.
func (t *Task) StartTimer(now time.Time) error {
	if t.StartedAt != nil {
		return errors.Wrapf(errors.ErrTimerRunning, "task %s", t.ID)
	}
	t.StartedAt = &now
	t.Status = StatusInProgress
	return nil
}

// StopTimer folds the open session into TimeLogged and completes the task.
func (t *Task) StopTimer(now time.Time) error {
	if t.StartedAt == nil {
		return errors.Wrapf(errors.ErrTimerNotRunning, "task %s", t.ID)
	}
	t.TimeLogged = t.ElapsedAt(now)
	t.StartedAt = nil
	t.Status = StatusCompleted
	return nil
}

// Logged returns TimeLogged as a duration.
func (t *Task) Logged() time.Duration {
	return time.Duration(t.TimeLogged) * time.Second
}

// DueTime parses the due date label.
func (t *Task) DueTime() (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	due, err := time.ParseInLocation(DueDateLayout, t.DueDate, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return due, true
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.StartedAt != nil {
		started := *t.StartedAt
		c.StartedAt = &started
	}
	return &c
}

// TaskList is the persisted form of all local tasks: one JSON array.
type TaskList []*Task

// SetKey is a no-op; the list always lives under KeyTasks.
func (l *TaskList) SetKey(string) {}

// GetKey returns KeyTasks.
func (l *TaskList) GetKey() string {
	return KeyTasks
}

// Find returns the index of the task with the given ID, or -1.
func (l TaskList) Find(id string) int {
	for i, t := range l {
		if t.ID == id {
			return i
		}
	}
	return -1
}
