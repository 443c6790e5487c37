package api

import (
	"strconv"
	"time"

	"github.com/manav03panchal/tasktime/internal/model"
)

// Backend status and priority spellings.
const (
	BackendTodo       = "TODO"
	BackendInProgress = "IN_PROGRESS"
	BackendDone       = "DONE"

	BackendLow    = "LOW"
	BackendMedium = "MEDIUM"
	BackendHigh   = "HIGH"
)

// TaskDTO is the task representation used on the wire.
type TaskDTO struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	// StartTime and EndTime are the scheduled window; EndTime is the due date.
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	// TimerStartedAt is set while the server-side timer runs.
	TimerStartedAt *time.Time `json:"timerStartedAt,omitempty"`
	// TimeSpent is in whole minutes.
	TimeSpent      int64  `json:"timeSpent"`
	AssignedUserID string `json:"assignedUserId,omitempty"`
}

// CreateRequest is the body of POST /tasks.
type CreateRequest struct {
	Task          TaskDTO `json:"task"`
	DependencyIDs []int64 `json:"dependencyIds"`
}

// Page is one page of GET /tasks.
type Page struct {
	Content       []TaskDTO `json:"content"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
	Number        int       `json:"number"`
	Size          int       `json:"size"`
}

// ErrorResponse is the body of failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes carried in ErrorResponse.Code.
const (
	CodeNotFound        = "not_found"
	CodeInvalid         = "invalid"
	CodeTimerRunning    = "timer_running"
	CodeTimerNotRunning = "timer_not_running"
)

// StatusFromBackend maps a backend status, defaulting to todo.
func StatusFromBackend(s string) model.Status {
	switch s {
	case BackendInProgress:
		return model.StatusInProgress
	case BackendDone:
		return model.StatusCompleted
	default:
		return model.StatusTodo
	}
}

// StatusToBackend maps a status to its backend spelling.
func StatusToBackend(s model.Status) string {
	switch s {
	case model.StatusInProgress:
		return BackendInProgress
	case model.StatusCompleted:
		return BackendDone
	default:
		return BackendTodo
	}
}

// PriorityFromBackend maps a backend priority, defaulting to medium.
func PriorityFromBackend(p string) model.Priority {
	switch p {
	case BackendLow:
		return model.PriorityLow
	case BackendHigh:
		return model.PriorityHigh
	default:
		return model.PriorityMedium
	}
}

// PriorityToBackend maps a priority to its backend spelling.
func PriorityToBackend(p model.Priority) string {
	switch p {
	case model.PriorityLow:
		return BackendLow
	case model.PriorityHigh:
		return BackendHigh
	default:
		return BackendMedium
	}
}

// IsRemoteID reports whether id can name a task on the API. Tasks created
// while offline carry random IDs and exist only locally.
func IsRemoteID(id string) bool {
	n, err := strconv.ParseInt(id, 10, 64)
	return err == nil && n > 0
}

// FromDTO converts a wire task. Minutes become seconds and EndTime becomes
// the due date label in local time.
func FromDTO(d TaskDTO) *model.Task {
	t := &model.Task{
		ID:           strconv.FormatInt(d.ID, 10),
		Title:        d.Title,
		Description:  d.Description,
		Priority:     PriorityFromBackend(d.Priority),
		Status:       StatusFromBackend(d.Status),
		TimeLogged:   d.TimeSpent * 60,
		AssignedUser: d.AssignedUserID,
	}
	if d.EndTime != nil {
		t.DueDate = model.FormatDueDate(d.EndTime.Local())
	}
	if d.TimerStartedAt != nil {
		started := *d.TimerStartedAt
		t.StartedAt = &started
	}
	return t
}

// ToDTO converts a task for the wire. Seconds are floored to minutes and
// non-numeric IDs are sent as zero.
func ToDTO(t *model.Task) TaskDTO {
	d := TaskDTO{
		Title:          t.Title,
		Description:    t.Description,
		Priority:       PriorityToBackend(t.Priority),
		Status:         StatusToBackend(t.Status),
		TimeSpent:      t.TimeLogged / 60,
		AssignedUserID: t.AssignedUser,
	}
	if id, err := strconv.ParseInt(t.ID, 10, 64); err == nil {
		d.ID = id
	}
	if due, ok := t.DueTime(); ok {
		d.EndTime = &due
	}
	if t.StartedAt != nil {
		started := *t.StartedAt
		d.TimerStartedAt = &started
	}
	return d
}
