package notify

import (
	"fmt"
	"time"

	"github.com/manav03panchal/tasktime/internal/model"
)

// Type identifies what a notification is about.
type Type string

const (
	TypeStatusChanged Type = "status_changed"
	TypeAssigned      Type = "assigned"
	TypeReminder      Type = "reminder"
	TypeTest          Type = "test"
)

// Notification is a message about a task, addressed to its assignee when
// there is one.
type Notification struct {
	Type      Type
	Title     string
	Message   string
	TaskID    string
	UserID    string
	Fields    map[string]string
	Timestamp time.Time
}

// New creates a notification stamped with the current time.
func New(typ Type, title, message string) *Notification {
	return &Notification{
		Type:      typ,
		Title:     title,
		Message:   message,
		Fields:    make(map[string]string),
		Timestamp: time.Now(),
	}
}

// WithField adds a display field.
func (n *Notification) WithField(key, value string) *Notification {
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	n.Fields[key] = value
	return n
}

func forTask(typ Type, title, message string, t *model.Task) *Notification {
	n := New(typ, title, message)
	n.TaskID = t.ID
	n.UserID = t.AssignedUser
	n.WithField("Task", t.Title).WithField("Priority", string(t.Priority))
	return n
}

// StatusChanged announces a status transition.
func StatusChanged(t *model.Task, from model.Status) *Notification {
	return forTask(TypeStatusChanged, "Task status changed",
		fmt.Sprintf("Your task '%s' status changed to %s", t.Title, t.Status.Label()), t).
		WithField("From", from.Label()).
		WithField("To", t.Status.Label())
}

// Assigned announces an assignment.
func Assigned(t *model.Task) *Notification {
	return forTask(TypeAssigned, "Task assigned",
		fmt.Sprintf("Task '%s' has been assigned to you.", t.Title), t).
		WithField("User", t.AssignedUser)
}

// Reminder nudges the assignee of a pending task.
func Reminder(t *model.Task) *Notification {
	n := forTask(TypeReminder, "Task reminder",
		fmt.Sprintf("Reminder: Task '%s' is pending.", t.Title), t)
	if t.DueDate != "" {
		n.WithField("Due", t.DueDate)
	}
	return n
}

// DefaultColor returns the accent color for a notification type.
func DefaultColor(typ Type) int {
	switch typ {
	case TypeStatusChanged:
		return 0x3B82F6 // Blue
	case TypeAssigned:
		return 0x7C3AED // Purple
	case TypeReminder:
		return 0xF59E0B // Yellow
	default:
		return 0x10B981 // Green
	}
}
