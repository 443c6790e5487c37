// Package model defines the domain models for Tasktime.
package model

// Model is the interface that all database models must implement.
type Model interface {
	// SetKey sets the database key for this model.
	SetKey(key string)
	// GetKey returns the database key for this model.
	GetKey() string
}

// Well-known database keys.
const (
	// KeyTasks holds the single serialized array of task records.
	KeyTasks = "tasks"
	// KeyCalendarIndex maps task IDs to synced calendar event IDs.
	KeyCalendarIndex = "calendar_index"
)

// CalendarIndex links task IDs to the calendar events created for them.
type CalendarIndex struct {
	Events map[string]string `json:"events"`
}

// SetKey is a no-op; the index always lives under KeyCalendarIndex.
func (c *CalendarIndex) SetKey(string) {}

// GetKey returns KeyCalendarIndex.
func (c *CalendarIndex) GetKey() string {
	return KeyCalendarIndex
}
