package storage

import (
	"github.com/manav03panchal/tasktime/internal/model"
)

// CalendarRepo persists the task to calendar event mapping used by sync.
type CalendarRepo struct {
	db *DB
}

// NewCalendarRepo creates a new calendar index repository.
func NewCalendarRepo(db *DB) *CalendarRepo {
	return &CalendarRepo{db: db}
}

// EventID returns the event linked to a task, if any.
func (r *CalendarRepo) EventID(taskID string) (string, bool, error) {
	idx := &model.CalendarIndex{}
	if err := r.db.Get(model.KeyCalendarIndex, idx); err != nil {
		if IsErrKeyNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	id, ok := idx.Events[taskID]
	return id, ok, nil
}

// Link records the event created for a task.
func (r *CalendarRepo) Link(taskID, eventID string) error {
	idx := &model.CalendarIndex{}
	return r.db.Modify(idx, func(bool) error {
		if idx.Events == nil {
			idx.Events = make(map[string]string)
		}
		idx.Events[taskID] = eventID
		return nil
	})
}

// Unlink forgets the event for a task.
func (r *CalendarRepo) Unlink(taskID string) error {
	idx := &model.CalendarIndex{}
	return r.db.Modify(idx, func(bool) error {
		delete(idx.Events, taskID)
		return nil
	})
}
