package gcal

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/calendar/v3"

	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/logging"
	"github.com/manav03panchal/tasktime/internal/model"
)

// TaskIDProperty is the private extended property linking an event to its
// task.
const TaskIDProperty = "tasktime_id"

// Google Calendar color ids for task priorities.
var priorityColors = map[model.Priority]string{
	model.PriorityHigh:   "11", // Tomato
	model.PriorityMedium: "5",  // Banana
	model.PriorityLow:    "2",  // Sage
}

// Events is the part of the Calendar API the syncer uses.
type Events interface {
	Get(ctx context.Context, calendarID, eventID string) (*calendar.Event, error)
	FindByTaskID(ctx context.Context, calendarID, taskID string) (*calendar.Event, error)
	Insert(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
	Patch(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error)
}

// Index remembers which event was created for which task.
// *storage.CalendarRepo satisfies it.
type Index interface {
	EventID(taskID string) (string, bool, error)
	Link(taskID, eventID string) error
	Unlink(taskID string) error
}

// GoogleEvents adapts a Calendar service to Events.
type GoogleEvents struct {
	srv *calendar.Service
}

// NewGoogleEvents wraps srv.
func NewGoogleEvents(srv *calendar.Service) *GoogleEvents {
	return &GoogleEvents{srv: srv}
}

func (g *GoogleEvents) Get(ctx context.Context, calendarID, eventID string) (*calendar.Event, error) {
	return g.srv.Events.Get(calendarID, eventID).Context(ctx).Do()
}

func (g *GoogleEvents) FindByTaskID(ctx context.Context, calendarID, taskID string) (*calendar.Event, error) {
	events, err := g.srv.Events.List(calendarID).
		PrivateExtendedProperty(TaskIDProperty + "=" + taskID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) == 0 {
		return nil, nil
	}
	return events.Items[0], nil
}

func (g *GoogleEvents) Insert(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	return g.srv.Events.Insert(calendarID, event).Context(ctx).Do()
}

func (g *GoogleEvents) Patch(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error) {
	return g.srv.Events.Patch(calendarID, eventID, event).Context(ctx).Do()
}

// SyncResult counts what a sync did.
type SyncResult struct {
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Skipped   int      `json:"skipped"`
	Failed    []string `json:"failed,omitempty"`
}

// Syncer pushes tasks to one calendar.
type Syncer struct {
	events     Events
	index      Index
	calendarID string
}

// NewSyncer creates a syncer. index may be nil.
func NewSyncer(events Events, index Index, calendarID string) *Syncer {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Syncer{events: events, index: index, calendarID: calendarID}
}

// Sync creates or updates one all-day event per task with a due date.
// Tasks without one are skipped. Per-task failures are collected; the error
// is only set when ctx ends.
func (s *Syncer) Sync(ctx context.Context, tasks []*model.Task) (SyncResult, error) {
	var res SyncResult
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		event, ok := EventForTask(t)
		if !ok {
			res.Skipped++
			continue
		}
		outcome, err := s.syncOne(ctx, t, event)
		if err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "calendar sync failed", logging.KeyTaskID, t.ID, logging.KeyError, err)
			res.Failed = append(res.Failed, t.ID)
			continue
		}
		switch outcome {
		case outcomeCreated:
			res.Created++
		case outcomeUpdated:
			res.Updated++
		default:
			res.Unchanged++
		}
	}
	return res, nil
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeCreated
	outcomeUpdated
)

func (s *Syncer) syncOne(ctx context.Context, t *model.Task, event *calendar.Event) (outcome, error) {
	existing, err := s.find(ctx, t.ID)
	if err != nil {
		return outcomeUnchanged, err
	}

	if existing == nil {
		created, err := s.events.Insert(ctx, s.calendarID, event)
		if err != nil {
			return outcomeUnchanged, errors.Wrap(err, "insert event")
		}
		s.link(t.ID, created.Id)
		return outcomeCreated, nil
	}

	if !NeedsUpdate(existing, event) {
		s.link(t.ID, existing.Id)
		return outcomeUnchanged, nil
	}
	if _, err := s.events.Patch(ctx, s.calendarID, existing.Id, event); err != nil {
		return outcomeUnchanged, errors.Wrap(err, "patch event")
	}
	s.link(t.ID, existing.Id)
	return outcomeUpdated, nil
}

// find looks the event up through the index first, then by extended
// property. A stale index entry is dropped.
func (s *Syncer) find(ctx context.Context, taskID string) (*calendar.Event, error) {
	if s.index != nil {
		if eventID, ok, err := s.index.EventID(taskID); err == nil && ok {
			event, err := s.events.Get(ctx, s.calendarID, eventID)
			if err == nil && event != nil && event.Status != "cancelled" {
				return event, nil
			}
			_ = s.index.Unlink(taskID)
		}
	}
	event, err := s.events.FindByTaskID(ctx, s.calendarID, taskID)
	if err != nil {
		return nil, errors.Wrap(err, "search events")
	}
	return event, nil
}

func (s *Syncer) link(taskID, eventID string) {
	if s.index == nil || eventID == "" {
		return
	}
	if err := s.index.Link(taskID, eventID); err != nil {
		logging.Warn("failed to update calendar index", logging.KeyTaskID, taskID, logging.KeyError, err)
	}
}

// EventForTask builds the all-day event for a task. It reports false when
// the task has no usable due date.
func EventForTask(t *model.Task) (*calendar.Event, bool) {
	due, ok := t.DueTime()
	if !ok {
		return nil, false
	}

	summary := t.Title
	transparency := "opaque"
	if t.Status == model.StatusCompleted {
		summary = "Done: " + t.Title
		transparency = "transparent"
	}

	var desc strings.Builder
	if t.Description != "" {
		desc.WriteString(t.Description)
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "Priority: %s\nStatus: %s", t.Priority, t.Status.Label())

	return &calendar.Event{
		Summary:      summary,
		Description:  desc.String(),
		Start:        &calendar.EventDateTime{Date: due.Format("2006-01-02")},
		End:          &calendar.EventDateTime{Date: due.AddDate(0, 0, 1).Format("2006-01-02")},
		ColorId:      priorityColors[t.Priority],
		Transparency: transparency,
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: t.ID},
		},
	}, true
}

// NeedsUpdate reports whether existing differs from the wanted event in any
// field the syncer owns.
func NeedsUpdate(existing, want *calendar.Event) bool {
	return existing.Summary != want.Summary ||
		existing.Description != want.Description ||
		existing.ColorId != want.ColorId ||
		existing.Transparency != want.Transparency ||
		eventDate(existing.Start) != eventDate(want.Start) ||
		eventDate(existing.End) != eventDate(want.End)
}

func eventDate(d *calendar.EventDateTime) string {
	if d == nil {
		return ""
	}
	return d.Date
}
