package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/manav03panchal/tasktime/internal/logging"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/notify"
)

// DefaultMinGap suppresses a second reminder for the same task when the
// schedule fires more often than this.
const DefaultMinGap = 30 * time.Minute

// TaskLister lists the stored tasks.
type TaskLister interface {
	List(ctx context.Context) ([]*model.Task, error)
}

// Notifier delivers notifications.
type Notifier interface {
	Send(ctx context.Context, n *notify.Notification) []notify.DispatchResult
}

// ReminderChecker nudges the assignees of pending tasks.
type ReminderChecker struct {
	tasks    TaskLister
	notifier Notifier
	minGap   time.Duration
	now      func() time.Time
	onCheck  func(sent int)

	mu       sync.Mutex
	notified map[string]time.Time // task ID -> last reminder
}

// NewReminderChecker creates a reminder checker.
func NewReminderChecker(tasks TaskLister, notifier Notifier) *ReminderChecker {
	return &ReminderChecker{
		tasks:    tasks,
		notifier: notifier,
		minGap:   DefaultMinGap,
		now:      time.Now,
		notified: make(map[string]time.Time),
	}
}

// OnCheck registers a hook called after every pass with the number of
// reminders sent.
func (c *ReminderChecker) OnCheck(fn func(sent int)) {
	c.onCheck = fn
}

// Pending reports whether a task gets reminders: still to do and assigned.
func Pending(t *model.Task) bool {
	return t.Status == model.StatusTodo && t.AssignedUser != ""
}

// Check sends a reminder for every pending task not reminded within the
// minimum gap and returns how many were sent.
func (c *ReminderChecker) Check(ctx context.Context) (int, error) {
	tasks, err := c.tasks.List(ctx)
	if err != nil {
		return 0, err
	}

	now := c.now()
	c.mu.Lock()
	pending := make(map[string]bool)
	var due []*model.Task
	for _, t := range tasks {
		if !Pending(t) {
			continue
		}
		pending[t.ID] = true
		if last, ok := c.notified[t.ID]; ok && now.Sub(last) < c.minGap {
			continue
		}
		c.notified[t.ID] = now
		due = append(due, t)
	}
	for id := range c.notified {
		if !pending[id] {
			delete(c.notified, id)
		}
	}
	c.mu.Unlock()

	sent := 0
	for _, t := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		for _, res := range c.notifier.Send(ctx, notify.Reminder(t)) {
			if res.Success {
				sent++
				break
			}
		}
	}

	logging.FromContext(ctx).InfoContext(ctx, "reminders checked",
		"pending", len(pending),
		logging.KeyCount, sent,
	)
	if c.onCheck != nil {
		c.onCheck(sent)
	}
	return sent, nil
}
