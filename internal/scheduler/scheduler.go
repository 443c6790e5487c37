// Package scheduler runs the server's cron jobs, such as the pending task
// reminders.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/manav03panchal/tasktime/internal/logging"
)

// DefaultReminderSchedule runs reminders at the top of every hour. The
// expression has a seconds field.
const DefaultReminderSchedule = "0 0 * * * *"

// Scheduler manages scheduled jobs using cron.
type Scheduler struct {
	cron            *cron.Cron
	reminderSpec    string
	reminderChecker *ReminderChecker

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// NewScheduler creates a scheduler that runs reminders on spec, a six-field
// cron expression or a descriptor such as "@every 30m".
func NewScheduler(spec string) *Scheduler {
	if spec == "" {
		spec = DefaultReminderSchedule
	}
	return &Scheduler{
		cron:         cron.New(cron.WithSeconds()),
		reminderSpec: spec,
	}
}

// SetReminderChecker sets the reminder checker.
func (s *Scheduler) SetReminderChecker(checker *ReminderChecker) {
	s.reminderChecker = checker
}

// Start registers the configured jobs and starts the cron loop. Jobs run
// with a context derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	if s.reminderChecker != nil {
		if _, err := s.cron.AddFunc(s.reminderSpec, s.checkReminders); err != nil {
			s.cancel()
			return fmt.Errorf("failed to add reminder job %q: %w", s.reminderSpec, err)
		}
	}

	s.cron.Start()
	s.running = true
	logging.Info("scheduler started", "reminders", s.reminderSpec)
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	<-s.cron.Stop().Done()
	logging.Info("scheduler stopped")
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// checkReminders runs one reminder pass.
func (s *Scheduler) checkReminders() {
	if s.reminderChecker == nil {
		return
	}
	ctx := s.jobContext()
	if _, err := s.reminderChecker.Check(ctx); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "reminder check failed", logging.KeyError, err)
	}
}

// Entries returns all scheduled entries.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// NextRun returns the next scheduled run time for any job.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}
