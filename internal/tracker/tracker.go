// Package tracker owns the per-task timers of the time-tracking view. It
// keeps at most one task actively timed and persists timer state through
// the task store at session boundaries, never per tick.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/logging"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/store"
	"github.com/manav03panchal/tasktime/internal/timer"
)

// Notice titles.
const (
	NoticePreviousPaused = "Previous timer paused"
	NoticeStarted        = "Timer started"
	NoticePaused         = "Timer paused"
	NoticeCompleted      = "Task completed"
)

// Backend is the part of the task store the tracker needs.
type Backend interface {
	List(ctx context.Context) (store.ListResult, error)
	Update(ctx context.Context, id string, task *model.Task) (store.Result, error)
	StartTimer(ctx context.Context, id string) (store.Result, error)
}

// Event is a timer tick for one task.
type Event struct {
	TaskID  string
	Elapsed int64
}

// Notice is a user-facing notification about a tracker command.
type Notice struct {
	Title   string
	TaskID  string
	Offline bool
}

// Options configures a Tracker.
type Options struct {
	// Interval is the timer tick cadence. Defaults to timer.DefaultInterval.
	Interval time.Duration
	// Clock defaults to timer.RealClock.
	Clock timer.Clock
}

type entry struct {
	task  *model.Task
	timer *timer.Timer
}

// Tracker wires one Timer per task to the task store.
type Tracker struct {
	backend  Backend
	clock    timer.Clock
	interval time.Duration

	// cmdMu serializes commands, which may wait on the network.
	cmdMu sync.Mutex

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	active  string

	events  chan Event
	notices chan Notice
}

// New creates a Tracker. Call Load to populate it.
func New(backend Backend, opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = timer.RealClock{}
	}
	if opts.Interval <= 0 {
		opts.Interval = timer.DefaultInterval
	}
	return &Tracker{
		backend:  backend,
		clock:    opts.Clock,
		interval: opts.Interval,
		entries:  make(map[string]*entry),
		events:   make(chan Event, 16),
		notices:  make(chan Notice, 8),
	}
}

// Events delivers timer ticks. Ticks are dropped while the buffer is full.
func (t *Tracker) Events() <-chan Event {
	return t.events
}

// Notices delivers command notifications. Notices are dropped while the
// buffer is full.
func (t *Tracker) Notices() <-chan Notice {
	return t.notices
}

func (t *Tracker) notify(title, id string, offline bool) {
	select {
	case t.notices <- Notice{Title: title, TaskID: id, Offline: offline}:
	default:
	}
}

// Load lists tasks and rehydrates their timers. In-progress tasks resume
// from their stored time plus the time since their stored start. If several
// tasks are in progress, the most recently started one keeps running and
// the others are paused.
func (t *Tracker) Load(ctx context.Context) (store.ListResult, error) {
	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()

	res, err := t.backend.List(ctx)
	if err != nil {
		return res, err
	}

	now := t.clock.Now()
	keep := latestRunning(res.Tasks)

	t.mu.Lock()
	t.stopAllLocked()
	t.entries = make(map[string]*entry, len(res.Tasks))
	t.order = t.order[:0]
	t.active = ""

	var demoted []*model.Task
	for _, task := range res.Tasks {
		task = task.Clone()
		running := task.IsRunning()
		if running && task.ID != keep {
			task.TimeLogged = task.ElapsedAt(now)
			task.Status = model.StatusTodo
			task.StartedAt = nil
			demoted = append(demoted, task.Clone())
			running = false
		}
		elapsed := task.TimeLogged
		if running {
			elapsed = task.ElapsedAt(now)
			t.active = task.ID
		}
		t.entries[task.ID] = &entry{
			task:  task,
			timer: t.newTimer(task.ID, elapsed, running),
		}
		t.order = append(t.order, task.ID)
	}
	t.mu.Unlock()

	for _, task := range demoted {
		if _, err := t.backend.Update(ctx, task.ID, task); err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "failed to pause extra running task",
				logging.KeyTaskID, task.ID, logging.KeyError, err)
		}
	}

	res.Tasks = t.Tasks()
	return res, nil
}

// latestRunning returns the ID of the in-progress task with the latest
// start, or the first in-progress task when none has a start.
func latestRunning(tasks []*model.Task) string {
	var best *model.Task
	for _, task := range tasks {
		if !task.IsRunning() {
			continue
		}
		switch {
		case best == nil:
			best = task
		case task.StartedAt != nil && (best.StartedAt == nil || task.StartedAt.After(*best.StartedAt)):
			best = task
		}
	}
	if best == nil {
		return ""
	}
	return best.ID
}

func (t *Tracker) newTimer(id string, elapsed int64, running bool) *timer.Timer {
	return timer.New(timer.Options{
		InitialElapsed: elapsed,
		Running:        running,
		Interval:       t.interval,
		Clock:          t.clock,
		OnTick: func(e int64) {
			select {
			case t.events <- Event{TaskID: id, Elapsed: e}:
			default:
			}
		},
	})
}

// Tasks returns a snapshot of all tasks in load order with TimeLogged set to
// the live elapsed seconds.
func (t *Tracker) Tasks() []*model.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	tasks := make([]*model.Task, 0, len(t.order))
	for _, id := range t.order {
		tasks = append(tasks, t.snapshotLocked(t.entries[id]))
	}
	return tasks
}

// Task returns a snapshot of one task.
func (t *Tracker) Task(id string) (*model.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return nil, false
	}
	return t.snapshotLocked(e), true
}

func (t *Tracker) snapshotLocked(e *entry) *model.Task {
	task := e.task.Clone()
	task.TimeLogged = e.timer.Elapsed()
	return task
}

// Elapsed returns the live elapsed seconds of a task.
func (t *Tracker) Elapsed(id string) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return 0, false
	}
	return e.timer.Elapsed(), true
}

// Running reports whether the task's timer is running.
func (t *Tracker) Running(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	return ok && e.timer.Running()
}

// Active returns the ID of the actively timed task.
func (t *Tracker) Active() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active, t.active != ""
}

// Metrics summarizes the tracked tasks for the dashboard cards.
type Metrics struct {
	TotalSeconds int64
	Active       int
	Completed    int
}

// Metrics returns live totals.
func (t *Tracker) Metrics() Metrics {
	var m Metrics
	for _, task := range t.Tasks() {
		m.TotalSeconds += task.TimeLogged
		switch task.Status {
		case model.StatusInProgress:
			m.Active++
		case model.StatusCompleted:
			m.Completed++
		}
	}
	return m
}

// Toggle starts a paused task or pauses a running one. The choice is made
// under the command lock, so concurrent toggles alternate.
func (t *Tracker) Toggle(ctx context.Context, id string) (store.Result, error) {
	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()

	if t.Running(id) {
		res, err := t.pause(ctx, id)
		if err != nil {
			return res, err
		}
		t.notify(NoticePaused, id, res.Offline)
		return res, nil
	}
	return t.start(ctx, id)
}

// Start makes id the actively timed task. A different running task is
// paused and persisted first. The target starts from its own stored time.
func (t *Tracker) Start(ctx context.Context, id string) (store.Result, error) {
	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()
	return t.start(ctx, id)
}

func (t *Tracker) start(ctx context.Context, id string) (store.Result, error) {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return store.Result{}, errors.Wrapf(errors.ErrTaskNotFound, "task %s", id)
	}
	if e.timer.Running() {
		t.mu.Unlock()
		return store.Result{}, errors.Wrapf(errors.ErrTimerRunning, "task %s", id)
	}
	prevID := t.active
	t.mu.Unlock()

	if prevID != "" && prevID != id {
		res, err := t.pause(ctx, prevID)
		if err != nil {
			return store.Result{}, err
		}
		t.notify(NoticePreviousPaused, prevID, res.Offline)
	}

	t.mu.Lock()
	old := e.task.Clone()
	e.task.Status = model.StatusInProgress
	e.timer.Start(e.task.TimeLogged)
	t.active = id
	t.mu.Unlock()

	res, err := t.backend.StartTimer(ctx, id)
	if errors.Is(err, errors.ErrTimerRunning) {
		// Stored state already says running; the local timer is the truth.
		err = nil
		res = store.Result{}
	}
	if err != nil {
		// Only the target is reverted. A task paused above stays paused:
		// its frozen time is already persisted.
		t.mu.Lock()
		e.timer.Reset(old.TimeLogged, false)
		e.task = old
		t.active = ""
		t.mu.Unlock()
		return store.Result{}, err
	}

	t.mu.Lock()
	e.task = merge(res.Task, e.task)
	e.task.Status = model.StatusInProgress
	snapshot := t.snapshotLocked(e)
	t.mu.Unlock()

	logging.FromContext(ctx).InfoContext(ctx, "timer started",
		logging.KeyTaskID, id, logging.KeyElapsed, snapshot.TimeLogged)
	t.notify(NoticeStarted, id, res.Offline)
	return store.Result{Task: snapshot, Offline: res.Offline}, nil
}

// Pause stops a running task's timer and persists the frozen time with
// status todo.
func (t *Tracker) Pause(ctx context.Context, id string) (store.Result, error) {
	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()

	res, err := t.pause(ctx, id)
	if err != nil {
		return res, err
	}
	t.notify(NoticePaused, id, res.Offline)
	return res, nil
}

func (t *Tracker) pause(ctx context.Context, id string) (store.Result, error) {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return store.Result{}, errors.Wrapf(errors.ErrTaskNotFound, "task %s", id)
	}
	if !e.timer.Running() {
		t.mu.Unlock()
		return store.Result{}, errors.Wrapf(errors.ErrTimerNotRunning, "task %s", id)
	}

	e.timer.Stop()
	stoppedAt := t.clock.Now()
	frozen := e.timer.Elapsed()
	old := e.task.Clone()

	e.task.TimeLogged = frozen
	e.task.Status = model.StatusTodo
	e.task.StartedAt = nil
	if t.active == id {
		t.active = ""
	}
	pending := e.task.Clone()
	t.mu.Unlock()

	res, err := t.backend.Update(ctx, id, pending)
	if err != nil {
		t.mu.Lock()
		e.task = old
		e.timer.Start(frozen + int64(t.clock.Now().Sub(stoppedAt)/time.Second))
		t.active = id
		t.mu.Unlock()
		return store.Result{}, err
	}

	t.mu.Lock()
	e.task = merge(res.Task, e.task)
	snapshot := t.snapshotLocked(e)
	t.mu.Unlock()

	logging.FromContext(ctx).InfoContext(ctx, "timer paused",
		logging.KeyTaskID, id, logging.KeyElapsed, frozen)
	return store.Result{Task: snapshot, Offline: res.Offline}, nil
}

// Edit applies edit to a task and persists the result. Moving a task into
// in-progress starts its timer, pausing any other running task; moving a
// running task out of in-progress pauses it first. A running task that stays
// in progress restarts its session from the edited total. edit may run more
// than once and must only set fields.
func (t *Tracker) Edit(ctx context.Context, id string, edit func(*model.Task) error) (store.Result, error) {
	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()

	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return store.Result{}, errors.Wrapf(errors.ErrTaskNotFound, "task %s", id)
	}
	running := e.timer.Running()
	base := t.snapshotLocked(e)
	t.mu.Unlock()

	want := base.Clone()
	if err := edit(want); err != nil {
		return store.Result{}, err
	}

	if running && want.Status != model.StatusInProgress {
		res, err := t.pause(ctx, id)
		if err != nil {
			return store.Result{}, err
		}
		t.notify(NoticePaused, id, res.Offline)
		base = res.Task
		running = false
	}

	task := base.Clone()
	if err := edit(task); err != nil {
		return store.Result{}, err
	}
	startAfter := !running && task.Status == model.StatusInProgress
	if startAfter {
		task.Status = base.Status
		task.StartedAt = nil
	}
	if running {
		// Stored running tasks are banked seconds plus a start instant.
		now := t.clock.Now()
		task.StartedAt = &now
	}

	res, err := t.backend.Update(ctx, id, task)
	if err != nil {
		return store.Result{}, err
	}

	t.mu.Lock()
	e.task = merge(res.Task, task)
	e.timer.Reset(task.TimeLogged, running)
	snapshot := t.snapshotLocked(e)
	t.mu.Unlock()

	if startAfter {
		return t.start(ctx, id)
	}
	return store.Result{Task: snapshot, Offline: res.Offline}, nil
}

// Complete stops the task's timer if it runs and marks it completed.
func (t *Tracker) Complete(ctx context.Context, id string) (store.Result, error) {
	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()

	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return store.Result{}, errors.Wrapf(errors.ErrTaskNotFound, "task %s", id)
	}
	wasRunning := e.timer.Running()
	e.timer.Stop()
	frozen := e.timer.Elapsed()
	old := e.task.Clone()

	e.task.TimeLogged = frozen
	e.task.Status = model.StatusCompleted
	e.task.StartedAt = nil
	wasActive := t.active == id
	if wasActive {
		t.active = ""
	}
	pending := e.task.Clone()
	t.mu.Unlock()

	// Local seconds are authoritative; StopTimer would recompute them.
	res, err := t.backend.Update(ctx, id, pending)
	if err != nil {
		t.mu.Lock()
		e.task = old
		e.timer.Reset(frozen, wasRunning)
		if wasActive {
			t.active = id
		}
		t.mu.Unlock()
		return store.Result{}, err
	}

	t.mu.Lock()
	e.task = merge(res.Task, e.task)
	e.task.Status = model.StatusCompleted
	snapshot := t.snapshotLocked(e)
	t.mu.Unlock()

	t.notify(NoticeCompleted, id, res.Offline)
	return store.Result{Task: snapshot, Offline: res.Offline}, nil
}

// Close stops all timers without persisting.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopAllLocked()
}

func (t *Tracker) stopAllLocked() {
	for _, e := range t.entries {
		e.timer.Stop()
	}
}

// merge takes the stored task but keeps the local seconds, which are more
// precise than what the API stores.
func merge(stored, local *model.Task) *model.Task {
	if stored == nil {
		return local
	}
	merged := stored.Clone()
	merged.TimeLogged = local.TimeLogged
	return merged
}

