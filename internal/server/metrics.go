package server

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks server counters exposed at /api/metrics.
type Metrics struct {
	requests            atomic.Int64
	requestErrors       atomic.Int64
	tasksCreated        atomic.Int64
	timersStarted       atomic.Int64
	timersStopped       atomic.Int64
	secondsTracked      atomic.Int64
	notificationsSent   atomic.Int64
	notificationsFailed atomic.Int64
	remindersChecked    atomic.Int64

	mu                sync.RWMutex
	lastError         string
	lastErrorAt       time.Time
	lastReminderCheck time.Time
	errorsByCategory  map[string]int64
}

// NewMetrics creates zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{errorsByCategory: make(map[string]int64)}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	RequestsTotal            int64            `json:"requests_total"`
	RequestErrorsTotal       int64            `json:"request_errors_total"`
	TasksCreatedTotal        int64            `json:"tasks_created_total"`
	TimersStartedTotal       int64            `json:"timers_started_total"`
	TimersStoppedTotal       int64            `json:"timers_stopped_total"`
	SecondsTrackedTotal      int64            `json:"seconds_tracked_total"`
	NotificationsSentTotal   int64            `json:"notifications_sent_total"`
	NotificationsFailedTotal int64            `json:"notifications_failed_total"`
	RemindersCheckedTotal    int64            `json:"reminders_checked_total"`
	LastError                string           `json:"last_error,omitempty"`
	LastErrorAt              *time.Time       `json:"last_error_at,omitempty"`
	LastReminderCheck        *time.Time       `json:"last_reminder_check,omitempty"`
	ErrorsByCategory         map[string]int64 `json:"errors_by_category,omitempty"`
}

// Snapshot returns a copy of the current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		RequestsTotal:            m.requests.Load(),
		RequestErrorsTotal:       m.requestErrors.Load(),
		TasksCreatedTotal:        m.tasksCreated.Load(),
		TimersStartedTotal:       m.timersStarted.Load(),
		TimersStoppedTotal:       m.timersStopped.Load(),
		SecondsTrackedTotal:      m.secondsTracked.Load(),
		NotificationsSentTotal:   m.notificationsSent.Load(),
		NotificationsFailedTotal: m.notificationsFailed.Load(),
		RemindersCheckedTotal:    m.remindersChecked.Load(),
		LastError:                m.lastError,
		ErrorsByCategory:         make(map[string]int64, len(m.errorsByCategory)),
	}
	if !m.lastErrorAt.IsZero() {
		at := m.lastErrorAt
		snap.LastErrorAt = &at
	}
	if !m.lastReminderCheck.IsZero() {
		at := m.lastReminderCheck
		snap.LastReminderCheck = &at
	}
	for k, v := range m.errorsByCategory {
		snap.ErrorsByCategory[k] = v
	}
	return snap
}

// RecordRequest counts a served request; 4xx and 5xx count as errors.
func (m *Metrics) RecordRequest(status int) {
	m.requests.Add(1)
	if status >= 400 {
		m.requestErrors.Add(1)
	}
}

// RecordTaskCreated counts a created task.
func (m *Metrics) RecordTaskCreated() {
	m.tasksCreated.Add(1)
}

// RecordTimerStarted counts a started timer.
func (m *Metrics) RecordTimerStarted() {
	m.timersStarted.Add(1)
}

// RecordTimerStopped counts a stopped timer and the seconds it added.
func (m *Metrics) RecordTimerStopped(seconds int64) {
	m.timersStopped.Add(1)
	if seconds > 0 {
		m.secondsTracked.Add(seconds)
	}
}

// RecordNotification counts one delivery attempt.
func (m *Metrics) RecordNotification(success bool) {
	if success {
		m.notificationsSent.Add(1)
		return
	}
	m.notificationsFailed.Add(1)
}

// RecordReminderCheck counts a reminder run.
func (m *Metrics) RecordReminderCheck() {
	m.remindersChecked.Add(1)
	m.mu.Lock()
	m.lastReminderCheck = time.Now()
	m.mu.Unlock()
}

// RecordError records an internal error under category.
func (m *Metrics) RecordError(category string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err.Error()
	m.lastErrorAt = time.Now()
	if category != "" {
		m.errorsByCategory[category]++
	}
}
