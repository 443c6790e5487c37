// Package timer implements the per-task elapsed-time timer for Tasktime.
//
// Elapsed seconds are derived from the wall clock (now minus a virtual start
// instant), never from counting ticks, so slow or dropped ticks do not lose
// time. Ticks only drive notifications.
package timer

import (
	"sync"
	"time"
)

// DefaultInterval is the notification cadence.
const DefaultInterval = time.Second

// Options configures a Timer.
type Options struct {
	// InitialElapsed is the accumulated seconds to start from.
	InitialElapsed int64
	// Running starts the timer immediately from InitialElapsed.
	Running bool
	// Interval between notifications. Defaults to DefaultInterval.
	Interval time.Duration
	// Clock defaults to RealClock.
	Clock Clock
	// OnTick is called on the timer goroutine after every tick.
	OnTick func(elapsed int64)
}

// Timer tracks elapsed seconds for a single task.
type Timer struct {
	clock    Clock
	interval time.Duration
	onTick   func(int64)
	ticks    chan int64

	mu           sync.Mutex
	elapsed      int64
	virtualStart time.Time
	sess         *session
}

// session is one Start..Stop span. It exists only while running.
type session struct {
	stop       chan struct{}
	done       chan struct{}
	inCallback bool // guarded by Timer.mu
}

// New creates a Timer. If opts.Running is set the timer is started.
func New(opts Options) *Timer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	t := &Timer{
		clock:    opts.Clock,
		interval: opts.Interval,
		onTick:   opts.OnTick,
		ticks:    make(chan int64, 1),
	}
	t.Reset(opts.InitialElapsed, opts.Running)
	return t
}

// Start begins a new session from initial seconds. A session that is
// already running is cancelled first.
func (t *Timer) Start(initial int64) {
	if initial < 0 {
		initial = 0
	}

	t.mu.Lock()
	prev, wait := t.stopLocked()

	now := t.clock.Now()
	s := &session{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	t.sess = s
	t.elapsed = initial
	t.virtualStart = now.Add(-time.Duration(initial) * time.Second)
	ticker := t.clock.NewTicker(t.interval)
	t.mu.Unlock()

	if wait {
		<-prev.done
	}
	go t.run(s, ticker)
}

// Stop cancels ticks and freezes elapsed. Calling Stop on a stopped timer is
// a no-op. Once Stop returns no further tick of the stopped session is
// computed or delivered.
func (t *Timer) Stop() {
	t.mu.Lock()
	prev, wait := t.stopLocked()
	t.mu.Unlock()

	if wait {
		<-prev.done
	}
}

// Pause is Stop.
func (t *Timer) Pause() {
	t.Stop()
}

// Reset stops the timer, sets elapsed to initial and optionally restarts.
func (t *Timer) Reset(initial int64, running bool) {
	if initial < 0 {
		initial = 0
	}
	if running {
		t.Start(initial)
		return
	}
	t.Stop()
	t.mu.Lock()
	t.elapsed = initial
	t.mu.Unlock()
}

// Elapsed returns the current elapsed seconds.
func (t *Timer) Elapsed() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess != nil {
		return t.computeLocked()
	}
	return t.elapsed
}

// Running reports whether a session is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess != nil
}

// Ticks returns a channel carrying the latest elapsed value. Slow readers
// see only the most recent value.
func (t *Timer) Ticks() <-chan int64 {
	return t.ticks
}

// stopLocked ends the current session, if any. It reports whether the
// caller must wait for the session goroutine to exit, which is not the case
// when called from that session's own callback.
func (t *Timer) stopLocked() (*session, bool) {
	s := t.sess
	if s == nil {
		return nil, false
	}
	t.elapsed = t.computeLocked()
	t.sess = nil
	t.virtualStart = time.Time{}
	close(s.stop)
	return s, !s.inCallback
}

// computeLocked derives elapsed from the wall clock, never going backwards.
func (t *Timer) computeLocked() int64 {
	e := int64(t.clock.Now().Sub(t.virtualStart) / time.Second)
	if e < t.elapsed {
		e = t.elapsed
	}
	t.elapsed = e
	return e
}

func (t *Timer) run(s *session, ticker Ticker) {
	defer close(s.done)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C():
			t.mu.Lock()
			if t.sess != s {
				t.mu.Unlock()
				return
			}
			elapsed := t.computeLocked()
			s.inCallback = true
			t.mu.Unlock()

			t.publish(elapsed)
			if t.onTick != nil {
				t.onTick(elapsed)
			}

			t.mu.Lock()
			s.inCallback = false
			t.mu.Unlock()
		}
	}
}

func (t *Timer) publish(elapsed int64) {
	select {
	case <-t.ticks:
	default:
	}
	select {
	case t.ticks <- elapsed:
	default:
	}
}
