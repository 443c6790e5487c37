package timer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newTestTimer(t *testing.T, opts Options) (*Timer, *FakeClock, <-chan int64) {
	t.Helper()
	clock := NewFakeClock(epoch)
	ch := make(chan int64, 64)
	opts.Clock = clock
	opts.OnTick = func(e int64) { ch <- e }
	tm := New(opts)
	t.Cleanup(tm.Stop)
	return tm, clock, ch
}

func waitTick(t *testing.T, ch <-chan int64) int64 {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return 0
	}
}

func assertNoTick(t *testing.T, ch <-chan int64) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected tick %d", e)
	case <-time.After(50 * time.Millisecond):
	}
}

// =============================================================================
// Timer Tests
// =============================================================================

func TestTimerTicksAccumulateFromInitial(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{})

	tm.Start(7)
	assert.True(t, tm.Running())
	assert.Equal(t, int64(7), tm.Elapsed())

	for k := int64(1); k <= 5; k++ {
		clock.Advance(time.Second)
		assert.Equal(t, 7+k, waitTick(t, ch))
	}
	assert.Equal(t, int64(12), tm.Elapsed())
}

func TestTimerStopFreezesElapsed(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{})

	tm.Start(0)
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		waitTick(t, ch)
	}
	tm.Stop()
	assert.False(t, tm.Running())
	assert.Equal(t, int64(5), tm.Elapsed())

	clock.Advance(10 * time.Second)
	assertNoTick(t, ch)
	assert.Equal(t, int64(5), tm.Elapsed())
	assert.Equal(t, 0, clock.Tickers())
}

func TestTimerStopIsIdempotent(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{})

	tm.Stop()
	assert.Equal(t, int64(0), tm.Elapsed())

	tm.Start(3)
	clock.Advance(time.Second)
	waitTick(t, ch)

	tm.Stop()
	first := tm.Elapsed()
	tm.Stop()
	tm.Pause()
	assert.Equal(t, first, tm.Elapsed())
	assert.Equal(t, int64(4), first)
	assert.False(t, tm.Running())
}

func TestTimerResumeFromFrozenValue(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{})

	tm.Start(0)
	for i := 0; i < 4; i++ {
		clock.Advance(time.Second)
		waitTick(t, ch)
	}
	tm.Stop()
	clock.Advance(time.Minute)

	tm.Start(tm.Elapsed())
	clock.Advance(time.Second)
	assert.Equal(t, int64(5), waitTick(t, ch))
}

func TestTimerRestartCancelsPriorSession(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{})

	tm.Start(0)
	tm.Start(100)
	assert.Equal(t, 1, clock.Tickers())

	clock.Advance(time.Second)
	assert.Equal(t, int64(101), waitTick(t, ch))
	assertNoTick(t, ch)
}

func TestTimerDroppedTicksDoNotLoseTime(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{})

	tm.Start(0)
	clock.Advance(5 * time.Second)
	assert.Equal(t, int64(5), waitTick(t, ch))
	assertNoTick(t, ch)
	assert.Equal(t, int64(5), tm.Elapsed())
}

func TestTimerFloorsPartialSeconds(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{})

	tm.Start(0)
	clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, int64(1), waitTick(t, ch))

	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, int64(1), tm.Elapsed())

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, int64(2), waitTick(t, ch))
}

func TestTimerNeverDecreases(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{})

	tm.Start(10)
	clock.Advance(time.Second)
	assert.Equal(t, int64(11), waitTick(t, ch))

	clock.Set(epoch.Add(-time.Hour))
	assert.Equal(t, int64(11), tm.Elapsed())
}

func TestNewRunningRehydrates(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{InitialElapsed: 42, Running: true})

	assert.True(t, tm.Running())
	clock.Advance(time.Second)
	assert.Equal(t, int64(43), waitTick(t, ch))
}

func TestNewStoppedHoldsInitial(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{InitialElapsed: 90})

	assert.False(t, tm.Running())
	clock.Advance(3 * time.Second)
	assertNoTick(t, ch)
	assert.Equal(t, int64(90), tm.Elapsed())
}

func TestTimerReset(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{})

	tm.Start(0)
	clock.Advance(2 * time.Second)
	waitTick(t, ch)

	tm.Reset(5, false)
	assert.False(t, tm.Running())
	assert.Equal(t, int64(5), tm.Elapsed())

	tm.Reset(-3, true)
	assert.True(t, tm.Running())
	assert.Equal(t, int64(0), tm.Elapsed())
}

func TestTimerStopFromCallback(t *testing.T) {
	clock := NewFakeClock(epoch)
	stopped := make(chan struct{})

	var tm *Timer
	tm = New(Options{
		Clock: clock,
		OnTick: func(e int64) {
			tm.Stop()
			close(stopped)
		},
	})

	tm.Start(0)
	clock.Advance(time.Second)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop from callback deadlocked")
	}
	assert.False(t, tm.Running())
	assert.Equal(t, int64(1), tm.Elapsed())
}

func TestTimerTicksChannelKeepsLatest(t *testing.T) {
	tm, clock, ch := newTestTimer(t, Options{})

	tm.Start(0)
	clock.Advance(time.Second)
	waitTick(t, ch)
	clock.Advance(time.Second)
	waitTick(t, ch)

	select {
	case e := <-tm.Ticks():
		assert.Equal(t, int64(2), e)
	default:
		t.Fatal("expected a value on Ticks")
	}
}

func TestTimerFiveSecondsThenStop(t *testing.T) {
	var last int64
	clock := NewFakeClock(epoch)
	ch := make(chan int64, 8)
	tm := New(Options{Clock: clock, OnTick: func(e int64) {
		last = e
		ch <- e
	}})

	tm.Start(0)
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		waitTick(t, ch)
	}
	assert.Equal(t, int64(5), last)

	tm.Stop()
	clock.Advance(30 * time.Second)
	assert.Equal(t, int64(5), tm.Elapsed())
	assert.Equal(t, int64(5), last)
}

func TestRealClockTimer(t *testing.T) {
	ch := make(chan int64, 4)
	tm := New(Options{Interval: 10 * time.Millisecond, OnTick: func(e int64) {
		select {
		case ch <- e:
		default:
		}
	}})
	defer tm.Stop()

	tm.Start(3)
	assert.GreaterOrEqual(t, waitTick(t, ch), int64(3))
}

// =============================================================================
// Display Tests
// =============================================================================

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds  int64
		expected string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{59, "0:59"},
		{60, "1:00"},
		{615, "10:15"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3661, "1:01:01"},
		{36000, "10:00:00"},
		{-5, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatElapsed(tt.seconds))
		})
	}

}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Start Timer", Label(0, false))
	assert.Equal(t, "0:00", Label(0, true))
	assert.Equal(t, "2:05", Label(125, false))
	assert.Equal(t, "2:05", Label(125, true))
}

func TestDisplayRender(t *testing.T) {
	t.Run("button_no_color", func(t *testing.T) {
		d := &Display{UseColor: false}
		assert.Equal(t, "▶ Start Timer", d.RenderButton(0, false))
		assert.Equal(t, "⏸ 0:10", d.RenderButton(10, true))
	})

	t.Run("stopwatch_paused", func(t *testing.T) {
		d := &Display{UseColor: false}
		output := d.RenderStopwatch("Write docs", 75, false)
		assert.Contains(t, output, "Write docs")
		assert.Contains(t, output, "1:15")
		assert.Contains(t, output, "[PAUSED]")
	})

	t.Run("render_uses_crlf", func(t *testing.T) {
		var buf bytes.Buffer
		d := &Display{Writer: &buf}
		d.Render("Task", 1, true)
		assert.Contains(t, buf.String(), "\033[H\033[2J")
		assert.Contains(t, buf.String(), "Task\r\n")
	})
}

// =============================================================================
// Stopwatch Tests
// =============================================================================

func runStopwatch(sw *Stopwatch) <-chan int64 {
	out := make(chan int64, 1)
	go func() {
		elapsed, _ := sw.Run(context.Background())
		out <- elapsed
	}()
	return out
}

func TestStopwatchToggleAndQuit(t *testing.T) {
	clock := NewFakeClock(epoch)
	tm := New(Options{Clock: clock, InitialElapsed: 20})
	defer tm.Stop()

	var buf bytes.Buffer
	sw := NewStopwatch("Write docs", tm)
	sw.Input = nil
	sw.Display = &Display{Writer: &buf}

	done := runStopwatch(sw)

	sw.Pause()
	require.Eventually(t, tm.Running, time.Second, 5*time.Millisecond)

	clock.Advance(3 * time.Second)
	require.Eventually(t, func() bool { return tm.Elapsed() == 23 }, time.Second, 5*time.Millisecond)

	sw.Quit()
	select {
	case elapsed := <-done:
		assert.Equal(t, int64(23), elapsed)
	case <-time.After(2 * time.Second):
		t.Fatal("stopwatch did not quit")
	}
	assert.Contains(t, buf.String(), "Write docs")
}

func TestStopwatchToggleError(t *testing.T) {
	tm := New(Options{Clock: NewFakeClock(epoch)})
	errs := make(chan error, 1)

	sw := NewStopwatch("Task", tm)
	sw.Input = nil
	sw.Display = nil
	sw.Toggle = func(run bool) error { return errors.New("offline") }
	sw.OnError = func(err error) { errs <- err }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_, _ = sw.Run(ctx)
		close(done)
	}()

	sw.Pause()
	select {
	case err := <-errs:
		assert.EqualError(t, err, "offline")
	case <-time.After(2 * time.Second):
		t.Fatal("OnError not called")
	}
	assert.False(t, tm.Running())

	cancel()
	<-done
}
