package timer

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

// Stopwatch drives a Timer in the foreground terminal.
type Stopwatch struct {
	Title   string
	Timer   *Timer
	Display *Display
	// Input is read for key presses when it is a terminal. Nil disables
	// keyboard control.
	Input *os.File
	// Toggle is called on SPACE with the requested running state. When nil
	// the Timer is started or stopped directly.
	Toggle func(run bool) error
	// OnError receives errors returned by Toggle.
	OnError func(err error)

	pauseCh chan struct{}
	quitCh  chan struct{}
}

// NewStopwatch creates a stopwatch for t reading keys from stdin.
func NewStopwatch(title string, t *Timer) *Stopwatch {
	return &Stopwatch{
		Title:   title,
		Timer:   t,
		Display: NewDisplay(),
		Input:   os.Stdin,
		pauseCh: make(chan struct{}, 1),
		quitCh:  make(chan struct{}, 1),
	}
}

// Pause requests a pause/resume toggle.
func (s *Stopwatch) Pause() {
	select {
	case s.pauseCh <- struct{}{}:
	default:
	}
}

// Quit requests the stopwatch to exit.
func (s *Stopwatch) Quit() {
	select {
	case s.quitCh <- struct{}{}:
	default:
	}
}

// Run renders the timer until quit, interrupted or ctx is done and returns
// the elapsed seconds at exit. The Timer is left in whatever state it is in;
// callers decide whether to persist or stop it.
func (s *Stopwatch) Run(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.Input != nil && term.IsTerminal(int(s.Input.Fd())) {
		oldState, err := term.MakeRaw(int(s.Input.Fd()))
		if err != nil {
			return s.Timer.Elapsed(), err
		}
		defer term.Restore(int(s.Input.Fd()), oldState)
		go s.listenKeyboard(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	s.render(s.Timer.Elapsed())

	for {
		select {
		case <-ctx.Done():
			return s.Timer.Elapsed(), nil

		case <-sigCh:
			return s.Timer.Elapsed(), nil

		case <-s.quitCh:
			return s.Timer.Elapsed(), nil

		case <-s.pauseCh:
			run := !s.Timer.Running()
			if s.Toggle != nil {
				if err := s.Toggle(run); err != nil && s.OnError != nil {
					s.OnError(err)
				}
			} else if run {
				s.Timer.Start(s.Timer.Elapsed())
			} else {
				s.Timer.Stop()
			}
			s.render(s.Timer.Elapsed())

		case elapsed := <-s.Timer.Ticks():
			s.render(elapsed)
		}
	}
}

func (s *Stopwatch) render(elapsed int64) {
	if s.Display == nil {
		return
	}
	s.Display.Render(s.Title, elapsed, s.Timer.Running())
}

// listenKeyboard reads single key presses. The blocking read cannot be
// interrupted; the goroutine ends with the process.
func (s *Stopwatch) listenKeyboard(ctx context.Context) {
	buf := make([]byte, 1)
	for {
		n, err := s.Input.Read(buf)
		if err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if n == 0 {
			continue
		}

		switch buf[0] {
		case ' ':
			s.Pause()
		case 'q', 'Q', 3: // Ctrl+C arrives as a byte in raw mode
			s.Quit()
		}
	}
}
