package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/timer"
)

// Watch command flags.
var watchFlagKeepRunning bool

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:     "watch ID",
	Aliases: []string{"w", "stopwatch"},
	Short:   "Time a task with a foreground stopwatch",
	Long: `Start a task's timer and show a live stopwatch in the terminal.

Leaving the stopwatch pauses the timer and saves the logged time, unless
--keep-running is given.

Keyboard Controls:
  SPACE  Pause/Resume the timer
  Q      Quit
  Ctrl+C Quit (same as Q)

Examples:
  tasktime watch 12
  tasktime watch 3f2a --keep-running`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs,
	RunE:              runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchFlagKeepRunning, "keep-running", false, "Leave the timer running on exit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	tr := ctx.NewTracker()
	defer tr.Close()

	task, err := loadTask(cmd, tr, args[0])
	if err != nil {
		return err
	}
	if !tr.Running(task.ID) {
		if _, err := tr.Start(cmd.Context(), task.ID); err != nil {
			return err
		}
	}

	// The display timer mirrors the tracker's; the tracker owns persistence.
	elapsed, _ := tr.Elapsed(task.ID)
	display := timer.New(timer.Options{
		InitialElapsed: elapsed,
		Running:        true,
		Interval:       ctx.Config.Timer.TickInterval,
	})
	defer display.Stop()

	sw := timer.NewStopwatch(task.Title, display)
	sw.Toggle = func(run bool) error {
		if run {
			if _, err := tr.Start(cmd.Context(), task.ID); err != nil {
				return err
			}
			e, _ := tr.Elapsed(task.ID)
			display.Start(e)
			return nil
		}
		res, err := tr.Pause(cmd.Context(), task.ID)
		if err != nil {
			return err
		}
		display.Reset(res.Task.TimeLogged, false)
		return nil
	}
	sw.OnError = func(err error) {
		ctx.Debugf("stopwatch toggle failed: %v", err)
	}

	if _, err := sw.Run(cmd.Context()); err != nil {
		return err
	}

	cli := ctx.CLIFormatter()
	if !tr.Running(task.ID) || watchFlagKeepRunning {
		if t, ok := tr.Task(task.ID); ok && !ctx.IsJSON() {
			cli.Muted("Logged " + timer.FormatElapsed(t.TimeLogged) + " on " + t.Title)
		}
		return nil
	}

	res, err := tr.Pause(cmd.Context(), task.ID)
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTask("paused", res.Task, res.Task.TimeLogged, res.Offline)
	}
	cli.PrintTimerPaused(res.Task)
	cli.PrintOffline(res.Offline)
	return nil
}
