package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/runtime"
	"github.com/manav03panchal/tasktime/internal/tracker"
)

// startCmd represents the start command.
var startCmd = &cobra.Command{
	Use:     "start ID",
	Aliases: []string{"s", "resume"},
	Short:   "Start the timer of a task",
	Long: `Start timing a task. Only one task is timed at a time: a task that is
already running is paused and its time saved first. The timer resumes from
the time already logged on the task.

ID is the task ID or, for local tasks, a unique prefix of at least four
characters as shown by 'tasktime task list'.

Examples:
  tasktime start 12
  tasktime start 3f2a`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs,
	RunE:              runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	tr := ctx.NewTracker()
	defer tr.Close()

	task, err := loadTask(cmd, tr, args[0])
	if err != nil {
		return err
	}

	var paused *model.Task
	if active, ok := tr.Active(); ok && active != task.ID {
		paused, _ = tr.Task(active)
	}

	res, err := tr.Start(cmd.Context(), task.ID)
	if err != nil {
		return err
	}
	if paused != nil {
		paused, _ = tr.Task(paused.ID)
	}
	elapsed, _ := tr.Elapsed(task.ID)
	ctx.Debugf("started %s at %ds", task.ID, elapsed)

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStart(res.Task, elapsed, paused, res.Offline)
	}
	cli := ctx.CLIFormatter()
	cli.PrintTimerStarted(res.Task, elapsed, paused)
	cli.PrintOffline(res.Offline)
	return nil
}

// loadTask loads the tracker and resolves ref against its tasks.
func loadTask(cmd *cobra.Command, tr *tracker.Tracker, ref string) (*model.Task, error) {
	res, err := tr.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	return runtime.ResolveID(res.Tasks, ref)
}
