package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/model"
)

// stopCmd represents the stop command.
var stopCmd = &cobra.Command{
	Use:     "stop [ID]",
	Aliases: []string{"stp", "pause", "p"},
	Short:   "Pause the running timer",
	Long: `Pause a task's timer and save the time logged so far. Without an ID the
task currently being timed is paused. The task goes back to todo and can be
resumed with 'tasktime start'.

Examples:
  tasktime stop
  tasktime pause 12`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeTaskIDs,
	RunE:              runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	tr := ctx.NewTracker()
	defer tr.Close()

	var task *model.Task
	if len(args) == 1 {
		var err error
		if task, err = loadTask(cmd, tr, args[0]); err != nil {
			return err
		}
	} else {
		if _, err := tr.Load(cmd.Context()); err != nil {
			return err
		}
		if id, ok := tr.Active(); ok {
			task, _ = tr.Task(id)
		}
	}

	if task == nil || !tr.Running(task.ID) {
		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintError("no_active_timer", "No active timer to stop", "")
		}
		ctx.CLIFormatter().PrintNoActiveTimer()
		return nil
	}

	res, err := tr.Pause(cmd.Context(), task.ID)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTask("paused", res.Task, res.Task.TimeLogged, res.Offline)
	}
	cli := ctx.CLIFormatter()
	cli.PrintTimerPaused(res.Task)
	cli.PrintOffline(res.Offline)
	return nil
}
