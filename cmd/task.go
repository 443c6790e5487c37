package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/parser"
	"github.com/manav03panchal/tasktime/internal/runtime"
	"github.com/manav03panchal/tasktime/internal/validate"
)

// taskCmd represents the task command.
var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"tasks", "t"},
	Short:   "Manage tasks",
	Long: `List, create, edit and delete tasks.

Without a subcommand the task list is shown.

Examples:
  tasktime task
  tasktime task add "Fix login bug" --priority high --due "next friday"
  tasktime task list --status todo --search login
  tasktime task edit 12 --status in-progress
  tasktime task edit 12 --time 1h30m
  tasktime task assign 12 42
  tasktime task delete 12`,
	RunE: runTaskList,
}

// Task subcommand flags.
var (
	taskListFlagStatus   string
	taskListFlagPriority string
	taskListFlagSearch   string

	taskAddFlagDescription string
	taskAddFlagPriority    string
	taskAddFlagDue         string

	taskEditFlagTitle       string
	taskEditFlagDescription string
	taskEditFlagPriority    string
	taskEditFlagStatus      string
	taskEditFlagDue         string
	taskEditFlagTime        string
)

// taskListCmd lists tasks.
var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Args:    cobra.NoArgs,
	RunE:    runTaskList,
}

// taskAddCmd creates a new task.
var taskAddCmd = &cobra.Command{
	Use:     "add TITLE",
	Aliases: []string{"create", "new"},
	Short:   "Create a new task",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runTaskAdd,
}

// taskEditCmd edits an existing task.
var taskEditCmd = &cobra.Command{
	Use:               "edit ID",
	Short:             "Edit a task",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs,
	RunE:              runTaskEdit,
}

// taskShowCmd shows one task.
var taskShowCmd = &cobra.Command{
	Use:               "show ID",
	Aliases:           []string{"get"},
	Short:             "Show task details",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs,
	RunE:              runTaskShow,
}

// taskDeleteCmd deletes a task.
var taskDeleteCmd = &cobra.Command{
	Use:               "delete ID",
	Aliases:           []string{"rm"},
	Short:             "Delete a task",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs,
	RunE:              runTaskDelete,
}

// taskAssignCmd assigns a task to a user.
var taskAssignCmd = &cobra.Command{
	Use:               "assign ID USER_ID",
	Short:             "Assign a task to a user",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeTaskIDs,
	RunE:              runTaskAssign,
}

// taskCompleteCmd marks a task completed.
var taskCompleteCmd = &cobra.Command{
	Use:               "complete ID",
	Aliases:           []string{"done"},
	Short:             "Complete a task, stopping its timer",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs,
	RunE:              runTaskComplete,
}

func init() {
	// Filter flags are shared by `task` and `task list`
	for _, c := range []*cobra.Command{taskCmd, taskListCmd} {
		c.Flags().StringVarP(&taskListFlagStatus, "status", "s", "all", "Filter by status: all, todo, in-progress, completed")
		c.Flags().StringVarP(&taskListFlagPriority, "priority", "p", "", "Filter by priority: low, medium, high")
		c.Flags().StringVarP(&taskListFlagSearch, "search", "q", "", "Search title and description")
		_ = c.RegisterFlagCompletionFunc("status", completeValues("all", "todo", "in-progress", "completed"))
		_ = c.RegisterFlagCompletionFunc("priority", completeValues("low", "medium", "high"))
	}

	// Add flags
	taskAddCmd.Flags().StringVarP(&taskAddFlagDescription, "description", "d", "", "Task description")
	taskAddCmd.Flags().StringVarP(&taskAddFlagPriority, "priority", "p", "medium", "Priority: low, medium, high")
	taskAddCmd.Flags().StringVar(&taskAddFlagDue, "due", "", "Due date (e.g. 2026-10-30, tomorrow, +3d, next friday)")

	// Edit flags
	taskEditCmd.Flags().StringVarP(&taskEditFlagTitle, "title", "t", "", "New title")
	taskEditCmd.Flags().StringVarP(&taskEditFlagDescription, "description", "d", "", "New description")
	taskEditCmd.Flags().StringVarP(&taskEditFlagPriority, "priority", "p", "", "New priority")
	taskEditCmd.Flags().StringVarP(&taskEditFlagStatus, "status", "s", "", "New status")
	taskEditCmd.Flags().StringVar(&taskEditFlagDue, "due", "", `New due date, or "none" to clear`)
	taskEditCmd.Flags().StringVar(&taskEditFlagTime, "time", "", "Correct the logged time (e.g. 1h30m)")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskAssignCmd)
	taskCmd.AddCommand(taskCompleteCmd)
	rootCmd.AddCommand(taskCmd)
}

// buildFilter validates the list flags.
func buildFilter() (model.Filter, error) {
	f := model.Filter{Search: strings.TrimSpace(taskListFlagSearch)}
	if s := strings.TrimSpace(taskListFlagStatus); s != "" && s != model.StatusAll {
		status, err := validate.Status(s)
		if err != nil {
			return f, err
		}
		f.Status = string(status)
	}
	if p := strings.TrimSpace(taskListFlagPriority); p != "" {
		priority, err := validate.Priority(p)
		if err != nil {
			return f, err
		}
		f.Priority = priority
	}
	return f, nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	filter, err := buildFilter()
	if err != nil {
		return err
	}

	res, err := ctx.Store.List(cmd.Context())
	if err != nil {
		return err
	}
	tasks := filter.Apply(res.Tasks)
	elapsed := liveElapsed(tasks, time.Now())

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTasks(tasks, len(res.Tasks), elapsed, res.Offline)
	}
	cli := ctx.CLIFormatter()
	cli.PrintTaskList(tasks, elapsed)
	if res.Offline {
		cli.Muted("Showing the local copy; the task API is unreachable.")
	}
	return nil
}

// liveElapsed returns the current elapsed seconds of running tasks.
func liveElapsed(tasks []*model.Task, now time.Time) map[string]int64 {
	elapsed := make(map[string]int64)
	for _, t := range tasks {
		if t.IsRunning() {
			elapsed[t.ID] = t.ElapsedAt(now)
		}
	}
	return elapsed
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	priority, err := validate.Priority(taskAddFlagPriority)
	if err != nil {
		return err
	}

	task := model.NewTask(strings.Join(args, " "), priority)
	task.Description = taskAddFlagDescription
	if taskAddFlagDue != "" {
		if task.DueDate, err = parser.ParseDueLabel(taskAddFlagDue, time.Now()); err != nil {
			return err
		}
	}
	validate.SanitizeTask(task)
	if err := validate.Task(task); err != nil {
		return err
	}

	res, err := ctx.Store.Create(cmd.Context(), task)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTask("created", res.Task, res.Task.TimeLogged, res.Offline)
	}
	cli := ctx.CLIFormatter()
	cli.Success("Created task " + cli.TaskName(res.Task.Title) + " (#" + res.Task.ID + ")")
	cli.PrintOffline(res.Offline)
	return nil
}

// resolveTask lists the store and resolves ref against it.
func resolveTask(cmd *cobra.Command, ref string) (*model.Task, error) {
	res, err := ctx.Store.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	return runtime.ResolveID(res.Tasks, ref)
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if !flags.Changed("title") && !flags.Changed("description") && !flags.Changed("priority") &&
		!flags.Changed("status") && !flags.Changed("due") && !flags.Changed("time") {
		return errors.NewUserError("Nothing to change",
			"Pass at least one of --title, --description, --priority, --status, --due or --time.")
	}

	tr := ctx.NewTracker()
	defer tr.Close()

	current, err := loadTask(cmd, tr, args[0])
	if err != nil {
		return err
	}

	// Status changes go through the tracker so in-progress always means timed.
	res, err := tr.Edit(cmd.Context(), current.ID, func(task *model.Task) error {
		var err error
		if flags.Changed("title") {
			task.Title = taskEditFlagTitle
		}
		if flags.Changed("description") {
			task.Description = taskEditFlagDescription
		}
		if flags.Changed("priority") {
			if task.Priority, err = validate.Priority(taskEditFlagPriority); err != nil {
				return err
			}
		}
		if flags.Changed("status") {
			if task.Status, err = validate.Status(taskEditFlagStatus); err != nil {
				return err
			}
		}
		if flags.Changed("due") {
			if taskEditFlagDue == "" || strings.EqualFold(taskEditFlagDue, "none") {
				task.DueDate = ""
			} else if task.DueDate, err = parser.ParseDueLabel(taskEditFlagDue, time.Now()); err != nil {
				return err
			}
		}
		if flags.Changed("time") {
			if task.TimeLogged, err = parser.ParseSeconds(taskEditFlagTime); err != nil {
				return err
			}
		}
		validate.SanitizeTask(task)
		return validate.Task(task)
	})
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTask("updated", res.Task, res.Task.TimeLogged, res.Offline)
	}
	cli := ctx.CLIFormatter()
	cli.Success("Updated task " + cli.TaskName(res.Task.Title))
	cli.PrintOffline(res.Offline)
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	task, err := resolveTask(cmd, args[0])
	if err != nil {
		return err
	}
	now := time.Now()
	elapsed := task.ElapsedAt(now)

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTask("ok", task, elapsed, false)
	}
	ctx.CLIFormatter().PrintTask(task, elapsed, now)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	task, err := resolveTask(cmd, args[0])
	if err != nil {
		return err
	}

	res, err := ctx.Store.Delete(cmd.Context(), task.ID)
	if err != nil {
		return err
	}
	if !res.Deleted {
		return errors.Wrapf(errors.ErrTaskNotFound, "task %s", task.ID)
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintDelete(task.ID, res.Offline)
	}
	cli := ctx.CLIFormatter()
	cli.Success("Deleted task " + cli.TaskName(task.Title))
	cli.PrintOffline(res.Offline)
	return nil
}

func runTaskAssign(cmd *cobra.Command, args []string) error {
	userID := strings.TrimSpace(args[1])
	if err := validate.UserID(userID); err != nil {
		return err
	}
	task, err := resolveTask(cmd, args[0])
	if err != nil {
		return err
	}

	res, err := ctx.Store.Assign(cmd.Context(), task.ID, userID)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTask("assigned", res.Task, res.Task.TimeLogged, res.Offline)
	}
	cli := ctx.CLIFormatter()
	cli.Success("Assigned " + cli.TaskName(res.Task.Title) + " to user " + userID)
	cli.PrintOffline(res.Offline)
	return nil
}

func runTaskComplete(cmd *cobra.Command, args []string) error {
	tr := ctx.NewTracker()
	defer tr.Close()

	task, err := loadTask(cmd, tr, args[0])
	if err != nil {
		return err
	}
	if task.Status == model.StatusCompleted {
		return errors.NewUserError("Task already completed", "Use 'tasktime task edit "+task.ID+" --status todo' to reopen it.")
	}

	res, err := tr.Complete(cmd.Context(), task.ID)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTask("completed", res.Task, res.Task.TimeLogged, res.Offline)
	}
	cli := ctx.CLIFormatter()
	cli.PrintCompleted(res.Task)
	cli.PrintOffline(res.Offline)
	return nil
}
