package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/gcal"
	"github.com/manav03panchal/tasktime/internal/parser"
	"github.com/manav03panchal/tasktime/internal/report"
)

// Calendar command flags.
var (
	calendarFlagMonth    string
	calendarSyncFlagID   string
	calendarSyncFlagAuth bool
)

// calendarCmd represents the calendar command.
var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "Show tasks by due date",
	Long: `Show the tasks due in a month, grouped by day.

Examples:
  tasktime calendar
  tasktime calendar --month 2026-11
  tasktime calendar --month "Dec 2026"
  tasktime calendar sync`,
	Args: cobra.NoArgs,
	RunE: runCalendar,
}

// calendarSyncCmd pushes due tasks to Google Calendar.
var calendarSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push tasks with due dates to Google Calendar",
	Long: `Create or update one all-day Google Calendar event per task with a due
date. Events are matched to tasks by a private property, so re-running sync
updates the same events.

The first run opens the OAuth consent flow using the client credentials in
TASKTIME_GCAL_CREDENTIALS and caches the token in TASKTIME_GCAL_TOKEN.

Examples:
  tasktime calendar sync
  tasktime calendar sync --calendar work@example.com`,
	Args: cobra.NoArgs,
	RunE: runCalendarSync,
}

func init() {
	calendarCmd.Flags().StringVarP(&calendarFlagMonth, "month", "m", "", "Month to show (e.g. 2026-10, Oct 2026); default this month")
	calendarSyncCmd.Flags().StringVar(&calendarSyncFlagID, "calendar", "", "Target calendar ID (default from config)")
	calendarSyncCmd.Flags().BoolVar(&calendarSyncFlagAuth, "auth-only", false, "Only authorize, do not sync")

	calendarCmd.AddCommand(calendarSyncCmd)
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(cmd *cobra.Command, args []string) error {
	month, err := parser.ParseMonth(calendarFlagMonth, time.Now())
	if err != nil {
		return err
	}

	res, err := ctx.Store.List(cmd.Context())
	if err != nil {
		return err
	}
	days := report.Calendar(res.Tasks, month)

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintCalendar(month, days)
	}
	ctx.CLIFormatter().PrintCalendar(month, days)
	return nil
}

func runCalendarSync(cmd *cobra.Command, args []string) error {
	cfg := ctx.Config.Calendar
	if calendarSyncFlagID != "" {
		cfg.CalendarID = calendarSyncFlagID
	}

	srv, err := gcal.NewService(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if calendarSyncFlagAuth {
		ctx.CLIFormatter().Success("Google Calendar authorized")
		return nil
	}

	res, err := ctx.Store.List(cmd.Context())
	if err != nil {
		return err
	}

	syncer := gcal.NewSyncer(gcal.NewGoogleEvents(srv), ctx.Calendar, cfg.CalendarID)
	result, err := syncer.Sync(cmd.Context(), res.Tasks)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(result)
	}
	cli := ctx.CLIFormatter()
	cli.Success(fmt.Sprintf("Synced to %s: %d created, %d updated, %d unchanged",
		cfg.CalendarID, result.Created, result.Updated, result.Unchanged))
	if result.Skipped > 0 {
		cli.Muted(fmt.Sprintf("%d tasks without a due date skipped", result.Skipped))
	}
	for _, id := range result.Failed {
		cli.Warning("Failed to sync task " + id)
	}
	return nil
}
