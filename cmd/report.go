package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/report"
)

// Report command flags.
var (
	reportFlagType  string
	reportFlagRange string
)

// reportCmd represents the report command.
var reportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"reports", "stats"},
	Short:   "Show task metrics and insights",
	Long: `Show task metrics for a period: total tasks, completion rate and time
tracked, a distribution by status, priority or time spent, and insights.

Tasks fall in a range by due date, or by creation date when they have none.
Weeks start on Monday.

Examples:
  tasktime report
  tasktime report --type priority --range week
  tasktime report --type time --range month --format json`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFlagType, "type", "t", "status", "Distribution: status, priority, time")
	reportCmd.Flags().StringVarP(&reportFlagRange, "range", "r", "all", "Range: all, today, week, month")
	_ = reportCmd.RegisterFlagCompletionFunc("type", completeValues("status", "priority", "time"))
	_ = reportCmd.RegisterFlagCompletionFunc("range", completeValues("all", "today", "week", "month"))
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	kind, err := report.ParseKind(reportFlagType)
	if err != nil {
		return err
	}

	res, err := ctx.Store.List(cmd.Context())
	if err != nil {
		return err
	}
	rep, err := report.Build(res.Tasks, kind, reportFlagRange, time.Now())
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintReport(rep)
	}
	ctx.CLIFormatter().PrintReport(rep)
	return nil
}
