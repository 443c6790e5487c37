package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/tui"
)

// dashboardCmd represents the dashboard command.
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "d", "tui"},
	Short:   "Open the interactive TUI dashboard",
	Long: `Open an interactive terminal dashboard to track time on tasks.

The dashboard shows:
  - Total time, active tasks and completed tasks
  - Every task with its live timer
  - The pending tasks to focus on next

Keyboard Controls:
  ↑/↓ k/j - Select a task
  space   - Start or pause the selected task
  c       - Complete the selected task
  r       - Refresh data
  q       - Quit dashboard

Examples:
  tasktime dashboard
  tasktime dash
  tasktime tui`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	tr := ctx.NewTracker()
	defer tr.Close()

	// Configure the dashboard
	config := tui.DashboardConfig{
		Tracker:  tr,
		Warnings: ctx.Store.Warnings(),
	}

	// Run the TUI dashboard
	return tui.Run(cmd.Context(), config)
}
