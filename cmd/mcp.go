package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/logging"
	"github.com/manav03panchal/tasktime/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve task tools to MCP clients over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing the task
store as tools: list_tasks, get_task, create_task, update_task, delete_task,
assign_task, start_timer, stop_timer, complete_task and task_report.

Logs go to stderr so they never mix with the protocol stream.

Example client configuration:
  {"command": "tasktime", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	tr := ctx.NewTracker()
	defer tr.Close()

	logging.Info("serving MCP over stdio", "remote", ctx.Store.Remote())
	return mcp.Serve(mcp.NewServer(ctx.Store, tr, Version))
}
