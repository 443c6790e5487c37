// Package mcp exposes the task store to MCP clients over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/output"
	"github.com/manav03panchal/tasktime/internal/parser"
	"github.com/manav03panchal/tasktime/internal/report"
	"github.com/manav03panchal/tasktime/internal/store"
	"github.com/manav03panchal/tasktime/internal/validate"
)

// ServerName is reported to MCP clients.
const ServerName = "Tasktime"

// Tasks is the task store the tools read and write. *store.Fallback
// satisfies it.
type Tasks interface {
	List(ctx context.Context) (store.ListResult, error)
	Get(ctx context.Context, id string) (store.Result, error)
	Create(ctx context.Context, task *model.Task) (store.Result, error)
	Update(ctx context.Context, id string, task *model.Task) (store.Result, error)
	Delete(ctx context.Context, id string) (store.DeleteResult, error)
	Assign(ctx context.Context, id, userID string) (store.Result, error)
}

// Timers runs timer commands so that only one task is timed at a time.
// *tracker.Tracker satisfies it.
type Timers interface {
	Load(ctx context.Context) (store.ListResult, error)
	Start(ctx context.Context, id string) (store.Result, error)
	Pause(ctx context.Context, id string) (store.Result, error)
	Complete(ctx context.Context, id string) (store.Result, error)
}

type handlers struct {
	tasks  Tasks
	timers Timers
	now    func() time.Time
}

// NewServer creates the MCP server with all task tools registered.
func NewServer(tasks Tasks, timers Timers, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false))
	h := &handlers{tasks: tasks, timers: timers, now: time.Now}

	// Tasks
	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks with optional filters."),
		mcp.WithString("status", mcp.Description("Filter by status (all|todo|in-progress|completed)")),
		mcp.WithString("priority", mcp.Description("Filter by priority (low|medium|high)")),
		mcp.WithString("search", mcp.Description("Case-insensitive match on title or description")),
	), h.listTasks)

	s.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a single task by id."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), h.getTask)

	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task."),
		mcp.WithString("title", mcp.Description("Task title (max 200 chars)"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("priority", mcp.Description("Priority (low|medium|high), defaults to medium")),
		mcp.WithString("due", mcp.Description("Due date, e.g. 'Oct 20, 2026', 'tomorrow' or '+3d'")),
	), h.createTask)

	s.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update fields of an existing task. Omitted fields are kept."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("priority", mcp.Description("New priority")),
		mcp.WithString("status", mcp.Description("New status")),
		mcp.WithString("due", mcp.Description("New due date, or 'none' to clear it")),
	), h.updateTask)

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), h.deleteTask)

	s.AddTool(mcp.NewTool("assign_task",
		mcp.WithDescription("Assign a task to a user."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("user_id", mcp.Description("Assignee user id"), mcp.Required()),
	), h.assignTask)

	// Time tracking
	s.AddTool(mcp.NewTool("start_timer",
		mcp.WithDescription("Start timing a task. Any other running task is paused first."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), h.startTimer)

	s.AddTool(mcp.NewTool("stop_timer",
		mcp.WithDescription("Pause a running task and save its logged time."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), h.stopTimer)

	s.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Stop the task's timer if it runs and mark it completed."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), h.completeTask)

	// Reports
	s.AddTool(mcp.NewTool("task_report",
		mcp.WithDescription("Summarize tasks: totals, completion rate, distributions and insights."),
		mcp.WithString("type", mcp.Description("Report type (status|priority|time)")),
		mcp.WithString("range", mcp.Description("Date range (all|today|week|month)")),
	), h.taskReport)

	return s
}

// Serve runs the MCP server on stdio until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (h *handlers) listTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := model.Filter{Search: mcp.ParseString(request, "search", "")}
	if s := mcp.ParseString(request, "status", ""); s != "" && s != "all" {
		status, err := validate.Status(s)
		if err != nil {
			return toolError(err), nil
		}
		f.Status = string(status)
	}
	if p := mcp.ParseString(request, "priority", ""); p != "" {
		priority, err := validate.Priority(p)
		if err != nil {
			return toolError(err), nil
		}
		f.Priority = priority
	}

	res, err := h.tasks.List(ctx)
	if err != nil {
		return toolError(err), nil
	}
	tasks := f.Apply(res.Tasks)
	return jsonResult(output.NewTasksResponse(tasks, len(tasks), nil, res.Offline))
}

func (h *handlers) getTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.tasks.Get(ctx, mcp.ParseString(request, "id", ""))
	if err != nil {
		return toolError(err), nil
	}
	return taskResult("ok", res)
}

func (h *handlers) createTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	priority := model.PriorityMedium
	if p := mcp.ParseString(request, "priority", ""); p != "" {
		var err error
		if priority, err = validate.Priority(p); err != nil {
			return toolError(err), nil
		}
	}

	task := model.NewTask(mcp.ParseString(request, "title", ""), priority)
	task.Description = mcp.ParseString(request, "description", "")
	if due := mcp.ParseString(request, "due", ""); due != "" {
		label, err := parser.ParseDueLabel(due, h.now())
		if err != nil {
			return toolError(err), nil
		}
		task.DueDate = label
	}
	validate.SanitizeTask(task)
	if err := validate.Task(task); err != nil {
		return toolError(err), nil
	}

	res, err := h.tasks.Create(ctx, task)
	if err != nil {
		return toolError(err), nil
	}
	return taskResult("created", res)
}

func (h *handlers) updateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "id", "")
	current, err := h.tasks.Get(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	task := current.Task.Clone()

	args, _ := request.Params.Arguments.(map[string]any)
	if v, ok := args["title"].(string); ok {
		task.Title = v
	}
	if v, ok := args["description"].(string); ok {
		task.Description = v
	}
	if v, ok := args["priority"].(string); ok {
		if task.Priority, err = validate.Priority(v); err != nil {
			return toolError(err), nil
		}
	}
	if v, ok := args["status"].(string); ok {
		if task.Status, err = validate.Status(v); err != nil {
			return toolError(err), nil
		}
		if task.Status != model.StatusInProgress {
			task.StartedAt = nil
		}
	}
	if v, ok := args["due"].(string); ok {
		if strings.EqualFold(v, "none") || v == "" {
			task.DueDate = ""
		} else if task.DueDate, err = parser.ParseDueLabel(v, h.now()); err != nil {
			return toolError(err), nil
		}
	}
	validate.SanitizeTask(task)
	if err := validate.Task(task); err != nil {
		return toolError(err), nil
	}

	res, err := h.tasks.Update(ctx, id, task)
	if err != nil {
		return toolError(err), nil
	}
	return taskResult("updated", res)
}

func (h *handlers) deleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "id", "")
	res, err := h.tasks.Delete(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	if !res.Deleted {
		return toolError(errors.Wrapf(errors.ErrTaskNotFound, "task %s", id)), nil
	}
	return jsonResult(&output.DeleteResponse{Status: "deleted", ID: id, Offline: res.Offline})
}

func (h *handlers) assignTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := mcp.ParseString(request, "user_id", "")
	if err := validate.UserID(userID); err != nil {
		return toolError(err), nil
	}
	res, err := h.tasks.Assign(ctx, mcp.ParseString(request, "id", ""), userID)
	if err != nil {
		return toolError(err), nil
	}
	return taskResult("assigned", res)
}

func (h *handlers) startTimer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.timerCommand(ctx, request, "started", h.timers.Start)
}

func (h *handlers) stopTimer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.timerCommand(ctx, request, "paused", h.timers.Pause)
}

func (h *handlers) completeTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.timerCommand(ctx, request, "completed", h.timers.Complete)
}

// timerCommand reloads the tracker so it sees changes made by other
// clients, then runs cmd.
func (h *handlers) timerCommand(ctx context.Context, request mcp.CallToolRequest, status string,
	cmd func(context.Context, string) (store.Result, error)) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "id", "")
	if err := validate.TaskID(id); err != nil {
		return toolError(err), nil
	}
	if _, err := h.timers.Load(ctx); err != nil {
		return toolError(err), nil
	}
	res, err := cmd(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return taskResult(status, res)
}

func (h *handlers) taskReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := report.ParseKind(mcp.ParseString(request, "type", ""))
	if err != nil {
		return toolError(err), nil
	}
	res, err := h.tasks.List(ctx)
	if err != nil {
		return toolError(err), nil
	}
	rep, err := report.Build(res.Tasks, kind, mcp.ParseString(request, "range", ""), h.now())
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(rep)
}

func taskResult(status string, res store.Result) (*mcp.CallToolResult, error) {
	return jsonResult(&output.TaskResponse{
		Status:  status,
		Task:    output.NewTaskOutput(res.Task, res.Task.TimeLogged),
		Offline: res.Offline,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError reports err to the client as a tool failure, with the fix
// suggestion when there is one.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(errors.FormatByCategory(err))
}
