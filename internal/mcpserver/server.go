// Package mcpserver exposes the task list and the AI flows as MCP tools over
// stdio, so an assistant can read and reprioritize the user's tasks.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"udo-backend/internal/orchestrator"
	"udo-backend/internal/render"
	"udo-backend/internal/tasks"
)

// ListTasksArgs is the input for list_tasks.
type ListTasksArgs struct {
	PendingOnly bool `json:"pending_only,omitempty" jsonschema:"Only return tasks that are not done"`
}

// AddTaskArgs is the input for add_task.
type AddTaskArgs struct {
	Title       string `json:"title"                 jsonschema:"Task title as the user phrased it"`
	Description string `json:"description,omitempty" jsonschema:"Optional longer description"`
	Sanitize    bool   `json:"sanitize,omitempty"    jsonschema:"Rewrite short titles into an actionable goal"`
}

// ReprioritizeArgs is the input for reprioritize. No arguments needed.
type ReprioritizeArgs struct{}

// ExecutionPlanArgs is the input for execution_plan.
type ExecutionPlanArgs struct {
	TaskID string `json:"task_id" jsonschema:"Task id or a unique id prefix"`
}

// TaskSummary is the compact task shape returned by every tool.
type TaskSummary struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	OriginalTitle string       `json:"original_title"`
	Status        tasks.Status `json:"status"`
	Priority      int          `json:"priority"`
}

// TaskListOutput wraps a task list.
type TaskListOutput struct {
	Tasks []TaskSummary `json:"tasks"`
}

// ExecutionPlanOutput carries the stored plan and a plain-text rendering.
type ExecutionPlanOutput struct {
	TaskID string `json:"task_id"`
	HTML   string `json:"html"`
	Text   string `json:"text"`
}

// Server holds the dependencies every tool handler shares.
type Server struct {
	orch    *orchestrator.Orchestrator
	ownerID string
	logger  *zap.Logger
}

// New returns a server acting on behalf of ownerID.
func New(orch *orchestrator.Orchestrator, ownerID string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{orch: orch, ownerID: ownerID, logger: logger}
}

// MCP builds the protocol server with all tools registered.
func (s *Server) MCP(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "udo", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List the user's tasks in their current order.",
	}, s.listTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_task",
		Description: "Create a task. Short titles can be rewritten into an actionable goal.",
	}, s.addTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reprioritize",
		Description: "Score every pending task with the AI and return them highest priority first.",
	}, s.reprioritize)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "execution_plan",
		Description: "Generate and store a step-by-step plan for one task.",
	}, s.executionPlan)

	return server
}

// Run serves MCP over stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context, version string) error {
	s.logger.Info("MCP server starting on stdio", zap.String("user_id", s.ownerID))
	return s.MCP(version).Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) listTasks(ctx context.Context, _ *mcp.CallToolRequest, args ListTasksArgs) (*mcp.CallToolResult, TaskListOutput, error) {
	store := s.orch.Store()

	var (
		all []tasks.Task
		err error
	)
	if args.PendingOnly {
		all, err = store.Pending(ctx, s.ownerID)
	} else {
		all, err = store.List(ctx, s.ownerID)
	}
	if err != nil {
		return nil, TaskListOutput{}, err
	}
	return nil, TaskListOutput{Tasks: summarize(all)}, nil
}

func (s *Server) addTask(ctx context.Context, _ *mcp.CallToolRequest, args AddTaskArgs) (*mcp.CallToolResult, TaskSummary, error) {
	t, err := s.orch.CreateTask(ctx, s.ownerID, tasks.Draft{
		Title:       args.Title,
		Description: args.Description,
	}, args.Sanitize)
	if err != nil {
		return nil, TaskSummary{}, err
	}
	return nil, toSummary(t), nil
}

func (s *Server) reprioritize(ctx context.Context, _ *mcp.CallToolRequest, _ ReprioritizeArgs) (*mcp.CallToolResult, TaskListOutput, error) {
	ranked, err := s.orch.Reprioritize(ctx, s.ownerID)
	if err != nil {
		return nil, TaskListOutput{}, err
	}
	return nil, TaskListOutput{Tasks: summarize(ranked)}, nil
}

func (s *Server) executionPlan(ctx context.Context, _ *mcp.CallToolRequest, args ExecutionPlanArgs) (*mcp.CallToolResult, ExecutionPlanOutput, error) {
	t, err := s.orch.Store().Resolve(ctx, s.ownerID, args.TaskID)
	if err != nil {
		return nil, ExecutionPlanOutput{}, err
	}

	t, err = s.orch.GenerateExecutionPlan(ctx, s.ownerID, t.ID)
	if err != nil {
		return nil, ExecutionPlanOutput{}, err
	}
	return nil, ExecutionPlanOutput{
		TaskID: t.ID,
		HTML:   t.ExecutionPlan,
		Text:   render.HTMLToText(t.ExecutionPlan),
	}, nil
}

func toSummary(t tasks.Task) TaskSummary {
	return TaskSummary{
		ID:            t.ID,
		Title:         t.Title,
		OriginalTitle: t.OriginalTitle,
		Status:        t.Status,
		Priority:      t.Priority,
	}
}

func summarize(all []tasks.Task) []TaskSummary {
	out := make([]TaskSummary, len(all))
	for i, t := range all {
		out[i] = toSummary(t)
	}
	return out
}
