// Package mcp exposes the task store as MCP (Model Context Protocol) tools
// for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/metalagman/tasks/internal/task"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Observer is told about every unfiltered task list a tool fetches.
type Observer interface {
	Observe(ctx context.Context, all []task.Task) bool
}

// Server wraps a tracker and exposes it as MCP tools.
type Server struct {
	server   *gomcp.Server
	tracker  task.Tracker
	observer Observer
}

// NewServer creates a new MCP server. observer may be nil.
func NewServer(tracker task.Tracker, observer Observer, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{tracker: tracker, observer: observer}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "task", Version: version}, nil)
	s.registerTools()
	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying server, for alternative transports.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	UID         string   `json:"uid"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    string   `json:"priority"`
	DueDate     string   `json:"due_date,omitempty"`
	Tags        []string `json:"tags"`
	Project     string   `json:"project,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
	DependsOn   []string `json:"depends_on"`
	Status      string   `json:"status"`
	Archived    bool     `json:"archived"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type tasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type uidInput struct {
	UID string `json:"uid" jsonschema:"the task uid"`
}

type listTasksInput struct {
	Status    string   `json:"status,omitempty"     jsonschema:"filter by status (todo, in_progress, done)"`
	Priority  string   `json:"priority,omitempty"   jsonschema:"filter by priority (low, medium, high)"`
	Project   string   `json:"project,omitempty"    jsonschema:"filter by project"`
	Assignee  string   `json:"assignee,omitempty"   jsonschema:"filter by assignee"`
	Tags      []string `json:"tags,omitempty"       jsonschema:"match tasks carrying any of these tags"`
	DueBefore string   `json:"due_before,omitempty" jsonschema:"only tasks due on or before this YYYY-MM-DD date"`
	DueAfter  string   `json:"due_after,omitempty"  jsonschema:"only tasks due on or after this YYYY-MM-DD date"`
	SortBy    string   `json:"sort_by,omitempty"    jsonschema:"title, priority, dueDate, createdAt or updatedAt"`
	SortOrder string   `json:"sort_order,omitempty" jsonschema:"asc or desc"`
	Limit     *int     `json:"limit,omitempty"      jsonschema:"maximum number of tasks returned"`
	Offset    int      `json:"offset,omitempty"     jsonschema:"number of matching tasks skipped"`
}

type addTaskInput struct {
	Title       string   `json:"title"                 jsonschema:"task title"`
	Description string   `json:"description,omitempty" jsonschema:"markdown description"`
	Priority    string   `json:"priority,omitempty"    jsonschema:"low, medium or high. Defaults to medium."`
	DueDate     string   `json:"due_date,omitempty"    jsonschema:"due date as YYYY-MM-DD"`
	Tags        []string `json:"tags,omitempty"        jsonschema:"tags"`
	Project     string   `json:"project,omitempty"     jsonschema:"project name"`
	Assignee    string   `json:"assignee,omitempty"    jsonschema:"assignee name"`
	DependsOn   []string `json:"depends_on,omitempty"  jsonschema:"uids of tasks this task depends on"`
	Status      string   `json:"status,omitempty"      jsonschema:"todo, in_progress or done. Defaults to todo."`
}

type setDependenciesInput struct {
	UID       string   `json:"uid"        jsonschema:"the task uid"`
	DependsOn []string `json:"depends_on" jsonschema:"the complete new dependency list; empty clears it"`
}

type searchTasksInput struct {
	Query string `json:"query"          jsonschema:"full-text query over title, description and tags"`
	Type  string `json:"type,omitempty" jsonschema:"fts, semantic or hybrid. Defaults to fts."`
}

type nextTaskInput struct{}

type nextTaskOutput struct {
	Task   taskOutput `json:"task"`
	Reason string     `json:"reason"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List non-archived tasks with optional filters, sorting and pagination.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get a non-archived task by uid.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Create a task. Dependencies must name existing tasks and must not form a cycle.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as done.",
	}, s.handleCompleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "archive_task",
		Description: "Archive (soft delete) a task.",
	}, s.handleArchiveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "restore_task",
		Description: "Restore an archived task.",
	}, s.handleRestoreTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "set_dependencies",
		Description: "Replace the dependency list of a task.",
	}, s.handleSetDependencies)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "search_tasks",
		Description: "Full-text search over non-archived tasks, best match first.",
	}, s.handleSearchTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "ready_tasks",
		Description: "List active tasks whose dependencies are all done.",
	}, s.handleReadyTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "next_task",
		Description: "Pick the next ready task to work on and explain the choice.",
	}, s.handleNextTask)
}

// --- Tool handlers ---

func (s *Server) handleListTasks(ctx context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, tasksOutput, error) {
	q, err := task.ParseQuery(input.values())
	if err != nil {
		return errorResult(err), tasksOutput{}, nil
	}
	all, err := s.tracker.FetchAll(ctx)
	if err != nil {
		return errorResult(fmt.Errorf("listing tasks: %w", err)), tasksOutput{}, nil
	}
	if s.observer != nil {
		s.observer.Observe(ctx, all)
	}
	return nil, toTasksOutput(task.Apply(all, q)), nil
}

func (in listTasksInput) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("status", in.Status)
	set("priority", in.Priority)
	set("project", in.Project)
	set("assignee", in.Assignee)
	set("dueBefore", in.DueBefore)
	set("dueAfter", in.DueAfter)
	set("sortBy", in.SortBy)
	set("sortOrder", in.SortOrder)
	set("tags", strings.Join(in.Tags, ","))
	if in.Limit != nil {
		v.Set("limit", strconv.Itoa(*in.Limit))
	}
	if in.Offset != 0 {
		v.Set("offset", strconv.Itoa(in.Offset))
	}
	return v
}

func (s *Server) handleGetTask(ctx context.Context, _ *gomcp.CallToolRequest, input uidInput) (*gomcp.CallToolResult, taskOutput, error) {
	t, err := s.find(ctx, input.UID)
	if err != nil {
		return errorResult(err), taskOutput{}, nil
	}
	return nil, toTaskOutput(t), nil
}

func (s *Server) handleAddTask(ctx context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	nt, err := input.newTask()
	if err != nil {
		return errorResult(err), taskOutput{}, nil
	}
	created, err := s.tracker.Insert(ctx, nt)
	if err != nil {
		return errorResult(err), taskOutput{}, nil
	}
	log.Info().Str("uid", created.UID).Msg("task created via mcp")
	return nil, toTaskOutput(created), nil
}

func (in addTaskInput) newTask() (task.NewTask, error) {
	title, err := task.ValidateTitle(in.Title)
	if err != nil {
		return task.NewTask{}, err
	}
	priority, err := task.ParsePriority(in.Priority)
	if err != nil {
		return task.NewTask{}, err
	}
	status, err := task.ParseStatus(in.Status)
	if err != nil {
		return task.NewTask{}, err
	}
	due, err := task.ParseDate(in.DueDate)
	if err != nil {
		return task.NewTask{}, err
	}
	return task.NewTask{
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		DueDate:     due,
		Tags:        task.NormalizeTags(in.Tags),
		Project:     in.Project,
		Assignee:    in.Assignee,
		DependsOn:   task.NormalizeDependsOn(in.DependsOn),
		Status:      status,
	}, nil
}

func (s *Server) handleCompleteTask(ctx context.Context, _ *gomcp.CallToolRequest, input uidInput) (*gomcp.CallToolResult, taskOutput, error) {
	if err := s.tracker.CompleteStatus(ctx, input.UID); err != nil {
		return errorResult(err), taskOutput{}, nil
	}
	return s.current(ctx, input.UID)
}

func (s *Server) handleArchiveTask(ctx context.Context, _ *gomcp.CallToolRequest, input uidInput) (*gomcp.CallToolResult, taskOutput, error) {
	if err := s.tracker.Archive(ctx, input.UID); err != nil {
		return errorResult(err), taskOutput{}, nil
	}
	t, ok, err := s.tracker.FindByUIDIncludingArchived(ctx, input.UID)
	if err != nil {
		return errorResult(err), taskOutput{}, nil
	}
	if !ok {
		return errorResult(fmt.Errorf("task %s: %w", input.UID, task.ErrNotFound)), taskOutput{}, nil
	}
	return nil, toTaskOutput(t), nil
}

func (s *Server) handleRestoreTask(ctx context.Context, _ *gomcp.CallToolRequest, input uidInput) (*gomcp.CallToolResult, taskOutput, error) {
	if err := s.tracker.Restore(ctx, input.UID); err != nil {
		return errorResult(err), taskOutput{}, nil
	}
	return s.current(ctx, input.UID)
}

func (s *Server) handleSetDependencies(ctx context.Context, _ *gomcp.CallToolRequest, input setDependenciesInput) (*gomcp.CallToolResult, taskOutput, error) {
	updated, err := s.tracker.SetDependencies(ctx, input.UID, task.NormalizeDependsOn(input.DependsOn))
	if err != nil {
		return errorResult(err), taskOutput{}, nil
	}
	return nil, toTaskOutput(updated), nil
}

func (s *Server) handleSearchTasks(ctx context.Context, _ *gomcp.CallToolRequest, input searchTasksInput) (*gomcp.CallToolResult, tasksOutput, error) {
	kind, err := task.ParseSearchKind(input.Type)
	if err != nil {
		return errorResult(err), tasksOutput{}, nil
	}
	found, err := s.tracker.Search(ctx, input.Query, kind)
	if err != nil {
		return errorResult(err), tasksOutput{}, nil
	}
	return nil, toTasksOutput(found), nil
}

func (s *Server) handleReadyTasks(ctx context.Context, _ *gomcp.CallToolRequest, _ nextTaskInput) (*gomcp.CallToolResult, tasksOutput, error) {
	all, err := s.tracker.FetchAll(ctx)
	if err != nil {
		return errorResult(err), tasksOutput{}, nil
	}
	return nil, toTasksOutput(task.Ready(all)), nil
}

func (s *Server) handleNextTask(ctx context.Context, _ *gomcp.CallToolRequest, _ nextTaskInput) (*gomcp.CallToolResult, nextTaskOutput, error) {
	all, err := s.tracker.FetchAll(ctx)
	if err != nil {
		return errorResult(err), nextTaskOutput{}, nil
	}
	next, reason, err := task.SelectNextReady(task.Ready(all))
	if err != nil {
		return errorResult(err), nextTaskOutput{}, nil
	}
	return nil, nextTaskOutput{Task: toTaskOutput(next), Reason: reason}, nil
}

// --- Helpers ---

func (s *Server) find(ctx context.Context, uid string) (task.Task, error) {
	if uid == "" {
		return task.Task{}, fmt.Errorf("%w: uid is required", task.ErrValidation)
	}
	t, ok, err := s.tracker.FindByUID(ctx, uid)
	if err != nil {
		return task.Task{}, err
	}
	if !ok {
		return task.Task{}, fmt.Errorf("task %s: %w", uid, task.ErrNotFound)
	}
	return t, nil
}

func (s *Server) current(ctx context.Context, uid string) (*gomcp.CallToolResult, taskOutput, error) {
	t, err := s.find(ctx, uid)
	if err != nil {
		return errorResult(err), taskOutput{}, nil
	}
	return nil, toTaskOutput(t), nil
}

func toTaskOutput(t task.Task) taskOutput {
	out := taskOutput{
		UID:         t.UID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Tags:        nonNil(t.Tags),
		Project:     t.Project,
		Assignee:    t.Assignee,
		DependsOn:   nonNil(t.DependsOn),
		Status:      t.Status,
		Archived:    t.Archived,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if t.DueDate != nil {
		out.DueDate = t.DueDate.Format(task.DateLayout)
	}
	return out
}

func toTasksOutput(tasks []task.Task) tasksOutput {
	out := tasksOutput{Tasks: make([]taskOutput, len(tasks)), Count: len(tasks)}
	for i, t := range tasks {
		out.Tasks[i] = toTaskOutput(t)
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// errorResult reports a tool-level failure prefixed with its error kind.
func errorResult(err error) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf("%s: %v", task.KindOf(err), err)}},
		IsError: true,
	}
}
