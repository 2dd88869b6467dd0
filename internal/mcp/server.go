// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the feedme task list and focus timer as tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/internal/observability"
	"github.com/valter-silva-au/feedme/pkg/models"
)

// Server wraps feedme services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	taskMgr     core.TaskManager
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine

	defaultEffort   int
	defaultPriority models.Priority
	defaultLimit    int
	now             func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithDefaults takes the default effort, priority and short list length from
// cfg. A nil cfg is ignored.
func WithDefaults(cfg *models.GlobalConfig) Option {
	return func(s *Server) {
		if cfg == nil {
			return
		}
		if cfg.DefaultEffort > 0 {
			s.defaultEffort = cfg.DefaultEffort
		}
		if cfg.DefaultPriority.Valid() {
			s.defaultPriority = cfg.DefaultPriority
		}
		if cfg.DefaultLimit > 0 {
			s.defaultLimit = cfg.DefaultLimit
		}
	}
}

// WithClock overrides the time source used by tick, alerts and metrics.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a new MCP server over the given feedme services.
// metricsCalc and alertEngine may be nil if observability is disabled.
func NewServer(taskMgr core.TaskManager, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		taskMgr:         taskMgr,
		metricsCalc:     metricsCalc,
		alertEngine:     alertEngine,
		defaultEffort:   1,
		defaultPriority: models.PriorityMedium,
		defaultLimit:    core.DefaultLimit,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "feedme", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type todayListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of tasks to return (defaults to the configured limit)"`
}

type rankedTaskOutput struct {
	Rank   int        `json:"rank"`
	Score  float64    `json:"score"`
	Pinned bool       `json:"pinned,omitempty"`
	Task   taskOutput `json:"task"`
}

type todayListOutput struct {
	Tasks []rankedTaskOutput `json:"tasks"`
	Count int                `json:"count"`
}

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier (e.g. T-0042)"`
}

type taskOutput struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Status         string   `json:"status"`
	BaseWeight     float64  `json:"base_weight"`
	EffortEstimate int      `json:"effort_estimate"`
	CreatedAt      string   `json:"created_at"`
	LastTouchedAt  string   `json:"last_touched_at"`
	DueAt          string   `json:"due_at,omitempty"`
	SnoozeUntil    string   `json:"snooze_until,omitempty"`
	Pomodoros      int      `json:"pomodoros,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

type listTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter tasks by status (pending, in_progress, completed, deferred)"`
	Tag    string `json:"tag,omitempty" jsonschema:"only return tasks carrying this tag"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type createTaskInput struct {
	Title       string   `json:"title" jsonschema:"required,short task title"`
	Description string   `json:"description,omitempty" jsonschema:"longer free-form description"`
	Priority    string   `json:"priority,omitempty" jsonschema:"importance level (low, medium, high, urgent); ignored when weight is set"`
	Weight      float64  `json:"weight,omitempty" jsonschema:"explicit base weight, overrides priority"`
	Effort      int      `json:"effort,omitempty" jsonschema:"estimated effort in focus sessions (at least 1)"`
	Due         string   `json:"due,omitempty" jsonschema:"due time in RFC3339 format (e.g. 2026-01-02T17:00:00Z)"`
	Tags        []string `json:"tags,omitempty" jsonschema:"free-form labels"`
}

type updateTaskStatusInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier (e.g. T-0042)"`
	Status string `json:"status" jsonschema:"required,the new status (pending, in_progress, completed, deferred)"`
}

type snoozeTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier (e.g. T-0042)"`
	Until  string `json:"until,omitempty" jsonschema:"RFC3339 time the task stays hidden until"`
	For    string `json:"for,omitempty" jsonschema:"snooze length as a duration (e.g. 2h or 3d), used when until is empty"`
}

type messageOutput struct {
	Message string     `json:"message"`
	Task    taskOutput `json:"task"`
}

type startFocusInput struct {
	TaskID string `json:"task_id,omitempty" jsonschema:"the task to focus on; defaults to the top of the short list"`
}

type emptyInput struct{}

type sessionOutput struct {
	Phase               string      `json:"phase"`
	PhaseStartedAt      string      `json:"phase_started_at,omitempty"`
	ElapsedSeconds      int         `json:"elapsed_seconds"`
	RemainingSeconds    int         `json:"remaining_seconds"`
	CompletedFocusCount int         `json:"completed_focus_count"`
	ActiveTask          *taskOutput `json:"active_task,omitempty"`
}

type tickOutput struct {
	Changed        bool          `json:"changed"`
	From           string        `json:"from"`
	To             string        `json:"to"`
	FocusCompleted bool          `json:"focus_completed,omitempty"`
	Session        sessionOutput `json:"session"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksCreated   int            `json:"tasks_created"`
	TasksCompleted int            `json:"tasks_completed"`
	TasksDeferred  int            `json:"tasks_deferred"`
	TasksRemoved   int            `json:"tasks_removed"`
	TasksSnoozed   int            `json:"tasks_snoozed"`
	StatusChanges  map[string]int `json:"status_changes"`
	FocusStarted   int            `json:"focus_started"`
	FocusCompleted int            `json:"focus_completed"`
	FocusCancelled int            `json:"focus_cancelled"`
	BreaksEnded    int            `json:"breaks_ended"`
	CompletionRate float64        `json:"completion_rate"`
	FocusByTask    map[string]int `json:"focus_by_task"`
	CompletedByDay map[string]int `json:"completed_by_day"`
	EventCount     int            `json:"event_count"`
	OldestEvent    string         `json:"oldest_event,omitempty"`
	NewestEvent    string         `json:"newest_event,omitempty"`
}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TaskID      string `json:"task_id,omitempty"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "today_list",
		Description: "Get the short list of what to work on now, highest score first. The active focus task is pinned to the top.",
	}, s.handleTodayList)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get task details by ID.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks with optional status and tag filters, ordered by creation time.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_task",
		Description: "Create a pending task. Importance comes from priority or an explicit weight.",
	}, s.handleCreateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task_status",
		Description: "Move a task along its lifecycle. Allowed: pending->in_progress|deferred, in_progress->completed|deferred, deferred->pending.",
	}, s.handleUpdateTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "snooze_task",
		Description: "Hide a task from the short list until a future time.",
	}, s.handleSnoozeTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "start_focus",
		Description: "Start a focus session on a task. Works from idle or during a break.",
	}, s.handleStartFocus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "tick",
		Description: "Advance the focus timer to the current time and report any phase change.",
	}, s.handleTick)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "cancel_focus",
		Description: "Abandon the running focus session or break and return to idle.",
	}, s.handleCancelFocus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log: task counts, focus sessions and completions per day.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (overdue tasks, stale tasks, backlog size).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleTodayList(_ context.Context, _ *gomcp.CallToolRequest, input todayListInput) (*gomcp.CallToolResult, todayListOutput, error) {
	if input.Limit < 0 {
		return errorResult(fmt.Sprintf("limit must be positive, got %d", input.Limit)), todayListOutput{}, nil
	}
	limit := input.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}

	ranked, err := s.taskMgr.TodayList(limit)
	if err != nil {
		return errorResult(fmt.Sprintf("building short list: %s", err)), todayListOutput{}, nil
	}

	out := todayListOutput{
		Tasks: make([]rankedTaskOutput, len(ranked)),
		Count: len(ranked),
	}
	for i, rt := range ranked {
		task := rt.Task
		out.Tasks[i] = rankedTaskOutput{
			Rank:   i + 1,
			Score:  rt.Score,
			Pinned: rt.Pinned,
			Task:   taskToOutput(&task),
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.taskMgr.GetTask(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), taskOutput{}, nil
	}

	return nil, taskToOutput(task), nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	filter := core.TaskFilter{Tag: input.Tag}
	if input.Status != "" {
		status, err := models.ParseTaskStatus(input.Status)
		if err != nil {
			return errorResult(err.Error()), listTasksOutput{}, nil
		}
		filter.Status = []models.TaskStatus{status}
	}

	tasks, err := s.taskMgr.ListTasks(filter)
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t)
	}

	return nil, out, nil
}

func (s *Server) handleCreateTask(_ context.Context, _ *gomcp.CallToolRequest, input createTaskInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.Title == "" {
		return errorResult("title is required"), messageOutput{}, nil
	}

	in := core.TaskInput{
		Title:          input.Title,
		Description:    input.Description,
		BaseWeight:     input.Weight,
		EffortEstimate: input.Effort,
		Tags:           input.Tags,
	}
	if in.EffortEstimate == 0 {
		in.EffortEstimate = s.defaultEffort
	}
	if in.BaseWeight == 0 {
		priority := s.defaultPriority
		if input.Priority != "" {
			p, err := models.ParsePriority(input.Priority)
			if err != nil {
				return errorResult(err.Error()), messageOutput{}, nil
			}
			priority = p
		}
		in.BaseWeight = priority.Weight()
	}
	if input.Due != "" {
		due, err := time.Parse(time.RFC3339, input.Due)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid due %q: use RFC3339", input.Due)), messageOutput{}, nil
		}
		in.DueAt = &due
	}

	task, err := s.taskMgr.CreateTask(in)
	if err != nil {
		return errorResult(fmt.Sprintf("creating task: %s", err)), messageOutput{}, nil
	}

	return nil, messageOutput{
		Message: fmt.Sprintf("created task %s", task.ID),
		Task:    taskToOutput(task),
	}, nil
}

func (s *Server) handleUpdateTaskStatus(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskStatusInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), messageOutput{}, nil
	}
	if input.Status == "" {
		return errorResult("status is required"), messageOutput{}, nil
	}

	status, err := models.ParseTaskStatus(input.Status)
	if err != nil {
		return errorResult(err.Error()), messageOutput{}, nil
	}

	task, err := s.taskMgr.UpdateStatus(input.TaskID, status)
	if err != nil {
		return errorResult(fmt.Sprintf("updating task %s status: %s", input.TaskID, err)), messageOutput{}, nil
	}

	return nil, messageOutput{
		Message: fmt.Sprintf("task %s status updated to %s", task.ID, task.Status),
		Task:    taskToOutput(task),
	}, nil
}

func (s *Server) handleSnoozeTask(_ context.Context, _ *gomcp.CallToolRequest, input snoozeTaskInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), messageOutput{}, nil
	}

	var until time.Time
	switch {
	case input.Until != "":
		t, err := time.Parse(time.RFC3339, input.Until)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid until %q: use RFC3339", input.Until)), messageOutput{}, nil
		}
		until = t
	case input.For != "":
		d, err := parseDuration(input.For)
		if err != nil {
			return errorResult(err.Error()), messageOutput{}, nil
		}
		until = s.now().Add(d)
	default:
		return errorResult("one of until or for is required"), messageOutput{}, nil
	}

	task, err := s.taskMgr.Snooze(input.TaskID, until)
	if err != nil {
		return errorResult(fmt.Sprintf("snoozing task %s: %s", input.TaskID, err)), messageOutput{}, nil
	}

	return nil, messageOutput{
		Message: fmt.Sprintf("task %s snoozed until %s", task.ID, until.Format(time.RFC3339)),
		Task:    taskToOutput(task),
	}, nil
}

func (s *Server) handleStartFocus(_ context.Context, _ *gomcp.CallToolRequest, input startFocusInput) (*gomcp.CallToolResult, sessionOutput, error) {
	taskID := input.TaskID
	if taskID == "" {
		top, err := s.taskMgr.TodayList(1)
		if err != nil {
			return errorResult(fmt.Sprintf("building short list: %s", err)), sessionOutput{}, nil
		}
		if len(top) == 0 {
			return errorResult("nothing to focus on: the short list is empty"), sessionOutput{}, nil
		}
		taskID = top[0].Task.ID
	}

	status, err := s.taskMgr.StartFocus(taskID)
	if err != nil {
		return errorResult(fmt.Sprintf("starting focus on %s: %s", taskID, err)), sessionOutput{}, nil
	}
	return nil, sessionToOutput(status), nil
}

func (s *Server) handleTick(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, tickOutput, error) {
	change, err := s.taskMgr.Tick(s.now())
	if err != nil {
		return errorResult(fmt.Sprintf("advancing timer: %s", err)), tickOutput{}, nil
	}
	status, err := s.taskMgr.Session()
	if err != nil {
		return errorResult(fmt.Sprintf("reading session: %s", err)), tickOutput{}, nil
	}

	return nil, tickOutput{
		Changed:        change.Changed(),
		From:           string(change.From),
		To:             string(change.To),
		FocusCompleted: change.FocusCompleted,
		Session:        sessionToOutput(status),
	}, nil
}

func (s *Server) handleCancelFocus(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, sessionOutput, error) {
	status, err := s.taskMgr.CancelFocus()
	if err != nil {
		return errorResult(fmt.Sprintf("cancelling focus: %s", err)), sessionOutput{}, nil
	}
	return nil, sessionToOutput(status), nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr, s.now())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksCreated:   metrics.TasksCreated,
		TasksCompleted: metrics.TasksCompleted,
		TasksDeferred:  metrics.TasksDeferred,
		TasksRemoved:   metrics.TasksRemoved,
		TasksSnoozed:   metrics.TasksSnoozed,
		StatusChanges:  metrics.StatusChanges,
		FocusStarted:   metrics.FocusStarted,
		FocusCompleted: metrics.FocusCompleted,
		FocusCancelled: metrics.FocusCancelled,
		BreaksEnded:    metrics.BreaksEnded,
		CompletionRate: metrics.CompletionRate(),
		FocusByTask:    metrics.FocusByTask,
		CompletedByDay: metrics.CompletedByDay,
		EventCount:     metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available"), getAlertsOutput{}, nil
	}

	tasks, err := s.taskMgr.ListTasks(core.TaskFilter{})
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), getAlertsOutput{}, nil
	}
	values := make([]models.Task, len(tasks))
	for i, t := range tasks {
		values[i] = *t
	}

	alerts := s.alertEngine.Evaluate(values, s.now())
	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TaskID:      a.TaskID,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t *models.Task) taskOutput {
	out := taskOutput{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		BaseWeight:     t.BaseWeight,
		EffortEstimate: t.EffortEstimate,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
		LastTouchedAt:  t.LastTouchedAt.Format(time.RFC3339),
		Pomodoros:      t.Pomodoros,
		Tags:           t.Tags,
	}
	if t.DueAt != nil {
		out.DueAt = t.DueAt.Format(time.RFC3339)
	}
	if t.SnoozeUntil != nil {
		out.SnoozeUntil = t.SnoozeUntil.Format(time.RFC3339)
	}
	return out
}

func sessionToOutput(st *core.SessionStatus) sessionOutput {
	out := sessionOutput{
		Phase:               string(st.Session.Phase),
		ElapsedSeconds:      int(st.Elapsed.Seconds()),
		RemainingSeconds:    int(st.Remaining.Seconds()),
		CompletedFocusCount: st.Session.CompletedFocusCount,
	}
	if !st.Session.PhaseStartedAt.IsZero() {
		out.PhaseStartedAt = st.Session.PhaseStartedAt.Format(time.RFC3339)
	}
	if st.ActiveTask != nil {
		task := taskToOutput(st.ActiveTask)
		out.ActiveTask = &task
	}
	return out
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		StatusChanges:  make(map[string]int),
		FocusByTask:    make(map[string]int),
		CompletedByDay: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time before now.
func parseSince(s string, now time.Time) (time.Time, error) {
	d, err := parseDuration(s)
	if err != nil {
		return time.Time{}, err
	}
	return now.UTC().Add(-d), nil
}

// parseDuration accepts a day suffix ("3d") in addition to anything
// time.ParseDuration understands.
func parseDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	if s[len(s)-1] == 'd' {
		var num int
		if _, err := fmt.Sscanf(s[:len(s)-1], "%d", &num); err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		return time.Duration(num) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("unsupported duration %q (use d, h or m)", s)
	}
	return d, nil
}
