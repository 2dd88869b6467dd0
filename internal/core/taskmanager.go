package core

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/valter-silva-au/feedme/pkg/models"
)

// TaskStore is the persistence gateway the TaskManager needs. Defining it here
// keeps core independent of the storage package.
type TaskStore interface {
	// Load returns the persisted snapshot. A missing store is reported with an
	// error that wraps fs.ErrNotExist.
	Load() (*models.Snapshot, error)
	Save(snap *models.Snapshot) error
	// Lock takes an exclusive advisory lock for one load/apply/save cycle.
	Lock() (unlock func() error, err error)
}

// TaskManager defines the operations the CLI, the focus view and the MCP
// server call. Every call is a complete lock/load/apply/save cycle.
type TaskManager interface {
	CreateTask(in TaskInput) (*models.Task, error)
	ImportTasks(inputs []TaskInput) ([]*models.Task, error)
	GetTask(taskID string) (*models.Task, error)
	ListTasks(filter TaskFilter) ([]*models.Task, error)
	UpdateStatus(taskID string, status models.TaskStatus) (*models.Task, error)
	Snooze(taskID string, until time.Time) (*models.Task, error)
	Unsnooze(taskID string) (*models.Task, error)
	EditTask(taskID string, edit TaskEdit) (*models.Task, error)
	RemoveTask(taskID string) (*models.Task, error)
	Breakdown(taskID string) (*ScoreBreakdown, error)

	TodayList(limit int) ([]RankedTask, error)

	StartFocus(taskID string) (*SessionStatus, error)
	Tick(now time.Time) (PhaseChange, error)
	EndBreak() (*SessionStatus, error)
	CancelFocus() (*SessionStatus, error)
	Session() (*SessionStatus, error)
}

// TaskManagerOption configures a TaskManager.
type TaskManagerOption func(*taskManager)

// WithManagerClock overrides the time source.
func WithManagerClock(now func() time.Time) TaskManagerOption {
	return func(tm *taskManager) {
		tm.now = now
	}
}

// AllowMissingStore makes a store that does not exist yet load as empty.
func AllowMissingStore() TaskManagerOption {
	return func(tm *taskManager) {
		tm.allowMissing = true
	}
}

type taskManager struct {
	cfg          models.GlobalConfig
	store        TaskStore
	eventLogger  EventLogger
	now          func() time.Time
	allowMissing bool
}

// NewTaskManager creates a TaskManager over store. eventLogger may be nil.
func NewTaskManager(cfg models.GlobalConfig, store TaskStore, eventLogger EventLogger, opts ...TaskManagerOption) TaskManager {
	tm := &taskManager{
		cfg:         cfg,
		store:       store,
		eventLogger: eventLogger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// withPlanner runs fn against a Planner restored from the store, holding the
// store lock throughout. The snapshot is written back only when fn reports a
// mutation and returns no error.
func (tm *taskManager) withPlanner(fn func(p *Planner) (mutated bool, err error)) error {
	unlock, err := tm.store.Lock()
	if err != nil {
		return fmt.Errorf("%w: locking task store: %v", ErrStorageUnavailable, err)
	}
	defer func() { _ = unlock() }()

	snap, err := tm.store.Load()
	if err != nil {
		if !tm.allowMissing || !errors.Is(err, fs.ErrNotExist) {
			return storageError("loading task store", err)
		}
		snap = models.NewSnapshot()
	}

	p := NewPlanner(tm.cfg, WithClock(tm.now))
	if err := p.Restore(snap); err != nil {
		return err
	}

	mutated, err := fn(p)
	if err != nil {
		return err
	}
	if !mutated {
		return nil
	}
	if err := tm.store.Save(p.Snapshot()); err != nil {
		return storageError("saving task store", err)
	}
	return nil
}

func storageError(doing string, err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w", doing, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, doing, err)
}

func (tm *taskManager) logEvent(eventType string, data map[string]any) {
	if tm.eventLogger == nil {
		return
	}
	_ = tm.eventLogger.LogEvent(eventType, data)
}

func (tm *taskManager) logPhaseChange(change PhaseChange) {
	if change.FocusCompleted {
		tm.logEvent(models.EventFocusCompleted, map[string]any{
			"task_id":    change.TaskID,
			"next_phase": string(change.To),
		})
	}
	switch {
	case !change.Changed():
	case change.To == models.PhaseIdle:
		tm.logEvent(models.EventSessionIdle, map[string]any{
			"task_id": change.TaskID,
			"from":    string(change.From),
		})
	case change.To == models.PhaseFocus:
		tm.logEvent(models.EventFocusStarted, map[string]any{
			"task_id": change.TaskID,
			"from":    string(change.From),
		})
	}
}

// CreateTask validates the input and persists a new pending task.
func (tm *taskManager) CreateTask(in TaskInput) (*models.Task, error) {
	var created models.Task
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		t, err := p.CreateTask(in)
		if err != nil {
			return false, err
		}
		created = t
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	tm.logEvent(models.EventTaskCreated, map[string]any{
		"task_id":     created.ID,
		"title":       created.Title,
		"base_weight": created.BaseWeight,
		"effort":      created.EffortEstimate,
	})
	return &created, nil
}

// ImportTasks persists a batch of tasks atomically.
func (tm *taskManager) ImportTasks(inputs []TaskInput) ([]*models.Task, error) {
	var imported []models.Task
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		ts, err := p.ImportTasks(inputs)
		if err != nil {
			return false, err
		}
		imported = ts
		return len(ts) > 0, nil
	})
	if err != nil {
		return nil, fmt.Errorf("importing tasks: %w", err)
	}
	out := make([]*models.Task, 0, len(imported))
	for i := range imported {
		t := imported[i]
		tm.logEvent(models.EventTaskCreated, map[string]any{
			"task_id":  t.ID,
			"title":    t.Title,
			"imported": true,
		})
		out = append(out, &t)
	}
	return out, nil
}

// GetTask returns a task by id.
func (tm *taskManager) GetTask(taskID string) (*models.Task, error) {
	var task models.Task
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		t, err := p.GetTask(taskID)
		task = t
		return false, err
	})
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", taskID, err)
	}
	return &task, nil
}

// ListTasks returns tasks matching filter, oldest first.
func (tm *taskManager) ListTasks(filter TaskFilter) ([]*models.Task, error) {
	var tasks []models.Task
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		tasks = p.ListTasks(filter)
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	out := make([]*models.Task, len(tasks))
	for i := range tasks {
		out[i] = &tasks[i]
	}
	return out, nil
}

// UpdateStatus moves a task along an allowed status edge.
func (tm *taskManager) UpdateStatus(taskID string, status models.TaskStatus) (*models.Task, error) {
	var (
		task   models.Task
		from   models.TaskStatus
		change PhaseChange
	)
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		if cur, err := p.GetTask(taskID); err == nil {
			from = cur.Status
		}
		before := p.Session()
		t, err := p.UpdateStatus(taskID, status)
		if err != nil {
			return false, err
		}
		task = t
		change = PhaseChange{From: before.Phase, To: p.Session().Phase, TaskID: before.ActiveTaskID}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating status of %s: %w", taskID, err)
	}
	tm.logEvent(models.EventTaskStatusChanged, map[string]any{
		"task_id":    taskID,
		"old_status": string(from),
		"new_status": string(status),
	})
	tm.logPhaseChange(change)
	return &task, nil
}

// Snooze hides a task from the short list until the given time.
func (tm *taskManager) Snooze(taskID string, until time.Time) (*models.Task, error) {
	var task models.Task
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		t, err := p.Snooze(taskID, until)
		if err != nil {
			return false, err
		}
		task = t
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("snoozing %s: %w", taskID, err)
	}
	tm.logEvent(models.EventTaskSnoozed, map[string]any{
		"task_id": taskID,
		"until":   until.Format(time.RFC3339),
	})
	return &task, nil
}

// Unsnooze clears a task's snooze.
func (tm *taskManager) Unsnooze(taskID string) (*models.Task, error) {
	var task models.Task
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		t, err := p.Unsnooze(taskID)
		if err != nil {
			return false, err
		}
		task = t
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unsnoozing %s: %w", taskID, err)
	}
	tm.logEvent(models.EventTaskUnsnoozed, map[string]any{"task_id": taskID})
	return &task, nil
}

// EditTask changes descriptive fields of an open task.
func (tm *taskManager) EditTask(taskID string, edit TaskEdit) (*models.Task, error) {
	var task models.Task
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		t, err := p.EditTask(taskID, edit)
		if err != nil {
			return false, err
		}
		task = t
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("editing %s: %w", taskID, err)
	}
	tm.logEvent(models.EventTaskEdited, map[string]any{"task_id": taskID})
	return &task, nil
}

// RemoveTask deletes a task record.
func (tm *taskManager) RemoveTask(taskID string) (*models.Task, error) {
	var task models.Task
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		t, err := p.RemoveTask(taskID)
		if err != nil {
			return false, err
		}
		task = t
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("removing %s: %w", taskID, err)
	}
	tm.logEvent(models.EventTaskRemoved, map[string]any{
		"task_id": taskID,
		"status":  string(task.Status),
	})
	return &task, nil
}

// Breakdown explains a task's current score.
func (tm *taskManager) Breakdown(taskID string) (*ScoreBreakdown, error) {
	var b ScoreBreakdown
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		var err error
		b, err = p.Breakdown(taskID)
		return false, err
	})
	if err != nil {
		return nil, fmt.Errorf("scoring %s: %w", taskID, err)
	}
	return &b, nil
}

// TodayList returns the ranked short list. A non-positive limit uses the
// configured default.
func (tm *taskManager) TodayList(limit int) ([]RankedTask, error) {
	var list []RankedTask
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		list = p.TodayList(limit)
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("building short list: %w", err)
	}
	return list, nil
}

// StartFocus begins a focus phase on a task.
func (tm *taskManager) StartFocus(taskID string) (*SessionStatus, error) {
	var (
		change PhaseChange
		st     SessionStatus
	)
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		c, err := p.StartFocus(taskID)
		if err != nil {
			return false, err
		}
		change = c
		st = p.SessionStatus(tm.now())
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("starting focus on %s: %w", taskID, err)
	}
	tm.logPhaseChange(change)
	return &st, nil
}

// Tick advances the session if its phase has elapsed at now. The store is
// written only when the phase moves.
func (tm *taskManager) Tick(now time.Time) (PhaseChange, error) {
	var change PhaseChange
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		change = p.Tick(now)
		return change.Changed(), nil
	})
	if err != nil {
		return PhaseChange{}, fmt.Errorf("advancing session: %w", err)
	}
	tm.logPhaseChange(change)
	return change, nil
}

// EndBreak cuts a break short and resumes focus.
func (tm *taskManager) EndBreak() (*SessionStatus, error) {
	var (
		change PhaseChange
		st     SessionStatus
	)
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		c, err := p.EndBreak()
		if err != nil {
			return false, err
		}
		change = c
		st = p.SessionStatus(tm.now())
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ending break: %w", err)
	}
	tm.logEvent(models.EventBreakEnded, map[string]any{
		"task_id": change.TaskID,
		"phase":   string(change.From),
	})
	tm.logPhaseChange(change)
	return &st, nil
}

// CancelFocus aborts the session.
func (tm *taskManager) CancelFocus() (*SessionStatus, error) {
	var (
		change PhaseChange
		st     SessionStatus
	)
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		c, err := p.CancelFocus()
		if err != nil {
			return false, err
		}
		change = c
		st = p.SessionStatus(tm.now())
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancelling focus: %w", err)
	}
	tm.logEvent(models.EventFocusCancelled, map[string]any{
		"task_id": change.TaskID,
		"phase":   string(change.From),
	})
	return &st, nil
}

// Session returns the current session state.
func (tm *taskManager) Session() (*SessionStatus, error) {
	var st SessionStatus
	err := tm.withPlanner(func(p *Planner) (bool, error) {
		st = p.SessionStatus(tm.now())
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	return &st, nil
}
