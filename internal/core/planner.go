package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/valter-silva-au/feedme/pkg/models"
)

// TaskInput holds the fields for creating a task.
type TaskInput struct {
	Title          string
	Description    string
	BaseWeight     float64
	EffortEstimate int
	DueAt          *time.Time
	Tags           []string
	// CreatedAt is honoured only by ImportTasks, to keep the creation time of
	// records brought over from another store. CreateTask always uses now.
	CreatedAt time.Time
}

// TaskEdit holds optional field changes. Nil pointers leave a field as is.
type TaskEdit struct {
	Title          *string
	Description    *string
	BaseWeight     *float64
	EffortEstimate *int
	DueAt          *time.Time
	ClearDue       bool
	Tags           []string
}

// TaskFilter selects tasks for listing. Empty fields match everything.
type TaskFilter struct {
	Status []models.TaskStatus
	Tag    string
}

// SessionStatus is a read-only view of the pomodoro session at one instant.
type SessionStatus struct {
	Session     models.PomodoroSession
	Elapsed     time.Duration
	Remaining   time.Duration
	PhaseLength time.Duration
	// ActiveTask is nil when idle or when the active id no longer resolves.
	ActiveTask *models.Task
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithClock overrides the time source used for created_at, last_touched_at
// and selection.
func WithClock(now func() time.Time) PlannerOption {
	return func(p *Planner) {
		p.now = now
	}
}

// Planner is the in-memory core: one task collection, one pomodoro session,
// and every operation the presentation layer needs. Each operation validates
// its input before mutating anything. A Planner is not safe for concurrent use.
type Planner struct {
	cfg      models.GlobalConfig
	scorer   Scorer
	tracker  PomodoroTracker
	selector Selector
	now      func() time.Time

	tasks   map[string]*models.Task
	session models.PomodoroSession
	nextID  int
}

// NewPlanner creates an empty Planner with an idle session.
func NewPlanner(cfg models.GlobalConfig, opts ...PlannerOption) *Planner {
	scorer := NewScorer(cfg.Scoring)
	p := &Planner{
		cfg:      cfg,
		scorer:   scorer,
		tracker:  NewPomodoroTracker(cfg.Pomodoro),
		selector: NewSelector(scorer),
		now:      time.Now,
		tasks:    make(map[string]*models.Task),
		session:  models.NewPomodoroSession(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cfg.TaskIDPrefix == "" {
		p.cfg.TaskIDPrefix = "T"
	}
	return p
}

// Restore replaces the Planner's state with a persisted snapshot. A snapshot
// without a session restores an idle one.
func (p *Planner) Restore(snap *models.Snapshot) error {
	if snap == nil {
		snap = models.NewSnapshot()
	}
	tasks := make(map[string]*models.Task, len(snap.Tasks))
	for i := range snap.Tasks {
		t := snap.Tasks[i].Clone()
		if t.ID == "" {
			return fmt.Errorf("%w: task at position %d has no id", ErrStorageUnavailable, i)
		}
		if _, dup := tasks[t.ID]; dup {
			return fmt.Errorf("%w: duplicate task id %s", ErrStorageUnavailable, t.ID)
		}
		if !t.Status.Valid() {
			return fmt.Errorf("%w: task %s has unknown status %q", ErrStorageUnavailable, t.ID, t.Status)
		}
		if t.EffortEstimate < 1 {
			return fmt.Errorf("%w: task %s has effort estimate %d, want at least 1", ErrStorageUnavailable, t.ID, t.EffortEstimate)
		}
		tasks[t.ID] = &t
	}

	session := models.NewPomodoroSession()
	if snap.Session != nil {
		session = *snap.Session
		if session.Phase == "" {
			session.Phase = models.PhaseIdle
		}
		if !session.Phase.Valid() {
			return fmt.Errorf("%w: unknown session phase %q", ErrStorageUnavailable, session.Phase)
		}
	}

	p.tasks = tasks
	p.session = session
	p.nextID = snap.NextID
	return nil
}

// Snapshot returns the state to persist, tasks ordered by creation time.
func (p *Planner) Snapshot() *models.Snapshot {
	snap := models.NewSnapshot()
	snap.NextID = p.nextID
	snap.Tasks = p.sortedTasks(func(models.Task) bool { return true })
	session := p.session
	snap.Session = &session
	return snap
}

// Len returns the number of live task records.
func (p *Planner) Len() int {
	return len(p.tasks)
}

// CreateTask validates the input and adds a new pending task.
func (p *Planner) CreateTask(in TaskInput) (models.Task, error) {
	now := p.now()
	task, err := p.buildTask(in, now)
	if err != nil {
		return models.Task{}, err
	}
	task.ID = nextTaskID(p.cfg.TaskIDPrefix, p.cfg.TaskIDPadWidth, &p.nextID, p.taken)
	p.tasks[task.ID] = &task
	return task.Clone(), nil
}

// ImportTasks adds several tasks at once, keeping each input's CreatedAt when
// set. Either every input is valid and all are added, or none is.
func (p *Planner) ImportTasks(inputs []TaskInput) ([]models.Task, error) {
	now := p.now()
	built := make([]models.Task, 0, len(inputs))
	for i, in := range inputs {
		created := now
		if !in.CreatedAt.IsZero() {
			created = in.CreatedAt
		}
		task, err := p.buildTask(in, created)
		if err != nil {
			return nil, fmt.Errorf("task %d (%q): %w", i+1, in.Title, err)
		}
		built = append(built, task)
	}

	out := make([]models.Task, 0, len(built))
	for i := range built {
		task := built[i]
		task.ID = nextTaskID(p.cfg.TaskIDPrefix, p.cfg.TaskIDPadWidth, &p.nextID, p.taken)
		p.tasks[task.ID] = &task
		out = append(out, task.Clone())
	}
	return out, nil
}

func (p *Planner) buildTask(in TaskInput, created time.Time) (models.Task, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return models.Task{}, err
	}
	if err := validateWeight(in.BaseWeight); err != nil {
		return models.Task{}, err
	}
	if err := validateEffort(in.EffortEstimate); err != nil {
		return models.Task{}, err
	}
	if err := validateDue(in.DueAt, created); err != nil {
		return models.Task{}, err
	}
	task := models.Task{
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		CreatedAt:      created,
		BaseWeight:     in.BaseWeight,
		EffortEstimate: in.EffortEstimate,
		Status:         models.StatusPending,
		LastTouchedAt:  created,
		Tags:           normalizeTags(in.Tags),
	}
	if in.DueAt != nil {
		due := *in.DueAt
		task.DueAt = &due
	}
	return task, nil
}

// GetTask returns a copy of one task.
func (p *Planner) GetTask(id string) (models.Task, error) {
	task, err := p.lookupTask(id)
	if err != nil {
		return models.Task{}, err
	}
	return task.Clone(), nil
}

// ListTasks returns copies of the tasks matching filter, oldest first.
func (p *Planner) ListTasks(filter TaskFilter) []models.Task {
	return p.sortedTasks(func(t models.Task) bool {
		if len(filter.Status) > 0 && !containsStatus(filter.Status, t.Status) {
			return false
		}
		if filter.Tag != "" && !containsString(t.Tags, filter.Tag) {
			return false
		}
		return true
	})
}

// UpdateStatus moves a task along an allowed status edge.
func (p *Planner) UpdateStatus(id string, status models.TaskStatus) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	task, err := p.lookupTask(id)
	if err != nil {
		return models.Task{}, err
	}
	if !task.Status.CanTransitionTo(status) {
		return models.Task{}, fmt.Errorf("%w: task %s cannot move from %s to %s", ErrInvalidTransition, id, task.Status, status)
	}
	task.Status = status
	task.LastTouchedAt = p.now()
	// An explicit status change means the session no longer owns the status.
	if id == p.session.ActiveTaskID {
		p.session.PromotedActive = false
		// Deferring or completing the active task ends the session.
		if p.session.Phase != models.PhaseIdle && !workable(task) {
			resetToIdle(&p.session)
		}
	}
	return task.Clone(), nil
}

// Snooze hides a task from selection until the given time.
func (p *Planner) Snooze(id string, until time.Time) (models.Task, error) {
	task, err := p.lookupTask(id)
	if err != nil {
		return models.Task{}, err
	}
	if task.Status == models.StatusCompleted {
		return models.Task{}, fmt.Errorf("%w: task %s is completed", ErrInvalidTransition, id)
	}
	if id == p.session.ActiveTaskID && p.session.Phase != models.PhaseIdle {
		return models.Task{}, fmt.Errorf("%w: task %s is in a %s session; cancel it first", ErrInvalidTransition, id, p.session.Phase)
	}
	now := p.now()
	if !until.After(now) {
		return models.Task{}, fmt.Errorf("%w: snooze time %s is not in the future", ErrValidation, until.Format(time.RFC3339))
	}
	if !until.After(task.LastTouchedAt) {
		return models.Task{}, fmt.Errorf("%w: snooze time %s is not after the last change to %s", ErrValidation, until.Format(time.RFC3339), id)
	}
	t := until
	task.SnoozeUntil = &t
	return task.Clone(), nil
}

// Unsnooze clears a task's snooze.
func (p *Planner) Unsnooze(id string) (models.Task, error) {
	task, err := p.lookupTask(id)
	if err != nil {
		return models.Task{}, err
	}
	if task.Status == models.StatusCompleted {
		return models.Task{}, fmt.Errorf("%w: task %s is completed", ErrInvalidTransition, id)
	}
	task.SnoozeUntil = nil
	return task.Clone(), nil
}

// EditTask changes descriptive fields of an open task.
func (p *Planner) EditTask(id string, edit TaskEdit) (models.Task, error) {
	task, err := p.lookupTask(id)
	if err != nil {
		return models.Task{}, err
	}
	if task.Status == models.StatusCompleted {
		return models.Task{}, fmt.Errorf("%w: task %s is completed", ErrInvalidTransition, id)
	}

	updated := task.Clone()
	if edit.Title != nil {
		title, err := validateTitle(*edit.Title)
		if err != nil {
			return models.Task{}, err
		}
		updated.Title = title
	}
	if edit.Description != nil {
		updated.Description = strings.TrimSpace(*edit.Description)
	}
	if edit.BaseWeight != nil {
		if err := validateWeight(*edit.BaseWeight); err != nil {
			return models.Task{}, err
		}
		updated.BaseWeight = *edit.BaseWeight
	}
	if edit.EffortEstimate != nil {
		if err := validateEffort(*edit.EffortEstimate); err != nil {
			return models.Task{}, err
		}
		updated.EffortEstimate = *edit.EffortEstimate
	}
	if edit.ClearDue {
		updated.DueAt = nil
	} else if edit.DueAt != nil {
		if err := validateDue(edit.DueAt, updated.CreatedAt); err != nil {
			return models.Task{}, err
		}
		due := *edit.DueAt
		updated.DueAt = &due
	}
	if edit.Tags != nil {
		updated.Tags = normalizeTags(edit.Tags)
	}

	*task = updated
	return updated.Clone(), nil
}

// RemoveTask deletes a task record. The session is left alone: a dangling
// active id is resolved the next time the session dereferences it.
func (p *Planner) RemoveTask(id string) (models.Task, error) {
	task, err := p.lookupTask(id)
	if err != nil {
		return models.Task{}, err
	}
	removed := task.Clone()
	delete(p.tasks, id)
	return removed, nil
}

// StartFocus begins a focus phase on the given task.
func (p *Planner) StartFocus(id string) (PhaseChange, error) {
	return p.tracker.StartFocus(&p.session, p.lookup, id, p.now())
}

// Tick advances the session if its phase has elapsed at now.
func (p *Planner) Tick(now time.Time) PhaseChange {
	return p.tracker.Tick(&p.session, p.lookup, now)
}

// EndBreak cuts the current break short.
func (p *Planner) EndBreak() (PhaseChange, error) {
	return p.tracker.EndBreak(&p.session, p.lookup, p.now())
}

// CancelFocus aborts the session and returns it to idle.
func (p *Planner) CancelFocus() (PhaseChange, error) {
	return p.tracker.Cancel(&p.session, p.lookup, p.now())
}

// PhaseElapsed reports whether the current phase has run out at now.
func (p *Planner) PhaseElapsed(now time.Time) bool {
	return p.tracker.PhaseElapsed(p.session, now)
}

// Session returns a copy of the pomodoro session.
func (p *Planner) Session() models.PomodoroSession {
	return p.session
}

// SessionStatus describes the session at now.
func (p *Planner) SessionStatus(now time.Time) SessionStatus {
	st := SessionStatus{
		Session:     p.session,
		Elapsed:     p.session.ElapsedInPhase(now),
		Remaining:   p.tracker.Remaining(p.session, now),
		PhaseLength: p.tracker.PhaseDuration(p.session.Phase),
	}
	if task := p.lookup(p.session.ActiveTaskID); task != nil {
		c := task.Clone()
		st.ActiveTask = &c
	}
	return st
}

// TodayList returns the short list at the planner's current time. A
// non-positive limit uses the configured default.
func (p *Planner) TodayList(limit int) []RankedTask {
	return p.SelectAt(p.now(), limit)
}

// SelectAt returns the short list as it would be at now.
func (p *Planner) SelectAt(now time.Time, limit int) []RankedTask {
	if limit <= 0 {
		limit = p.cfg.DefaultLimit
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	all := make([]models.Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		all = append(all, *t)
	}
	return p.selector.Select(all, p.session, now, limit)
}

// Breakdown explains one task's score at the planner's current time.
func (p *Planner) Breakdown(id string) (ScoreBreakdown, error) {
	task, err := p.lookupTask(id)
	if err != nil {
		return ScoreBreakdown{}, err
	}
	return p.scorer.Breakdown(*task, p.now()), nil
}

func (p *Planner) lookup(id string) *models.Task {
	if id == "" {
		return nil
	}
	return p.tasks[id]
}

func (p *Planner) lookupTask(id string) (*models.Task, error) {
	task := p.lookup(id)
	if task == nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	return task, nil
}

func (p *Planner) taken(id string) bool {
	_, ok := p.tasks[id]
	return ok
}

func (p *Planner) sortedTasks(keep func(models.Task) bool) []models.Task {
	out := make([]models.Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		if keep(*t) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func validateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	return trimmed, nil
}

func validateWeight(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return fmt.Errorf("%w: base weight must be a non-negative number, got %v", ErrValidation, w)
	}
	return nil
}

func validateEffort(effort int) error {
	if effort < 1 {
		return fmt.Errorf("%w: effort estimate must be at least 1 pomodoro, got %d", ErrValidation, effort)
	}
	return nil
}

func validateDue(due *time.Time, created time.Time) error {
	if due != nil && !due.After(created) {
		return fmt.Errorf("%w: due date %s must be after the creation time", ErrValidation, due.Format(time.RFC3339))
	}
	return nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func containsStatus(haystack []models.TaskStatus, needle models.TaskStatus) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
