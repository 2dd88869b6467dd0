package core

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/feedme/pkg/models"
)

// DefaultPomodoroConfig returns the classic 25/5/15 pomodoro rhythm with a
// long break after every fourth focus phase.
func DefaultPomodoroConfig() models.PomodoroConfig {
	return models.PomodoroConfig{
		Focus:          25 * time.Minute,
		ShortBreak:     5 * time.Minute,
		LongBreak:      15 * time.Minute,
		LongBreakEvery: 4,
	}
}

// TaskLookup resolves a task id against the live collection. It returns nil
// when the id is unknown.
type TaskLookup func(id string) *models.Task

// PhaseChange describes what a tracker operation did to the session.
type PhaseChange struct {
	From           models.Phase
	To             models.Phase
	TaskID         string
	FocusCompleted bool
}

// Changed reports whether the phase moved.
func (c PhaseChange) Changed() bool {
	return c.From != c.To
}

// PomodoroTracker drives the phase state machine of a PomodoroSession. It
// holds no timer: callers poll Tick with the current time.
type PomodoroTracker struct {
	cfg models.PomodoroConfig
}

// NewPomodoroTracker creates a tracker. Non-positive durations fall back to
// the defaults.
func NewPomodoroTracker(cfg models.PomodoroConfig) PomodoroTracker {
	def := DefaultPomodoroConfig()
	if cfg.Focus <= 0 {
		cfg.Focus = def.Focus
	}
	if cfg.ShortBreak <= 0 {
		cfg.ShortBreak = def.ShortBreak
	}
	if cfg.LongBreak <= 0 {
		cfg.LongBreak = def.LongBreak
	}
	if cfg.LongBreakEvery <= 0 {
		cfg.LongBreakEvery = def.LongBreakEvery
	}
	return PomodoroTracker{cfg: cfg}
}

// PhaseDuration returns the configured length of a phase. Idle has none.
func (pt PomodoroTracker) PhaseDuration(phase models.Phase) time.Duration {
	switch phase {
	case models.PhaseFocus:
		return pt.cfg.Focus
	case models.PhaseShortBreak:
		return pt.cfg.ShortBreak
	case models.PhaseLongBreak:
		return pt.cfg.LongBreak
	default:
		return 0
	}
}

// PhaseElapsed reports whether the current phase has run its full length.
func (pt PomodoroTracker) PhaseElapsed(s models.PomodoroSession, now time.Time) bool {
	if s.Phase == models.PhaseIdle {
		return false
	}
	return s.ElapsedInPhase(now) >= pt.PhaseDuration(s.Phase)
}

// Remaining returns the time left in the current phase, never negative.
func (pt PomodoroTracker) Remaining(s models.PomodoroSession, now time.Time) time.Duration {
	if s.Phase == models.PhaseIdle {
		return 0
	}
	left := pt.PhaseDuration(s.Phase) - s.ElapsedInPhase(now)
	if left < 0 {
		return 0
	}
	return left
}

// StartFocus begins a focus phase on the given task. It is allowed from idle
// and from a break; starting while already in focus fails without touching
// the session. A pending task is promoted to in_progress.
func (pt PomodoroTracker) StartFocus(s *models.PomodoroSession, lookup TaskLookup, taskID string, now time.Time) (PhaseChange, error) {
	if s.Phase == models.PhaseFocus {
		return PhaseChange{}, fmt.Errorf("%w: focus already running on %s", ErrInvalidTransition, s.ActiveTaskID)
	}
	task := lookup(taskID)
	if task == nil {
		return PhaseChange{}, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if task.Status != models.StatusPending && task.Status != models.StatusInProgress {
		return PhaseChange{}, fmt.Errorf("%w: cannot focus on %s task %s", ErrInvalidTransition, task.Status, taskID)
	}

	// Switching tasks during a break hands back a task the session promoted.
	if s.ActiveTaskID != "" && s.ActiveTaskID != taskID && s.PromotedActive {
		if prev := lookup(s.ActiveTaskID); prev != nil && prev.Status == models.StatusInProgress {
			prev.Status = models.StatusPending
			prev.LastTouchedAt = now
		}
		s.PromotedActive = false
	}

	if task.Status == models.StatusPending {
		task.Status = models.StatusInProgress
		task.LastTouchedAt = now
		s.PromotedActive = true
	}
	task.SnoozeUntil = nil

	change := PhaseChange{From: s.Phase, To: models.PhaseFocus, TaskID: taskID}
	s.Phase = models.PhaseFocus
	s.PhaseStartedAt = now
	s.ActiveTaskID = taskID
	return change, nil
}

// Tick advances the session by at most one phase if the current phase has
// elapsed at now.
func (pt PomodoroTracker) Tick(s *models.PomodoroSession, lookup TaskLookup, now time.Time) PhaseChange {
	change := PhaseChange{From: s.Phase, To: s.Phase, TaskID: s.ActiveTaskID}
	if !pt.PhaseElapsed(*s, now) {
		return change
	}

	switch s.Phase {
	case models.PhaseFocus:
		end := s.PhaseStartedAt.Add(pt.cfg.Focus)
		s.CompletedFocusCount++
		if task := lookup(s.ActiveTaskID); task != nil && workable(task) {
			task.Pomodoros++
		}
		next := models.PhaseShortBreak
		if s.CompletedFocusCount%pt.cfg.LongBreakEvery == 0 {
			next = models.PhaseLongBreak
		}
		s.Phase = next
		s.PhaseStartedAt = end
		change.To = next
		change.FocusCompleted = true
	case models.PhaseShortBreak, models.PhaseLongBreak:
		task := lookup(s.ActiveTaskID)
		if task == nil || !workable(task) {
			resetToIdle(s)
			change.To = models.PhaseIdle
			return change
		}
		if task.Status == models.StatusPending {
			task.Status = models.StatusInProgress
			task.LastTouchedAt = now
			s.PromotedActive = true
		}
		// The next focus starts now, not when the break ended, so an
		// unattended timer never accumulates phantom focus phases.
		s.Phase = models.PhaseFocus
		s.PhaseStartedAt = now
		change.To = models.PhaseFocus
	case models.PhaseIdle:
	}
	return change
}

// EndBreak cuts a break short and resumes focus on the active task.
func (pt PomodoroTracker) EndBreak(s *models.PomodoroSession, lookup TaskLookup, now time.Time) (PhaseChange, error) {
	if !s.Phase.IsBreak() {
		return PhaseChange{}, fmt.Errorf("%w: no break in progress (phase %s)", ErrInvalidTransition, s.Phase)
	}
	task := lookup(s.ActiveTaskID)
	if task == nil {
		return PhaseChange{}, fmt.Errorf("%w: active task %s", ErrNotFound, s.ActiveTaskID)
	}
	if !workable(task) {
		return PhaseChange{}, fmt.Errorf("%w: active task %s is %s", ErrInvalidTransition, task.ID, task.Status)
	}
	if task.Status == models.StatusPending {
		task.Status = models.StatusInProgress
		task.LastTouchedAt = now
		s.PromotedActive = true
	}
	change := PhaseChange{From: s.Phase, To: models.PhaseFocus, TaskID: s.ActiveTaskID}
	s.Phase = models.PhaseFocus
	s.PhaseStartedAt = now
	return change, nil
}

// Cancel aborts the current phase and returns to idle without counting it.
// A task that is in progress only because this session promoted it goes back
// to pending.
func (pt PomodoroTracker) Cancel(s *models.PomodoroSession, lookup TaskLookup, now time.Time) (PhaseChange, error) {
	if s.Phase == models.PhaseIdle {
		return PhaseChange{}, fmt.Errorf("%w: no session in progress", ErrInvalidTransition)
	}
	change := PhaseChange{From: s.Phase, To: models.PhaseIdle, TaskID: s.ActiveTaskID}
	if s.PromotedActive {
		if task := lookup(s.ActiveTaskID); task != nil && task.Status == models.StatusInProgress {
			task.Status = models.StatusPending
			task.LastTouchedAt = now
		}
	}
	resetToIdle(s)
	return change, nil
}

func resetToIdle(s *models.PomodoroSession) {
	s.Phase = models.PhaseIdle
	s.PhaseStartedAt = time.Time{}
	s.ActiveTaskID = ""
	s.PromotedActive = false
}

func workable(task *models.Task) bool {
	return task.Status == models.StatusPending || task.Status == models.StatusInProgress
}
