package models

import "time"

// Phase is the pomodoro phase of a session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseFocus      Phase = "focus"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

// IsBreak reports whether the phase is a short or long break.
func (p Phase) IsBreak() bool {
	return p == PhaseShortBreak || p == PhaseLongBreak
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseFocus, PhaseShortBreak, PhaseLongBreak:
		return true
	}
	return false
}

// PomodoroSession is the run state of the focus timer. ActiveTaskID is a weak
// reference: it is only ever resolved by lookup in the task collection.
type PomodoroSession struct {
	Phase               Phase     `yaml:"phase"`
	PhaseStartedAt      time.Time `yaml:"phase_started_at,omitempty"`
	CompletedFocusCount int       `yaml:"completed_focus_count"`
	ActiveTaskID        string    `yaml:"active_task_id,omitempty"`
	// PromotedActive is set when starting focus moved the active task from
	// pending to in_progress.
	PromotedActive bool `yaml:"promoted_active,omitempty"`
}

// NewPomodoroSession returns an idle session with zero counters.
func NewPomodoroSession() PomodoroSession {
	return PomodoroSession{Phase: PhaseIdle}
}

// ElapsedInPhase returns how long the current phase has been running.
// An idle session reports zero.
func (s PomodoroSession) ElapsedInPhase(now time.Time) time.Duration {
	if s.Phase == PhaseIdle || s.PhaseStartedAt.IsZero() {
		return 0
	}
	elapsed := now.Sub(s.PhaseStartedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
