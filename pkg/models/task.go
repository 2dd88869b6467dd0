package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusDeferred   TaskStatus = "deferred"
)

// AllStatuses lists every status in display order.
var AllStatuses = []TaskStatus{
	StatusInProgress,
	StatusPending,
	StatusDeferred,
	StatusCompleted,
}

// statusTransitions is the closed table of allowed status edges.
// Completed has no outgoing edges.
var statusTransitions = map[TaskStatus][]TaskStatus{
	StatusPending:    {StatusInProgress, StatusDeferred},
	StatusInProgress: {StatusCompleted, StatusDeferred},
	StatusDeferred:   {StatusPending},
	StatusCompleted:  nil,
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the edge s -> next is allowed.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transitions returns the statuses reachable from s in one step.
func (s TaskStatus) Transitions() []TaskStatus {
	out := make([]TaskStatus, len(statusTransitions[s]))
	copy(out, statusTransitions[s])
	return out
}

// ParseTaskStatus converts user input such as "in-progress" or "Done" into a
// TaskStatus. "done" is accepted as an alias for completed.
func ParseTaskStatus(s string) (TaskStatus, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if normalized == "done" {
		return StatusCompleted, nil
	}
	status := TaskStatus(normalized)
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q (pending, in_progress, completed, deferred)", s)
	}
	return status, nil
}

// Priority is a named importance level that maps to a base weight.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityWeights = map[Priority]float64{
	PriorityLow:    2,
	PriorityMedium: 4,
	PriorityHigh:   7,
	PriorityUrgent: 10,
}

// Weight returns the base weight for the priority level, or 0 if unknown.
func (p Priority) Weight() float64 {
	return priorityWeights[p]
}

// Valid reports whether p is a known priority level.
func (p Priority) Valid() bool {
	_, ok := priorityWeights[p]
	return ok
}

// ParsePriority converts user input into a Priority, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q (low, medium, high, urgent)", s)
	}
	return p, nil
}

// Task is one user-created unit of work.
type Task struct {
	ID             string     `yaml:"id"`
	Title          string     `yaml:"title"`
	Description    string     `yaml:"description,omitempty"`
	CreatedAt      time.Time  `yaml:"created_at"`
	DueAt          *time.Time `yaml:"due_at,omitempty"`
	BaseWeight     float64    `yaml:"base_weight"`
	EffortEstimate int        `yaml:"effort_estimate"`
	Status         TaskStatus `yaml:"status"`
	LastTouchedAt  time.Time  `yaml:"last_touched_at"`
	SnoozeUntil    *time.Time `yaml:"snooze_until,omitempty"`
	Pomodoros      int        `yaml:"pomodoros,omitempty"`
	Tags           []string   `yaml:"tags,omitempty"`
}

// Clone returns a deep copy so callers can hand out snapshots that do not
// alias the stored record.
func (t Task) Clone() Task {
	c := t
	if t.DueAt != nil {
		due := *t.DueAt
		c.DueAt = &due
	}
	if t.SnoozeUntil != nil {
		until := *t.SnoozeUntil
		c.SnoozeUntil = &until
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return c
}

// SnoozedAt reports whether the task is snoozed at the given instant.
func (t Task) SnoozedAt(now time.Time) bool {
	return t.SnoozeUntil != nil && t.SnoozeUntil.After(now)
}

// OverdueAt reports whether the task's deadline has passed.
func (t Task) OverdueAt(now time.Time) bool {
	return t.DueAt != nil && t.DueAt.Before(now)
}

// Open reports whether the task still needs work.
func (t Task) Open() bool {
	return t.Status != StatusCompleted
}
