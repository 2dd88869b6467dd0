package core

import (
	"sort"
	"time"

	"github.com/valter-silva-au/feedme/pkg/models"
)

// DefaultLimit is the short list length used when none is configured.
const DefaultLimit = 3

// RankedTask is one entry of a short list. Task is a copy, so the list is a
// snapshot that later mutations cannot change.
type RankedTask struct {
	Task   models.Task
	Score  float64
	Pinned bool
}

// Selector builds the bounded short list from a task collection.
type Selector struct {
	scorer Scorer
}

// NewSelector creates a Selector that ranks with the given Scorer.
func NewSelector(scorer Scorer) Selector {
	return Selector{scorer: scorer}
}

// Eligible reports whether a task may appear in the short list. Completed and
// deferred tasks are excluded, as are future-snoozed tasks and in-progress
// tasks that are not the session's active task.
func Eligible(task models.Task, session models.PomodoroSession, now time.Time) bool {
	if task.SnoozedAt(now) {
		return false
	}
	switch task.Status {
	case models.StatusPending:
		return true
	case models.StatusInProgress:
		return task.ID == session.ActiveTaskID
	case models.StatusCompleted, models.StatusDeferred:
		return false
	default:
		return false
	}
}

// Select returns at most limit eligible tasks ordered by descending score,
// ties going to the older task and then the lexically smaller id. While the
// session is in focus its active task is pinned to the front.
func (sel Selector) Select(tasks []models.Task, session models.PomodoroSession, now time.Time, limit int) []RankedTask {
	if limit <= 0 {
		return []RankedTask{}
	}

	ranked := make([]RankedTask, 0, len(tasks))
	for _, t := range tasks {
		if !Eligible(t, session, now) {
			continue
		}
		ranked = append(ranked, RankedTask{
			Task:  t.Clone(),
			Score: sel.scorer.Score(t, now),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return rankedBefore(ranked[i], ranked[j])
	})

	if session.Phase == models.PhaseFocus && session.ActiveTaskID != "" {
		for i := range ranked {
			if ranked[i].Task.ID != session.ActiveTaskID {
				continue
			}
			pinned := ranked[i]
			pinned.Pinned = true
			copy(ranked[1:i+1], ranked[:i])
			ranked[0] = pinned
			break
		}
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func rankedBefore(a, b RankedTask) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.Task.CreatedAt.Equal(b.Task.CreatedAt) {
		return a.Task.CreatedAt.Before(b.Task.CreatedAt)
	}
	return a.Task.ID < b.Task.ID
}
