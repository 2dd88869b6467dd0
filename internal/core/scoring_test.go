package core

import (
	"math"
	"testing"
	"time"

	"github.com/valter-silva-au/feedme/pkg/models"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func newTestTask(id string, weight float64, effort int) models.Task {
	return models.Task{
		ID:             id,
		Title:          "task " + id,
		CreatedAt:      baseTime,
		LastTouchedAt:  baseTime,
		BaseWeight:     weight,
		EffortEstimate: effort,
		Status:         models.StatusPending,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScorer_NoDueDate_OnlyImportanceAndStaleness(t *testing.T) {
	s := NewScorer(DefaultScoringConfig())
	task := newTestTask("T-0001", 5, 1)

	b := s.Breakdown(task, baseTime)
	if b.Urgency != 0 {
		t.Errorf("Urgency = %v, want 0", b.Urgency)
	}
	if !almostEqual(b.Importance, 0.5) {
		t.Errorf("Importance = %v, want 0.5", b.Importance)
	}
	if b.Staleness != 0 {
		t.Errorf("Staleness = %v, want 0 at creation", b.Staleness)
	}
	want := (2 * 0.5) * 1.05
	if !almostEqual(b.Total, want) {
		t.Errorf("Total = %v, want %v", b.Total, want)
	}
}

func TestScorer_Urgency(t *testing.T) {
	s := NewScorer(DefaultScoringConfig())

	tests := []struct {
		name string
		due  time.Duration
		want float64
	}{
		{"due in one horizon", 24 * time.Hour, 0.5},
		{"due now", 0, 1},
		{"due in three horizons", 72 * time.Hour, 0.25},
		{"overdue ten hours", -10 * time.Hour, 2},
		{"overdue five hours", -5 * time.Hour, 1.5},
		{"overdue past cap", -100 * time.Hour, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTestTask("T-0001", 0, 1)
			task.DueAt = timePtr(baseTime.Add(tt.due))
			got := s.Breakdown(task, baseTime).Urgency
			if !almostEqual(got, tt.want) {
				t.Errorf("Urgency = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorer_ImportanceCapped(t *testing.T) {
	s := NewScorer(DefaultScoringConfig())
	task := newTestTask("T-0001", 25, 1)
	if got := s.Breakdown(task, baseTime).Importance; got != 1 {
		t.Errorf("Importance = %v, want 1 for weight above the cap", got)
	}
}

func TestScorer_ZeroWeightStillAccruesStaleness(t *testing.T) {
	s := NewScorer(DefaultScoringConfig())
	task := newTestTask("T-0001", 0, 1)

	early := s.Score(task, baseTime.Add(time.Hour))
	late := s.Score(task, baseTime.Add(10*24*time.Hour))
	if early <= 0 {
		t.Errorf("score after an hour = %v, want > 0", early)
	}
	if late <= early {
		t.Errorf("score after ten days = %v, want > %v", late, early)
	}
}

func TestScorer_EffortPrefersQuickWins(t *testing.T) {
	s := NewScorer(DefaultScoringConfig())
	quick := newTestTask("T-0001", 5, 1)
	slow := newTestTask("T-0002", 5, 8)

	if s.Score(quick, baseTime) <= s.Score(slow, baseTime) {
		t.Errorf("quick task should outscore an otherwise identical slow task")
	}
}

func TestScorer_ZeroScalesFallBackToDefaults(t *testing.T) {
	s := NewScorer(models.ScoringConfig{UrgencyWeight: 1})
	task := newTestTask("T-0001", 3, 1)
	task.DueAt = timePtr(baseTime.Add(24 * time.Hour))

	got := s.Score(task, baseTime.Add(time.Hour))
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("Score = %v, want a finite number", got)
	}
}

func TestScenario_NearerDeadlineRanksHigher(t *testing.T) {
	s := NewScorer(DefaultScoringConfig())
	a := newTestTask("T-0001", 5, 2)
	a.DueAt = timePtr(baseTime.Add(24 * time.Hour))
	b := newTestTask("T-0002", 5, 1)
	b.DueAt = timePtr(baseTime.Add(10 * 24 * time.Hour))

	sa, sb := s.Score(a, baseTime), s.Score(b, baseTime)
	if sa <= sb {
		t.Fatalf("score(A) = %v, score(B) = %v; want A above B", sa, sb)
	}

	list := NewSelector(s).Select([]models.Task{b, a}, models.NewPomodoroSession(), baseTime, 3)
	if len(list) != 2 || list[0].Task.ID != "T-0001" {
		t.Fatalf("expected A first in the short list, got %+v", list)
	}
}
