package core

import (
	"math"
	"time"

	"github.com/valter-silva-au/feedme/pkg/models"
)

// DefaultScoringConfig returns the scoring constants used when no
// configuration overrides them.
func DefaultScoringConfig() models.ScoringConfig {
	return models.ScoringConfig{
		UrgencyWeight:      3,
		ImportanceWeight:   2,
		StalenessWeight:    1,
		UrgencyHorizon:     24 * time.Hour,
		OverdueRatePerHour: 0.1,
		OverdueBonusCap:    2,
		MaxBaseWeight:      10,
		StalenessScale:     72 * time.Hour,
		EffortBoost:        0.05,
	}
}

// ScoreBreakdown shows how each factor contributed to a task's score.
type ScoreBreakdown struct {
	Urgency          float64
	Importance       float64
	Staleness        float64
	EffortMultiplier float64
	Total            float64
}

// Scorer computes task priority scores. It is a pure function of the task
// and the supplied time.
type Scorer struct {
	cfg models.ScoringConfig
}

// NewScorer creates a Scorer. Zero scales fall back to the defaults so a
// partially filled config never divides by zero; zero weights are kept and
// disable their factor.
func NewScorer(cfg models.ScoringConfig) Scorer {
	def := DefaultScoringConfig()
	if cfg.UrgencyHorizon <= 0 {
		cfg.UrgencyHorizon = def.UrgencyHorizon
	}
	if cfg.StalenessScale <= 0 {
		cfg.StalenessScale = def.StalenessScale
	}
	if cfg.MaxBaseWeight <= 0 {
		cfg.MaxBaseWeight = def.MaxBaseWeight
	}
	return Scorer{cfg: cfg}
}

// Score returns the priority of task at now. Higher is more pressing.
func (s Scorer) Score(task models.Task, now time.Time) float64 {
	return s.Breakdown(task, now).Total
}

// Breakdown returns the individual factors and the combined score.
func (s Scorer) Breakdown(task models.Task, now time.Time) ScoreBreakdown {
	b := ScoreBreakdown{
		Urgency:          s.urgency(task, now),
		Importance:       s.importance(task),
		Staleness:        s.staleness(task, now),
		EffortMultiplier: s.effortMultiplier(task),
	}
	sum := s.cfg.UrgencyWeight*b.Urgency +
		s.cfg.ImportanceWeight*b.Importance +
		s.cfg.StalenessWeight*b.Staleness
	b.Total = sum * b.EffortMultiplier
	return b
}

// urgency is 0 without a deadline, rises towards 1 as the deadline nears and
// is 1 plus a capped bonus once the deadline has passed.
func (s Scorer) urgency(task models.Task, now time.Time) float64 {
	if task.DueAt == nil {
		return 0
	}
	remaining := task.DueAt.Sub(now)
	if remaining >= 0 {
		h := float64(s.cfg.UrgencyHorizon)
		return h / (h + float64(remaining))
	}
	bonus := s.cfg.OverdueRatePerHour * (-remaining).Hours()
	if bonus > s.cfg.OverdueBonusCap {
		bonus = s.cfg.OverdueBonusCap
	}
	if bonus < 0 {
		bonus = 0
	}
	return 1 + bonus
}

// importance scales base_weight into [0, 1].
func (s Scorer) importance(task models.Task) float64 {
	w := task.BaseWeight
	if math.IsNaN(w) || w <= 0 {
		return 0
	}
	if w > s.cfg.MaxBaseWeight {
		w = s.cfg.MaxBaseWeight
	}
	return w / s.cfg.MaxBaseWeight
}

// staleness grows logarithmically with time since the task was last touched.
func (s Scorer) staleness(task models.Task, now time.Time) float64 {
	age := now.Sub(task.LastTouchedAt)
	if age <= 0 {
		return 0
	}
	return math.Log1p(float64(age) / float64(s.cfg.StalenessScale))
}

// effortMultiplier slightly favours quick wins.
func (s Scorer) effortMultiplier(task models.Task) float64 {
	effort := task.EffortEstimate
	if effort < 1 {
		effort = 1
	}
	return 1 + s.cfg.EffortBoost/float64(effort)
}
