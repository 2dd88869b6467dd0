package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/feedme/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert conditions.
const (
	ConditionOverdue         = "task_overdue"
	ConditionStale           = "task_stale"
	ConditionBacklogTooLarge = "backlog_too_large"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TaskID      string        `json:"task_id,omitempty"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// DefaultAlertConfig returns the default alert thresholds.
func DefaultAlertConfig() models.AlertConfig {
	return models.AlertConfig{
		StaleDays:      7,
		MaxBacklogSize: 30,
	}
}

// AlertEngine evaluates alert conditions against a task set.
type AlertEngine interface {
	Evaluate(tasks []models.Task, now time.Time) []Alert
}

type alertEngine struct {
	cfg models.AlertConfig
}

// NewAlertEngine creates an AlertEngine. A non-positive threshold disables
// its check.
func NewAlertEngine(cfg models.AlertConfig) AlertEngine {
	return &alertEngine{cfg: cfg}
}

// Evaluate returns every triggered alert, highest severity first and then by
// task id. Completed tasks never alert.
func (ae *alertEngine) Evaluate(tasks []models.Task, now time.Time) []Alert {
	var alerts []Alert
	alerts = append(alerts, ae.checkOverdue(tasks, now)...)
	alerts = append(alerts, ae.checkStale(tasks, now)...)
	alerts = append(alerts, ae.checkBacklog(tasks, now)...)

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := severityRank(alerts[i].Severity), severityRank(alerts[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return alerts[i].ID < alerts[j].ID
	})
	return alerts
}

func (ae *alertEngine) checkOverdue(tasks []models.Task, now time.Time) []Alert {
	var alerts []Alert
	for _, t := range tasks {
		if !t.Open() || !t.OverdueAt(now) {
			continue
		}
		late := now.Sub(*t.DueAt).Round(time.Minute)
		alerts = append(alerts, Alert{
			ID:          "overdue-" + t.ID,
			Condition:   ConditionOverdue,
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("Task %s %q is overdue by %s", t.ID, t.Title, late),
			TaskID:      t.ID,
			TriggeredAt: now,
		})
	}
	return alerts
}

func (ae *alertEngine) checkStale(tasks []models.Task, now time.Time) []Alert {
	if ae.cfg.StaleDays <= 0 {
		return nil
	}
	threshold := time.Duration(ae.cfg.StaleDays) * 24 * time.Hour

	var alerts []Alert
	for _, t := range tasks {
		if !t.Open() || t.SnoozedAt(now) {
			continue
		}
		idle := now.Sub(t.LastTouchedAt)
		if idle <= threshold {
			continue
		}
		days := int(idle.Hours() / 24)
		alerts = append(alerts, Alert{
			ID:          "stale-" + t.ID,
			Condition:   ConditionStale,
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("Task %s %q has not been touched for %d days (threshold: %d)", t.ID, t.Title, days, ae.cfg.StaleDays),
			TaskID:      t.ID,
			TriggeredAt: now,
		})
	}
	return alerts
}

func (ae *alertEngine) checkBacklog(tasks []models.Task, now time.Time) []Alert {
	if ae.cfg.MaxBacklogSize <= 0 {
		return nil
	}
	pending := 0
	for _, t := range tasks {
		if t.Status == models.StatusPending {
			pending++
		}
	}
	if pending <= ae.cfg.MaxBacklogSize {
		return nil
	}
	return []Alert{{
		ID:          "backlog-size",
		Condition:   ConditionBacklogTooLarge,
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("Backlog has %d pending tasks (threshold: %d)", pending, ae.cfg.MaxBacklogSize),
		TriggeredAt: now,
	}}
}

func severityRank(s AlertSeverity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}
