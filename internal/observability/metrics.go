package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/feedme/pkg/models"
)

// Metrics holds counts derived from the event log.
type Metrics struct {
	TasksCreated   int `json:"tasks_created"`
	TasksCompleted int `json:"tasks_completed"`
	TasksDeferred  int `json:"tasks_deferred"`
	TasksRemoved   int `json:"tasks_removed"`
	TasksSnoozed   int `json:"tasks_snoozed"`
	// StatusChanges counts transitions by target status.
	StatusChanges  map[string]int `json:"status_changes"`
	FocusStarted   int            `json:"focus_started"`
	FocusCompleted int            `json:"focus_completed"`
	FocusCancelled int            `json:"focus_cancelled"`
	BreaksEnded    int            `json:"breaks_ended"`
	// FocusByTask counts completed focus phases per task id.
	FocusByTask map[string]int `json:"focus_by_task"`
	// CompletedByDay counts completions per local calendar day (YYYY-MM-DD).
	CompletedByDay map[string]int `json:"completed_by_day"`
	EventCount     int            `json:"event_count"`
	OldestEvent    *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent    *time.Time     `json:"newest_event,omitempty"`
}

// CompletionRate is completed focus phases over started ones, or 0 when
// none were started.
func (m *Metrics) CompletionRate() float64 {
	if m.FocusStarted == 0 {
		return 0
	}
	return float64(m.FocusCompleted) / float64(m.FocusStarted)
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event since the given time.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		StatusChanges:  make(map[string]int),
		FocusByTask:    make(map[string]int),
		CompletedByDay: make(map[string]int),
	}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case models.EventTaskCreated:
			m.TasksCreated++
		case models.EventTaskStatusChanged:
			status, _ := event.Data["new_status"].(string)
			if status == "" {
				continue
			}
			m.StatusChanges[status]++
			switch models.TaskStatus(status) {
			case models.StatusCompleted:
				m.TasksCompleted++
				m.CompletedByDay[event.Time.Local().Format("2006-01-02")]++
			case models.StatusDeferred:
				m.TasksDeferred++
			}
		case models.EventTaskSnoozed:
			m.TasksSnoozed++
		case models.EventTaskRemoved:
			m.TasksRemoved++
		case models.EventFocusStarted:
			m.FocusStarted++
		case models.EventFocusCompleted:
			m.FocusCompleted++
			if id := event.TaskID(); id != "" {
				m.FocusByTask[id]++
			}
		case models.EventFocusCancelled:
			m.FocusCancelled++
		case models.EventBreakEnded:
			m.BreaksEnded++
		}
	}

	return m, nil
}
