package observability

import (
	"fmt"
	"testing"
	"time"

	"github.com/valter-silva-au/feedme/pkg/models"
)

var alertNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func alertTask(id string, status models.TaskStatus, touched time.Time) models.Task {
	return models.Task{
		ID:             id,
		Title:          "task " + id,
		CreatedAt:      touched,
		LastTouchedAt:  touched,
		BaseWeight:     4,
		EffortEstimate: 1,
		Status:         status,
	}
}

func findAlert(alerts []Alert, id string) (Alert, bool) {
	for _, a := range alerts {
		if a.ID == id {
			return a, true
		}
	}
	return Alert{}, false
}

func TestAlertEngine_OverdueTask(t *testing.T) {
	task := alertTask("T0001", models.StatusPending, alertNow.Add(-time.Hour))
	due := alertNow.Add(-90 * time.Minute)
	task.DueAt = &due

	alerts := NewAlertEngine(DefaultAlertConfig()).Evaluate([]models.Task{task}, alertNow)

	a, ok := findAlert(alerts, "overdue-T0001")
	if !ok {
		t.Fatalf("expected overdue alert, got %+v", alerts)
	}
	if a.Severity != SeverityHigh || a.Condition != ConditionOverdue || a.TaskID != "T0001" {
		t.Errorf("unexpected alert: %+v", a)
	}
}

func TestAlertEngine_CompletedTasksNeverAlert(t *testing.T) {
	task := alertTask("T0001", models.StatusCompleted, alertNow.Add(-30*24*time.Hour))
	due := alertNow.Add(-24 * time.Hour)
	task.DueAt = &due

	alerts := NewAlertEngine(DefaultAlertConfig()).Evaluate([]models.Task{task}, alertNow)
	if len(alerts) != 0 {
		t.Errorf("expected no alerts, got %+v", alerts)
	}
}

func TestAlertEngine_StaleTask(t *testing.T) {
	cfg := models.AlertConfig{StaleDays: 3}
	stale := alertTask("T0001", models.StatusInProgress, alertNow.Add(-4*24*time.Hour))
	fresh := alertTask("T0002", models.StatusPending, alertNow.Add(-2*24*time.Hour))
	snoozed := alertTask("T0003", models.StatusPending, alertNow.Add(-10*24*time.Hour))
	until := alertNow.Add(time.Hour)
	snoozed.SnoozeUntil = &until

	alerts := NewAlertEngine(cfg).Evaluate([]models.Task{stale, fresh, snoozed}, alertNow)

	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert, got %+v", alerts)
	}
	if alerts[0].ID != "stale-T0001" || alerts[0].Severity != SeverityMedium {
		t.Errorf("unexpected alert: %+v", alerts[0])
	}
}

func TestAlertEngine_BacklogSize(t *testing.T) {
	cfg := models.AlertConfig{MaxBacklogSize: 2}
	var tasks []models.Task
	for i := 1; i <= 3; i++ {
		tasks = append(tasks, alertTask(fmt.Sprintf("T%04d", i), models.StatusPending, alertNow))
	}
	tasks = append(tasks, alertTask("T0004", models.StatusDeferred, alertNow))

	alerts := NewAlertEngine(cfg).Evaluate(tasks, alertNow)
	a, ok := findAlert(alerts, "backlog-size")
	if !ok {
		t.Fatalf("expected backlog alert, got %+v", alerts)
	}
	if a.Severity != SeverityLow {
		t.Errorf("Severity = %s, want low", a.Severity)
	}

	alerts = NewAlertEngine(cfg).Evaluate(tasks[1:], alertNow)
	if _, ok := findAlert(alerts, "backlog-size"); ok {
		t.Error("did not expect backlog alert at the threshold")
	}
}

func TestAlertEngine_DisabledThresholds(t *testing.T) {
	tasks := []models.Task{alertTask("T0001", models.StatusPending, alertNow.Add(-365*24*time.Hour))}
	alerts := NewAlertEngine(models.AlertConfig{}).Evaluate(tasks, alertNow)
	if len(alerts) != 0 {
		t.Errorf("expected no alerts with zero thresholds, got %+v", alerts)
	}
}

func TestAlertEngine_SortedBySeverity(t *testing.T) {
	cfg := models.AlertConfig{StaleDays: 1, MaxBacklogSize: 1}
	stale := alertTask("T0001", models.StatusPending, alertNow.Add(-5*24*time.Hour))
	overdue := alertTask("T0002", models.StatusPending, alertNow)
	due := alertNow.Add(-time.Minute)
	overdue.DueAt = &due

	alerts := NewAlertEngine(cfg).Evaluate([]models.Task{stale, overdue}, alertNow)
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %+v", alerts)
	}
	want := []AlertSeverity{SeverityHigh, SeverityMedium, SeverityLow}
	for i, a := range alerts {
		if a.Severity != want[i] {
			t.Errorf("alerts[%d].Severity = %s, want %s", i, a.Severity, want[i])
		}
	}
}
