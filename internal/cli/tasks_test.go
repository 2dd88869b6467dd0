package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/pkg/models"
)

func TestTaskCommands_Registration(t *testing.T) {
	want := []string{"add", "today", "list", "show", "start", "done", "defer", "resume", "status", "snooze", "unsnooze", "edit", "rm"}
	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("expected %q command to be registered", name)
		}
	}
}

func TestTaskCommands_NilTaskManager(t *testing.T) {
	setupCLI(t)
	TaskMgr = nil

	err := addCmd.RunE(addCmd, []string{"x"})
	if !errors.Is(err, errTaskMgrNotInitialized) {
		t.Errorf("add: expected errTaskMgrNotInitialized, got %v", err)
	}
	err = todayCmd.RunE(todayCmd, nil)
	if !errors.Is(err, errTaskMgrNotInitialized) {
		t.Errorf("today: expected errTaskMgrNotInitialized, got %v", err)
	}
}

// --- add ---

func TestAddCommand_PriorityAndDue(t *testing.T) {
	env := setupCLI(t)
	resetFlags(t, addCmd)
	setFlag(t, addCmd, "priority", "urgent")
	setFlag(t, addCmd, "due", "2026-03-05")
	addTags = []string{"home"}

	out := captureStdout(t, func() {
		if err := addCmd.RunE(addCmd, []string{"Pay", "rent"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Created task T-0001") {
		t.Errorf("expected creation message, got %q", out)
	}

	task, err := env.mgr.GetTask("T-0001")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Title != "Pay rent" {
		t.Errorf("title = %q, want %q", task.Title, "Pay rent")
	}
	if task.BaseWeight != models.PriorityUrgent.Weight() {
		t.Errorf("weight = %v, want %v", task.BaseWeight, models.PriorityUrgent.Weight())
	}
	wantDue := time.Date(2026, 3, 5, 23, 59, 59, 0, time.Local)
	if task.DueAt == nil || !task.DueAt.Equal(wantDue) {
		t.Errorf("due = %v, want %v", task.DueAt, wantDue)
	}
	if len(task.Tags) != 1 || task.Tags[0] != "home" {
		t.Errorf("tags = %v, want [home]", task.Tags)
	}
}

func TestAddCommand_WeightOverridesPriority(t *testing.T) {
	env := setupCLI(t)
	resetFlags(t, addCmd)
	setFlag(t, addCmd, "priority", "low")
	setFlag(t, addCmd, "weight", "6.5")
	setFlag(t, addCmd, "effort", "3")

	captureStdout(t, func() {
		if err := addCmd.RunE(addCmd, []string{"Write", "report"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	task, err := env.mgr.GetTask("T-0001")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.BaseWeight != 6.5 {
		t.Errorf("weight = %v, want 6.5", task.BaseWeight)
	}
	if task.EffortEstimate != 3 {
		t.Errorf("effort = %d, want 3", task.EffortEstimate)
	}
}

func TestAddCommand_Defaults(t *testing.T) {
	env := setupCLI(t)
	resetFlags(t, addCmd)

	captureStdout(t, func() {
		if err := addCmd.RunE(addCmd, []string{"Plain"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	task, err := env.mgr.GetTask("T-0001")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.BaseWeight != models.PriorityMedium.Weight() {
		t.Errorf("weight = %v, want default %v", task.BaseWeight, models.PriorityMedium.Weight())
	}
	if task.EffortEstimate != 1 {
		t.Errorf("effort = %d, want 1", task.EffortEstimate)
	}
	if task.DueAt != nil {
		t.Errorf("expected no due date, got %v", task.DueAt)
	}
}

func TestAddCommand_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
	}{
		{"unknown priority", map[string]string{"priority": "critical"}},
		{"negative weight", map[string]string{"weight": "-1"}},
		{"zero effort", map[string]string{"effort": "0"}},
		{"due in the past", map[string]string{"due": "2020-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupCLI(t)
			resetFlags(t, addCmd)
			for k, v := range tt.flags {
				setFlag(t, addCmd, k, v)
			}

			err := addCmd.RunE(addCmd, []string{"x"})
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			tasks, _ := env.mgr.ListTasks(core.TaskFilter{})
			if len(tasks) != 0 {
				t.Errorf("expected no task stored, got %d", len(tasks))
			}
		})
	}
}

func TestAddCommand_UnparsableDue(t *testing.T) {
	setupCLI(t)
	resetFlags(t, addCmd)
	setFlag(t, addCmd, "due", "next tuesday")

	err := addCmd.RunE(addCmd, []string{"x"})
	if err == nil || !strings.Contains(err.Error(), "--due") {
		t.Fatalf("expected --due parse error, got %v", err)
	}
}

// --- today ---

func TestTodayCommand_Empty(t *testing.T) {
	setupCLI(t)
	resetFlags(t, todayCmd)

	out := captureStdout(t, func() {
		if err := todayCmd.RunE(todayCmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Nothing to do right now") {
		t.Errorf("expected empty message, got %q", out)
	}
}

func TestTodayCommand_OrderAndLimit(t *testing.T) {
	env := setupCLI(t)
	resetFlags(t, todayCmd)
	env.addTask(t, "low", 2)
	env.addTask(t, "high", 9)
	env.addTask(t, "mid", 5)
	env.addTask(t, "lowest", 1)

	out := captureStdout(t, func() {
		if err := todayCmd.RunE(todayCmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if strings.Contains(out, "lowest") {
		t.Errorf("expected default limit to drop the fourth task, got %q", out)
	}
	hi, mid := strings.Index(out, "high"), strings.Index(out, "mid")
	if hi < 0 || mid < 0 || hi > mid {
		t.Errorf("expected high before mid, got %q", out)
	}

	out = captureStdout(t, func() {
		if err := todayCmd.RunE(todayCmd, []string{"1"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "high") || strings.Contains(out, "mid") {
		t.Errorf("expected only the top task, got %q", out)
	}
}

func TestTodayCommand_InvalidLimit(t *testing.T) {
	setupCLI(t)
	resetFlags(t, todayCmd)

	for _, arg := range []string{"0", "-2", "three"} {
		if err := todayCmd.RunE(todayCmd, []string{arg}); err == nil {
			t.Errorf("expected error for N=%q", arg)
		}
	}
}

func TestTodayCommand_JSON(t *testing.T) {
	env := setupCLI(t)
	resetFlags(t, todayCmd)
	setFlag(t, todayCmd, "json", "true")
	first := env.addTask(t, "first", 8)
	env.addTask(t, "second", 3)

	out := captureStdout(t, func() {
		if err := todayCmd.RunE(todayCmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	var list []rankedTaskJSON
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("unmarshalling JSON output: %v (%s)", err, out)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	if list[0].ID != first.ID || list[0].Rank != 1 {
		t.Errorf("unexpected first entry %+v", list[0])
	}
	if list[0].Score < list[1].Score {
		t.Errorf("expected descending scores, got %v then %v", list[0].Score, list[1].Score)
	}
}

func TestTodayCommand_Explain(t *testing.T) {
	env := setupCLI(t)
	resetFlags(t, todayCmd)
	setFlag(t, todayCmd, "explain", "true")
	env.addTask(t, "explained", 4)

	out := captureStdout(t, func() {
		if err := todayCmd.RunE(todayCmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "importance") || !strings.Contains(out, "urgency") {
		t.Errorf("expected score breakdown, got %q", out)
	}
}

// --- list / show ---

func TestListCommand_Filters(t *testing.T) {
	env := setupCLI(t)
	a := env.addTask(t, "alpha", 2)
	b := env.addTask(t, "bravo", 2)
	env.addTask(t, "charlie", 2)
	mustStatus(t, env, a.ID, models.StatusInProgress, models.StatusCompleted)
	mustStatus(t, env, b.ID, models.StatusDeferred)

	tests := []struct {
		name     string
		setup    func()
		contains []string
		excludes []string
	}{
		{
			name:     "default hides completed",
			setup:    func() {},
			contains: []string{"bravo", "charlie"},
			excludes: []string{"alpha"},
		},
		{
			name:     "all",
			setup:    func() { listAll = true },
			contains: []string{"alpha", "bravo", "charlie"},
		},
		{
			name:     "status",
			setup:    func() { listStatuses = []string{"deferred"} },
			contains: []string{"bravo"},
			excludes: []string{"alpha", "charlie"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t, listCmd)
			tt.setup()
			out := captureStdout(t, func() {
				if err := listCmd.RunE(listCmd, nil); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			})
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("expected %q in output %q", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("did not expect %q in output %q", s, out)
				}
			}
		})
	}
}

func TestListCommand_InvalidStatus(t *testing.T) {
	setupCLI(t)
	resetFlags(t, listCmd)
	listStatuses = []string{"blocked"}

	err := listCmd.RunE(listCmd, nil)
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestListCommand_Empty(t *testing.T) {
	setupCLI(t)
	resetFlags(t, listCmd)

	out := captureStdout(t, func() {
		if err := listCmd.RunE(listCmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "No tasks found.") {
		t.Errorf("expected empty message, got %q", out)
	}
}

func TestShowCommand(t *testing.T) {
	env := setupCLI(t)
	task := env.addTask(t, "inspect me", 4)

	out := captureStdout(t, func() {
		if err := showCmd.RunE(showCmd, []string{task.ID}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	for _, want := range []string{task.ID, "inspect me", "Weight:", "Score", "Total:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}

	err := showCmd.RunE(showCmd, []string{"T-9999"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// --- status transitions ---

func mustStatus(t *testing.T, env *cliEnv, id string, statuses ...models.TaskStatus) {
	t.Helper()
	for _, s := range statuses {
		if _, err := env.mgr.UpdateStatus(id, s); err != nil {
			t.Fatalf("UpdateStatus(%s, %s): %v", id, s, err)
		}
	}
}

func TestStatusCommands_Lifecycle(t *testing.T) {
	env := setupCLI(t)
	task := env.addTask(t, "cycle", 3)

	steps := []struct {
		name   string
		run    func() error
		want   models.TaskStatus
		output string
	}{
		{"start", func() error { return startCmd.RunE(startCmd, []string{task.ID}) }, models.StatusInProgress, "Started"},
		{"defer", func() error { return deferCmd.RunE(deferCmd, []string{task.ID}) }, models.StatusDeferred, "Deferred"},
		{"resume", func() error { return resumeCmd.RunE(resumeCmd, []string{task.ID}) }, models.StatusPending, "Resumed"},
		{"status", func() error { return statusCmd.RunE(statusCmd, []string{task.ID, "in-progress"}) }, models.StatusInProgress, "is now in_progress"},
		{"done", func() error { return doneCmd.RunE(doneCmd, []string{task.ID}) }, models.StatusCompleted, "Completed"},
	}
	for _, step := range steps {
		out := captureStdout(t, func() {
			if err := step.run(); err != nil {
				t.Fatalf("%s: unexpected error: %v", step.name, err)
			}
		})
		if !strings.Contains(out, step.output) {
			t.Errorf("%s: expected %q in output %q", step.name, step.output, out)
		}
		got, err := env.mgr.GetTask(task.ID)
		if err != nil {
			t.Fatalf("GetTask: %v", err)
		}
		if got.Status != step.want {
			t.Errorf("%s: status = %s, want %s", step.name, got.Status, step.want)
		}
	}
}

func TestStatusCommands_InvalidTransition(t *testing.T) {
	env := setupCLI(t)
	task := env.addTask(t, "pending", 3)

	err := doneCmd.RunE(doneCmd, []string{task.ID})
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("pending -> completed: expected ErrInvalidTransition, got %v", err)
	}
	err = resumeCmd.RunE(resumeCmd, []string{task.ID})
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("pending -> pending: expected ErrInvalidTransition, got %v", err)
	}
	err = statusCmd.RunE(statusCmd, []string{task.ID, "blocked"})
	if err == nil {
		t.Error("expected error for unknown status")
	}

	got, _ := env.mgr.GetTask(task.ID)
	if got.Status != models.StatusPending {
		t.Errorf("status changed to %s after rejected transitions", got.Status)
	}
}

// --- snooze ---

func TestSnoozeCommand(t *testing.T) {
	env := setupCLI(t)
	task := env.addTask(t, "later", 5)

	out := captureStdout(t, func() {
		if err := snoozeCmd.RunE(snoozeCmd, []string{task.ID, "2d"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Snoozed "+task.ID) {
		t.Errorf("expected snooze message, got %q", out)
	}

	got, _ := env.mgr.GetTask(task.ID)
	want := env.clock.Now().Add(48 * time.Hour)
	if got.SnoozeUntil == nil || !got.SnoozeUntil.Equal(want) {
		t.Errorf("snooze_until = %v, want %v", got.SnoozeUntil, want)
	}

	list, _ := env.mgr.TodayList(0)
	if len(list) != 0 {
		t.Errorf("expected snoozed task hidden from today, got %d entries", len(list))
	}

	captureStdout(t, func() {
		if err := unsnoozeCmd.RunE(unsnoozeCmd, []string{task.ID}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	list, _ = env.mgr.TodayList(0)
	if len(list) != 1 {
		t.Errorf("expected task back on the short list, got %d entries", len(list))
	}
}

func TestSnoozeCommand_BareDateIsStartOfDay(t *testing.T) {
	env := setupCLI(t)
	task := env.addTask(t, "later", 5)

	captureStdout(t, func() {
		if err := snoozeCmd.RunE(snoozeCmd, []string{task.ID, "2026-03-04"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	got, _ := env.mgr.GetTask(task.ID)
	want := time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local)
	if got.SnoozeUntil == nil || !got.SnoozeUntil.Equal(want) {
		t.Errorf("snooze_until = %v, want %v", got.SnoozeUntil, want)
	}
}

func TestSnoozeCommand_Rejected(t *testing.T) {
	env := setupCLI(t)
	task := env.addTask(t, "later", 5)

	err := snoozeCmd.RunE(snoozeCmd, []string{task.ID, "2020-01-01"})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("past snooze: expected ErrValidation, got %v", err)
	}
	err = snoozeCmd.RunE(snoozeCmd, []string{task.ID, "whenever"})
	if err == nil {
		t.Error("expected parse error")
	}
	err = snoozeCmd.RunE(snoozeCmd, []string{"T-9999", "1d"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown task: expected ErrNotFound, got %v", err)
	}
}

// --- edit / rm ---

func TestEditCommand(t *testing.T) {
	env := setupCLI(t)
	task := env.addTask(t, "draft", 2)

	resetFlags(t, editCmd)
	setFlag(t, editCmd, "title", "final")
	setFlag(t, editCmd, "priority", "high")
	setFlag(t, editCmd, "due", "3d")
	setFlag(t, editCmd, "tag", "work")

	out := captureStdout(t, func() {
		if err := editCmd.RunE(editCmd, []string{task.ID}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Updated "+task.ID) {
		t.Errorf("expected update message, got %q", out)
	}

	got, _ := env.mgr.GetTask(task.ID)
	if got.Title != "final" {
		t.Errorf("title = %q, want final", got.Title)
	}
	if got.BaseWeight != models.PriorityHigh.Weight() {
		t.Errorf("weight = %v, want %v", got.BaseWeight, models.PriorityHigh.Weight())
	}
	if want := env.clock.Now().Add(72 * time.Hour); got.DueAt == nil || !got.DueAt.Equal(want) {
		t.Errorf("due = %v, want %v", got.DueAt, want)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "work" {
		t.Errorf("tags = %v, want [work]", got.Tags)
	}

	resetFlags(t, editCmd)
	setFlag(t, editCmd, "no-due", "true")
	captureStdout(t, func() {
		if err := editCmd.RunE(editCmd, []string{task.ID}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	got, _ = env.mgr.GetTask(task.ID)
	if got.DueAt != nil {
		t.Errorf("expected due cleared, got %v", got.DueAt)
	}
}

func TestEditCommand_Rejected(t *testing.T) {
	env := setupCLI(t)
	task := env.addTask(t, "draft", 2)

	resetFlags(t, editCmd)
	err := editCmd.RunE(editCmd, []string{task.ID})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("no changes: expected ErrValidation, got %v", err)
	}

	setFlag(t, editCmd, "due", "1d")
	setFlag(t, editCmd, "no-due", "true")
	err = editCmd.RunE(editCmd, []string{task.ID})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("--due with --no-due: expected ErrValidation, got %v", err)
	}

	resetFlags(t, editCmd)
	setFlag(t, editCmd, "title", "   ")
	err = editCmd.RunE(editCmd, []string{task.ID})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("blank title: expected ErrValidation, got %v", err)
	}

	mustStatus(t, env, task.ID, models.StatusInProgress, models.StatusCompleted)
	resetFlags(t, editCmd)
	setFlag(t, editCmd, "title", "too late")
	err = editCmd.RunE(editCmd, []string{task.ID})
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("completed task: expected ErrInvalidTransition, got %v", err)
	}
}

func TestRmCommand(t *testing.T) {
	env := setupCLI(t)
	open := env.addTask(t, "open", 2)
	done := env.addTask(t, "done", 2)
	mustStatus(t, env, done.ID, models.StatusInProgress, models.StatusCompleted)

	resetFlags(t, rmCmd)
	err := rmCmd.RunE(rmCmd, []string{open.ID})
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected --force hint for open task, got %v", err)
	}

	out := captureStdout(t, func() {
		if err := rmCmd.RunE(rmCmd, []string{done.ID}); err != nil {
			t.Fatalf("unexpected error removing completed task: %v", err)
		}
	})
	if !strings.Contains(out, "Removed "+done.ID) {
		t.Errorf("expected removal message, got %q", out)
	}

	setFlag(t, rmCmd, "force", "true")
	captureStdout(t, func() {
		if err := rmCmd.RunE(rmCmd, []string{open.ID}); err != nil {
			t.Fatalf("unexpected error with --force: %v", err)
		}
	})

	if _, err := env.mgr.GetTask(open.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected removed task to be gone, got %v", err)
	}
}
