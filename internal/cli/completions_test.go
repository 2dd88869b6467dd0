package cli

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/pkg/models"
)

func TestCompleteTaskIDs_NilTaskMgr(t *testing.T) {
	setupCLI(t)
	TaskMgr = nil

	ids, directive := completeTaskIDs()(&cobra.Command{}, nil, "")
	if ids != nil {
		t.Errorf("expected nil ids, got %v", ids)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected NoFileComp directive, got %d", directive)
	}
}

func TestCompleteTaskIDs_ReturnsTasksWithTitles(t *testing.T) {
	env := setupCLI(t)
	a := env.addTask(t, "write report", 4)
	b := env.addTask(t, "call bank", 2)

	ids, directive := completeTaskIDs()(&cobra.Command{}, nil, "")
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected NoFileComp directive, got %d", directive)
	}
	want := map[string]bool{a.ID + "\twrite report": true, b.ID + "\tcall bank": true}
	if len(ids) != len(want) {
		t.Fatalf("expected %d completions, got %v", len(want), ids)
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected completion %q", id)
		}
	}
}

func TestCompleteTaskIDs_ExcludesStatuses(t *testing.T) {
	env := setupCLI(t)
	done := env.addTask(t, "done", 4)
	open := env.addTask(t, "open", 2)
	mustStatus(t, env, done.ID, models.StatusInProgress, models.StatusCompleted)

	ids, _ := completeTaskIDs(models.StatusCompleted)(&cobra.Command{}, nil, "")
	if len(ids) != 1 || !strings.HasPrefix(ids[0], open.ID+"\t") {
		t.Errorf("expected only %s, got %v", open.ID, ids)
	}
}

func TestCompleteTaskIDs_PrefixFilter(t *testing.T) {
	env := setupCLI(t)
	for i := 0; i < 11; i++ {
		env.addTask(t, "task", 1)
	}

	ids, _ := completeTaskIDs()(&cobra.Command{}, nil, "T-001")
	if len(ids) != 2 {
		t.Fatalf("expected T-0010 and T-0011, got %v", ids)
	}
	for _, id := range ids {
		if !strings.HasPrefix(id, "T-001") {
			t.Errorf("completion %q does not match prefix", id)
		}
	}

	ids, _ = completeTaskIDs()(&cobra.Command{}, nil, "X-")
	if len(ids) != 0 {
		t.Errorf("expected no completions for unknown prefix, got %v", ids)
	}
}

func TestCompletePriorities(t *testing.T) {
	vals, directive := completePriorities(&cobra.Command{}, nil, "")
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected NoFileComp directive, got %d", directive)
	}
	if len(vals) != 4 {
		t.Fatalf("expected 4 priorities, got %v", vals)
	}
	for _, v := range vals {
		name := strings.SplitN(v, "\t", 2)[0]
		if _, err := models.ParsePriority(name); err != nil {
			t.Errorf("completion %q is not a valid priority: %v", v, err)
		}
	}
}

func TestCompleteStatuses(t *testing.T) {
	vals, _ := completeStatuses(&cobra.Command{}, nil, "")
	if len(vals) != len(models.AllStatuses) {
		t.Fatalf("expected %d statuses, got %v", len(models.AllStatuses), vals)
	}
	for _, v := range vals {
		if !models.TaskStatus(v).Valid() {
			t.Errorf("completion %q is not a valid status", v)
		}
	}
}
