package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/pkg/models"
)

// completeTaskIDs returns a completion function that lists task IDs,
// optionally filtered to exclude certain statuses.
func completeTaskIDs(excludeStatuses ...models.TaskStatus) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if TaskMgr == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		tasks, err := TaskMgr.ListTasks(core.TaskFilter{})
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		exclude := make(map[models.TaskStatus]bool)
		for _, s := range excludeStatuses {
			exclude[s] = true
		}

		var ids []string
		for _, task := range tasks {
			if exclude[task.Status] {
				continue
			}
			if toComplete == "" || strings.HasPrefix(task.ID, toComplete) {
				ids = append(ids, task.ID+"\t"+task.Title)
			}
		}

		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

// completePriorities returns a completion function for priority values.
func completePriorities(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"low\tweight 2",
		"medium\tweight 4",
		"high\tweight 7",
		"urgent\tweight 10",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeStatuses returns a completion function for task status values.
func completeStatuses(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, len(models.AllStatuses))
	for i, s := range models.AllStatuses {
		out[i] = string(s)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
