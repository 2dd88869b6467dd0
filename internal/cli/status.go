package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/pkg/models"
)

// newStatusCmd builds a command that moves one task to target.
func newStatusCmd(use, short, verb string, target models.TaskStatus, aliases ...string) *cobra.Command {
	return &cobra.Command{
		Use:               use + " <task-id>",
		Aliases:           aliases,
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTaskIDs(models.StatusCompleted),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTaskMgr(); err != nil {
				return err
			}
			task, err := TaskMgr.UpdateStatus(args[0], target)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s: %s\n", verb, task.ID, task.Title)
			return nil
		},
	}
}

var (
	startCmd  = newStatusCmd("start", "Mark a pending task in progress", "Started", models.StatusInProgress)
	doneCmd   = newStatusCmd("done", "Mark an in-progress task completed", "Completed", models.StatusCompleted, "complete")
	deferCmd  = newStatusCmd("defer", "Set a task aside; it leaves the short list", "Deferred", models.StatusDeferred)
	resumeCmd = newStatusCmd("resume", "Bring a deferred task back to pending", "Resumed", models.StatusPending)
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Move a task to any allowed status",
	Long: `Move a task along one of the allowed status edges:

  pending     -> in_progress, deferred
  in_progress -> completed, deferred
  deferred    -> pending

Completed is final.`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return completeTaskIDs(models.StatusCompleted)(cmd, args, toComplete)
		}
		return completeStatuses(cmd, args, toComplete)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		status, err := models.ParseTaskStatus(args[1])
		if err != nil {
			return err
		}
		task, err := TaskMgr.UpdateStatus(args[0], status)
		if err != nil {
			return err
		}
		fmt.Printf("Task %s is now %s\n", task.ID, task.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd, doneCmd, deferCmd, resumeCmd, statusCmd)
}
