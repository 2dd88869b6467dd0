package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/pkg/models"
)

var snoozeCmd = &cobra.Command{
	Use:   "snooze <task-id> <until>",
	Short: "Hide a task from the short list until a later time",
	Long: `Hide a task from the short list until the given time. <until> accepts
offsets like 4h or 3d, "tomorrow", or a date; a bare date means the start of
that day. Snoozing again replaces the earlier snooze.`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeTaskIDs(models.StatusCompleted),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		until, err := parseWhen(args[1], now(), startOfDay)
		if err != nil {
			return fmt.Errorf("parsing <until>: %w", err)
		}
		task, err := TaskMgr.Snooze(args[0], until)
		if err != nil {
			return err
		}
		fmt.Printf("Snoozed %s until %s\n", task.ID, task.SnoozeUntil.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var unsnoozeCmd = &cobra.Command{
	Use:               "unsnooze <task-id>",
	Short:             "Clear a task's snooze",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs(models.StatusCompleted),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		task, err := TaskMgr.Unsnooze(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Unsnoozed %s\n", task.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snoozeCmd, unsnoozeCmd)
}
