package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/pkg/models"
)

var (
	listStatuses []string
	listTag      string
	listAll      bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks oldest first. Completed tasks are hidden unless --all is given
or --status asks for them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}

		filter := core.TaskFilter{Tag: listTag}
		for _, s := range listStatuses {
			status, err := models.ParseTaskStatus(s)
			if err != nil {
				return fmt.Errorf("%w: %v", core.ErrValidation, err)
			}
			filter.Status = append(filter.Status, status)
		}
		if len(filter.Status) == 0 && !listAll {
			filter.Status = []models.TaskStatus{models.StatusInProgress, models.StatusPending, models.StatusDeferred}
		}

		tasks, err := TaskMgr.ListTasks(filter)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		ref := now()
		for _, t := range tasks {
			fmt.Println(taskLine(t, ref))
		}
		fmt.Printf("\n%d task(s)\n", len(tasks))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:               "show <task-id>",
	Short:             "Show a task and how it scores",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}

		task, err := TaskMgr.GetTask(args[0])
		if err != nil {
			return err
		}
		printTaskDetail(task, now())

		b, err := TaskMgr.Breakdown(task.ID)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(headerStyle.Render("Score"))
		fmt.Printf("  %-12s %.3f\n", "Urgency:", b.Urgency)
		fmt.Printf("  %-12s %.3f\n", "Importance:", b.Importance)
		fmt.Printf("  %-12s %.3f\n", "Staleness:", b.Staleness)
		fmt.Printf("  %-12s x%.3f\n", "Effort:", b.EffortMultiplier)
		fmt.Printf("  %-12s %s\n", "Total:", scoreStyle.Render(fmt.Sprintf("%.3f", b.Total)))
		return nil
	},
}

func init() {
	listCmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by status (repeatable)")
	listCmd.Flags().StringVarP(&listTag, "tag", "t", "", "Filter by tag")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include completed tasks")
	_ = listCmd.RegisterFlagCompletionFunc("status", completeStatuses)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}
