package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/pkg/models"
)

var (
	editTitle       string
	editDescription string
	editDue         string
	editNoDue       bool
	editPriority    string
	editWeight      float64
	editEffort      int
	editTags        []string
)

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Change a task's title, deadline, weight, effort or tags",
	Long: `Change the descriptive fields of an open task. Only the flags you pass are
changed. Completed tasks cannot be edited.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs(models.StatusCompleted),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		edit, err := buildTaskEdit(cmd)
		if err != nil {
			return err
		}
		task, err := TaskMgr.EditTask(args[0], edit)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", task.ID)
		printTaskDetail(task, now())
		return nil
	},
}

func buildTaskEdit(cmd *cobra.Command) (core.TaskEdit, error) {
	var edit core.TaskEdit
	flags := cmd.Flags()
	changed := false

	if flags.Changed("title") {
		edit.Title = &editTitle
		changed = true
	}
	if flags.Changed("desc") {
		edit.Description = &editDescription
		changed = true
	}
	if flags.Changed("weight") || flags.Changed("priority") {
		w, err := resolveWeight(cmd, editPriority, editWeight, "")
		if err != nil {
			return core.TaskEdit{}, err
		}
		edit.BaseWeight = &w
		changed = true
	}
	if flags.Changed("effort") {
		edit.EffortEstimate = &editEffort
		changed = true
	}
	if editNoDue && editDue != "" {
		return core.TaskEdit{}, fmt.Errorf("%w: --due and --no-due are mutually exclusive", core.ErrValidation)
	}
	if editNoDue {
		edit.ClearDue = true
		changed = true
	}
	if editDue != "" {
		due, err := parseWhen(editDue, now(), endOfDay)
		if err != nil {
			return core.TaskEdit{}, fmt.Errorf("parsing --due: %w", err)
		}
		edit.DueAt = &due
		changed = true
	}
	if flags.Changed("tag") {
		edit.Tags = editTags
		if edit.Tags == nil {
			edit.Tags = []string{}
		}
		changed = true
	}

	if !changed {
		return core.TaskEdit{}, fmt.Errorf("%w: nothing to change (see feedme edit --help)", core.ErrValidation)
	}
	return edit, nil
}

var rmForce bool

var rmCmd = &cobra.Command{
	Use:               "rm <task-id>",
	Aliases:           []string{"remove"},
	Short:             "Delete a task",
	Long:              `Delete a task record. Open tasks need --force; completed tasks do not.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		if !rmForce {
			task, err := TaskMgr.GetTask(args[0])
			if err != nil {
				return err
			}
			if task.Open() {
				return fmt.Errorf("task %s is %s; use --force to delete it", task.ID, task.Status)
			}
		}
		task, err := TaskMgr.RemoveTask(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Removed %s: %s\n", task.ID, task.Title)
		return nil
	},
}

func init() {
	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVarP(&editDescription, "desc", "d", "", "New description")
	editCmd.Flags().StringVar(&editDue, "due", "", "New deadline")
	editCmd.Flags().BoolVar(&editNoDue, "no-due", false, "Remove the deadline")
	editCmd.Flags().StringVarP(&editPriority, "priority", "p", "", "New priority: low, medium, high, urgent")
	editCmd.Flags().Float64VarP(&editWeight, "weight", "w", 0, "New base weight")
	editCmd.Flags().IntVarP(&editEffort, "effort", "e", 1, "New effort estimate in pomodoros")
	editCmd.Flags().StringSliceVarP(&editTags, "tag", "t", nil, "Replace tags (repeatable)")
	_ = editCmd.RegisterFlagCompletionFunc("priority", completePriorities)

	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Delete even if the task is still open")

	rootCmd.AddCommand(editCmd, rmCmd)
}
