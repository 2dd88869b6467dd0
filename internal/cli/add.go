package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/pkg/models"
)

var (
	addDescription string
	addDue         string
	addPriority    string
	addWeight      float64
	addEffort      int
	addTags        []string
)

var addCmd = &cobra.Command{
	Use:   "add <title...>",
	Short: "Add a task",
	Long: `Add a pending task. The title is every positional argument joined by spaces.

Importance comes from --priority (low, medium, high, urgent) or an explicit
--weight. --due accepts offsets like 4h or 3d, "tomorrow", or a date; a bare
date means the end of that day.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		firstBootNote()

		in, err := buildTaskInput(cmd, strings.Join(args, " "))
		if err != nil {
			return err
		}

		task, err := TaskMgr.CreateTask(in)
		if err != nil {
			return err
		}
		logger.Debug("task created", "id", task.ID, "weight", task.BaseWeight, "effort", task.EffortEstimate)

		fmt.Printf("Created task %s\n", task.ID)
		fmt.Printf("  Title:  %s\n", task.Title)
		fmt.Printf("  Weight: %g\n", task.BaseWeight)
		if task.DueAt != nil {
			fmt.Printf("  Due:    %s\n", task.DueAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func buildTaskInput(cmd *cobra.Command, title string) (core.TaskInput, error) {
	cfg := currentConfig()
	in := core.TaskInput{
		Title:          title,
		Description:    addDescription,
		EffortEstimate: cfg.DefaultEffort,
		Tags:           addTags,
	}

	weight, err := resolveWeight(cmd, addPriority, addWeight, cfg.DefaultPriority)
	if err != nil {
		return core.TaskInput{}, err
	}
	in.BaseWeight = weight

	if cmd.Flags().Changed("effort") {
		in.EffortEstimate = addEffort
	}

	if addDue != "" {
		due, err := parseWhen(addDue, now(), endOfDay)
		if err != nil {
			return core.TaskInput{}, fmt.Errorf("parsing --due: %w", err)
		}
		in.DueAt = &due
	}
	return in, nil
}

// resolveWeight picks --weight when set, else the --priority level, else the
// configured default priority.
func resolveWeight(cmd *cobra.Command, priority string, weight float64, fallback models.Priority) (float64, error) {
	if cmd.Flags().Changed("weight") {
		return weight, nil
	}
	if priority != "" {
		p, err := models.ParsePriority(priority)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", core.ErrValidation, err)
		}
		return p.Weight(), nil
	}
	if fallback.Valid() {
		return fallback.Weight(), nil
	}
	return models.PriorityMedium.Weight(), nil
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "desc", "d", "", "Longer description")
	addCmd.Flags().StringVar(&addDue, "due", "", "Deadline (e.g. 4h, 3d, tomorrow, 2026-05-01 17:00)")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "Priority: low, medium, high, urgent")
	addCmd.Flags().Float64VarP(&addWeight, "weight", "w", 0, "Explicit base weight (overrides --priority)")
	addCmd.Flags().IntVarP(&addEffort, "effort", "e", 1, "Estimated effort in pomodoros")
	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "Tag (repeatable)")
	_ = addCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	rootCmd.AddCommand(addCmd)
}
