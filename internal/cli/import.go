package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/internal/storage"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <task_master.json>",
	Short: "Import tasks from a feed_me task_master.json file",
	Long: `Import every task from a feed_me task_master.json document. The file is
checked against its schema first; nothing is imported unless every record is
valid.

name becomes the title, deadline the due time, and priority 1-4 (or
LOW..URGENT) the weight of the matching level. Creation times are kept.
Datetimes without a zone are read in local time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}

		legacy, err := storage.LoadLegacyFile(args[0], time.Local)
		if err != nil {
			return err
		}
		inputs := legacyInputs(legacy, currentConfig().DefaultEffort)

		if importDryRun {
			fmt.Printf("%d task(s) would be imported:\n", len(inputs))
			for _, in := range inputs {
				fmt.Printf("  %-40s weight %-4g due %s\n", in.Title, in.BaseWeight, in.DueAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		}

		firstBootNote()
		tasks, err := TaskMgr.ImportTasks(inputs)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d task(s)\n", len(tasks))
		for _, t := range tasks {
			fmt.Printf("  %s %s\n", idStyle.Render(t.ID), t.Title)
		}
		return nil
	},
}

func legacyInputs(legacy []storage.LegacyTask, effort int) []core.TaskInput {
	if effort < 1 {
		effort = 1
	}
	inputs := make([]core.TaskInput, len(legacy))
	for i, lt := range legacy {
		due := lt.Deadline
		inputs[i] = core.TaskInput{
			Title:          lt.Name,
			Description:    lt.Description,
			BaseWeight:     lt.Priority.Weight(),
			EffortEstimate: effort,
			DueAt:          &due,
			CreatedAt:      lt.CreationTime,
			Tags:           []string{"imported"},
		}
	}
	return inputs
}

func init() {
	importCmd.Flags().BoolVarP(&importDryRun, "dry-run", "n", false, "Validate and list the tasks without importing them")
	rootCmd.AddCommand(importCmd)
}
