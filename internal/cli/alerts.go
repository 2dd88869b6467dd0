package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/pkg/models"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show overdue, stale and backlog warnings",
	Long: `Evaluate alert conditions against the task list and display any triggered alerts.

Alerts check for overdue tasks, open tasks left untouched for longer than
alerts.stale_days, and a pending backlog larger than alerts.max_backlog_size.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized")
		}
		if err := requireTaskMgr(); err != nil {
			return err
		}

		tasks, err := TaskMgr.ListTasks(core.TaskFilter{})
		if err != nil {
			return err
		}
		values := make([]models.Task, len(tasks))
		for i, t := range tasks {
			values[i] = *t
		}

		alerts := AlertEngine.Evaluate(values, now())
		if len(alerts) == 0 {
			fmt.Println("No active alerts.")
			return nil
		}

		fmt.Printf("%d active alert(s):\n\n", len(alerts))
		for _, alert := range alerts {
			severity := strings.ToUpper(string(alert.Severity))
			fmt.Printf("  %s %s\n", styleForSeverity(string(alert.Severity)).Render("["+severity+"]"), alert.Message)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}
