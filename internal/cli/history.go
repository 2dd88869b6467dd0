package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/internal/observability"
)

var (
	historyLast  int
	historyTypes []string
	historySince string
)

var historyCmd = &cobra.Command{
	Use:   "history [task-id]",
	Short: "Show recent events from the event log",
	Long: `Show events from the event log, newest last. Pass a task id to see only that
task's history.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized")
		}

		filter := observability.EventFilter{Types: historyTypes, Last: historyLast}
		if len(args) == 1 {
			filter.TaskID = args[0]
		}
		if historySince != "" {
			since, err := parseSinceDuration(historySince)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No events.")
			return nil
		}

		for _, e := range events {
			fmt.Printf("%s  %-20s %s\n", e.Time.Local().Format("2006-01-02 15:04:05"), e.Type, formatEventData(e.Data))
		}
		return nil
	},
}

// formatEventData renders event data as sorted key=value pairs.
func formatEventData(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}

func init() {
	historyCmd.Flags().IntVarP(&historyLast, "last", "n", 20, "Show only the newest N events (0 for all)")
	historyCmd.Flags().StringSliceVar(&historyTypes, "type", nil, "Only events of this type (repeatable)")
	historyCmd.Flags().StringVar(&historySince, "since", "", "Only events newer than this (e.g. 7d, 24h)")
	rootCmd.AddCommand(historyCmd)
}
