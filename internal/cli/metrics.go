package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display task and focus metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include tasks created, completed, deferred and removed, focus phases
started, completed and cancelled, and completions per day.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Tasks created:", metrics.TasksCreated)
		fmt.Printf("  %-24s %d\n", "Tasks completed:", metrics.TasksCompleted)
		fmt.Printf("  %-24s %d\n", "Tasks deferred:", metrics.TasksDeferred)
		fmt.Printf("  %-24s %d\n", "Tasks snoozed:", metrics.TasksSnoozed)
		fmt.Printf("  %-24s %d\n", "Tasks removed:", metrics.TasksRemoved)
		fmt.Printf("  %-24s %d\n", "Focus phases started:", metrics.FocusStarted)
		fmt.Printf("  %-24s %d\n", "Focus phases completed:", metrics.FocusCompleted)
		fmt.Printf("  %-24s %d\n", "Focus phases cancelled:", metrics.FocusCancelled)
		fmt.Printf("  %-24s %.0f%%\n", "Focus completion rate:", metrics.CompletionRate()*100)

		if len(metrics.CompletedByDay) > 0 {
			fmt.Println("\n  Completed by day:")
			for _, day := range sortedKeys(metrics.CompletedByDay) {
				fmt.Printf("    %-20s %d\n", day+":", metrics.CompletedByDay[day])
			}
		}

		if len(metrics.FocusByTask) > 0 {
			fmt.Println("\n  Focus phases by task:")
			for _, id := range sortedKeys(metrics.FocusByTask) {
				fmt.Printf("    %-20s %d\n", id+":", metrics.FocusByTask[id])
			}
		}

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	ref := now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return ref.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return ref.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return ref.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
