package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	todayJSON    bool
	todayExplain bool
)

var todayCmd = &cobra.Command{
	Use:     "today [N]",
	Aliases: []string{"serve"},
	Short:   "Show today's short list",
	Long: `Show the highest-scoring tasks you can work on right now, at most N of them
(default from defaults.limit in .feedmeconfig).

Deferred, completed and snoozed tasks are left out. The task you are focusing
on is always listed first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		firstBootNote()

		limit := defaultLimit()
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("N must be a positive integer, got %q", args[0])
			}
			limit = n
		}

		list, err := TaskMgr.TodayList(limit)
		if err != nil {
			return err
		}

		if todayJSON {
			out := make([]rankedTaskJSON, len(list))
			for i, rt := range list {
				out[i] = rankedTaskJSON{Rank: i + 1, ID: rt.Task.ID, Title: rt.Task.Title, Score: rt.Score, Pinned: rt.Pinned}
				if rt.Task.DueAt != nil {
					due := rt.Task.DueAt.Local().Format(time.RFC3339)
					out[i].DueAt = &due
				}
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting short list as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(list) == 0 {
			fmt.Println("Nothing to do right now. Add a task with: feedme add <title>")
			return nil
		}

		ref := now()
		fmt.Println(titleStyle.Render("Today"))
		for i, rt := range list {
			fmt.Println(rankedLine(i+1, rt, ref))
			if todayExplain {
				b, err := TaskMgr.Breakdown(rt.Task.ID)
				if err != nil {
					return err
				}
				fmt.Println(helpStyle.Render(fmt.Sprintf("      urgency %.2f  importance %.2f  staleness %.2f  x%.2f",
					b.Urgency, b.Importance, b.Staleness, b.EffortMultiplier)))
			}
		}
		return nil
	},
}

type rankedTaskJSON struct {
	Rank   int     `json:"rank"`
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
	Pinned bool    `json:"pinned,omitempty"`
	DueAt  *string `json:"due_at,omitempty"`
}

func init() {
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "Output the short list as JSON")
	todayCmd.Flags().BoolVar(&todayExplain, "explain", false, "Show how each score is made up")
	rootCmd.AddCommand(todayCmd)
}
