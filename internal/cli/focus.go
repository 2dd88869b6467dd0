package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/pkg/models"
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Work on a task in pomodoro focus sessions",
	Long: `Without a subcommand, open the live focus view: a timer for the current
phase that advances focus and breaks on its own and reloads when the task
store changes.

Subcommands drive the session one step at a time, for scripts and status
bars.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		m := newFocusModel(TaskMgr, BasePath)
		defer m.Close()
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	},
}

var focusStartCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start a focus phase (defaults to the top of the short list)",
	Long: `Start a focus phase on a task. Starting from idle or from a break is
allowed; a pending task is moved to in_progress. Without a task id the top of
today's short list is used.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeTaskIDs(models.StatusCompleted, models.StatusDeferred),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		taskID := ""
		if len(args) == 1 {
			taskID = args[0]
		} else {
			list, err := TaskMgr.TodayList(1)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return errors.New("nothing on the short list to focus on")
			}
			taskID = list[0].Task.ID
		}

		st, err := TaskMgr.StartFocus(taskID)
		if err != nil {
			return err
		}
		printSessionStatus(st)
		return nil
	},
}

var focusTickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Advance the session if the current phase has run out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		change, err := TaskMgr.Tick(now())
		if err != nil {
			return err
		}
		if !change.Changed() {
			fmt.Println("No change.")
			return nil
		}
		fmt.Println(describePhaseChange(change))
		return nil
	},
}

var focusBreakCmd = &cobra.Command{
	Use:   "break",
	Short: "End the current break early and go back to focus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		st, err := TaskMgr.EndBreak()
		if err != nil {
			return err
		}
		printSessionStatus(st)
		return nil
	},
}

var focusCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Abandon the session without counting the current phase",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		if _, err := TaskMgr.CancelFocus(); err != nil {
			return err
		}
		fmt.Println("Session cancelled.")
		return nil
	},
}

var focusStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current phase and time left",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		st, err := TaskMgr.Session()
		if err != nil {
			return err
		}
		printSessionStatus(st)
		return nil
	},
}

func printSessionStatus(st *core.SessionStatus) {
	s := st.Session
	if s.Phase == models.PhaseIdle {
		fmt.Printf("Idle (%d focus phase(s) completed)\n", s.CompletedFocusCount)
		return
	}
	fmt.Printf("%s  %s left of %s\n", phaseLabel(s.Phase), formatClock(st.Remaining), formatClock(st.PhaseLength))
	if st.ActiveTask != nil {
		fmt.Printf("  Task: %s %s\n", st.ActiveTask.ID, st.ActiveTask.Title)
	} else if s.ActiveTaskID != "" {
		fmt.Printf("  Task: %s (no longer exists)\n", s.ActiveTaskID)
	}
	fmt.Printf("  Completed focus phases: %d\n", s.CompletedFocusCount)
}

func phaseLabel(p models.Phase) string {
	switch p {
	case models.PhaseFocus:
		return "Focus"
	case models.PhaseShortBreak:
		return "Short break"
	case models.PhaseLongBreak:
		return "Long break"
	default:
		return "Idle"
	}
}

func describePhaseChange(c core.PhaseChange) string {
	switch {
	case c.FocusCompleted:
		return fmt.Sprintf("Focus on %s complete. %s started.", c.TaskID, phaseLabel(c.To))
	case c.To == models.PhaseFocus:
		return fmt.Sprintf("Break over. Focus on %s started.", c.TaskID)
	case c.To == models.PhaseIdle:
		return "Session ended: the active task is no longer workable."
	default:
		return fmt.Sprintf("%s -> %s", phaseLabel(c.From), phaseLabel(c.To))
	}
}

func init() {
	focusCmd.AddCommand(focusStartCmd, focusTickCmd, focusBreakCmd, focusCancelCmd, focusStatusCmd)
	rootCmd.AddCommand(focusCmd)
}
