package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/pkg/models"
)

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	pinnedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	statusInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusPending    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	statusDeferred   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusCompleted  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func styleForStatus(status models.TaskStatus) lipgloss.Style {
	switch status {
	case models.StatusInProgress:
		return statusInProgress
	case models.StatusPending:
		return statusPending
	case models.StatusDeferred:
		return statusDeferred
	case models.StatusCompleted:
		return statusCompleted
	default:
		return lipgloss.NewStyle()
	}
}

func styleForSeverity(severity string) lipgloss.Style {
	switch severity {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

// dueLabel renders a deadline relative to ref, highlighted once overdue.
func dueLabel(t models.Task, ref time.Time) string {
	if t.DueAt == nil {
		return ""
	}
	label := "due " + formatRelative(*t.DueAt, ref)
	if t.OverdueAt(ref) {
		return overdueStyle.Render("overdue " + formatRelative(*t.DueAt, ref))
	}
	return dueStyle.Render(label)
}

// rankedLine renders one short-list entry.
func rankedLine(rank int, rt core.RankedTask, ref time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%2d. %s %s", rank, idStyle.Render(rt.Task.ID), rt.Task.Title)
	if rt.Pinned {
		b.WriteString(" " + pinnedStyle.Render("[focus]"))
	}
	if due := dueLabel(rt.Task, ref); due != "" {
		b.WriteString("  " + due)
	}
	b.WriteString("  " + scoreStyle.Render(fmt.Sprintf("%.2f", rt.Score)))
	return b.String()
}

// taskLine renders one row of a task listing.
func taskLine(t *models.Task, ref time.Time) string {
	status := styleForStatus(t.Status).Render(fmt.Sprintf("%-11s", t.Status))
	line := fmt.Sprintf("  %s  %s  %s", idStyle.Render(t.ID), status, t.Title)
	if due := dueLabel(*t, ref); due != "" {
		line += "  " + due
	}
	if t.SnoozedAt(ref) {
		line += "  " + helpStyle.Render("snoozed until "+t.SnoozeUntil.Local().Format("2006-01-02 15:04"))
	}
	if len(t.Tags) > 0 {
		line += "  " + helpStyle.Render("#"+strings.Join(t.Tags, " #"))
	}
	return line
}

// printTaskDetail prints every field of a task.
func printTaskDetail(t *models.Task, ref time.Time) {
	fmt.Printf("%s %s\n", idStyle.Render(t.ID), headerStyle.Render(t.Title))
	fmt.Printf("  %-12s %s\n", "Status:", styleForStatus(t.Status).Render(string(t.Status)))
	if t.Description != "" {
		fmt.Printf("  %-12s %s\n", "Description:", t.Description)
	}
	fmt.Printf("  %-12s %g\n", "Weight:", t.BaseWeight)
	fmt.Printf("  %-12s %d\n", "Effort:", t.EffortEstimate)
	fmt.Printf("  %-12s %s\n", "Created:", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	if t.DueAt != nil {
		fmt.Printf("  %-12s %s (%s)\n", "Due:", t.DueAt.Local().Format("2006-01-02 15:04"), dueLabel(*t, ref))
	}
	fmt.Printf("  %-12s %s\n", "Touched:", t.LastTouchedAt.Local().Format("2006-01-02 15:04"))
	if t.SnoozedAt(ref) {
		fmt.Printf("  %-12s %s\n", "Snoozed:", t.SnoozeUntil.Local().Format("2006-01-02 15:04"))
	}
	if t.Pomodoros > 0 {
		fmt.Printf("  %-12s %d\n", "Pomodoros:", t.Pomodoros)
	}
	if len(t.Tags) > 0 {
		fmt.Printf("  %-12s %s\n", "Tags:", strings.Join(t.Tags, ", "))
	}
}
