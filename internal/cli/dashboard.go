package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/pkg/models"
)

// Dashboard panel indices.
const (
	panelToday = iota
	panelTasks
	panelMetrics
	panelAlerts
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	today       []core.RankedTask
	taskCounts  map[models.TaskStatus]int
	metricsData *metricsSnapshot
	alerts      []alertSnapshot
	loadedAt    time.Time

	// State.
	loading bool
	err     error
}

type metricsSnapshot struct {
	tasksCreated   int
	tasksCompleted int
	focusCompleted int
	focusCancelled int
	eventCount     int
}

type alertSnapshot struct {
	severity string
	message  string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	today      []core.RankedTask
	taskCounts map[models.TaskStatus]int
	metrics    *metricsSnapshot
	alerts     []alertSnapshot
	loadedAt   time.Time
	err        error
}

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelToday,
		loading:     true,
		taskCounts:  make(map[models.TaskStatus]int),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.today = msg.today
		m.taskCounts = msg.taskCounts
		m.metricsData = msg.metrics
		m.alerts = msg.alerts
		m.loadedAt = msg.loadedAt
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" feedme ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	panels := []string{
		m.renderTodayPanel(),
		m.renderTasksPanel(),
		m.renderMetricsPanel(),
		m.renderAlertsPanel(),
	}

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Two columns: short list and alerts on the left, counts on the right.
		colWidth := availableWidth / 2
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], colWidth-4)
		}
		left := lipgloss.JoinVertical(lipgloss.Left, panels[panelToday], panels[panelAlerts])
		right := lipgloss.JoinVertical(lipgloss.Left, panels[panelTasks], panels[panelMetrics])
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	} else {
		panelWidth := max(availableWidth-4, 20)
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], panelWidth)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, panels...)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderTodayPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Today"))
	b.WriteString("\n")

	if len(m.today) == 0 {
		b.WriteString("  Nothing to do right now.")
		return b.String()
	}
	for i, rt := range m.today {
		b.WriteString(rankedLine(i+1, rt, m.loadedAt))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m dashboardModel) renderTasksPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Tasks"))
	b.WriteString("\n")

	if len(m.taskCounts) == 0 {
		b.WriteString("  No tasks found.")
		return b.String()
	}

	total := 0
	for _, status := range models.AllStatuses {
		count := m.taskCounts[status]
		total += count
		if count == 0 {
			continue
		}
		label := fmt.Sprintf("  %-14s %d", status, count)
		b.WriteString(styleForStatus(status).Render(label))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d", total))

	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Metrics (7d)"))
	b.WriteString("\n")

	if m.metricsData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metricsData
	lines := []struct {
		label string
		value int
	}{
		{"Events", md.eventCount},
		{"Created", md.tasksCreated},
		{"Completed", md.tasksCompleted},
		{"Focus done", md.focusCompleted},
		{"Cancelled", md.focusCancelled},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))

	return b.String()
}

func loadData() tea.Msg {
	result := dataLoadedMsg{
		taskCounts: make(map[models.TaskStatus]int),
		loadedAt:   now(),
	}

	if TaskMgr == nil {
		result.err = errTaskMgrNotInitialized
		return result
	}

	today, err := TaskMgr.TodayList(defaultLimit())
	if err != nil {
		result.err = fmt.Errorf("loading short list: %w", err)
		return result
	}
	result.today = today

	tasks, err := TaskMgr.ListTasks(core.TaskFilter{})
	if err != nil {
		result.err = fmt.Errorf("loading tasks: %w", err)
		return result
	}
	values := make([]models.Task, len(tasks))
	for i, t := range tasks {
		result.taskCounts[t.Status]++
		values[i] = *t
	}

	if MetricsCalc != nil {
		since := result.loadedAt.UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			tasksCreated:   metrics.TasksCreated,
			tasksCompleted: metrics.TasksCompleted,
			focusCompleted: metrics.FocusCompleted,
			focusCancelled: metrics.FocusCancelled,
			eventCount:     metrics.EventCount,
		}
	}

	if AlertEngine != nil {
		for _, a := range AlertEngine.Evaluate(values, result.loadedAt) {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
			})
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive overview of the short list, task counts, metrics and alerts",
	Long: `Launch an interactive terminal dashboard showing today's short list, task
counts by status, metrics from the last 7 days, and alerts.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
