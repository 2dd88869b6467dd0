package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/internal/storage"
	"github.com/valter-silva-au/feedme/pkg/models"
)

const (
	focusTickInterval = time.Second
	focusListLimit    = 5
	progressWidth     = 30
)

var (
	clockStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type focusModel struct {
	mgr     core.TaskManager
	watcher *fsnotify.Watcher

	status *core.SessionStatus
	list   []core.RankedTask
	cursor int

	message string
	err     error
	width   int
}

// focusTickMsg fires once per second to advance the session clock.
type focusTickMsg time.Time

// storeChangedMsg means tasks.yaml was rewritten, possibly by another process.
type storeChangedMsg struct{}

// focusStateMsg carries freshly loaded session state back to the model.
type focusStateMsg struct {
	status *core.SessionStatus
	list   []core.RankedTask
	change core.PhaseChange
	notice string
	err    error
}

func newFocusModel(mgr core.TaskManager, basePath string) focusModel {
	m := focusModel{mgr: mgr}
	if basePath == "" {
		return m
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debug("store watching disabled", "err", err)
		return m
	}
	// Watch the directory: atomic saves replace tasks.yaml by rename.
	if err := w.Add(basePath); err != nil {
		_ = w.Close()
		logger.Debug("store watching disabled", "err", err)
		return m
	}
	m.watcher = w
	return m
}

// Close stops watching the task store. It is safe to call more than once.
func (m focusModel) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}

func (m focusModel) Init() tea.Cmd {
	return tea.Batch(
		loadFocusState(m.mgr, core.PhaseChange{}, ""),
		focusTick(),
		waitForStoreChange(m.watcher),
	)
}

func focusTick() tea.Cmd {
	return tea.Tick(focusTickInterval, func(t time.Time) tea.Msg {
		return focusTickMsg(t)
	})
}

func waitForStoreChange(w *fsnotify.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != storage.TaskStoreFileName {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				return storeChangedMsg{}
			case _, ok := <-w.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func loadFocusState(mgr core.TaskManager, change core.PhaseChange, notice string) tea.Cmd {
	return func() tea.Msg {
		st, err := mgr.Session()
		if err != nil {
			return focusStateMsg{err: err}
		}
		list, err := mgr.TodayList(focusListLimit)
		if err != nil {
			return focusStateMsg{err: err}
		}
		return focusStateMsg{status: st, list: list, change: change, notice: notice}
	}
}

func advanceSession(mgr core.TaskManager, at time.Time) tea.Cmd {
	return func() tea.Msg {
		change, err := mgr.Tick(at)
		if err != nil {
			return focusStateMsg{err: err}
		}
		return loadFocusState(mgr, change, "")()
	}
}

// sessionAction runs a session operation and reloads state afterwards.
func sessionAction(mgr core.TaskManager, notice string, op func() error) tea.Cmd {
	return func() tea.Msg {
		if err := op(); err != nil {
			return focusStateMsg{err: err}
		}
		return loadFocusState(mgr, core.PhaseChange{}, notice)()
	}
}

func (m focusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case focusTickMsg:
		if m.status == nil || m.status.Session.Phase == models.PhaseIdle {
			return m, focusTick()
		}
		return m, tea.Batch(advanceSession(m.mgr, time.Time(msg)), focusTick())

	case storeChangedMsg:
		return m, tea.Batch(loadFocusState(m.mgr, core.PhaseChange{}, ""), waitForStoreChange(m.watcher))

	case focusStateMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = msg.status
		m.list = msg.list
		if m.cursor >= len(m.list) {
			m.cursor = max(len(m.list)-1, 0)
		}
		switch {
		case msg.change.Changed():
			m.message = describePhaseChange(msg.change)
		case msg.notice != "":
			m.message = msg.notice
		}
		return m, nil
	}
	return m, nil
}

func (m focusModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.list)-1 {
			m.cursor++
		}
	case "enter", "s":
		if len(m.list) == 0 {
			return m, nil
		}
		id := m.list[m.cursor].Task.ID
		return m, sessionAction(m.mgr, "Focusing on "+id, func() error {
			_, err := m.mgr.StartFocus(id)
			return err
		})
	case "b":
		return m, sessionAction(m.mgr, "Back to focus", func() error {
			_, err := m.mgr.EndBreak()
			return err
		})
	case "c":
		return m, sessionAction(m.mgr, "Session cancelled", func() error {
			_, err := m.mgr.CancelFocus()
			return err
		})
	case "r":
		return m, loadFocusState(m.mgr, core.PhaseChange{}, "")
	}
	return m, nil
}

func (m focusModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("feedme focus"))
	b.WriteString("\n\n")

	if m.status == nil {
		if m.err != nil {
			b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
			b.WriteString("\n")
		} else {
			b.WriteString("Loading...\n")
		}
		return b.String()
	}

	b.WriteString(activePanelStyle.Render(m.sessionPanel()))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render("Up next"))
	b.WriteString("\n")
	if len(m.list) == 0 {
		b.WriteString(helpStyle.Render("  nothing on the short list"))
		b.WriteString("\n")
	}
	ref := now()
	for i, rt := range m.list {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(prefix + strings.TrimLeft(rankedLine(i+1, rt, ref), " "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.message != "" {
		b.WriteString(m.message)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("enter: focus on selected  b: end break  c: cancel  r: refresh  q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m focusModel) sessionPanel() string {
	st := m.status
	s := st.Session
	if s.Phase == models.PhaseIdle {
		return fmt.Sprintf("Idle  %s", helpStyle.Render(fmt.Sprintf("%d focus phase(s) completed", s.CompletedFocusCount)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", styleForPhase(s.Phase).Render(phaseLabel(s.Phase)), clockStyle.Render(formatClock(st.Remaining)))
	b.WriteString(progressBar(st.Elapsed, st.PhaseLength))
	if st.ActiveTask != nil {
		fmt.Fprintf(&b, "\n%s %s", idStyle.Render(st.ActiveTask.ID), st.ActiveTask.Title)
	}
	fmt.Fprintf(&b, "\n%s", helpStyle.Render(fmt.Sprintf("%d focus phase(s) completed", s.CompletedFocusCount)))
	return b.String()
}

func styleForPhase(p models.Phase) lipgloss.Style {
	switch p {
	case models.PhaseFocus:
		return statusInProgress.Bold(true)
	case models.PhaseShortBreak, models.PhaseLongBreak:
		return statusCompleted.Bold(true)
	default:
		return lipgloss.NewStyle()
	}
}

func progressBar(elapsed, total time.Duration) string {
	if total <= 0 {
		return ""
	}
	filled := int(float64(progressWidth) * float64(elapsed) / float64(total))
	filled = min(max(filled, 0), progressWidth)
	return scoreStyle.Render(strings.Repeat("█", filled)) + helpStyle.Render(strings.Repeat("░", progressWidth-filled))
}
