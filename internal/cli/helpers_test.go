package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/internal/observability"
	"github.com/valter-silva-au/feedme/internal/storage"
	"github.com/valter-silva-au/feedme/pkg/models"
)

// captureStdout runs fn and returns everything it printed to os.Stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = origStdout

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	return string(out)
}

// testClock is a movable time source shared by the task manager, the event
// log and the CLI.
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// clockedEventLogger stamps events with the test clock so metrics and history
// see deterministic times.
type clockedEventLogger struct {
	log   observability.EventLog
	clock *testClock
}

func (l clockedEventLogger) LogEvent(eventType string, data map[string]any) error {
	return l.log.Write(observability.Event{
		Time:    l.clock.Now().UTC(),
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

type cliEnv struct {
	dir   string
	clock *testClock
	mgr   core.TaskManager
}

// setupCLI wires the package-level services to a real task manager over a
// temp directory and restores the previous values when the test ends.
func setupCLI(t *testing.T) *cliEnv {
	t.Helper()

	origBasePath, origConfig, origTaskMgr := BasePath, Config, TaskMgr
	origEventLog, origAlertEngine, origMetricsCalc := EventLog, AlertEngine, MetricsCalc
	origFirstBoot, origNow := FirstBoot, now
	t.Cleanup(func() {
		BasePath, Config, TaskMgr = origBasePath, origConfig, origTaskMgr
		EventLog, AlertEngine, MetricsCalc = origEventLog, origAlertEngine, origMetricsCalc
		FirstBoot, now = origFirstBoot, origNow
	})

	dir := t.TempDir()
	clock := &testClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)}
	cfg := core.DefaultGlobalConfig()

	evLog, err := observability.NewJSONLEventLog(filepath.Join(dir, observability.EventLogFileName))
	if err != nil {
		t.Fatalf("opening event log: %v", err)
	}
	t.Cleanup(func() { _ = evLog.Close() })

	mgr := core.NewTaskManager(*cfg, storage.NewTaskStore(dir), clockedEventLogger{log: evLog, clock: clock},
		core.AllowMissingStore(), core.WithManagerClock(clock.Now))

	BasePath = dir
	Config = cfg
	TaskMgr = mgr
	EventLog = evLog
	MetricsCalc = observability.NewMetricsCalculator(evLog)
	AlertEngine = observability.NewAlertEngine(cfg.Alerts)
	FirstBoot = false
	now = clock.Now

	return &cliEnv{dir: dir, clock: clock, mgr: mgr}
}

// addTask creates a task directly through the manager.
func (e *cliEnv) addTask(t *testing.T, title string, weight float64) *models.Task {
	t.Helper()
	task, err := e.mgr.CreateTask(core.TaskInput{Title: title, BaseWeight: weight, EffortEstimate: 1})
	if err != nil {
		t.Fatalf("CreateTask(%q): %v", title, err)
	}
	return task
}

// resetFlags puts every local flag of cmds back to its default and clears its
// changed state, now and again when the test ends.
func resetFlags(t *testing.T, cmds ...*cobra.Command) {
	t.Helper()
	reset := func() {
		for _, c := range cmds {
			c.Flags().VisitAll(func(f *pflag.Flag) {
				if sv, ok := f.Value.(pflag.SliceValue); ok {
					_ = sv.Replace(nil)
				} else {
					_ = f.Value.Set(f.DefValue)
				}
				f.Changed = false
			})
		}
	}
	reset()
	t.Cleanup(reset)
}

// setFlag sets a flag the way the command line would, so Changed reports true.
func setFlag(t *testing.T, cmd *cobra.Command, name, value string) {
	t.Helper()
	if err := cmd.Flags().Set(name, value); err != nil {
		t.Fatalf("setting --%s=%s: %v", name, value, err)
	}
}
