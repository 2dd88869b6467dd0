// Package internal provides the App struct that wires all components of
// feedme together and initializes the CLI layer.
package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/feedme/internal/cli"
	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/internal/observability"
	"github.com/valter-silva-au/feedme/internal/storage"
	"github.com/valter-silva-au/feedme/pkg/models"
)

// HomeEnv overrides base path discovery.
const HomeEnv = "FEEDME_HOME"

// App holds all service dependencies for feedme.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Storage layer
	Store storage.TaskStore

	// Core services
	TaskMgr core.TaskManager

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components. basePath is the directory holding
// .feedmeconfig, tasks.yaml and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	globalCfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(globalCfg); err != nil {
		return nil, err
	}
	app.Config = globalCfg

	// --- Storage layer ---
	app.Store = storage.NewTaskStore(basePath)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, observability.EventLogFileName)
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable the event log if it can't be created.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	app.AlertEngine = observability.NewAlertEngine(globalCfg.Alerts)

	// --- Core services ---
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}
	app.TaskMgr = core.NewTaskManager(*globalCfg, app.Store, evtAdapter, core.AllowMissingStore())

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = globalCfg
	cli.TaskMgr = app.TaskMgr
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.FirstBoot = !app.Store.Exists()
	cli.SetLogLevel(globalCfg.LogLevel)

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the feedme data directory: FEEDME_HOME if set,
// else the nearest ancestor of the working directory holding .feedmeconfig,
// else ~/.feedme if it exists, else the working directory.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
	// Walk up to find a directory containing .feedmeconfig.
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if userHome, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(userHome, ".feedme")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   eventLevel(eventType),
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

func eventLevel(eventType string) string {
	switch eventType {
	case models.EventFocusCancelled, models.EventTaskRemoved:
		return "WARN"
	default:
		return "INFO"
	}
}

// IsConfigError reports whether err came from configuration validation.
func IsConfigError(err error) bool {
	return errors.Is(err, core.ErrValidation)
}
