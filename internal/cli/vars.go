package cli

import (
	"time"

	"github.com/valter-silva-au/feedme/internal/core"
	"github.com/valter-silva-au/feedme/internal/observability"
	"github.com/valter-silva-au/feedme/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *models.GlobalConfig
	TaskMgr  core.TaskManager

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator

	// FirstBoot is true when no task store exists yet.
	FirstBoot bool
)

// now is the clock used for parsing relative times and evaluating alerts.
var now = time.Now

func requireTaskMgr() error {
	if TaskMgr == nil {
		return errTaskMgrNotInitialized
	}
	return nil
}

func defaultLimit() int {
	if Config != nil && Config.DefaultLimit > 0 {
		return Config.DefaultLimit
	}
	return core.DefaultLimit
}

func currentConfig() models.GlobalConfig {
	if Config != nil {
		return *Config
	}
	return *core.DefaultGlobalConfig()
}
