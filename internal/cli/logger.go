package cli

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"
)

var errTaskMgrNotInitialized = errors.New("task manager not initialized")

// logger writes diagnostics to stderr so stdout stays clean for piping.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	Level:           log.InfoLevel,
	Formatter:       log.TextFormatter,
	ReportTimestamp: false,
	Prefix:          "feedme",
})

// SetLogLevel sets the diagnostic level from a config value such as "debug".
// Unknown levels leave the current level unchanged.
func SetLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.Warn("ignoring unknown log level", "level", level)
		return
	}
	logger.SetLevel(lvl)
}

// firstBootNote tells a new user where the task store will be created.
func firstBootNote() {
	if !FirstBoot {
		return
	}
	logger.Info("no task store yet; it will be created on first change", "path", BasePath)
	FirstBoot = false
}
