// Package core contains the business logic for feedme: the scoring engine,
// the pomodoro tracker, short-list selection, the in-memory planner, and the
// store-backed task manager the CLI and MCP server call.
package core

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/feedme/pkg/models"
)

// ConfigFileName is the name of the configuration file in the base path.
const ConfigFileName = ".feedmeconfig"

// EnvPrefix prefixes environment overrides, e.g. FEEDME_POMODORO_FOCUS=50m.
const EnvPrefix = "FEEDME"

// validPrefixPattern matches uppercase alphanumeric prefixes between 1 and 10 characters.
var validPrefixPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ConfigurationManager loads and validates the global configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file and environment overrides.
type viperConfigManager struct {
	// basePath is the root directory where .feedmeconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with the built-in
// defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		TaskIDPrefix:    "T",
		TaskIDPadWidth:  4,
		DefaultLimit:    DefaultLimit,
		DefaultEffort:   1,
		DefaultPriority: models.PriorityMedium,
		LogLevel:        "info",
		Scoring:         DefaultScoringConfig(),
		Pomodoro:        DefaultPomodoroConfig(),
		Alerts: models.AlertConfig{
			StaleDays:      7,
			MaxBacklogSize: 30,
		},
	}
}

// LoadGlobalConfig reads .feedmeconfig from the base path using Viper. If the
// file does not exist, the defaults are returned with any FEEDME_*
// environment overrides applied.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	def := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults for every key so missing keys fall back and env overrides
	// resolve even without a config file.
	v.SetDefault("task_id.prefix", def.TaskIDPrefix)
	v.SetDefault("task_id.pad_width", def.TaskIDPadWidth)
	v.SetDefault("defaults.limit", def.DefaultLimit)
	v.SetDefault("defaults.effort", def.DefaultEffort)
	v.SetDefault("defaults.priority", string(def.DefaultPriority))
	v.SetDefault("log.level", def.LogLevel)

	v.SetDefault("scoring.urgency_weight", def.Scoring.UrgencyWeight)
	v.SetDefault("scoring.importance_weight", def.Scoring.ImportanceWeight)
	v.SetDefault("scoring.staleness_weight", def.Scoring.StalenessWeight)
	v.SetDefault("scoring.urgency_horizon", def.Scoring.UrgencyHorizon.String())
	v.SetDefault("scoring.overdue_rate_per_hour", def.Scoring.OverdueRatePerHour)
	v.SetDefault("scoring.overdue_bonus_cap", def.Scoring.OverdueBonusCap)
	v.SetDefault("scoring.max_base_weight", def.Scoring.MaxBaseWeight)
	v.SetDefault("scoring.staleness_scale", def.Scoring.StalenessScale.String())
	v.SetDefault("scoring.effort_boost", def.Scoring.EffortBoost)

	v.SetDefault("pomodoro.focus", def.Pomodoro.Focus.String())
	v.SetDefault("pomodoro.short_break", def.Pomodoro.ShortBreak.String())
	v.SetDefault("pomodoro.long_break", def.Pomodoro.LongBreak.String())
	v.SetDefault("pomodoro.long_break_every", def.Pomodoro.LongBreakEvery)

	v.SetDefault("alerts.stale_days", def.Alerts.StaleDays)
	v.SetDefault("alerts.max_backlog_size", def.Alerts.MaxBacklogSize)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg := &models.GlobalConfig{
		TaskIDPrefix:    v.GetString("task_id.prefix"),
		TaskIDPadWidth:  v.GetInt("task_id.pad_width"),
		DefaultLimit:    v.GetInt("defaults.limit"),
		DefaultEffort:   v.GetInt("defaults.effort"),
		DefaultPriority: models.Priority(strings.ToLower(v.GetString("defaults.priority"))),
		LogLevel:        strings.ToLower(v.GetString("log.level")),
		Scoring: models.ScoringConfig{
			UrgencyWeight:      v.GetFloat64("scoring.urgency_weight"),
			ImportanceWeight:   v.GetFloat64("scoring.importance_weight"),
			StalenessWeight:    v.GetFloat64("scoring.staleness_weight"),
			OverdueRatePerHour: v.GetFloat64("scoring.overdue_rate_per_hour"),
			OverdueBonusCap:    v.GetFloat64("scoring.overdue_bonus_cap"),
			MaxBaseWeight:      v.GetFloat64("scoring.max_base_weight"),
			EffortBoost:        v.GetFloat64("scoring.effort_boost"),
		},
		Pomodoro: models.PomodoroConfig{
			LongBreakEvery: v.GetInt("pomodoro.long_break_every"),
		},
		Alerts: models.AlertConfig{
			StaleDays:      v.GetInt("alerts.stale_days"),
			MaxBacklogSize: v.GetInt("alerts.max_backlog_size"),
		},
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"scoring.urgency_horizon", &cfg.Scoring.UrgencyHorizon},
		{"scoring.staleness_scale", &cfg.Scoring.StalenessScale},
		{"pomodoro.focus", &cfg.Pomodoro.Focus},
		{"pomodoro.short_break", &cfg.Pomodoro.ShortBreak},
		{"pomodoro.long_break", &cfg.Pomodoro.LongBreak},
	}
	for _, d := range durations {
		parsed, err := parseDurationValue(v.Get(d.key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrValidation, d.key, err)
		}
		*d.dst = parsed
	}

	return cfg, nil
}

// parseDurationValue accepts Go duration strings ("25m", "1h30m") and bare
// numbers, which are read as minutes.
func parseDurationValue(raw any) (time.Duration, error) {
	switch val := raw.(type) {
	case time.Duration:
		return val, nil
	case int:
		return time.Duration(val) * time.Minute, nil
	case int64:
		return time.Duration(val) * time.Minute, nil
	case float64:
		return time.Duration(val * float64(time.Minute)), nil
	case string:
		s := strings.TrimSpace(val)
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
		var minutes float64
		if _, err := fmt.Sscanf(s, "%g", &minutes); err == nil {
			return time.Duration(minutes * float64(time.Minute)), nil
		}
		return 0, fmt.Errorf("invalid duration %q", val)
	default:
		return 0, fmt.Errorf("invalid duration %v", raw)
	}
}

// ValidateConfig checks the configuration for invalid values and returns a
// single error listing every problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", ErrValidation)
	}

	var errs []string

	if !validPrefixPattern.MatchString(cfg.TaskIDPrefix) {
		errs = append(errs, fmt.Sprintf(
			"task_id.prefix %q is invalid, must match [A-Z0-9]{1,10}",
			cfg.TaskIDPrefix,
		))
	}
	if cfg.TaskIDPadWidth < 0 || cfg.TaskIDPadWidth > 10 {
		errs = append(errs, fmt.Sprintf(
			"task_id.pad_width %d is invalid, must be between 0 and 10",
			cfg.TaskIDPadWidth,
		))
	}
	if cfg.DefaultLimit < 1 {
		errs = append(errs, fmt.Sprintf("defaults.limit must be at least 1, got %d", cfg.DefaultLimit))
	}
	if cfg.DefaultEffort < 1 {
		errs = append(errs, fmt.Sprintf("defaults.effort must be at least 1, got %d", cfg.DefaultEffort))
	}
	if !cfg.DefaultPriority.Valid() {
		errs = append(errs, fmt.Sprintf(
			"defaults.priority %q is invalid, must be one of: low, medium, high, urgent",
			cfg.DefaultPriority,
		))
	}
	if !validLogLevels[cfg.LogLevel] {
		errs = append(errs, fmt.Sprintf(
			"log.level %q is invalid, must be one of: debug, info, warn, error",
			cfg.LogLevel,
		))
	}

	nonNegative := []struct {
		key string
		val float64
	}{
		{"scoring.urgency_weight", cfg.Scoring.UrgencyWeight},
		{"scoring.importance_weight", cfg.Scoring.ImportanceWeight},
		{"scoring.staleness_weight", cfg.Scoring.StalenessWeight},
		{"scoring.overdue_rate_per_hour", cfg.Scoring.OverdueRatePerHour},
		{"scoring.overdue_bonus_cap", cfg.Scoring.OverdueBonusCap},
		{"scoring.effort_boost", cfg.Scoring.EffortBoost},
	}
	for _, f := range nonNegative {
		if math.IsNaN(f.val) || math.IsInf(f.val, 0) || f.val < 0 {
			errs = append(errs, fmt.Sprintf("%s must be a non-negative number, got %v", f.key, f.val))
		}
	}
	if math.IsNaN(cfg.Scoring.MaxBaseWeight) || math.IsInf(cfg.Scoring.MaxBaseWeight, 0) || cfg.Scoring.MaxBaseWeight <= 0 {
		errs = append(errs, fmt.Sprintf("scoring.max_base_weight must be positive, got %v", cfg.Scoring.MaxBaseWeight))
	}

	positive := []struct {
		key string
		val time.Duration
	}{
		{"scoring.urgency_horizon", cfg.Scoring.UrgencyHorizon},
		{"scoring.staleness_scale", cfg.Scoring.StalenessScale},
		{"pomodoro.focus", cfg.Pomodoro.Focus},
		{"pomodoro.short_break", cfg.Pomodoro.ShortBreak},
		{"pomodoro.long_break", cfg.Pomodoro.LongBreak},
	}
	for _, f := range positive {
		if f.val <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %s", f.key, f.val))
		}
	}
	if cfg.Pomodoro.LongBreakEvery < 1 {
		errs = append(errs, fmt.Sprintf("pomodoro.long_break_every must be at least 1, got %d", cfg.Pomodoro.LongBreakEvery))
	}
	if cfg.Alerts.StaleDays < 0 {
		errs = append(errs, fmt.Sprintf("alerts.stale_days must be non-negative, got %d", cfg.Alerts.StaleDays))
	}
	if cfg.Alerts.MaxBacklogSize < 0 {
		errs = append(errs, fmt.Sprintf("alerts.max_backlog_size must be non-negative, got %d", cfg.Alerts.MaxBacklogSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: config validation failed:\n  - %s", ErrValidation, strings.Join(errs, "\n  - "))
	}
	return nil
}

// ConfigDocument lays cfg out under the same nested keys .feedmeconfig uses,
// with durations as strings, ready to encode as YAML.
func ConfigDocument(cfg *models.GlobalConfig) map[string]any {
	return map[string]any{
		"task_id": map[string]any{
			"prefix":    cfg.TaskIDPrefix,
			"pad_width": cfg.TaskIDPadWidth,
		},
		"defaults": map[string]any{
			"limit":    cfg.DefaultLimit,
			"effort":   cfg.DefaultEffort,
			"priority": string(cfg.DefaultPriority),
		},
		"log": map[string]any{
			"level": cfg.LogLevel,
		},
		"scoring": map[string]any{
			"urgency_weight":        cfg.Scoring.UrgencyWeight,
			"importance_weight":     cfg.Scoring.ImportanceWeight,
			"staleness_weight":      cfg.Scoring.StalenessWeight,
			"urgency_horizon":       cfg.Scoring.UrgencyHorizon.String(),
			"overdue_rate_per_hour": cfg.Scoring.OverdueRatePerHour,
			"overdue_bonus_cap":     cfg.Scoring.OverdueBonusCap,
			"max_base_weight":       cfg.Scoring.MaxBaseWeight,
			"staleness_scale":       cfg.Scoring.StalenessScale.String(),
			"effort_boost":          cfg.Scoring.EffortBoost,
		},
		"pomodoro": map[string]any{
			"focus":            cfg.Pomodoro.Focus.String(),
			"short_break":      cfg.Pomodoro.ShortBreak.String(),
			"long_break":       cfg.Pomodoro.LongBreak.String(),
			"long_break_every": cfg.Pomodoro.LongBreakEvery,
		},
		"alerts": map[string]any{
			"stale_days":       cfg.Alerts.StaleDays,
			"max_backlog_size": cfg.Alerts.MaxBacklogSize,
		},
	}
}
