package models

import "time"

// ScoringConfig holds the weights and scales of the priority score.
type ScoringConfig struct {
	UrgencyWeight      float64       `yaml:"urgency_weight" mapstructure:"urgency_weight"`
	ImportanceWeight   float64       `yaml:"importance_weight" mapstructure:"importance_weight"`
	StalenessWeight    float64       `yaml:"staleness_weight" mapstructure:"staleness_weight"`
	UrgencyHorizon     time.Duration `yaml:"urgency_horizon" mapstructure:"urgency_horizon"`
	OverdueRatePerHour float64       `yaml:"overdue_rate_per_hour" mapstructure:"overdue_rate_per_hour"`
	OverdueBonusCap    float64       `yaml:"overdue_bonus_cap" mapstructure:"overdue_bonus_cap"`
	MaxBaseWeight      float64       `yaml:"max_base_weight" mapstructure:"max_base_weight"`
	StalenessScale     time.Duration `yaml:"staleness_scale" mapstructure:"staleness_scale"`
	EffortBoost        float64       `yaml:"effort_boost" mapstructure:"effort_boost"`
}

// PomodoroConfig holds phase lengths for the focus timer.
type PomodoroConfig struct {
	Focus          time.Duration `yaml:"focus" mapstructure:"focus"`
	ShortBreak     time.Duration `yaml:"short_break" mapstructure:"short_break"`
	LongBreak      time.Duration `yaml:"long_break" mapstructure:"long_break"`
	LongBreakEvery int           `yaml:"long_break_every" mapstructure:"long_break_every"`
}

// AlertConfig configures when alerts fire.
type AlertConfig struct {
	StaleDays      int `yaml:"stale_days" mapstructure:"stale_days"`
	MaxBacklogSize int `yaml:"max_backlog_size" mapstructure:"max_backlog_size"`
}

// GlobalConfig holds settings read from .feedmeconfig via Viper.
type GlobalConfig struct {
	TaskIDPrefix    string         `yaml:"task_id_prefix" mapstructure:"task_id_prefix"`
	TaskIDPadWidth  int            `yaml:"task_id_pad_width" mapstructure:"task_id_pad_width"`
	DefaultLimit    int            `yaml:"default_limit" mapstructure:"default_limit"`
	DefaultEffort   int            `yaml:"default_effort" mapstructure:"default_effort"`
	DefaultPriority Priority       `yaml:"default_priority" mapstructure:"default_priority"`
	LogLevel        string         `yaml:"log_level" mapstructure:"log_level"`
	Scoring         ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Pomodoro        PomodoroConfig `yaml:"pomodoro" mapstructure:"pomodoro"`
	Alerts          AlertConfig    `yaml:"alerts" mapstructure:"alerts"`
}
