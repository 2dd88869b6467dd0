package models

// SnapshotVersion is the current version of the persisted store document.
const SnapshotVersion = "1.0"

// Snapshot is the persisted store document: every task record plus an
// optional pomodoro session checkpoint. A missing session means idle.
type Snapshot struct {
	Version string           `yaml:"version"`
	NextID  int              `yaml:"next_id"`
	Tasks   []Task           `yaml:"tasks"`
	Session *PomodoroSession `yaml:"session,omitempty"`
}

// NewSnapshot returns an empty document at the current version.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version: SnapshotVersion,
		Tasks:   []Task{},
	}
}
