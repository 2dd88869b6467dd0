package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/valter-silva-au/feedme/pkg/models"
	"gopkg.in/yaml.v3"
)

// TaskStoreFileName is the name of the task document in the base path.
const TaskStoreFileName = "tasks.yaml"

// ErrCorruptStore means tasks.yaml exists but cannot be decoded.
var ErrCorruptStore = errors.New("corrupt task store")

// TaskStore persists the snapshot document of tasks and session.
type TaskStore interface {
	Load() (*models.Snapshot, error)
	Save(snap *models.Snapshot) error
	Lock() (unlock func() error, err error)
	Exists() bool
	Path() string
}

type fileTaskStore struct {
	basePath string
}

// NewTaskStore creates a TaskStore backed by tasks.yaml in basePath.
func NewTaskStore(basePath string) TaskStore {
	return &fileTaskStore{basePath: basePath}
}

func (s *fileTaskStore) Path() string {
	return filepath.Join(s.basePath, TaskStoreFileName)
}

// Exists reports whether tasks.yaml has been written yet.
func (s *fileTaskStore) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// Load reads and decodes tasks.yaml. A missing file returns an error wrapping
// fs.ErrNotExist; undecodable content returns ErrCorruptStore.
func (s *fileTaskStore) Load() (*models.Snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		// os.ReadFile errors keep fs.ErrNotExist reachable through %w.
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	snap := models.NewSnapshot()
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, nil
	}
	if err := yaml.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.Path(), err)
	}
	if snap.Version == "" {
		snap.Version = models.SnapshotVersion
	}
	if snap.Version != models.SnapshotVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %q", ErrCorruptStore, s.Path(), snap.Version)
	}
	if snap.Tasks == nil {
		snap.Tasks = []models.Task{}
	}
	return snap, nil
}

// Save encodes the snapshot and replaces tasks.yaml atomically.
func (s *fileTaskStore) Save(snap *models.Snapshot) error {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("saving tasks: creating directory: %w", err)
	}
	if snap.Version == "" {
		snap.Version = models.SnapshotVersion
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("saving tasks: marshaling YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("saving tasks: marshaling YAML: %w", err)
	}

	if err := atomic.WriteFile(s.Path(), &buf); err != nil {
		return fmt.Errorf("saving tasks: writing file: %w", err)
	}
	// atomic.WriteFile keeps the mode of an existing file but not for new ones.
	if err := os.Chmod(s.Path(), 0o600); err != nil {
		return fmt.Errorf("saving tasks: setting permissions: %w", err)
	}
	return nil
}

// Lock takes the advisory lock guarding tasks.yaml.
func (s *fileTaskStore) Lock() (func() error, error) {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return nil, fmt.Errorf("locking tasks: creating directory: %w", err)
	}
	return lockFile(s.Path()+".lock", DefaultLockTimeout)
}
