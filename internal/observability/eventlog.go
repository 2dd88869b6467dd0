package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventLogFileName is the event log's name in the base path.
const EventLogFileName = ".feedme_events.jsonl"

// Event is one line of the event log.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Type    string         `json:"type"`  // e.g. "task.created", "focus.completed"
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// TaskID returns the task the event refers to, if any.
func (e Event) TaskID() string {
	id, _ := e.Data["task_id"].(string)
	return id
}

// EventFilter specifies criteria for reading events. Empty fields match all.
type EventFilter struct {
	Since  *time.Time
	Until  *time.Time
	Types  []string
	Level  string
	TaskID string
	// Last keeps only the newest n matching events when positive.
	Last int
}

// EventLog defines the interface for writing and reading events.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// jsonlEventLog implements EventLog using an append-only JSONL file.
type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLEventLog opens (creating if needed) the JSONL event log at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{
		path: path,
		file: f,
	}, nil
}

// Write appends one JSON-encoded event line. Each line goes out in a single
// write so concurrent feedme processes never interleave partial lines.
func (l *jsonlEventLog) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	if event.Level == "" {
		event.Level = "INFO"
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read scans the log line by line and returns the events matching filter,
// oldest first. Malformed lines are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		if matchesEventFilter(event, filter) {
			events = append(events, event)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}

	if filter.Last > 0 && len(events) > filter.Last {
		events = events[len(events)-filter.Last:]
	}
	return events, nil
}

// Close closes the underlying log file.
func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func matchesEventFilter(event Event, filter EventFilter) bool {
	if filter.Since != nil && event.Time.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && event.Time.After(*filter.Until) {
		return false
	}
	if len(filter.Types) > 0 && !containsString(filter.Types, event.Type) {
		return false
	}
	if filter.Level != "" && event.Level != filter.Level {
		return false
	}
	if filter.TaskID != "" && event.TaskID() != filter.TaskID {
		return false
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
