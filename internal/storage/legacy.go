package storage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/valter-silva-au/feedme/pkg/models"
)

//go:embed schema/task_master.schema.json
var taskMasterSchema []byte

const taskMasterSchemaURL = "feedme://schema/task_master.json"

// ErrInvalidLegacyFile means a task_master.json document failed schema
// validation or contained values that could not be converted.
var ErrInvalidLegacyFile = errors.New("invalid legacy task file")

// LegacyTask is one record of a feed_me task_master.json document.
type LegacyTask struct {
	Name         string
	Description  string
	Deadline     time.Time
	CreationTime time.Time
	Priority     models.Priority
}

// legacy datetimes carry no zone; they are read in the caller's location.
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var legacyPriorities = map[int]models.Priority{
	1: models.PriorityLow,
	2: models.PriorityMedium,
	3: models.PriorityHigh,
	4: models.PriorityUrgent,
}

type legacyDocument struct {
	TaskList []legacyRecord `json:"task_list"`
}

type legacyRecord struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Deadline     string          `json:"deadline"`
	CreationTime string          `json:"creation_time"`
	Priority     json.RawMessage `json:"priority"`
}

// LoadLegacyFile reads a task_master.json file from disk.
func LoadLegacyFile(path string, loc *time.Location) ([]LegacyTask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening legacy file: %w", err)
	}
	defer f.Close()
	return ReadLegacyTaskMaster(f, loc)
}

// ReadLegacyTaskMaster validates a task_master.json document against its
// schema and converts each record. Naive datetimes are interpreted in loc.
func ReadLegacyTaskMaster(r io.Reader, loc *time.Location) ([]LegacyTask, error) {
	if loc == nil {
		loc = time.Local
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading legacy file: %w", err)
	}

	if err := validateLegacyDocument(data); err != nil {
		return nil, err
	}

	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLegacyFile, err)
	}

	out := make([]LegacyTask, 0, len(doc.TaskList))
	for i, rec := range doc.TaskList {
		task, err := convertLegacyRecord(rec, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: task_list[%d] (%q): %v", ErrInvalidLegacyFile, i, rec.Name, err)
		}
		out = append(out, task)
	}
	return out, nil
}

func validateLegacyDocument(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(taskMasterSchemaURL, bytes.NewReader(taskMasterSchema)); err != nil {
		return fmt.Errorf("loading legacy schema: %w", err)
	}
	schema, err := compiler.Compile(taskMasterSchemaURL)
	if err != nil {
		return fmt.Errorf("compiling legacy schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLegacyFile, err)
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", ErrInvalidLegacyFile, firstSchemaCause(ve))
		}
		return fmt.Errorf("%w: %v", ErrInvalidLegacyFile, err)
	}
	return nil
}

// firstSchemaCause walks to the deepest cause for a readable message.
func firstSchemaCause(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, ve.Message)
}

func convertLegacyRecord(rec legacyRecord, loc *time.Location) (LegacyTask, error) {
	deadline, err := parseLegacyTime(rec.Deadline, loc)
	if err != nil {
		return LegacyTask{}, fmt.Errorf("deadline: %w", err)
	}
	task := LegacyTask{
		Name:        strings.TrimSpace(rec.Name),
		Description: rec.Description,
		Deadline:    deadline,
		Priority:    models.PriorityMedium,
	}
	if rec.CreationTime != "" {
		created, err := parseLegacyTime(rec.CreationTime, loc)
		if err != nil {
			return LegacyTask{}, fmt.Errorf("creation_time: %w", err)
		}
		task.CreationTime = created
	}
	if len(rec.Priority) > 0 && string(rec.Priority) != "null" {
		p, err := parseLegacyPriority(rec.Priority)
		if err != nil {
			return LegacyTask{}, err
		}
		task.Priority = p
	}
	return task, nil
}

func parseLegacyTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", s)
}

func parseLegacyPriority(raw json.RawMessage) (models.Priority, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if p, ok := legacyPriorities[n]; ok {
			return p, nil
		}
		return "", fmt.Errorf("priority %d out of range 1..4", n)
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", fmt.Errorf("priority %s is neither a number nor a name", raw)
	}
	return models.ParsePriority(name)
}
