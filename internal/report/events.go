// Package report writes the artifacts of an import run: a JSONL event
// trail, a Markdown summary and the plain-text export of unmatched entries.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventRun       EventType = "run"
	EventEntry     EventType = "entry"
	EventSearch    EventType = "search"
	EventDuplicate EventType = "duplicate"
	EventPersist   EventType = "persist"
	EventError     EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event of an import run
type Event struct {
	Timestamp  time.Time         `json:"ts"`
	Level      EventLevel        `json:"level"`
	Event      EventType         `json:"event"`
	RunID      string            `json:"run_id,omitempty"`
	Index      int               `json:"index,omitempty"` // 1-based entry position
	Entry      string            `json:"entry,omitempty"`
	Status     string            `json:"status,omitempty"`
	Tier       string            `json:"tier,omitempty"`
	Query      string            `json:"query,omitempty"`
	ExternalID int64             `json:"external_id,omitempty"`
	Title      string            `json:"title,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
	Results    int               `json:"results,omitempty"`
	Message    string            `json:"message,omitempty"`
	Duration   int64             `json:"duration_ms,omitempty"`
	Error      string            `json:"error,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file. A nil *EventLogger is a valid
// logger that drops everything.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	runID    string
	minLevel EventLevel
}

// NewEventLogger creates events-<timestamp>.jsonl in outputDir. Events below
// minLevel are not written.
func NewEventLogger(outputDir, runID string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(outputDir, fmt.Sprintf("events-%s.jsonl", timestamp))

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		runID:    runID,
		minLevel: minLevel,
	}, nil
}

// Log writes an event, stamping time and run id when missing
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RunID == "" {
		event.RunID = l.runID
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return nil
}

// LogRun logs the start or end of a run
func (l *EventLogger) LogRun(phase, source, kind string, entries int) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventRun,
		Entry:   source,
		Message: phase,
		Extra: map[string]string{
			"kind":    kind,
			"entries": strconv.Itoa(entries),
		},
	})
}

// LogEntry logs the outcome of one entry
func (l *EventLogger) LogEntry(index int, entry, status, message string, confidence float64, candidates int) error {
	level := LevelInfo
	if status == "error" {
		level = LevelError
	}
	return l.Log(&Event{
		Level:      level,
		Event:      EventEntry,
		Index:      index,
		Entry:      entry,
		Status:     status,
		Message:    message,
		Confidence: confidence,
		Results:    candidates,
	})
}

// LogSearch logs one remote catalog call
func (l *EventLogger) LogSearch(index int, tier, query string, results int, duration time.Duration, err error) error {
	level := LevelDebug
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}
	return l.Log(&Event{
		Level:    level,
		Event:    EventSearch,
		Index:    index,
		Tier:     tier,
		Query:    query,
		Results:  results,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
	})
}

// LogDuplicate logs a candidate recognized as already tracked
func (l *EventLogger) LogDuplicate(index int, externalID int64, title, existing string) error {
	return l.Log(&Event{
		Level:      LevelInfo,
		Event:      EventDuplicate,
		Index:      index,
		ExternalID: externalID,
		Title:      title,
		Message:    existing,
	})
}

// LogPersist logs one insert attempt; a nil err means the item was stored
func (l *EventLogger) LogPersist(externalID int64, title, status string, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}
	return l.Log(&Event{
		Level:      level,
		Event:      EventPersist,
		ExternalID: externalID,
		Title:      title,
		Status:     status,
		Error:      errMsg,
	})
}

// LogError logs a run-level error
func (l *EventLogger) LogError(event EventType, entry string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: event,
		Entry: entry,
		Error: err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// RunID returns the run id stamped on every event
func (l *EventLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}
