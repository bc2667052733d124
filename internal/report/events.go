package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventLoad        EventType = "load"
	EventDedup       EventType = "dedup"
	EventAlbum       EventType = "album"
	EventArtist      EventType = "artist"
	EventGenre       EventType = "genre"
	EventCatchAll    EventType = "catchall"
	EventConsistency EventType = "consistency"
	EventSeed        EventType = "seed"
	EventError       EventType = "error"
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

// Event represents a single event in the index pipeline
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	SongID    int64             `json:"song_id,omitempty"`
	Path      string            `json:"path,omitempty"`
	Name      string            `json:"name,omitempty"`
	GroupKey  string            `json:"group_key,omitempty"`
	Count     int               `json:"count,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Generate filename with timestamp
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	// Open file for writing
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	// Filter by minimum level
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil // Skip events below minimum level
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogLoad logs a row-loading summary event
func (l *EventLogger) LogLoad(rowCount, duplicates int, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventLoad,
		Count:    rowCount,
		Duration: duration.Milliseconds(),
		Extra: map[string]string{
			"duplicates": fmt.Sprintf("%d", duplicates),
		},
	})
}

// LogDedup logs a dropped duplicate row
func (l *EventLogger) LogDedup(songID int64, name string) error {
	return l.Log(&Event{
		Level:  LevelDebug,
		Event:  EventDedup,
		SongID: songID,
		Name:   name,
	})
}

// LogAlbum logs an album grouping event
func (l *EventLogger) LogAlbum(name, groupKey string, memberCount int) error {
	return l.Log(&Event{
		Level:    LevelDebug,
		Event:    EventAlbum,
		Name:     name,
		GroupKey: groupKey,
		Count:    memberCount,
	})
}

// LogArtist logs an artist grouping event
func (l *EventLogger) LogArtist(name string, albumCount int) error {
	return l.Log(&Event{
		Level: LevelDebug,
		Event: EventArtist,
		Name:  name,
		Count: albumCount,
	})
}

// LogGenre logs a genre linking event
func (l *EventLogger) LogGenre(name string, memberCount int) error {
	return l.Log(&Event{
		Level: LevelDebug,
		Event: EventGenre,
		Name:  name,
		Count: memberCount,
	})
}

// LogCatchAll logs the synthetic-genre event with the orphan count
func (l *EventLogger) LogCatchAll(orphanCount int) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventCatchAll,
		Count: orphanCount,
	})
}

// LogConsistency logs a failed linkage check for a song
func (l *EventLogger) LogConsistency(songID int64, name string, missing string) error {
	return l.Log(&Event{
		Level:  LevelError,
		Event:  EventConsistency,
		SongID: songID,
		Name:   name,
		Extra: map[string]string{
			"missing": missing,
		},
	})
}

// LogSeed logs a file-seeding event
func (l *EventLogger) LogSeed(path string, err error) error {
	level := LevelDebug
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level: level,
		Event: EventSeed,
		Path:  path,
		Error: errMsg,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, path string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: event,
		Path:  path,
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

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
