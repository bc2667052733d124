package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"
)

func readEvents(t *testing.T, path string) []*Event {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open event log: %v", err)
	}
	defer f.Close()

	var events []*Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		e := &Event{}
		if err := json.Unmarshal(scanner.Bytes(), e); err != nil {
			t.Fatalf("failed to parse event line: %v", err)
		}
		events = append(events, e)
	}
	return events
}

func TestEventLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewEventLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	logger.LogLoad(100, 3, 250*time.Millisecond)
	logger.LogDedup(42, "Clone Song")
	logger.LogGenre("Rock", 12)
	logger.LogCatchAll(4)
	logger.LogConsistency(7, "orphan", "album, genre")
	logger.LogError(EventLoad, "", errors.New("cursor gone"))

	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	events := readEvents(t, logger.Path())
	if len(events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(events))
	}

	if events[0].Event != EventLoad || events[0].Count != 100 {
		t.Errorf("unexpected load event: %+v", events[0])
	}
	if events[0].Extra["duplicates"] != "3" {
		t.Errorf("expected duplicates extra, got %v", events[0].Extra)
	}
	if events[1].Event != EventDedup || events[1].SongID != 42 {
		t.Errorf("unexpected dedup event: %+v", events[1])
	}
	if events[4].Level != LevelError || events[4].Extra["missing"] != "album, genre" {
		t.Errorf("unexpected consistency event: %+v", events[4])
	}
	if events[5].Error != "cursor gone" {
		t.Errorf("expected error text, got %q", events[5].Error)
	}

	for _, e := range events {
		if e.Timestamp.IsZero() {
			t.Error("expected every event to carry a timestamp")
		}
	}
}

func TestEventLoggerFiltersByLevel(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewEventLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	logger.LogDedup(1, "debug level, filtered")
	logger.LogCatchAll(2)

	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	events := readEvents(t, logger.Path())
	if len(events) != 1 {
		t.Fatalf("expected debug event to be filtered, got %d events", len(events))
	}
	if events[0].Event != EventCatchAll {
		t.Errorf("expected the catch-all event to survive, got %s", events[0].Event)
	}
}

func TestNullLoggerIsSafe(t *testing.T) {
	logger := NullLogger()

	// Every call must be a no-op, not a panic
	if err := logger.LogLoad(1, 0, time.Second); err != nil {
		t.Errorf("expected nil error from null logger, got %v", err)
	}
	if err := logger.LogSeed("/a.mp3", errors.New("x")); err != nil {
		t.Errorf("expected nil error from null logger, got %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("expected nil error closing null logger, got %v", err)
	}
	if logger.Path() != "" {
		t.Error("expected empty path from null logger")
	}
}
