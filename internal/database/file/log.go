package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/facegate/facegate/internal/database"
)

const eventsFile = "events.csv"

var eventsHeader = []string{"user_id", "date", "time", "enter_or_exit"}

// Log is a file-backed database.AttendanceLog over an append-only CSV.
// Malformed rows are kept as warnings instead of failing the whole read.
type Log struct {
	path string

	mu        sync.RWMutex
	events    []database.AttendanceEvent
	malformed []database.MalformedRecord
}

// NewLog opens (and bootstraps, if absent) the event log under dir.
func NewLog(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	l := &Log{path: filepath.Join(dir, eventsFile)}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Log) load() error {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		if err := writeCSVRow(l.path, eventsHeader); err != nil {
			return err
		}
		l.mu.Lock()
		l.events, l.malformed = nil, nil
		l.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("reading event log: %w", err)
	}

	var events []database.AttendanceEvent
	var malformed []database.MalformedRecord
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == eventsHeader[0] {
			continue
		}
		event, reason := parseEventRow(row)
		if reason != "" {
			malformed = append(malformed, database.MalformedRecord{
				Line:   i + 1,
				Raw:    strings.Join(row, ","),
				Reason: reason,
			})
			continue
		}
		events = append(events, event)
	}

	l.mu.Lock()
	l.events = events
	l.malformed = malformed
	l.mu.Unlock()
	return nil
}

// parseEventRow parses one persisted row; a non-empty reason marks it
// malformed.
func parseEventRow(row []string) (database.AttendanceEvent, string) {
	if len(row) != 4 {
		return database.AttendanceEvent{}, fmt.Sprintf("expected 4 columns, got %d", len(row))
	}
	id, date, clock, dir := row[0], row[1], row[2], row[3]
	if id == "" {
		return database.AttendanceEvent{}, "empty identity"
	}

	ts, err := time.ParseInLocation(
		database.DateLayout+" "+database.TimeLayout, date+" "+clock, time.Local)
	if err != nil {
		return database.AttendanceEvent{}, "invalid date/time"
	}
	direction, err := database.ParseDirection(dir)
	if err != nil {
		return database.AttendanceEvent{}, "invalid direction"
	}

	return database.AttendanceEvent{
		Identity:  database.Identity(id),
		Timestamp: ts,
		Direction: direction,
	}, ""
}

// Record appends one event to the file and the in-memory snapshot. The file
// append is a single write, so a concurrent reader never sees half a row.
func (l *Log) Record(ctx context.Context, event database.AttendanceEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := []string{
		string(event.Identity),
		event.Timestamp.Format(database.DateLayout),
		event.Timestamp.Format(database.TimeLayout),
		string(event.Direction),
	}
	if err := writeCSVRow(l.path, row); err != nil {
		return err
	}

	l.events = append(l.events, event)
	return nil
}

// EventsFor returns one date's events sorted by time, plus the malformed-row
// warnings from the last load.
func (l *Log) EventsFor(ctx context.Context, date string) ([]database.AttendanceEvent, []database.MalformedRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []database.AttendanceEvent
	for _, e := range l.events {
		if e.Date() == date {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	warnings := make([]database.MalformedRecord, len(l.malformed))
	copy(warnings, l.malformed)
	return out, warnings, nil
}

// All returns every event in file order, plus the malformed-row warnings.
// Used by bulk exports; the API always reads per date.
func (l *Log) All(ctx context.Context) ([]database.AttendanceEvent, []database.MalformedRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	events := make([]database.AttendanceEvent, len(l.events))
	copy(events, l.events)
	warnings := make([]database.MalformedRecord, len(l.malformed))
	copy(warnings, l.malformed)
	return events, warnings, nil
}

func (l *Log) Refresh(ctx context.Context) error {
	return l.load()
}
