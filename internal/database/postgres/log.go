package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/facegate/facegate/internal/database"
)

// Log is a PostgreSQL-backed database.AttendanceLog. The events table is
// insert-only; the schema's typed columns make malformed rows impossible to
// persist, so reads report no warnings.
type Log struct {
	pool *Pool
}

// NewLog creates a PostgreSQL attendance log.
func NewLog(pool *Pool) *Log {
	return &Log{pool: pool}
}

// Record appends one event.
func (l *Log) Record(ctx context.Context, event database.AttendanceEvent) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO events (identity, occurred_on, occurred_at, direction)
		VALUES ($1, $2::date, $3::time, $4)
	`,
		string(event.Identity),
		event.Timestamp.Format(database.DateLayout),
		event.Timestamp.Format(database.TimeLayout),
		string(event.Direction),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// EventsFor returns one date's events sorted by time.
func (l *Log) EventsFor(ctx context.Context, date string) ([]database.AttendanceEvent, []database.MalformedRecord, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT identity,
		       to_char(occurred_on, 'YYYY-MM-DD'),
		       to_char(occurred_at, 'HH24:MI:SS'),
		       direction
		FROM events
		WHERE occurred_on = $1::date
		ORDER BY occurred_at, id
	`, date)
	if err != nil {
		return nil, nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []database.AttendanceEvent
	var malformed []database.MalformedRecord
	line := 0
	for rows.Next() {
		line++
		var id, day, clock, dir string
		if err := rows.Scan(&id, &day, &clock, &dir); err != nil {
			return nil, nil, fmt.Errorf("scan event: %w", err)
		}

		ts, err := time.ParseInLocation(
			database.DateLayout+" "+database.TimeLayout, day+" "+clock, time.Local)
		if err != nil {
			malformed = append(malformed, database.MalformedRecord{
				Line: line, Raw: day + " " + clock, Reason: "invalid date/time",
			})
			continue
		}
		direction, err := database.ParseDirection(dir)
		if err != nil {
			malformed = append(malformed, database.MalformedRecord{
				Line: line, Raw: dir, Reason: "invalid direction",
			})
			continue
		}

		events = append(events, database.AttendanceEvent{
			Identity:  database.Identity(id),
			Timestamp: ts,
			Direction: direction,
		})
	}
	return events, malformed, rows.Err()
}

// Refresh is a no-op: reads are uncached.
func (l *Log) Refresh(ctx context.Context) error {
	return nil
}
