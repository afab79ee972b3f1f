package database

import (
	"errors"
	"fmt"
	"time"
)

// Layouts for the persisted date and time columns. The log and roster split
// the capture timestamp into separate date and time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// ErrUnknownIdentity is returned when an attendance event references an
// identity that has no roster entry.
var ErrUnknownIdentity = errors.New("identity not in roster")

// Identity is an opaque unique token assigned at enrollment, immutable
// thereafter.
type Identity string

// Direction tells whether an attendance event is an entry or a departure.
type Direction string

const (
	DirectionEnter Direction = "enter"
	DirectionExit  Direction = "exit"
)

// ParseDirection validates a persisted direction value.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionEnter, DirectionExit:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q", s)
}

// StoredEmbedding is one reference appearance of an identity. Vector holds
// either an encoder embedding or a normalized image sample, depending on the
// deployment's matching strategy.
type StoredEmbedding struct {
	Identity  Identity
	Vector    []float32
	Strategy  string
	Dim       int
	CreatedAt time.Time
}

// RosterEntry records one enrolled identity. Label is an optional
// human-readable name; the identity token is the only key.
type RosterEntry struct {
	Identity     Identity
	Label        string
	RegisteredAt time.Time
}

// AttendanceEvent is one immutable enter/exit observation.
type AttendanceEvent struct {
	Identity  Identity
	Timestamp time.Time
	Direction Direction
}

// Date returns the calendar date portion of the event timestamp.
func (e AttendanceEvent) Date() string {
	return e.Timestamp.Format(DateLayout)
}

// MalformedRecord describes a persisted row that could not be parsed. Such
// rows are skipped, never fatal; analysis reports them as warnings.
type MalformedRecord struct {
	Line   int
	Raw    string
	Reason string
}

func (m MalformedRecord) String() string {
	return fmt.Sprintf("line %d: %s (%q)", m.Line, m.Reason, m.Raw)
}
