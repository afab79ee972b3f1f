// Package attendance guards the append-only event log: only enrolled
// identities may record enter/exit events.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/facegate/facegate/internal/database"
)

// Recorder validates and appends attendance events. Callers resolve
// identities through the matcher first; unrecognized identities are rejected
// rather than silently logged.
type Recorder struct {
	store database.IdentityStore
	log   database.AttendanceLog
}

// NewRecorder creates a recorder over the given store and log.
func NewRecorder(store database.IdentityStore, log database.AttendanceLog) *Recorder {
	return &Recorder{store: store, log: log}
}

// Record appends one event. Multiple enters/exits per identity per day are
// valid (stepping out and back). Returns database.ErrUnknownIdentity when the
// identity has no roster entry.
func (r *Recorder) Record(ctx context.Context, id database.Identity, direction database.Direction, ts time.Time) error {
	if _, err := database.ParseDirection(string(direction)); err != nil {
		return err
	}

	known, err := r.store.HasIdentity(ctx, id)
	if err != nil {
		return fmt.Errorf("checking roster: %w", err)
	}
	if !known {
		return fmt.Errorf("%w: %s", database.ErrUnknownIdentity, id)
	}

	event := database.AttendanceEvent{
		Identity:  id,
		Timestamp: ts,
		Direction: direction,
	}
	if err := r.log.Record(ctx, event); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// EventsFor returns one date's events sorted by time, plus warnings for rows
// that could not be parsed.
func (r *Recorder) EventsFor(ctx context.Context, date string) ([]database.AttendanceEvent, []database.MalformedRecord, error) {
	return r.log.EventsFor(ctx, date)
}
