// Package database defines the storage contracts shared by the file and
// PostgreSQL backends, plus the types that flow through them.
package database

import "context"

// IdentityStore owns the reference embeddings and the roster as one unit:
// an identity never exists in one without the other. Embeddings are returned
// in insertion order, which the matcher relies on for tie-breaking.
type IdentityStore interface {
	// Embeddings returns all reference embeddings in insertion order.
	Embeddings(ctx context.Context) ([]StoredEmbedding, error)
	// Roster returns all enrolled identities in registration order.
	Roster(ctx context.Context) ([]RosterEntry, error)
	// HasIdentity reports whether the identity is enrolled.
	HasIdentity(ctx context.Context, id Identity) (bool, error)
	// Enroll persists an embedding and its roster entry together; either
	// both are committed or neither is observable.
	Enroll(ctx context.Context, emb StoredEmbedding, entry RosterEntry) error
	// Count returns the number of stored reference embeddings.
	Count(ctx context.Context) (int, error)
	// Refresh re-reads persisted state. Callers decide the cadence; reads
	// otherwise serve the last loaded snapshot.
	Refresh(ctx context.Context) error
}

// AttendanceLog is the append-only event sequence. Events are never edited
// in place; corrections are new events.
type AttendanceLog interface {
	// Record appends one event. The append is atomic: a concurrent reader
	// never observes a half-written event.
	Record(ctx context.Context, event AttendanceEvent) error
	// EventsFor returns the events of one calendar date sorted by time,
	// along with warnings for any persisted rows that could not be parsed.
	EventsFor(ctx context.Context, date string) ([]AttendanceEvent, []MalformedRecord, error)
	// Refresh re-reads persisted state.
	Refresh(ctx context.Context) error
}
