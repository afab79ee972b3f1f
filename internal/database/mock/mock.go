// Package mock provides in-memory implementations of the database interfaces
// for testing.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/facegate/facegate/internal/database"
)

// IdentityStore is an in-memory database.IdentityStore.
type IdentityStore struct {
	mu         sync.RWMutex
	embeddings []database.StoredEmbedding
	roster     []database.RosterEntry

	// Error injection
	EmbeddingsError error
	RosterError     error
	EnrollError     error
	RefreshError    error
}

// NewIdentityStore creates an empty in-memory identity store.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{}
}

// Seed adds an identity without going through Enroll, for test setup.
func (s *IdentityStore) Seed(emb database.StoredEmbedding, entry database.RosterEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings = append(s.embeddings, emb)
	s.roster = append(s.roster, entry)
}

func (s *IdentityStore) Embeddings(ctx context.Context) ([]database.StoredEmbedding, error) {
	if s.EmbeddingsError != nil {
		return nil, s.EmbeddingsError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.StoredEmbedding, len(s.embeddings))
	copy(out, s.embeddings)
	return out, nil
}

func (s *IdentityStore) Roster(ctx context.Context) ([]database.RosterEntry, error) {
	if s.RosterError != nil {
		return nil, s.RosterError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.RosterEntry, len(s.roster))
	copy(out, s.roster)
	return out, nil
}

func (s *IdentityStore) HasIdentity(ctx context.Context, id database.Identity) (bool, error) {
	if s.RosterError != nil {
		return false, s.RosterError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.roster {
		if entry.Identity == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *IdentityStore) Enroll(ctx context.Context, emb database.StoredEmbedding, entry database.RosterEntry) error {
	if s.EnrollError != nil {
		return s.EnrollError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings = append(s.embeddings, emb)
	s.roster = append(s.roster, entry)
	return nil
}

func (s *IdentityStore) Count(ctx context.Context) (int, error) {
	if s.EmbeddingsError != nil {
		return 0, s.EmbeddingsError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.embeddings), nil
}

func (s *IdentityStore) Refresh(ctx context.Context) error {
	return s.RefreshError
}

// AttendanceLog is an in-memory database.AttendanceLog.
type AttendanceLog struct {
	mu     sync.RWMutex
	events []database.AttendanceEvent

	// Malformed rows reported alongside every read, for warning-path tests.
	Malformed []database.MalformedRecord

	// Error injection
	RecordError    error
	EventsForError error
}

// NewAttendanceLog creates an empty in-memory attendance log.
func NewAttendanceLog() *AttendanceLog {
	return &AttendanceLog{}
}

func (l *AttendanceLog) Record(ctx context.Context, event database.AttendanceEvent) error {
	if l.RecordError != nil {
		return l.RecordError
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *AttendanceLog) EventsFor(ctx context.Context, date string) ([]database.AttendanceEvent, []database.MalformedRecord, error) {
	if l.EventsForError != nil {
		return nil, nil, l.EventsForError
	}
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
	return out, l.Malformed, nil
}

func (l *AttendanceLog) Refresh(ctx context.Context) error {
	return nil
}

// Len returns the number of recorded events.
func (l *AttendanceLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
