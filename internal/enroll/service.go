// Package enroll registers new identities: duplicate rejection through the
// matcher, token generation, and the atomic store+roster append.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/match"
)

// ErrDuplicateRegistration is returned when the probe already resolves to an
// enrolled identity. The existing identity is returned alongside it.
var ErrDuplicateRegistration = errors.New("person already registered")

// Service enrolls identities. The match-then-insert sequence is a critical
// section: two concurrent registrations of the same unseen face must not both
// observe unknown and both insert.
type Service struct {
	store    database.IdentityStore
	matcher  *match.Matcher
	strategy string

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// NewService creates an enrollment service. strategy tags stored embeddings
// so a deployment never mixes vectors from different strategies.
func NewService(store database.IdentityStore, matcher *match.Matcher, strategy string) *Service {
	return &Service{
		store:    store,
		matcher:  matcher,
		strategy: strategy,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Register resolves the probe and, when unknown, enrolls it under a fresh
// identity token. On a duplicate the existing identity is returned with
// ErrDuplicateRegistration and nothing is mutated.
func (s *Service) Register(ctx context.Context, probe []float32, label string) (database.Identity, error) {
	if len(probe) == 0 {
		return "", errors.New("empty probe")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.matcher.Match(ctx, probe)
	if err != nil {
		return "", fmt.Errorf("duplicate check: %w", err)
	}
	if res.Known {
		return res.Identity, ErrDuplicateRegistration
	}

	id := database.Identity(s.newID())
	now := s.now()
	emb := database.StoredEmbedding{
		Identity:  id,
		Vector:    probe,
		Strategy:  s.strategy,
		Dim:       len(probe),
		CreatedAt: now,
	}
	entry := database.RosterEntry{
		Identity:     id,
		Label:        label,
		RegisteredAt: now,
	}

	if err := s.store.Enroll(ctx, emb, entry); err != nil {
		return "", fmt.Errorf("persisting enrollment: %w", err)
	}

	// Keep the accelerated index in sync with the store. The linear-scan
	// fallback stays correct either way.
	if err := s.matcher.RebuildIndex(ctx); err != nil {
		return id, fmt.Errorf("enrolled %s but index rebuild failed: %w", id, err)
	}
	return id, nil
}
