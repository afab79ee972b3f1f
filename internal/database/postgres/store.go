package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/facegate/facegate/internal/database"
)

// Store is a PostgreSQL-backed database.IdentityStore. Reads always hit the
// database, so Refresh is a no-op; every call sees last-committed state.
type Store struct {
	pool *Pool
}

// NewStore creates a PostgreSQL identity store.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Embeddings returns all reference embeddings ordered by insertion.
func (s *Store) Embeddings(ctx context.Context) ([]database.StoredEmbedding, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT identity, embedding, strategy, dim, created_at
		FROM embeddings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var out []database.StoredEmbedding
	for rows.Next() {
		var emb database.StoredEmbedding
		var vec pgvector.Vector
		if err := rows.Scan(&emb.Identity, &vec, &emb.Strategy, &emb.Dim, &emb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		emb.Vector = vec.Slice()
		out = append(out, emb)
	}
	return out, rows.Err()
}

// Roster returns all enrolled identities ordered by registration.
func (s *Store) Roster(ctx context.Context) ([]database.RosterEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT identity, label, registered_at
		FROM roster
		ORDER BY registered_at, identity
	`)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var out []database.RosterEntry
	for rows.Next() {
		var entry database.RosterEntry
		if err := rows.Scan(&entry.Identity, &entry.Label, &entry.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// HasIdentity reports whether the identity is enrolled.
func (s *Store) HasIdentity(ctx context.Context, id database.Identity) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM roster WHERE identity = $1)", string(id)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check identity exists: %w", err)
	}
	return exists, nil
}

// Count returns the number of stored reference embeddings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

// Enroll inserts the roster entry and the embedding in one transaction.
func (s *Store) Enroll(ctx context.Context, emb database.StoredEmbedding, entry database.RosterEntry) error {
	tx, err := s.pool.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO roster (identity, label, registered_at)
		VALUES ($1, $2, $3)
	`, string(entry.Identity), entry.Label, entry.RegisteredAt); err != nil {
		return fmt.Errorf("insert roster entry: %w", err)
	}

	vec := pgvector.NewVector(emb.Vector)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO embeddings (identity, embedding, strategy, dim, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, string(emb.Identity), vec, emb.Strategy, emb.Dim, emb.CreatedAt); err != nil {
		return fmt.Errorf("insert embedding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment: %w", err)
	}
	return nil
}

// Refresh is a no-op: reads are uncached.
func (s *Store) Refresh(ctx context.Context) error {
	return nil
}
