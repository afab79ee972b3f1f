package match

import (
	"context"
	"testing"
	"time"

	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/database/mock"
)

func seedStore(ids []database.Identity, vectors [][]float32) *mock.IdentityStore {
	store := mock.NewIdentityStore()
	for i := range ids {
		store.Seed(
			database.StoredEmbedding{
				Identity:  ids[i],
				Vector:    vectors[i],
				Strategy:  "embedding",
				Dim:       len(vectors[i]),
				CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, i, time.UTC),
			},
			database.RosterEntry{Identity: ids[i], RegisteredAt: time.Now()},
		)
	}
	return store
}

func TestMatch_EmptyStore(t *testing.T) {
	m := New(mock.NewIdentityStore(), EuclideanMetric{}, 0.6)

	res, err := m.Match(context.Background(), []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Known {
		t.Errorf("expected unknown on empty store, got identity %q", res.Identity)
	}
}

func TestMatch_RoundTrip(t *testing.T) {
	store := seedStore(
		[]database.Identity{"alice", "bob"},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
	)
	m := New(store, EuclideanMetric{}, 0.6)

	res, err := m.Match(context.Background(), []float32{0.9, 0.1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Known || res.Identity != "alice" {
		t.Errorf("expected alice, got %+v", res)
	}
}

func TestMatch_ThresholdIsStrict(t *testing.T) {
	store := seedStore([]database.Identity{"alice"}, [][]float32{{1, 0}})
	// Probe at exactly threshold distance must NOT match.
	m := New(store, EuclideanMetric{}, 0.5)

	res, err := m.Match(context.Background(), []float32{0.5, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Known {
		t.Errorf("distance equal to threshold must be rejected, got %+v", res)
	}
}

func TestMatch_TieGoesToEarliestEnrollment(t *testing.T) {
	// Two identical references: the first-enrolled identity must win.
	store := seedStore(
		[]database.Identity{"first", "second"},
		[][]float32{{1, 0}, {1, 0}},
	)
	m := New(store, EuclideanMetric{}, 0.6)

	res, err := m.Match(context.Background(), []float32{1, 0.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Identity != "first" {
		t.Errorf("tie must go to earliest enrollment, got %q", res.Identity)
	}
}

func TestMatch_ParallelPreservesTieBreak(t *testing.T) {
	n := 64
	ids := make([]database.Identity, n)
	vectors := make([][]float32, n)
	for i := range ids {
		ids[i] = database.Identity(string(rune('a' + i%26)))
		vectors[i] = []float32{float32(i), 1}
	}
	// Make two far-apart entries tie exactly; earlier index must win.
	ids[10], ids[50] = "early", "late"
	vectors[10] = []float32{100, 100}
	vectors[50] = []float32{100, 100}

	seq := New(seedStore(ids, vectors), EuclideanMetric{}, 1000)
	par := New(seedStore(ids, vectors), EuclideanMetric{}, 1000, WithWorkers(8))

	probe := []float32{100, 100}
	seqRes, err := seq.Match(context.Background(), probe)
	if err != nil {
		t.Fatalf("sequential match: %v", err)
	}
	parRes, err := par.Match(context.Background(), probe)
	if err != nil {
		t.Fatalf("parallel match: %v", err)
	}

	if seqRes.Identity != "early" {
		t.Errorf("sequential: expected early, got %q", seqRes.Identity)
	}
	if parRes != seqRes {
		t.Errorf("parallel result %+v differs from sequential %+v", parRes, seqRes)
	}
}

func TestMatch_IsPureRead(t *testing.T) {
	store := seedStore([]database.Identity{"alice"}, [][]float32{{1, 0}})
	m := New(store, EuclideanMetric{}, 0.6)

	before, _ := store.Count(context.Background())
	if _, err := m.Match(context.Background(), []float32{5, 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after, _ := store.Count(context.Background())
	if before != after {
		t.Errorf("match mutated the store: %d -> %d", before, after)
	}
}

func TestMatch_WithIndex(t *testing.T) {
	n := 40
	ids := make([]database.Identity, n)
	vectors := make([][]float32, n)
	for i := range ids {
		ids[i] = database.Identity(string(rune('A' + i)))
		vectors[i] = []float32{float32(i * 10), float32(i * 10)}
	}
	store := seedStore(ids, vectors)
	m := New(store, EuclideanMetric{}, 5.0)

	if err := m.EnableIndex(context.Background()); err != nil {
		t.Fatalf("enabling index: %v", err)
	}
	if m.IndexLen() != n {
		t.Fatalf("expected index over %d references, got %d", n, m.IndexLen())
	}

	res, err := m.Match(context.Background(), []float32{101, 99})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Known || res.Identity != ids[10] {
		t.Errorf("expected %q via index, got %+v", ids[10], res)
	}
}

func TestEnableIndex_RejectsPixelMetric(t *testing.T) {
	m := New(mock.NewIdentityStore(), PixelMetric{}, 0.12)
	if err := m.EnableIndex(context.Background()); err == nil {
		t.Error("expected error enabling index for pixel metric")
	}
}

func TestMatch_StaleIndexFallsBackToScan(t *testing.T) {
	store := seedStore([]database.Identity{"alice"}, [][]float32{{1, 0}})
	m := New(store, EuclideanMetric{}, 0.6)
	if err := m.EnableIndex(context.Background()); err != nil {
		t.Fatalf("enabling index: %v", err)
	}

	// Enroll behind the index's back; Match must still see the new identity.
	store.Seed(
		database.StoredEmbedding{Identity: "bob", Vector: []float32{0, 1}},
		database.RosterEntry{Identity: "bob"},
	)

	res, err := m.Match(context.Background(), []float32{0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Identity != "bob" {
		t.Errorf("stale index must not hide new enrollments, got %+v", res)
	}
}
