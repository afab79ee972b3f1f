// Package match resolves probe embeddings against the identity store using a
// pluggable distance metric and threshold.
package match

import (
	"context"
	"fmt"
	"sync"

	"github.com/facegate/facegate/internal/database"
)

// Result is the outcome of resolving one probe. When Known is false the
// probe did not come strictly below the threshold for any stored reference.
type Result struct {
	Identity database.Identity
	Distance float64
	Known    bool
}

// Matcher performs nearest-neighbor search over the identity store. Match is
// a pure read; it never mutates the store.
type Matcher struct {
	store     database.IdentityStore
	metric    Metric
	threshold float64
	workers   int

	indexMu sync.RWMutex
	index   *Index // optional HNSW accelerator, nil when disabled
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWorkers sets the number of parallel scan workers. Values below 2 keep
// the scan sequential.
func WithWorkers(n int) Option {
	return func(m *Matcher) { m.workers = n }
}

// New creates a Matcher over the given store.
func New(store database.IdentityStore, metric Metric, threshold float64, opts ...Option) *Matcher {
	m := &Matcher{
		store:     store,
		metric:    metric,
		threshold: threshold,
		workers:   1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Metric returns the configured distance metric.
func (m *Matcher) Metric() Metric { return m.metric }

// Threshold returns the configured acceptance threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match resolves a probe to a known identity or unknown. The minimum distance
// wins; exact ties go to the reference enrolled earliest. An empty store
// always yields unknown.
func (m *Matcher) Match(ctx context.Context, probe []float32) (Result, error) {
	refs, err := m.store.Embeddings(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("loading reference embeddings: %w", err)
	}
	if len(refs) == 0 {
		return Result{Known: false}, nil
	}

	m.indexMu.RLock()
	index := m.index
	m.indexMu.RUnlock()

	var best candidate
	if index != nil && index.Len() == len(refs) {
		best = m.searchIndex(index, refs, probe)
	} else if m.workers > 1 && len(refs) >= 2*m.workers {
		best = m.scanParallel(refs, probe)
	} else {
		best = scan(refs, probe, m.metric, 0)
	}

	if best.dist < m.threshold {
		return Result{Identity: refs[best.idx].Identity, Distance: best.dist, Known: true}, nil
	}
	return Result{Distance: best.dist, Known: false}, nil
}

// candidate is a scan result: distance plus insertion index for tie-breaking.
type candidate struct {
	dist float64
	idx  int
}

// better reports whether c beats other under the tie-break rule: smaller
// distance wins, equal distance goes to the earlier insertion index.
func (c candidate) better(other candidate) bool {
	if c.dist != other.dist {
		return c.dist < other.dist
	}
	return c.idx < other.idx
}

// scan walks a chunk of references linearly. offset is the insertion index of
// the chunk's first element.
func scan(refs []database.StoredEmbedding, probe []float32, metric Metric, offset int) candidate {
	best := candidate{dist: metric.Distance(probe, refs[0].Vector), idx: offset}
	for i := 1; i < len(refs); i++ {
		c := candidate{dist: metric.Distance(probe, refs[i].Vector), idx: offset + i}
		if c.better(best) {
			best = c
		}
	}
	return best
}

// scanParallel splits the scan across workers and reduces with the same
// tie-break rule, so the result is identical to a sequential scan.
func (m *Matcher) scanParallel(refs []database.StoredEmbedding, probe []float32) candidate {
	chunk := (len(refs) + m.workers - 1) / m.workers
	results := make(chan candidate, m.workers)

	var wg sync.WaitGroup
	for start := 0; start < len(refs); start += chunk {
		end := min(start+chunk, len(refs))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			results <- scan(refs[start:end], probe, m.metric, start)
		}(start, end)
	}
	wg.Wait()
	close(results)

	best := candidate{dist: -1, idx: -1}
	for c := range results {
		if best.idx == -1 || c.better(best) {
			best = c
		}
	}
	return best
}

// searchIndex asks the HNSW index for nearby candidates and re-verifies them
// with the exact metric. Falls back to a full scan when the index returns
// nothing useful.
func (m *Matcher) searchIndex(index *Index, refs []database.StoredEmbedding, probe []float32) candidate {
	ids := index.Search(probe, indexSearchK)
	if len(ids) == 0 {
		return scan(refs, probe, m.metric, 0)
	}

	best := candidate{dist: -1, idx: -1}
	for _, idx := range ids {
		if idx < 0 || idx >= len(refs) {
			continue
		}
		c := candidate{dist: m.metric.Distance(probe, refs[idx].Vector), idx: idx}
		if best.idx == -1 || c.better(best) {
			best = c
		}
	}
	if best.idx == -1 {
		return scan(refs, probe, m.metric, 0)
	}
	return best
}

// EnableIndex builds the HNSW index from current store state. The index only
// supports vector metrics; the pixel metric keeps the linear scan.
func (m *Matcher) EnableIndex(ctx context.Context) error {
	if _, ok := m.metric.(PixelMetric); ok {
		return fmt.Errorf("hnsw index does not support the %s metric", m.metric.Name())
	}

	refs, err := m.store.Embeddings(ctx)
	if err != nil {
		return fmt.Errorf("loading reference embeddings: %w", err)
	}

	index, err := buildIndex(refs, m.metric)
	if err != nil {
		return err
	}

	m.indexMu.Lock()
	m.index = index
	m.indexMu.Unlock()
	return nil
}

// RebuildIndex refreshes the index after an enrollment. No-op when the index
// was never enabled.
func (m *Matcher) RebuildIndex(ctx context.Context) error {
	m.indexMu.RLock()
	enabled := m.index != nil
	m.indexMu.RUnlock()
	if !enabled {
		return nil
	}
	return m.EnableIndex(ctx)
}

// IndexLen returns the number of indexed references, 0 when disabled.
func (m *Matcher) IndexLen() int {
	m.indexMu.RLock()
	defer m.indexMu.RUnlock()
	if m.index == nil {
		return 0
	}
	return m.index.Len()
}
