package match

import (
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/facegate/facegate/internal/database"
)

const (
	// indexMaxNeighbors is the HNSW M parameter.
	indexMaxNeighbors = 16
	// indexSearchK is how many candidates the index returns for exact
	// re-verification. Generous relative to roster size so the true nearest
	// neighbor is effectively never missed.
	indexSearchK = 16
)

// Index wraps an HNSW graph over the reference embeddings. Nodes are keyed by
// insertion index, so candidates keep the information the tie-break needs.
type Index struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[int]
	size  int
}

// buildIndex constructs the graph from all references. References are keyed
// by their position in the store's insertion order.
func buildIndex(refs []database.StoredEmbedding, metric Metric) (*Index, error) {
	g := hnsw.NewGraph[int]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors) // Standard HNSW formula

	switch metric.(type) {
	case CosineMetric:
		g.Distance = hnsw.CosineDistance
	case EuclideanMetric:
		g.Distance = hnsw.EuclideanDistance
	default:
		return nil, fmt.Errorf("no hnsw distance for metric %q", metric.Name())
	}

	for i := range refs {
		if len(refs[i].Vector) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(i, refs[i].Vector))
	}

	return &Index{graph: g, size: len(refs)}, nil
}

// Search returns the insertion indexes of up to k nearest references.
func (idx *Index) Search(probe []float32, k int) []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	neighbors := idx.graph.Search(probe, k)
	ids := make([]int, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.Key
	}
	return ids
}

// Len returns the number of references the index was built from.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.size
}
