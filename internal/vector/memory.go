package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hyperjump/vaxguide/internal/models"
	"github.com/hyperjump/vaxguide/pkg/utils"
)

// MemoryIndex is an in-memory vector index using brute-force search.
// The stored set is published once by Build and never changes afterwards,
// so Search takes no lock.
type MemoryIndex struct {
	dimensions int
	metric     Metric
	buildMu    sync.Mutex
	data       atomic.Pointer[snapshot]
}

type snapshot struct {
	chunks  []*models.Chunk
	vectors [][]float32
}

// NewMemoryIndex creates an in-memory vector index with the given dimension and metric.
func NewMemoryIndex(dimensions int, metric Metric) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	m, err := ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}
	return &MemoryIndex{dimensions: dimensions, metric: m}, nil
}

// Build stores entries in order. It may be called once; an empty entry list
// builds an empty index.
func (m *MemoryIndex) Build(ctx context.Context, entries []Entry) error {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()
	if m.data.Load() != nil {
		return ErrAlreadyBuilt
	}
	s := &snapshot{
		chunks:  make([]*models.Chunk, 0, len(entries)),
		vectors: make([][]float32, 0, len(entries)),
	}
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.Chunk == nil {
			return fmt.Errorf("entry %d has no chunk", i)
		}
		if len(e.Vector) != m.dimensions {
			return fmt.Errorf("%w: entry %d has %d, index expects %d", ErrDimensionMismatch, i, len(e.Vector), m.dimensions)
		}
		vec := make([]float32, m.dimensions)
		copy(vec, e.Vector)
		if m.metric == MetricCosine {
			utils.NormalizeL2(vec)
		}
		s.chunks = append(s.chunks, e.Chunk)
		s.vectors = append(s.vectors, vec)
	}
	m.data.Store(s)
	return nil
}

// Built reports whether Build has completed.
func (m *MemoryIndex) Built() bool {
	return m.data.Load() != nil
}

// Search returns the k entries nearest to query, nearest first. Ties keep
// insertion order. k is clamped to the number of entries; an empty index
// returns no results and no error.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("%w: query has %d, index expects %d", ErrDimensionMismatch, len(query), m.dimensions)
	}
	s := m.data.Load()
	if s == nil || k <= 0 || len(s.chunks) == 0 {
		return []*VectorResult{}, nil
	}
	q := query
	if m.metric == MetricCosine {
		q = make([]float32, len(query))
		copy(q, query)
		utils.NormalizeL2(q)
	}
	results := make([]*VectorResult, len(s.chunks))
	for i, vec := range s.vectors {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		results[i] = &VectorResult{Chunk: s.chunks[i], Score: m.metric.score(q, vec), Position: i}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	if s := m.data.Load(); s != nil {
		return len(s.chunks)
	}
	return 0
}

// Dimensions returns the vector dimension.
func (m *MemoryIndex) Dimensions() int { return m.dimensions }

// Metric returns the ranking metric.
func (m *MemoryIndex) Metric() Metric { return m.metric }

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
