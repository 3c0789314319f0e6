// Package vector provides the build-once vector index and similarity search.
package vector

import (
	"context"
	"errors"

	"github.com/hyperjump/vaxguide/internal/models"
)

var (
	// ErrAlreadyBuilt is returned by a second Build.
	ErrAlreadyBuilt = errors.New("vector index already built")
	// ErrDimensionMismatch is returned for a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// VectorIndex stores (vector, chunk) pairs. Build is the only mutation;
// Search is safe for concurrent use once Build has returned.
type VectorIndex interface {
	Build(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	// Built reports whether Build has completed.
	Built() bool
	Size() int
	Dimensions() int
	Metric() Metric
	Close() error
}

// Entry is one chunk and its embedding.
type Entry struct {
	Chunk  *models.Chunk
	Vector []float32
}

// VectorResult is a single search hit. Score is a similarity: higher is nearer.
// Position is the entry's insertion order.
type VectorResult struct {
	Chunk    *models.Chunk
	Score    float64
	Position int
}
