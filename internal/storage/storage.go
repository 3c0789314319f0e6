// Package storage persists computed embeddings so restarts skip re-embedding
// unchanged chunks. The vector index itself is always rebuilt in memory.
package storage

import "context"

// EmbeddingStore is a key/value store of embedding vectors.
type EmbeddingStore interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Put(ctx context.Context, key string, vec []float32) error
	Count(ctx context.Context) (int64, error)
	// Path is the backing file, used to report its size on disk.
	Path() string
	Close() error
}
