// Package embedding maps text to fixed-dimension vectors.
package embedding

import "context"

// Embedder produces vector embeddings for text.
// Implementations are safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// Name identifies the model; vectors from different names are not comparable.
	Name() string
	Close() error
}
