// Package search retrieves the document chunks most relevant to a question.
package search

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/hyperjump/vaxguide/internal/apperr"
	"github.com/hyperjump/vaxguide/internal/embedding"
	"github.com/hyperjump/vaxguide/internal/vector"
)

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = errors.New("query is empty")

// Retriever embeds a query and searches the vector index.
// It holds no state besides its collaborators and is safe for concurrent use.
type Retriever struct {
	embedder embedding.Embedder
	index    vector.VectorIndex
	logger   *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRetriever creates a retriever over index. embedder must be the one the index was built with.
func NewRetriever(embedder embedding.Embedder, index vector.VectorIndex, opts ...RetrieverOption) *Retriever {
	r := &Retriever{embedder: embedder, index: index, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ScoredChunk is a retrieved chunk text with its similarity score.
type ScoredChunk struct {
	ChunkID string  `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// Retrieve returns the texts of the k chunks nearest to query, nearest first.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	scored, err := r.RetrieveScored(ctx, query, k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(scored))
	for i, s := range scored {
		texts[i] = s.Text
	}
	return texts, nil
}

// RetrieveScored is Retrieve with chunk IDs and scores.
// Every failure is a retrieval error.
func (r *Retriever) RetrieveScored(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	if query == "" {
		return nil, apperr.Retrieval("retrieve", ErrEmptyQuery)
	}
	qvec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperr.Retrieval("embed query", err)
	}
	results, err := r.index.Search(ctx, qvec, k)
	if err != nil {
		return nil, apperr.Retrieval("search index", err)
	}
	out := make([]ScoredChunk, 0, len(results))
	for _, res := range results {
		out = append(out, ScoredChunk{ChunkID: res.Chunk.ID, Text: res.Chunk.Content, Score: res.Score})
	}
	if ce := r.logger.Check(zap.DebugLevel, "retrieved chunks"); ce != nil {
		scores := make([]float64, len(out))
		for i, s := range out {
			scores[i] = s.Score
		}
		ce.Write(zap.Int("k", k), zap.Int("hits", len(out)), zap.Float64s("scores", scores))
	}
	return out, nil
}
