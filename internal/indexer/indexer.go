package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/vaxguide/internal/apperr"
	"github.com/hyperjump/vaxguide/internal/embedding"
	"github.com/hyperjump/vaxguide/internal/extract"
	"github.com/hyperjump/vaxguide/internal/models"
	"github.com/hyperjump/vaxguide/internal/vector"
)

const (
	defaultBatchSize   = 64
	defaultConcurrency = 4
)

// Indexer chunks a document, embeds every chunk, and builds the vector index.
type Indexer struct {
	chunker     *Chunker
	embedder    embedding.Embedder
	index       vector.VectorIndex
	batchSize   int
	concurrency int
	logger      *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for build progress.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// WithConcurrency bounds the number of embedding batches in flight.
func WithConcurrency(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.concurrency = n
		}
	}
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(chunker *Chunker, embedder embedding.Embedder, index vector.VectorIndex, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		chunker:     chunker,
		embedder:    embedder,
		index:       index,
		batchSize:   defaultBatchSize,
		concurrency: defaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Build chunks doc.Content as is, embeds the chunks, and loads them into the index.
// Chunk offsets are rune positions in doc.Content; documents from the extract
// package are already normalized.
// A document with no text is a configuration error; every later failure is an
// index build error. Build succeeds at most once per index.
func (idx *Indexer) Build(ctx context.Context, doc *models.Document) (*models.BuildStats, error) {
	started := time.Now()
	if doc == nil {
		return nil, apperr.Configuration("build index", extract.ErrEmptyDocument)
	}
	if idx.index.Built() {
		return nil, apperr.IndexBuild("build vector index", vector.ErrAlreadyBuilt)
	}
	text := doc.Content
	chunks := idx.chunker.Chunk(doc.ID, text)
	if len(chunks) == 0 {
		return nil, apperr.Configuration("build index", fmt.Errorf("%s: %w", doc.Source, extract.ErrEmptyDocument))
	}
	idx.logger.Info("document chunked",
		zap.String("source", doc.Source),
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", idx.chunker.MaxLen()),
		zap.Int("chunk_overlap", idx.chunker.Overlap()))

	vectors, err := idx.embedChunks(ctx, chunks)
	if err != nil {
		return nil, apperr.IndexBuild("embed chunks", err)
	}
	entries := make([]vector.Entry, len(chunks))
	for i, ch := range chunks {
		entries[i] = vector.Entry{Chunk: ch, Vector: vectors[i]}
	}
	if err := idx.index.Build(ctx, entries); err != nil {
		return nil, apperr.IndexBuild("build vector index", err)
	}

	elapsed := time.Since(started)
	stats := &models.BuildStats{
		Source:         doc.Source,
		DocumentChars:  len([]rune(text)),
		Chunks:         len(chunks),
		Dimensions:     idx.index.Dimensions(),
		EmbeddingBytes: models.EstimateEmbeddingBytes(len(chunks), idx.index.Dimensions()),
		Duration:       elapsed,
		DurationMs:     elapsed.Milliseconds(),
		EmbedderName:   idx.embedder.Name(),
		CompletedAt:    time.Now(),
	}
	idx.logger.Info("index built",
		zap.String("source", stats.Source),
		zap.Int("chunks", stats.Chunks),
		zap.Int("dimensions", stats.Dimensions),
		zap.Int64("embedding_bytes", stats.EmbeddingBytes),
		zap.String("embedder", stats.EmbedderName),
		zap.Duration("elapsed", elapsed))
	return stats, nil
}

// embedChunks embeds chunks in batches, at most idx.concurrency batches at a time.
// The result is in chunk order.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []*models.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)
	for lo := 0; lo < len(chunks); lo += idx.batchSize {
		lo := lo
		hi := min(lo+idx.batchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, hi-lo)
			for i := lo; i < hi; i++ {
				texts[i-lo] = chunks[i].Content
			}
			batch, err := idx.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("chunks %d-%d: %w", lo, hi-1, err)
			}
			if len(batch) != len(texts) {
				return fmt.Errorf("chunks %d-%d: got %d embeddings for %d texts", lo, hi-1, len(batch), len(texts))
			}
			copy(vectors[lo:hi], batch)
			idx.logger.Debug("embedded batch", zap.Int("from", lo), zap.Int("to", hi-1))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
