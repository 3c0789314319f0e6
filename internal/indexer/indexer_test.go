package indexer

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hyperjump/vaxguide/internal/apperr"
	"github.com/hyperjump/vaxguide/internal/embedding"
	"github.com/hyperjump/vaxguide/internal/extract"
	"github.com/hyperjump/vaxguide/internal/models"
	"github.com/hyperjump/vaxguide/internal/vector"
)

const travelDoc = `Yellow fever vaccination is required for travelers to Brazil. The vaccine should be given at least 10 days before travel.

Typhoid vaccination is recommended for travelers to India, especially those visiting rural areas.

Hepatitis A vaccination is recommended for most travelers to Mexico.`

type failingEmbedder struct {
	*embedding.HashingEmbedder
	calls atomic.Int32
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	return nil, errors.New("embedding service unavailable")
}

func testIndexer(t *testing.T, size, overlap int, opts ...IndexerOption) (*Indexer, *vector.MemoryIndex) {
	t.Helper()
	chunker, err := NewChunker(size, overlap)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := vector.NewMemoryIndex(64, vector.MetricCosine)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return NewIndexer(chunker, embedding.NewHashingEmbedder(64), idx, opts...), idx
}

func TestIndexer_Build(t *testing.T) {
	ix, idx := testIndexer(t, 120, 20, WithBatchSize(2), WithConcurrency(3))
	doc := extract.NewDocument("travel.txt", travelDoc)

	stats, err := ix.Build(context.Background(), doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.Chunks < 2 {
		t.Errorf("Chunks = %d, want several", stats.Chunks)
	}
	if idx.Size() != stats.Chunks {
		t.Errorf("index size %d != chunks %d", idx.Size(), stats.Chunks)
	}
	if stats.Dimensions != 64 || stats.EmbeddingBytes != int64(stats.Chunks*64*4) {
		t.Errorf("Dimensions = %d, EmbeddingBytes = %d", stats.Dimensions, stats.EmbeddingBytes)
	}
	if stats.EmbedderName != "hashing" || stats.Source != "travel.txt" {
		t.Errorf("stats = %+v", stats)
	}

	q, _ := embedding.NewHashingEmbedder(64).Embed(context.Background(), "yellow fever vaccine Brazil")
	res, err := idx.Search(context.Background(), q, 1)
	if err != nil || len(res) != 1 {
		t.Fatalf("Search = %v, %v", res, err)
	}
	if !strings.Contains(res[0].Chunk.Content, "Brazil") {
		t.Errorf("top chunk = %q, want the Brazil passage", res[0].Chunk.Content)
	}
	for i, r := range res {
		if r.Chunk.DocumentID != doc.ID {
			t.Errorf("result %d document = %q, want %q", i, r.Chunk.DocumentID, doc.ID)
		}
	}
}

func TestIndexer_Build_chunkOffsetsIndexContent(t *testing.T) {
	raw := "Line one.   \r\nYellow fever vaccine is required for Brazil.\r\n\r\nTyphoid vaccine is recommended for India.  \r\n"
	tests := []struct {
		name string
		doc  *models.Document
	}{
		{"crlf through NewDocument", extract.NewDocument("crlf.txt", raw)},
		{"document built by hand", &models.Document{ID: "manual", Source: "manual.txt", Content: raw}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, idx := testIndexer(t, 40, 8)
			if _, err := ix.Build(context.Background(), tt.doc); err != nil {
				t.Fatalf("Build: %v", err)
			}
			q, _ := embedding.NewHashingEmbedder(64).Embed(context.Background(), "yellow fever vaccine")
			res, err := idx.Search(context.Background(), q, idx.Size())
			if err != nil {
				t.Fatal(err)
			}
			if len(res) != idx.Size() || len(res) < 2 {
				t.Fatalf("got %d results for %d chunks", len(res), idx.Size())
			}
			content := []rune(tt.doc.Content)
			for _, r := range res {
				ch := r.Chunk
				if got := string(content[ch.Start:ch.End]); got != ch.Content {
					t.Errorf("chunk %d: Content[%d:%d] = %q, chunk content %q", ch.Index, ch.Start, ch.End, got, ch.Content)
				}
			}
		})
	}
}

func TestIndexer_Build_emptyDocument(t *testing.T) {
	ix, idx := testIndexer(t, 100, 10)
	for _, content := range []string{"", "   \n\t\n  ", "\ufeff"} {
		_, err := ix.Build(context.Background(), extract.NewDocument("empty.txt", content))
		if !apperr.IsKind(err, apperr.KindConfiguration) {
			t.Errorf("Build(%q) error = %v, want ConfigurationError", content, err)
		}
		if !errors.Is(err, extract.ErrEmptyDocument) {
			t.Errorf("Build(%q) error = %v, want ErrEmptyDocument", content, err)
		}
	}
	if idx.Built() {
		t.Error("index built from an empty document")
	}
	if _, err := ix.Build(context.Background(), nil); !apperr.IsKind(err, apperr.KindConfiguration) {
		t.Errorf("Build(nil) error = %v", err)
	}
}

func TestIndexer_Build_embeddingFailure(t *testing.T) {
	chunker, _ := NewChunker(60, 10)
	idx, _ := vector.NewMemoryIndex(16, vector.MetricCosine)
	emb := &failingEmbedder{HashingEmbedder: embedding.NewHashingEmbedder(16)}
	ix := NewIndexer(chunker, emb, idx, WithBatchSize(1), WithConcurrency(1))

	_, err := ix.Build(context.Background(), extract.NewDocument("travel.txt", travelDoc))
	if !apperr.IsKind(err, apperr.KindIndexBuild) {
		t.Fatalf("error = %v, want IndexBuildError", err)
	}
	if idx.Built() {
		t.Error("index built despite embedding failure")
	}
	if emb.calls.Load() == 0 {
		t.Error("embedder never called")
	}
}

func TestIndexer_Build_dimensionMismatch(t *testing.T) {
	chunker, _ := NewChunker(100, 10)
	idx, _ := vector.NewMemoryIndex(32, vector.MetricCosine)
	ix := NewIndexer(chunker, embedding.NewHashingEmbedder(16), idx)

	_, err := ix.Build(context.Background(), extract.NewDocument("travel.txt", travelDoc))
	if !apperr.IsKind(err, apperr.KindIndexBuild) || !errors.Is(err, vector.ErrDimensionMismatch) {
		t.Errorf("error = %v, want IndexBuildError wrapping ErrDimensionMismatch", err)
	}
}

type countingEmbedder struct {
	*embedding.HashingEmbedder
	batches atomic.Int32
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batches.Add(1)
	return c.HashingEmbedder.EmbedBatch(ctx, texts)
}

func TestIndexer_Build_once(t *testing.T) {
	chunker, _ := NewChunker(200, 20)
	idx, _ := vector.NewMemoryIndex(64, vector.MetricCosine)
	emb := &countingEmbedder{HashingEmbedder: embedding.NewHashingEmbedder(64)}
	ix := NewIndexer(chunker, emb, idx)
	doc := extract.NewDocument("travel.txt", travelDoc)
	if _, err := ix.Build(context.Background(), doc); err != nil {
		t.Fatal(err)
	}
	first := emb.batches.Load()

	_, err := ix.Build(context.Background(), doc)
	if !errors.Is(err, vector.ErrAlreadyBuilt) || !apperr.IsKind(err, apperr.KindIndexBuild) {
		t.Errorf("second Build error = %v, want IndexBuildError wrapping ErrAlreadyBuilt", err)
	}
	if got := emb.batches.Load(); got != first {
		t.Errorf("second Build embedded %d more batches, want none", got-first)
	}
}
