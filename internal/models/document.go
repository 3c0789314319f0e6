// Package models defines core data structures for documents, chunks, questions, and answers.
package models

import "time"

// Document is the loaded source text, normalized at load. It is immutable once loaded.
type Document struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Content  string    `json:"content"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Chunk is a contiguous excerpt of a Document. Start and End are rune offsets
// into Document.Content; Content is exactly that range.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Content    string `json:"content"`
}

// Len returns the chunk length in characters.
func (c *Chunk) Len() int {
	return c.End - c.Start
}

// BuildStats describes a completed index build.
type BuildStats struct {
	Source         string        `json:"source"`
	DocumentChars  int           `json:"document_chars"`
	Chunks         int           `json:"chunks"`
	Dimensions     int           `json:"dimensions"`
	EmbeddingBytes int64         `json:"embedding_bytes"`
	Duration       time.Duration `json:"-"`
	DurationMs     int64         `json:"duration_ms"`
	EmbedderName   string        `json:"embedder"`
	CompletedAt    time.Time     `json:"completed_at"`
}

// EstimateEmbeddingBytes returns the memory taken by chunks float32 vectors of dims dimensions.
func EstimateEmbeddingBytes(chunks, dims int) int64 {
	return int64(chunks) * int64(dims) * 4
}
