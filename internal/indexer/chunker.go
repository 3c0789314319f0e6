// Package indexer splits a document into chunks and builds the vector index from them.
package indexer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/hyperjump/vaxguide/internal/models"
)

// ErrInvalidChunking is returned for a size/overlap pair that cannot make progress.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// maxWordBack bounds how far a chunk start may move back to reach the start of a word.
const maxWordBack = 16

// boundaryLevels are natural break points, most preferred first.
// Separators in the same level are equally preferred.
var boundaryLevels = [][][]rune{
	{[]rune("\n\n")},
	{[]rune("\n")},
	{[]rune(". "), []rune("! "), []rune("? ")},
	{[]rune("; "), []rune(", ")},
	{[]rune(" ")},
}

// Chunker splits text into overlapping character windows.
// Lengths are counted in runes.
type Chunker struct {
	maxLen  int
	overlap int
}

// NewChunker creates a chunker that emits chunks of at most maxLen characters,
// consecutive chunks sharing at least overlap characters.
func NewChunker(maxLen, overlap int) (*Chunker, error) {
	if maxLen <= 0 || overlap < 0 || overlap >= maxLen {
		return nil, fmt.Errorf("%w: size %d, overlap %d (need 0 <= overlap < size)", ErrInvalidChunking, maxLen, overlap)
	}
	return &Chunker{maxLen: maxLen, overlap: overlap}, nil
}

// MaxLen returns the maximum chunk length.
func (c *Chunker) MaxLen() int { return c.maxLen }

// Overlap returns the minimum overlap between consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text into ordered chunks covering all of it.
// Blank text yields nil.
func (c *Chunker) Chunk(docID, text string) []*models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	n := len(runes)
	var chunks []*models.Chunk
	start, prevEnd := 0, 0
	for {
		end := start + c.maxLen
		if end >= n {
			end = n
		} else {
			end = c.snapEnd(runes, start, end, prevEnd)
		}
		chunks = append(chunks, &models.Chunk{
			ID:         fmt.Sprintf("%s_%s", docID, uuid.New().String()[:8]),
			DocumentID: docID,
			Index:      len(chunks),
			Start:      start,
			End:        end,
			Content:    string(runes[start:end]),
		})
		if end == n {
			return chunks
		}
		prevEnd = end
		start = c.nextStart(runes, start, end)
	}
}

// snapEnd moves hardEnd back to the best natural boundary. The result always
// leaves room for the overlap and extends past the previous chunk.
func (c *Chunker) snapEnd(r []rune, start, hardEnd, prevEnd int) int {
	minEnd := start + max(c.overlap+1, c.maxLen/2)
	if minEnd <= prevEnd {
		minEnd = prevEnd + 1
	}
	if minEnd > hardEnd {
		return hardEnd
	}
	for _, level := range boundaryLevels {
		best := -1
		for _, sep := range level {
			if e := lastBoundary(r, minEnd, hardEnd, sep); e > best {
				best = e
			}
		}
		if best >= 0 {
			return best
		}
	}
	return hardEnd
}

// lastBoundary returns the largest e in [minEnd, hardEnd] such that sep ends at e, or -1.
func lastBoundary(r []rune, minEnd, hardEnd int, sep []rune) int {
	for e := hardEnd; e >= minEnd; e-- {
		p := e - len(sep)
		if p < 0 {
			return -1
		}
		if runesEqual(r[p:e], sep) {
			return e
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// nextStart returns the start of the chunk after [start, end). It begins
// overlap characters before end and may move back to the start of a word.
func (c *Chunker) nextStart(r []rune, start, end int) int {
	next := end - c.overlap
	if next == 0 || unicode.IsSpace(r[next-1]) {
		return next
	}
	limit := max(next-maxWordBack, start+1, end-c.maxLen+1)
	for i := next - 1; i >= limit; i-- {
		if unicode.IsSpace(r[i-1]) {
			return i
		}
	}
	return next
}
