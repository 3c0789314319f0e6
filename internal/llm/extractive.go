package llm

import (
	"context"
	"strings"

	"github.com/hyperjump/vaxguide/internal/apperr"
	"github.com/hyperjump/vaxguide/pkg/utils"
)

const (
	contextHeader  = "Context:\n"
	questionHeader = "\n\nQuestion:\n"
	answerHeader   = "\n\nAnswer:"

	maxSentences = 3
	// minPrefix is how many leading letters two words must share to match.
	minPrefix = 5
)

// ExtractiveGenerator answers by quoting the context sentences that share the
// most content words with the question. It never produces text that is not in
// the context, and needs no network.
type ExtractiveGenerator struct{}

// NewExtractiveGenerator returns an extractive generator.
func NewExtractiveGenerator() *ExtractiveGenerator {
	return &ExtractiveGenerator{}
}

// Generate expects a prompt with Context and Question sections.
func (g *ExtractiveGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Generation("extract answer", err)
	}
	passage, question := splitPrompt(prompt)
	qwords := utils.ContentWords(question)
	if len(qwords) == 0 {
		return DontKnowAnswer, nil
	}
	need := max(1, (len(qwords)+1)/2)

	var picked []string
	for _, s := range sentences(passage) {
		if overlap(qwords, utils.ContentWords(s)) >= need {
			picked = append(picked, s)
			if len(picked) == maxSentences {
				break
			}
		}
	}
	if len(picked) == 0 {
		return DontKnowAnswer, nil
	}
	return strings.Join(picked, " "), nil
}

// Name returns "extractive".
func (g *ExtractiveGenerator) Name() string {
	return "extractive"
}

func splitPrompt(prompt string) (passage, question string) {
	ci := strings.Index(prompt, contextHeader)
	qi := strings.LastIndex(prompt, questionHeader)
	if ci < 0 || qi < ci {
		return prompt, prompt
	}
	passage = prompt[ci+len(contextHeader) : qi]
	question = prompt[qi+len(questionHeader):]
	if ai := strings.LastIndex(question, answerHeader); ai >= 0 {
		question = question[:ai]
	}
	return passage, question
}

// sentences splits text at sentence ends and line breaks, dropping duplicates
// that come from overlapping chunks.
func sentences(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		start := 0
		for i := 0; i < len(line); i++ {
			c := line[i]
			if (c == '.' || c == '!' || c == '?') && (i+1 == len(line) || line[i+1] == ' ') {
				out = appendSentence(out, seen, line[start:i+1])
				start = i + 1
			}
		}
		out = appendSentence(out, seen, line[start:])
	}
	return out
}

func appendSentence(out []string, seen map[string]struct{}, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	if _, dup := seen[s]; dup {
		return out
	}
	seen[s] = struct{}{}
	return append(out, s)
}

// overlap counts question words that match some sentence word.
func overlap(question, sentence []string) int {
	n := 0
	for _, q := range question {
		for _, w := range sentence {
			if wordsMatch(q, w) {
				n++
				break
			}
		}
	}
	return n
}

func wordsMatch(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) < minPrefix || len(b) < minPrefix {
		return false
	}
	return a[:minPrefix] == b[:minPrefix]
}
