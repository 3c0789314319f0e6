// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"strings"
	"unicode"
)

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// stopWords are dropped by ContentWords.
var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "been": {}, "before": {}, "but": {}, "by": {}, "can": {}, "could": {}, "do": {},
	"does": {}, "did": {}, "for": {}, "from": {}, "get": {}, "had": {}, "has": {}, "have": {},
	"how": {}, "i": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "its": {}, "me": {},
	"my": {}, "need": {}, "of": {}, "on": {}, "or": {}, "our": {}, "should": {}, "so": {},
	"that": {}, "the": {}, "their": {}, "them": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "to": {}, "was": {}, "we": {}, "were": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "who": {}, "why": {}, "will": {}, "with": {}, "would": {}, "you": {}, "your": {},
}

// Words splits s into lowercase runs of letters and digits.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ContentWords returns the words of s without stop words.
func ContentWords(s string) []string {
	words := Words(s)
	out := words[:0]
	for _, w := range words {
		if IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// IsStopWord reports whether w (lowercase) is a stop word.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}
