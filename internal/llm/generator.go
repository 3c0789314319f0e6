// Package llm turns a grounded prompt into an answer.
package llm

import "context"

// DontKnowAnswer is what the extractive generator says when the context does
// not cover the question.
const DontKnowAnswer = "I don't know. The provided context does not contain that information."

// Generator produces an answer for a prompt. Implementations return only
// apperr generation errors and are safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}
