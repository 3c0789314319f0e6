// Package prompt assembles the grounded prompt sent to the language model.
package prompt

import (
	"strings"

	"go.uber.org/zap"
)

// DefaultTemplate restricts the model to the retrieved context.
// {context} and {question} are replaced in a single pass, so placeholder
// text inside a chunk or question is left alone.
const DefaultTemplate = `You are an assistant for question-answering tasks. Use only the following pieces of retrieved context to answer the question. If you don't know the answer from the context, just say that you don't know. Do not make up an answer. Keep the answer concise.

Context:
{context}

Question:
{question}

Answer:`

// ContextSeparator joins retrieved chunks.
const ContextSeparator = "\n\n"

// Prompt is a filled template.
type Prompt struct {
	Text     string
	Context  string
	Question string
	// EmptyContext is set when no retrieved chunk had any text.
	EmptyContext bool
}

// Builder fills the prompt template. It is stateless and safe for concurrent use.
type Builder struct {
	template string
	logger   *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithTemplate replaces the default template.
func WithTemplate(tmpl string) BuilderOption {
	return func(b *Builder) {
		if strings.TrimSpace(tmpl) != "" {
			b.template = tmpl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder returns a builder using DefaultTemplate unless overridden.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{template: DefaultTemplate, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fills the template with chunks, in order, and question.
// Chunks and question appear verbatim.
func (b *Builder) Build(chunks []string, question string) Prompt {
	joined := strings.Join(chunks, ContextSeparator)
	empty := true
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			empty = false
			break
		}
	}
	if empty {
		b.logger.Warn("prompt built with empty context", zap.Int("chunks", len(chunks)))
	}
	r := strings.NewReplacer("{context}", joined, "{question}", question)
	return Prompt{
		Text:         r.Replace(b.template),
		Context:      joined,
		Question:     question,
		EmptyContext: empty,
	}
}
