// Package pipeline wires indexing and question answering together behind a
// readiness gate: no question is answered until the index has been built.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/vaxguide/internal/apperr"
	"github.com/hyperjump/vaxguide/internal/llm"
	"github.com/hyperjump/vaxguide/internal/models"
	"github.com/hyperjump/vaxguide/internal/prompt"
)

const (
	// NoInformationAnswer is returned without a model call when retrieval finds no context.
	NoInformationAnswer = "I don't know. No relevant information is available in the document."
	// UnableToAnswer replaces an answer whose generation failed.
	UnableToAnswer = "Unable to generate an answer at this time."

	defaultTopK           = 2
	defaultMaxConcurrency = 4
)

var (
	// ErrNotReady is returned by Answer before the index is built.
	ErrNotReady = errors.New("pipeline is not ready")
	// ErrAlreadyBuilt is returned by a second Build.
	ErrAlreadyBuilt = errors.New("pipeline already built")
	// ErrEmptyDocument is returned by Build for a document with no text.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrEmptyQuestion is returned for a blank question.
	ErrEmptyQuestion = models.ErrEmptyQuestion
)

// State is the lifecycle stage of an Orchestrator.
type State int32

const (
	StateUninitialized State = iota
	StateBuilding
	StateIndexed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBuilding:
		return "building"
	case StateIndexed:
		return "indexed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IndexBuilder builds the index from a document.
type IndexBuilder interface {
	Build(ctx context.Context, doc *models.Document) (*models.BuildStats, error)
}

// Retriever returns the k chunk texts most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// Orchestrator owns the build-then-serve lifecycle.
type Orchestrator struct {
	indexer   IndexBuilder
	retriever Retriever
	builder   *prompt.Builder
	generator llm.Generator

	topK           int
	maxConcurrency int
	logger         *zap.Logger

	mu    sync.RWMutex
	state State
	stats *models.BuildStats
	ready chan struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTopK sets how many chunks ground each answer.
func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithMaxConcurrency bounds the questions AnswerAll answers at once.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrency = n
		}
	}
}

// New creates an orchestrator in the uninitialized state.
func New(indexer IndexBuilder, retriever Retriever, builder *prompt.Builder, generator llm.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		indexer:        indexer,
		retriever:      retriever,
		builder:        builder,
		generator:      generator,
		topK:           defaultTopK,
		maxConcurrency: defaultMaxConcurrency,
		logger:         zap.NewNop(),
		ready:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Build indexes doc. It runs at most once; on success the readiness gate opens.
// Any failure leaves the orchestrator failed for good. An empty document is a
// configuration error; other failures are index build errors.
func (o *Orchestrator) Build(ctx context.Context, doc *models.Document) (*models.BuildStats, error) {
	o.mu.Lock()
	if o.state != StateUninitialized {
		o.mu.Unlock()
		return nil, ErrAlreadyBuilt
	}
	o.state = StateBuilding
	o.mu.Unlock()

	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		o.setState(StateFailed)
		err := apperr.Configuration("build index", ErrEmptyDocument)
		o.logger.Error("index build failed", zap.Error(err))
		return nil, err
	}
	stats, err := o.indexer.Build(ctx, doc)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindConfiguration {
			err = ensureKind(err, apperr.KindIndexBuild, "build index")
		}
		o.setState(StateFailed)
		o.logger.Error("index build failed",
			zap.String("kind", apperr.KindOf(err).String()),
			zap.Error(err))
		return nil, err
	}

	o.mu.Lock()
	o.state = StateIndexed
	o.stats = stats
	o.mu.Unlock()
	close(o.ready)
	o.logger.Info("pipeline ready", zap.Int("chunks", stats.Chunks), zap.Int("top_k", o.topK))
	return stats, nil
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Ready returns a channel closed once the index is built.
func (o *Orchestrator) Ready() <-chan struct{} {
	return o.ready
}

// IsReady reports whether questions can be answered.
func (o *Orchestrator) IsReady() bool {
	select {
	case <-o.ready:
		return true
	default:
		return false
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Stats returns the build statistics, or nil before a successful build.
func (o *Orchestrator) Stats() *models.BuildStats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stats
}

// GeneratorName names the answer generator.
func (o *Orchestrator) GeneratorName() string {
	return o.generator.Name()
}

// Answer retrieves context for question and generates a grounded answer.
// With no context it returns NoInformationAnswer without calling the model.
func (o *Orchestrator) Answer(ctx context.Context, question string) (*models.Answer, error) {
	if !o.IsReady() {
		return nil, ErrNotReady
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	started := time.Now()

	chunks, err := o.retriever.Retrieve(ctx, question, o.topK)
	if err != nil {
		err = ensureKind(err, apperr.KindRetrieval, "retrieve")
		o.logger.Error("retrieval failed", zap.String("question", question), zap.Error(err))
		return nil, err
	}

	p := o.builder.Build(chunks, question)
	if p.EmptyContext {
		return &models.Answer{Question: question, Text: NoInformationAnswer, Context: []string{}}, nil
	}

	text, err := o.generator.Generate(ctx, p.Text)
	if err != nil {
		err = ensureKind(err, apperr.KindGeneration, "generate")
		o.logger.Warn("generation failed", zap.String("question", question), zap.Error(err))
		return nil, err
	}
	o.logger.Info("question answered",
		zap.Int("chunks", len(chunks)),
		zap.Duration("elapsed", time.Since(started)))
	return &models.Answer{Question: question, Text: text, Context: chunks, Grounded: true}, nil
}

// Result is one AnswerAll outcome.
type Result struct {
	Question string
	Answer   *models.Answer
	Err      error
}

// AnswerAll answers questions concurrently. Results are in question order and
// each carries its own error.
func (o *Orchestrator) AnswerAll(ctx context.Context, questions []string) []Result {
	results := make([]Result, len(questions))
	var g errgroup.Group
	g.SetLimit(o.maxConcurrency)
	for i, q := range questions {
		i, q := i, q
		g.Go(func() error {
			a, err := o.Answer(ctx, q)
			results[i] = Result{Question: q, Answer: a, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ensureKind classifies err as kind unless it already carries a kind.
func ensureKind(err error, kind apperr.Kind, op string) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	switch kind {
	case apperr.KindRetrieval:
		return apperr.Retrieval(op, err)
	case apperr.KindGeneration:
		return apperr.Generation(op, err)
	default:
		return apperr.IndexBuild(op, err)
	}
}
