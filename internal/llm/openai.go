package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hyperjump/vaxguide/internal/apperr"
)

const (
	defaultChatModel = openai.GPT4oMini
	defaultTimeout   = 60 * time.Second
)

// ErrEmptyCompletion is returned when the model responds with no usable text.
var ErrEmptyCompletion = errors.New("completion has no content")

// OpenAIGenerator answers prompts with the chat completions API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
}

// OpenAIOptions configures an OpenAIGenerator. Zero values take defaults,
// except Temperature, where zero means greedy decoding.
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// NewOpenAIGenerator creates a chat completion generator. The API key is required.
func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if opts.APIKey == "" {
		return nil, apperr.Configuration("openai generator", errors.New("API key is required"))
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	g := &OpenAIGenerator{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: float32(opts.Temperature),
		maxTokens:   opts.MaxTokens,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
	}
	if g.model == "" {
		g.model = defaultChatModel
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	// The request field is omitempty; the smallest positive value keeps zero meaningful.
	if g.temperature == 0 {
		g.temperature = math.SmallestNonzeroFloat32
	}
	return g, nil
}

// Generate sends prompt as a single user message. Every failure, including
// timeouts and rate limits, is a generation error.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	started := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", apperr.Generation("chat completion", describe(ctx, err))
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Generation("chat completion", ErrEmptyCompletion)
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", apperr.Generation("chat completion", ErrEmptyCompletion)
	}
	g.logger.Debug("completion received",
		zap.String("model", g.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(started)))
	return answer, nil
}

// describe adds the status code of API errors and names timeouts.
func describe(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("api status %d: %w", apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("request status %d: %w", reqErr.HTTPStatusCode, err)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out: %w", err)
	}
	return err
}

// Name returns the model name.
func (g *OpenAIGenerator) Name() string {
	return "openai-" + g.model
}
