package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/vaxguide/internal/apperr"
	"github.com/hyperjump/vaxguide/internal/config"
)

// NewGenerator creates the generator named by cfg.Provider.
func NewGenerator(cfg *config.LLMConfig, apiKey string, logger *zap.Logger) (Generator, error) {
	switch cfg.Provider {
	case config.LLMOpenAI, "":
		g, err := NewOpenAIGenerator(OpenAIOptions{
			APIKey:      apiKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.TemperatureOrDefault(),
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.LLMExtractive:
		return NewExtractiveGenerator(), nil
	default:
		return nil, apperr.Configuration("new generator",
			fmt.Errorf("unknown llm provider: %s (supported: openai, extractive)", cfg.Provider))
	}
}
