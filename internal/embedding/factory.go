package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/vaxguide/internal/config"
	"github.com/hyperjump/vaxguide/pkg/utils"
)

// NewEmbedder creates the embedder named by cfg.Provider. An ONNX model that
// cannot be loaded falls back to the hashing embedder with a warning.
func NewEmbedder(cfg *config.EmbeddingConfig, apiKey, baseURL string, logger *zap.Logger) (Embedder, error) {
	logger = utils.LoggerOrNop(logger)
	switch cfg.Provider {
	case config.EmbeddingHashing, "":
		return NewHashingEmbedder(cfg.Dimensions), nil
	case config.EmbeddingOpenAI:
		e, err := NewOpenAIEmbedder(OpenAIOptions{
			APIKey:      apiKey,
			BaseURL:     baseURL,
			Model:       cfg.Model,
			Dimensions:  cfg.Dimensions,
			BatchSize:   cfg.BatchSize,
			Concurrency: cfg.Concurrency,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.EmbeddingONNX:
		e, err := NewONNXEmbedder(cfg.Model, cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			logger.Warn("ONNX embedder unavailable, falling back to hashing embedder",
				zap.String("model_path", cfg.ModelPath),
				zap.Error(err))
			return NewHashingEmbedder(cfg.Dimensions), nil
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: hashing, openai, onnx)", cfg.Provider)
	}
}
