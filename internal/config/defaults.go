package config

import "time"

// Provider and metric names accepted in the config file.
const (
	EmbeddingHashing = "hashing"
	EmbeddingOpenAI  = "openai"
	EmbeddingONNX    = "onnx"

	LLMOpenAI     = "openai"
	LLMExtractive = "extractive"

	MetricCosine    = "cosine"
	MetricEuclidean = "euclidean"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
	DefaultTemperature  = 0.7
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 120 * time.Second
	}
	if cfg.Server.CORS.AllowedOrigins == nil {
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.CORS.AllowedMethods == nil {
		cfg.Server.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if cfg.Server.CORS.AllowedHeaders == nil {
		cfg.Server.CORS.AllowedHeaders = []string{"Accept", "Content-Type"}
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = 300
	}
	if cfg.Document.Path == "" {
		cfg.Document.Path = "./my_document.txt"
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = DefaultChunkSize
	}
	if cfg.Chunking.Overlap == nil {
		o := DefaultChunkOverlap
		cfg.Chunking.Overlap = &o
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = EmbeddingHashing
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case EmbeddingOpenAI:
			cfg.Embedding.Model = "text-embedding-3-small"
		default:
			cfg.Embedding.Model = "all-MiniLM-L6-v2"
		}
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/vaxguide/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		switch cfg.Embedding.Provider {
		case EmbeddingOpenAI:
			cfg.Embedding.Dimensions = 1536
		default:
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 64
	}
	if cfg.Embedding.Concurrency == 0 {
		cfg.Embedding.Concurrency = 8
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 2
	}
	if cfg.Retrieval.Metric == "" {
		cfg.Retrieval.Metric = MetricCosine
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = LLMOpenAI
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Temperature == nil {
		t := DefaultTemperature
		cfg.LLM.Temperature = &t
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Advice.MaxQuestions == 0 {
		cfg.Advice.MaxQuestions = 5
	}
	if cfg.Advice.AgeRules == nil {
		cfg.Advice.AgeRules = []AgeRule{
			{Vaccine: "Influenza", OlderThan: 65},
			{Vaccine: "Hepatitis B", YoungerThan: 18},
		}
	}
	if cfg.Advice.TravelDateAdvice == "" {
		cfg.Advice.TravelDateAdvice = "Based on your travel date ({travel_date}), make sure to get any required vaccinations at least 2 weeks before departure."
	}
	if cfg.Advice.Notes == nil {
		cfg.Advice.Notes = []string{
			"Check with your healthcare provider for personalized recommendations",
			"Travel insurance is recommended for medical emergencies",
		}
	}
	if cfg.Telegram.TokenEnv == "" {
		cfg.Telegram.TokenEnv = "TELEGRAM_BOT_TOKEN"
	}
}
