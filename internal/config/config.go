// Package config provides configuration loading and structs for the vaxguide service.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/vaxguide/internal/apperr"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Document  DocumentConfig  `yaml:"document"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	Advice    AdviceConfig    `yaml:"advice"`
	Telegram  TelegramConfig  `yaml:"telegram"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	StaticDir      string        `yaml:"static_dir"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORS           CORSConfig    `yaml:"cors"`
}

// CORSConfig is the single CORS policy applied to every route.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// DocumentConfig points at the source document.
type DocumentConfig struct {
	Path string `yaml:"path"`
}

// ChunkingConfig holds chunk size and overlap, in characters.
type ChunkingConfig struct {
	Size    int  `yaml:"size"`
	Overlap *int `yaml:"overlap"`
}

// OverlapOrDefault returns the configured overlap; defaults to 100 when unset.
func (c *ChunkingConfig) OverlapOrDefault() int {
	if c.Overlap != nil {
		return *c.Overlap
	}
	return DefaultChunkOverlap
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	ModelPath   string `yaml:"model_path"`
	Dimensions  int    `yaml:"dimensions"`
	MaxTokens   int    `yaml:"max_tokens"`
	CacheSize   int    `yaml:"cache_size"`
	CachePath   string `yaml:"cache_path"`
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"`
}

// RetrievalConfig holds search settings.
type RetrievalConfig struct {
	TopK   int    `yaml:"top_k"`
	Metric string `yaml:"metric"`
}

// LLMConfig holds language model settings.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Temperature *float64      `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
}

// TemperatureOrDefault returns the sampling temperature; defaults to 0.7 when unset.
func (l *LLMConfig) TemperatureOrDefault() float64 {
	if l.Temperature != nil {
		return *l.Temperature
	}
	return DefaultTemperature
}

// AgeRule recommends Vaccine to travellers older than OlderThan or younger than YoungerThan.
// A zero bound is ignored.
type AgeRule struct {
	Vaccine     string `yaml:"vaccine"`
	OlderThan   int    `yaml:"older_than"`
	YoungerThan int    `yaml:"younger_than"`
}

// AdviceConfig holds the static rules merged into /vaccination-info responses.
type AdviceConfig struct {
	MaxQuestions     int       `yaml:"max_questions"`
	AgeRules         []AgeRule `yaml:"age_rules"`
	TravelDateAdvice string    `yaml:"travel_date_advice"`
	Notes            []string  `yaml:"notes"`
}

// TelegramConfig holds bot settings.
type TelegramConfig struct {
	TokenEnv string `yaml:"token_env"`
}

// Default returns a config with every default applied and paths relative to the working directory.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Document.Path = expandPath(cfg.Document.Path, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.CachePath = expandPath(cfg.Embedding.CachePath, configDir)
	cfg.Server.StaticDir = expandPath(cfg.Server.StaticDir, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" is the home directory; other relative paths are relative to the home directory.
// An empty path stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	path = strings.TrimPrefix(path, "~/")
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

// Validate checks settings that would make the pipeline misbehave.
// Errors are configuration errors.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Document.Path) == "" {
		problems = append(problems, "document.path is required")
	}
	overlap := c.Chunking.OverlapOrDefault()
	if c.Chunking.Size <= 0 {
		problems = append(problems, "chunking.size must be positive")
	}
	if overlap < 0 || overlap >= c.Chunking.Size {
		problems = append(problems, fmt.Sprintf("chunking.overlap %d must be in [0, %d)", overlap, c.Chunking.Size))
	}
	if c.Retrieval.TopK <= 0 {
		problems = append(problems, "retrieval.top_k must be positive")
	}
	switch c.Retrieval.Metric {
	case MetricCosine, MetricEuclidean:
	default:
		problems = append(problems, fmt.Sprintf("retrieval.metric %q unsupported (cosine, euclidean)", c.Retrieval.Metric))
	}
	switch c.Embedding.Provider {
	case EmbeddingHashing, EmbeddingOpenAI, EmbeddingONNX:
	default:
		problems = append(problems, fmt.Sprintf("embedding.provider %q unsupported (hashing, openai, onnx)", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions <= 0 {
		problems = append(problems, "embedding.dimensions must be positive")
	}
	switch c.LLM.Provider {
	case LLMOpenAI, LLMExtractive:
	default:
		problems = append(problems, fmt.Sprintf("llm.provider %q unsupported (openai, extractive)", c.LLM.Provider))
	}
	if t := c.LLM.TemperatureOrDefault(); t < 0 || t > 2 {
		problems = append(problems, fmt.Sprintf("llm.temperature %.2f must be in [0, 2]", t))
	}
	if c.Advice.MaxQuestions <= 0 {
		problems = append(problems, "advice.max_questions must be positive")
	}
	if len(problems) > 0 {
		return apperr.Configuration("validate config", errors.New(strings.Join(problems, "; ")))
	}
	return nil
}

// RequiresAPIKey reports whether a configured provider calls the OpenAI API.
func (c *Config) RequiresAPIKey() bool {
	return c.LLM.Provider == LLMOpenAI || c.Embedding.Provider == EmbeddingOpenAI
}

// APIKey returns the credential from the environment variable named by llm.api_key_env.
// It is a configuration error for the key to be missing when a provider needs it.
func (c *Config) APIKey(getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	key := strings.TrimSpace(getenv(c.LLM.APIKeyEnv))
	if key == "" && c.RequiresAPIKey() {
		return "", apperr.Configuration("resolve credential",
			fmt.Errorf("%s is not set; export it or add it to a .env file", c.LLM.APIKeyEnv))
	}
	return key, nil
}

// TelegramToken returns the bot token from the environment variable named by telegram.token_env.
func (c *Config) TelegramToken(getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	token := strings.TrimSpace(getenv(c.Telegram.TokenEnv))
	if token == "" {
		return "", apperr.Configuration("resolve telegram token", fmt.Errorf("%s is not set", c.Telegram.TokenEnv))
	}
	return token, nil
}

// LoadDotEnv loads variables from the .env file at path without overriding the environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
