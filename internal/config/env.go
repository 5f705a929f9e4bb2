package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Variables are read without a prefix, matching the deployment convention
// of the original service (HOST, PORT, DATABASE_URL, OPENAI_API_KEY, ...).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DatabaseURL is the database connection URL.
	// Env: DATABASE_URL (default: sqlite:///fixhound.db)
	DatabaseURL string `envconfig:"DATABASE_URL" default:"sqlite:///fixhound.db"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingEnv `envconfig:"EMBEDDING"`

	// OpenAIAPIKey is the OpenAI API key. Used when EMBEDDING_API_KEY is
	// not set, matching the original deployment variable.
	// Env: OPENAI_API_KEY
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// SearchLimit is the default search result limit.
	// Env: SEARCH_LIMIT (default: 20)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"20"`

	// SearchTimeout is the budget for a single search request.
	// Env: SEARCH_TIMEOUT (default: 15s)
	SearchTimeout time.Duration `envconfig:"SEARCH_TIMEOUT" default:"15s"`

	// BackfillBatchSize is the number of issues claimed per backfill pass.
	// Env: BACKFILL_BATCH_SIZE (default: 50)
	BackfillBatchSize int `envconfig:"BACKFILL_BATCH_SIZE" default:"50"`

	// BackfillWorkers is the backfill worker count.
	// Env: BACKFILL_WORKERS (default: 4)
	BackfillWorkers int `envconfig:"BACKFILL_WORKERS" default:"4"`

	// EmbedRate limits provider calls per second during backfill.
	// Env: EMBED_RATE (default: 10)
	EmbedRate float64 `envconfig:"EMBED_RATE" default:"10"`
}

// EmbeddingEnv holds environment configuration for the embedding endpoint.
type EmbeddingEnv struct {
	// BaseURL overrides the provider base URL (e.g. a proxy).
	// Env: EMBEDDING_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the pinned embedding model identifier.
	// Env: EMBEDDING_MODEL (default: text-embedding-3-small)
	Model string `envconfig:"MODEL" default:"text-embedding-3-small"`

	// APIKey is the provider API key.
	// Env: EMBEDDING_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Dimension is the pinned embedding dimension. Changing it after
	// deployment mixes incompatible vector spaces; don't.
	// Env: EMBEDDING_DIMENSION (default: 1536)
	Dimension int `envconfig:"DIMENSION" default:"1536"`

	// Timeout is the per-call provider timeout.
	// Env: EMBEDDING_TIMEOUT (default: 30s)
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s"`

	// MaxRetries is the retry budget for ingestion-path provider calls.
	// Env: EMBEDDING_MAX_RETRIES (default: 0)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"0"`
}

// LoadFromEnv reads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts environment configuration to an AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	apiKey := e.Embedding.APIKey
	if apiKey == "" {
		apiKey = e.OpenAIAPIKey
	}

	emb := NewEmbedding().
		WithBaseURL(e.Embedding.BaseURL).
		WithModel(e.Embedding.Model).
		WithAPIKey(apiKey).
		WithDimension(e.Embedding.Dimension).
		WithTimeout(e.Embedding.Timeout).
		WithMaxRetries(e.Embedding.MaxRetries)

	cfg := NewAppConfig().
		WithHost(e.Host).
		WithPort(e.Port).
		WithDBURL(e.DatabaseURL).
		WithEmbedding(emb).
		WithSearchLimit(e.SearchLimit)
	cfg.logLevel = e.LogLevel
	cfg.logFormat = e.LogFormat
	cfg.searchTimeout = e.SearchTimeout
	cfg.backfillBatchSize = e.BackfillBatchSize
	cfg.backfillWorkers = e.BackfillWorkers
	cfg.embedRate = e.EmbedRate

	return cfg
}
