// Package config provides application configuration.
package config

import (
	"time"
)

// Default configuration values.
const (
	DefaultHost               = "0.0.0.0"
	DefaultPort               = 8080
	DefaultLogLevel           = "INFO"
	DefaultDBURL              = "sqlite:///fixhound.db"
	DefaultEmbeddingModel     = "text-embedding-3-small"
	DefaultEmbeddingDimension = 1536
	DefaultEmbeddingTimeout   = 30 * time.Second
	DefaultSearchLimit        = 20
	MaxSearchLimit            = 100
	DefaultBackfillBatchSize  = 50
	DefaultBackfillWorkers    = 4
	DefaultEmbedRatePerSecond = 10.0
	DefaultSearchTimeout      = 15 * time.Second
)

// Embedding configures the embedding provider endpoint.
type Embedding struct {
	baseURL       string
	model         string
	apiKey        string
	dimension     int
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEmbedding creates an Embedding config with defaults.
func NewEmbedding() Embedding {
	return Embedding{
		model:         DefaultEmbeddingModel,
		dimension:     DefaultEmbeddingDimension,
		timeout:       DefaultEmbeddingTimeout,
		initialDelay:  2 * time.Second,
		backoffFactor: 2.0,
	}
}

// BaseURL returns the provider base URL (empty for the public API).
func (e Embedding) BaseURL() string { return e.baseURL }

// Model returns the pinned embedding model identifier.
func (e Embedding) Model() string { return e.model }

// APIKey returns the provider API key.
func (e Embedding) APIKey() string { return e.apiKey }

// Dimension returns the pinned embedding dimension.
func (e Embedding) Dimension() int { return e.dimension }

// Timeout returns the per-call provider timeout.
func (e Embedding) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the retry budget for provider calls.
// Zero means a single attempt; the search path uses zero so transient
// provider failures surface within the request latency budget.
func (e Embedding) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Embedding) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Embedding) BackoffFactor() float64 { return e.backoffFactor }

// WithBaseURL returns a copy with the base URL set.
func (e Embedding) WithBaseURL(u string) Embedding { e.baseURL = u; return e }

// WithModel returns a copy with the model set.
func (e Embedding) WithModel(m string) Embedding { e.model = m; return e }

// WithAPIKey returns a copy with the API key set.
func (e Embedding) WithAPIKey(k string) Embedding { e.apiKey = k; return e }

// WithDimension returns a copy with the dimension set.
func (e Embedding) WithDimension(d int) Embedding { e.dimension = d; return e }

// WithTimeout returns a copy with the timeout set.
func (e Embedding) WithTimeout(d time.Duration) Embedding { e.timeout = d; return e }

// WithMaxRetries returns a copy with the retry budget set.
func (e Embedding) WithMaxRetries(n int) Embedding { e.maxRetries = n; return e }

// AppConfig holds the resolved application configuration.
type AppConfig struct {
	host              string
	port              int
	dbURL             string
	logLevel          string
	logFormat         string
	embedding         Embedding
	searchLimit       int
	searchTimeout     time.Duration
	backfillBatchSize int
	backfillWorkers   int
	embedRate         float64
}

// NewAppConfig creates an AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:              DefaultHost,
		port:              DefaultPort,
		dbURL:             DefaultDBURL,
		logLevel:          DefaultLogLevel,
		logFormat:         "pretty",
		embedding:         NewEmbedding(),
		searchLimit:       DefaultSearchLimit,
		searchTimeout:     DefaultSearchTimeout,
		backfillBatchSize: DefaultBackfillBatchSize,
		backfillWorkers:   DefaultBackfillWorkers,
		embedRate:         DefaultEmbedRatePerSecond,
	}
}

// Host returns the server bind host.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port.
func (c AppConfig) Port() int { return c.port }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log verbosity level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format (pretty or json).
func (c AppConfig) LogFormat() string { return c.logFormat }

// Embedding returns the embedding provider configuration.
func (c AppConfig) Embedding() Embedding { return c.embedding }

// SearchLimit returns the default search result limit.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// SearchTimeout returns the budget for a single search request.
func (c AppConfig) SearchTimeout() time.Duration { return c.searchTimeout }

// BackfillBatchSize returns the number of issues claimed per backfill pass.
func (c AppConfig) BackfillBatchSize() int { return c.backfillBatchSize }

// BackfillWorkers returns the backfill worker count.
func (c AppConfig) BackfillWorkers() int { return c.backfillWorkers }

// EmbedRate returns the provider call rate limit in calls per second.
func (c AppConfig) EmbedRate() float64 { return c.embedRate }

// WithHost returns a copy with the host set.
func (c AppConfig) WithHost(h string) AppConfig { c.host = h; return c }

// WithPort returns a copy with the port set.
func (c AppConfig) WithPort(p int) AppConfig { c.port = p; return c }

// WithDBURL returns a copy with the database URL set.
func (c AppConfig) WithDBURL(u string) AppConfig { c.dbURL = u; return c }

// WithEmbedding returns a copy with the embedding config set.
func (c AppConfig) WithEmbedding(e Embedding) AppConfig { c.embedding = e; return c }

// WithSearchLimit returns a copy with the default search limit set.
func (c AppConfig) WithSearchLimit(n int) AppConfig { c.searchLimit = n; return c }

// WithBackfillBatchSize returns a copy with the backfill batch size set.
func (c AppConfig) WithBackfillBatchSize(n int) AppConfig { c.backfillBatchSize = n; return c }

// WithBackfillWorkers returns a copy with the backfill worker count set.
func (c AppConfig) WithBackfillWorkers(n int) AppConfig { c.backfillWorkers = n; return c }
