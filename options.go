package fixhound

import (
	"log/slog"
	"time"

	"github.com/fixhound/fixhound/infrastructure/provider"
	"github.com/fixhound/fixhound/internal/config"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	dbURL         string
	embedder      provider.Embedder
	embedding     config.Embedding
	dimension     int
	searchLimit   int
	searchTimeout time.Duration
	batchSize     int
	workers       int
	embedRate     float64
	logger        *slog.Logger
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	app := config.NewAppConfig()
	return &clientConfig{
		embedding:     app.Embedding(),
		dimension:     app.Embedding().Dimension(),
		searchLimit:   app.SearchLimit(),
		searchTimeout: app.SearchTimeout(),
		batchSize:     app.BackfillBatchSize(),
		workers:       app.BackfillWorkers(),
		embedRate:     app.EmbedRate(),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the database. Similarity ranking runs in
// process; suitable for local and small deployments.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.dbURL = "sqlite:///" + path
	}
}

// WithDatabaseURL configures the database from a connection URL
// (sqlite:///path or postgres://...). PostgreSQL requires the pgvector
// extension.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.dbURL = url
	}
}

// WithOpenAI sets OpenAI as the embedding provider using default model
// settings.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) {
		c.embedding = c.embedding.WithAPIKey(apiKey)
	}
}

// WithEmbeddingConfig sets the full embedding provider configuration.
// The dimension it carries becomes the deployment's pinned dimension.
func WithEmbeddingConfig(e config.Embedding) Option {
	return func(c *clientConfig) {
		c.embedding = e
		c.dimension = e.Dimension()
	}
}

// WithEmbedder sets a custom embedding provider. Its Dimension() becomes
// the deployment's pinned dimension.
func WithEmbedder(e provider.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
		c.dimension = e.Dimension()
	}
}

// WithSearchLimit sets the result count returned when a search query
// carries no limit of its own. Values <= 0 keep the default.
func WithSearchLimit(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithSearchTimeout sets the latency budget for a single search request.
func WithSearchTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.searchTimeout = d
		}
	}
}

// WithBackfill tunes the backfill pipeline: rows claimed per pass and
// concurrent embedding workers. Values <= 0 keep the defaults.
func WithBackfill(batchSize, workers int) Option {
	return func(c *clientConfig) {
		if batchSize > 0 {
			c.batchSize = batchSize
		}
		if workers > 0 {
			c.workers = workers
		}
	}
}

// WithEmbedRate caps embedding provider calls per second across the ingest
// pipeline. Zero or negative disables the cap.
func WithEmbedRate(perSecond float64) Option {
	return func(c *clientConfig) {
		c.embedRate = perSecond
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
