// Package fixhound provides a library for tracking software issues and
// searching them by meaning.
//
// Issues are stored relationally alongside embedding vectors of their text.
// Search embeds the free-text query once, applies exact-match severity and
// application filters, then ranks by cosine similarity.
//
// Basic usage:
//
//	client, err := fixhound.New(
//	    fixhound.WithSQLite("fixhound.db"),
//	    fixhound.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	results, err := client.Search.Query(ctx, search.NewQuery("printer jams on duplex",
//	    search.WithSeverity(issue.SeverityCritical),
//	    search.WithLimit(10),
//	))
package fixhound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/fixhound/fixhound/application/service"
	"github.com/fixhound/fixhound/infrastructure/persistence"
	"github.com/fixhound/fixhound/infrastructure/provider"
	infrasearch "github.com/fixhound/fixhound/infrastructure/search"
	"github.com/fixhound/fixhound/internal/database"
)

// Construction errors.
var (
	ErrNoDatabase = errors.New("fixhound: no database configured")
	ErrNoEmbedder = errors.New("fixhound: no embedding provider configured")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("fixhound: client is closed")
)

// Client is the main entry point for the fixhound library.
//
// Access resources via struct fields:
//
//	client.Search.Query(ctx, query)
//	client.Issues.CreateIssue(ctx, i)
//	client.Applications.List(ctx)
type Client struct {
	Search       *service.Search
	Issues       *service.Ingest
	Applications *service.Applications

	db         database.Database
	issueStore *persistence.IssueStore
	appStore   *persistence.ApplicationStore
	logger     *slog.Logger
	dimension  int
	closed     atomic.Bool
}

// New creates a Client with the given options. The database schema is
// migrated on creation, including the embedding column sized to the
// deployment's pinned dimension.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dbURL == "" {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	embedder := cfg.embedder
	if embedder == nil {
		if cfg.embedding.APIKey() == "" {
			return nil, ErrNoEmbedder
		}
		embedder = provider.NewOpenAIEmbedder(provider.OpenAIConfig{
			APIKey:        cfg.embedding.APIKey(),
			BaseURL:       cfg.embedding.BaseURL(),
			Model:         cfg.embedding.Model(),
			Dimension:     cfg.embedding.Dimension(),
			Timeout:       cfg.embedding.Timeout(),
			MaxRetries:    cfg.embedding.MaxRetries(),
			InitialDelay:  cfg.embedding.InitialDelay(),
			BackoffFactor: cfg.embedding.BackoffFactor(),
		})
	}

	ctx := context.Background()
	db, err := database.New(ctx, cfg.dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.Migrate(db, cfg.dimension); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), errClose)
	}

	issueStore := persistence.NewIssueStore(db, cfg.dimension)
	appStore := persistence.NewApplicationStore(db)
	searcher := infrasearch.NewVectorSearch(db, cfg.dimension, logger)

	client := &Client{
		db:         db,
		issueStore: issueStore,
		appStore:   appStore,
		logger:     logger,
		dimension:  cfg.dimension,
	}

	client.Search = service.NewSearch(embedder, searcher, service.SearchConfig{
		DefaultLimit: cfg.searchLimit,
		Timeout:      cfg.searchTimeout,
	}, logger)
	client.Issues = service.NewIngest(issueStore, appStore, embedder, service.IngestConfig{
		BatchSize: cfg.batchSize,
		Workers:   cfg.workers,
		EmbedRate: cfg.embedRate,
	}, logger)
	client.Applications = service.NewApplications(appStore, issueStore, logger)

	return client, nil
}

// Close releases the database connection. Further use of the client fails.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("fixhound client closed")
	return nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Dimension returns the deployment's pinned embedding dimension.
func (c *Client) Dimension() int {
	return c.dimension
}
