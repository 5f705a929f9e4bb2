// Package service provides application layer services that orchestrate
// domain operations over the store and the embedding provider.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fixhound/fixhound/domain/search"
	"github.com/fixhound/fixhound/infrastructure/provider"
)

// SearchConfig tunes the query engine.
type SearchConfig struct {
	// DefaultLimit applies when a query carries no limit of its own.
	// Non-positive values fall back to search.DefaultLimit.
	DefaultLimit int
	// Timeout bounds one search request end to end. Non-positive disables
	// the deadline.
	Timeout time.Duration
}

// Search answers free-text similarity queries. Each request embeds the
// query text once, then ranks stored issues by cosine distance with the
// relational filters applied before ranking.
type Search struct {
	embedder provider.Embedder
	searcher search.VectorSearcher
	cfg      SearchConfig
	logger   *slog.Logger
}

// NewSearch creates a Search service.
func NewSearch(embedder provider.Embedder, searcher search.VectorSearcher, cfg SearchConfig, logger *slog.Logger) *Search {
	if logger == nil {
		logger = slog.Default()
	}
	return &Search{
		embedder: embedder,
		searcher: searcher,
		cfg:      cfg,
		logger:   logger,
	}
}

// Query runs a similarity search. An empty query text fails with
// ErrValidation before any provider call is made. Provider failures
// surface as ErrService; the request is never retried here because the
// caller is waiting on it.
func (s *Search) Query(ctx context.Context, query search.Query) ([]search.Result, error) {
	text := query.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.embedder.Embed(ctx, provider.NewEmbeddingRequest(text))
	if err != nil {
		s.logger.Error("query embedding failed", "error", err)
		return nil, fmt.Errorf("%w: embedding query: %v", ErrService, err)
	}

	embeddings := resp.Embeddings()
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query embedding, got %d", ErrService, len(embeddings))
	}

	limit := query.LimitOr(s.cfg.DefaultLimit)
	results, err := s.searcher.NearestNeighbors(ctx, embeddings[0], query.Filters(), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %v", ErrService, err)
	}

	s.logger.Debug("search completed",
		"results", len(results),
		"limit", limit,
		"duration", time.Since(start))
	return results, nil
}
