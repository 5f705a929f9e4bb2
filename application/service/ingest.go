package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/infrastructure/persistence"
	"github.com/fixhound/fixhound/infrastructure/provider"
	"github.com/fixhound/fixhound/internal/database"
)

// IngestConfig tunes the embedding pipeline.
type IngestConfig struct {
	// BatchSize is the number of unembedded issues claimed per backfill
	// pass.
	BatchSize int

	// Workers is the number of concurrent embedding calls during backfill.
	Workers int

	// EmbedRate caps provider calls per second across all workers. Zero
	// disables the limiter.
	EmbedRate float64
}

// BackfillStats summarizes one backfill run.
type BackfillStats struct {
	// Embedded counts issues this run attached an embedding to.
	Embedded int64

	// Skipped counts issues another writer embedded first.
	Skipped int64

	// Failed counts issues whose embedding call failed; they stay in the
	// backlog for the next run.
	Failed int64
}

// Ingest owns the write path: issue creation and embedding attachment.
//
// Creation is durable-first. The issue row is committed before any provider
// call, so a provider outage can never lose a report; the issue simply
// stays out of similarity results until an embedding is attached.
type Ingest struct {
	issues   *persistence.IssueStore
	apps     *persistence.ApplicationStore
	embedder provider.Embedder
	limiter  *rate.Limiter
	batch    int
	workers  int
	logger   *slog.Logger
}

// NewIngest creates an Ingest service.
func NewIngest(issues *persistence.IssueStore, apps *persistence.ApplicationStore, embedder provider.Embedder, cfg IngestConfig, logger *slog.Logger) *Ingest {
	if logger == nil {
		logger = slog.Default()
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 50
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.EmbedRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbedRate), 1)
	}

	return &Ingest{
		issues:   issues,
		apps:     apps,
		embedder: embedder,
		limiter:  limiter,
		batch:    batch,
		workers:  workers,
		logger:   logger,
	}
}

// CreateIssue persists an issue, then tries to attach its embedding. The
// embedding step is best effort: a provider failure is logged and the issue
// is still returned, without an embedding. The owning application must
// exist.
func (s *Ingest) CreateIssue(ctx context.Context, i issue.Issue) (issue.Issue, error) {
	if _, err := s.apps.GetByID(ctx, i.ApplicationID()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return issue.Issue{}, fmt.Errorf("%w: unknown application %s", ErrValidation, i.ApplicationID())
		}
		return issue.Issue{}, fmt.Errorf("%w: checking application: %v", ErrService, err)
	}

	saved, err := s.issues.Insert(ctx, i)
	if err != nil {
		return issue.Issue{}, fmt.Errorf("%w: saving issue: %v", ErrService, err)
	}

	if err := s.embedIssue(ctx, saved); err != nil {
		s.logger.Warn("embedding deferred to backfill",
			"issue_id", saved.ID(), "error", err)
		return saved, nil
	}

	return s.issues.GetByID(ctx, saved.ID())
}

// Backfill attaches embeddings to every issue that lacks one, draining the
// backlog oldest first. Individual failures are counted and left for the
// next run; the run aborts only when ctx is done or a full pass makes no
// progress at all.
func (s *Ingest) Backfill(ctx context.Context) (BackfillStats, error) {
	var stats BackfillStats

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		pending, err := s.issues.FindNeedingEmbedding(ctx, s.batch)
		if err != nil {
			return stats, fmt.Errorf("%w: loading backlog: %v", ErrService, err)
		}
		if len(pending) == 0 {
			return stats, nil
		}

		var embedded, skipped, failed atomic.Int64

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)
		for _, item := range pending {
			item := item
			g.Go(func() error {
				claimed, err := s.backfillOne(gctx, item)
				switch {
				case err != nil:
					failed.Add(1)
					s.logger.Warn("backfill embedding failed",
						"issue_id", item.ID(), "error", err)
				case claimed:
					embedded.Add(1)
				default:
					skipped.Add(1)
				}
				// Per-issue failures never cancel the group; only ctx does.
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return stats, err
		}

		stats.Embedded += embedded.Load()
		stats.Skipped += skipped.Load()
		stats.Failed += failed.Load()

		if embedded.Load() == 0 && skipped.Load() == 0 {
			return stats, fmt.Errorf("%w: backfill made no progress, %d failures", ErrService, failed.Load())
		}
	}
}

// backfillOne embeds a single issue and claims the write. Returns false
// when another worker attached an embedding first.
func (s *Ingest) backfillOne(ctx context.Context, i issue.Issue) (bool, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return false, err
	}

	resp, err := s.embedder.Embed(ctx, provider.NewEmbeddingRequest(i.EmbeddingText()))
	if err != nil {
		return false, err
	}
	embeddings := resp.Embeddings()
	if len(embeddings) != 1 {
		return false, fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}

	return s.issues.UpdateEmbeddingIfAbsent(ctx, i.ID(), database.NewVector(embeddings[0]))
}

// embedIssue embeds an issue inline on the create path.
func (s *Ingest) embedIssue(ctx context.Context, i issue.Issue) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := s.embedder.Embed(ctx, provider.NewEmbeddingRequest(i.EmbeddingText()))
	if err != nil {
		return err
	}
	embeddings := resp.Embeddings()
	if len(embeddings) != 1 {
		return fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}

	return s.issues.UpdateEmbedding(ctx, i.ID(), database.NewVector(embeddings[0]))
}
