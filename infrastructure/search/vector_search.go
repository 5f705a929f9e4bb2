package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/domain/search"
	"github.com/fixhound/fixhound/internal/database"
)

// searchRow is the flat scan target for similarity queries: issue fields,
// the owning application's summary fields, and either the SQL-computed
// distance (PostgreSQL) or the raw embedding (SQLite).
type searchRow struct {
	ID              string
	ApplicationID   string
	Title           string
	Summary         string
	Severity        string
	IssueType       string
	SourceType      string
	SourceURL       string
	SourceDate      *time.Time
	Upvotes         int
	CommentCount    int
	RawContent      string
	CreatedAt       time.Time
	ApplicationName string
	Vendor          string
	Distance        float64
	Embedding       database.Vector
}

const searchRowColumns = `
i.id, i.application_id, i.title, i.summary, i.severity, i.issue_type,
i.source_type, i.source_url, i.source_date, i.upvotes, i.comment_count,
i.raw_content, i.created_at, a.name AS application_name, a.vendor`

// VectorSearch is the nearest-neighbor query primitive of the store
// adapter. Only rows with a present embedding ever participate; relational
// filters are applied as exact-match predicates before ranking.
type VectorSearch struct {
	db        database.Database
	dimension int
	logger    *slog.Logger
}

// NewVectorSearch creates a VectorSearch pinned to the deployment's
// embedding dimension.
func NewVectorSearch(db database.Database, dimension int, logger *slog.Logger) *VectorSearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorSearch{db: db, dimension: dimension, logger: logger}
}

// NearestNeighbors returns up to limit issues ranked by ascending cosine
// distance to the query vector, ties (within DistanceTolerance) broken by
// descending created_at. A query vector whose length differs from the
// pinned dimension fails fast with database.ErrDimensionMismatch; nothing
// is read or written in that case.
func (s *VectorSearch) NearestNeighbors(ctx context.Context, vector []float64, filters search.Filters, limit int) ([]search.Result, error) {
	queryVec := database.NewVector(vector)
	if err := queryVec.Validate(s.dimension); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = search.DefaultLimit
	}

	if s.db.IsPostgres() {
		return s.pgNearest(ctx, queryVec, filters, limit)
	}
	return s.sqliteNearest(ctx, queryVec, filters, limit)
}

// pgNearest pushes ranking down to pgvector. The distance expression is
// duplicated in ORDER BY so the planner can use the ivfflat index.
func (s *VectorSearch) pgNearest(ctx context.Context, queryVec database.Vector, filters search.Filters, limit int) ([]search.Result, error) {
	sql := `SELECT` + searchRowColumns + `,
(i.embedding <=> ?::vector) AS distance
FROM issues i
JOIN applications a ON a.id = i.application_id
WHERE i.embedding IS NOT NULL`
	args := []any{queryVec}

	sql, args = appendFilters(sql, args, filters)
	sql += `
ORDER BY i.embedding <=> ?::vector ASC, i.created_at DESC
LIMIT ?`
	args = append(args, queryVec, limit)

	var rows []searchRow
	if err := s.db.Session(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}

	// The SQL ORDER BY prefers newer issues only on exactly equal distances.
	// Re-rank the fetched window so near-ties within DistanceTolerance get
	// the same treatment; ties straddling the LIMIT boundary stay resolved
	// by the database order.
	sort.SliceStable(rows, func(i, j int) bool { return rankLess(rows[i], rows[j]) })

	results := make([]search.Result, len(rows))
	for i, r := range rows {
		results[i] = r.toResult()
	}
	return results, nil
}

// sqliteNearest loads all candidate embeddings and ranks in process.
// Acceptable for SQLite-scale deployments; PostgreSQL carries production
// volume.
func (s *VectorSearch) sqliteNearest(ctx context.Context, queryVec database.Vector, filters search.Filters, limit int) ([]search.Result, error) {
	sql := `SELECT` + searchRowColumns + `, i.embedding
FROM issues i
JOIN applications a ON a.id = i.application_id
WHERE i.embedding IS NOT NULL`
	var args []any
	sql, args = appendFilters(sql, args, filters)

	var rows []searchRow
	if err := s.db.Session(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}

	query := queryVec.Floats()
	ranked := make([]searchRow, 0, len(rows))
	for _, r := range rows {
		stored := r.Embedding.Floats()
		if len(stored) != s.dimension {
			// A row that predates a dimension change; skip rather than rank garbage.
			s.logger.Warn("skipping issue with mismatched embedding dimension",
				"issue_id", r.ID, "dimension", len(stored))
			continue
		}
		r.Distance = CosineDistance(query, stored)
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool { return rankLess(ranked[i], ranked[j]) })

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]search.Result, len(ranked))
	for i, r := range ranked {
		results[i] = r.toResult()
	}
	return results, nil
}

// rankLess orders by ascending distance, treating distances within
// DistanceTolerance as equal and breaking those ties by descending
// created_at.
func rankLess(a, b searchRow) bool {
	if diff := a.Distance - b.Distance; diff > DistanceTolerance || diff < -DistanceTolerance {
		return a.Distance < b.Distance
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func appendFilters(sql string, args []any, filters search.Filters) (string, []any) {
	if filters.Severity() != "" {
		sql += ` AND i.severity = ?`
		args = append(args, filters.Severity().String())
	}
	if filters.ApplicationID() != "" {
		sql += ` AND i.application_id = ?`
		args = append(args, filters.ApplicationID())
	}
	return sql, args
}

func (r searchRow) toResult() search.Result {
	var sourceDate time.Time
	if r.SourceDate != nil {
		sourceDate = *r.SourceDate
	}
	iss := issue.ReconstructIssue(
		r.ID,
		r.ApplicationID,
		r.Title,
		r.Summary,
		issue.Severity(r.Severity),
		r.IssueType,
		r.SourceType,
		r.SourceURL,
		sourceDate,
		r.Upvotes,
		r.CommentCount,
		r.RawContent,
		true,
		r.CreatedAt,
	)
	// Exact 1 - distance; callers assert on this conversion.
	return search.NewResult(iss, r.ApplicationName, r.Vendor, 1-r.Distance)
}

var _ search.VectorSearcher = (*VectorSearch)(nil)
