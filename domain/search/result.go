package search

import (
	"context"

	"github.com/fixhound/fixhound/domain/issue"
)

// Result is one ranked search hit: the issue, its owning application's
// summary fields, and the similarity score (exactly 1 - cosine distance).
type Result struct {
	issue           issue.Issue
	applicationName string
	vendor          string
	similarity      float64
}

// NewResult creates a Result.
func NewResult(i issue.Issue, applicationName, vendor string, similarity float64) Result {
	return Result{
		issue:           i,
		applicationName: applicationName,
		vendor:          vendor,
		similarity:      similarity,
	}
}

// Issue returns the matched issue.
func (r Result) Issue() issue.Issue { return r.issue }

// ApplicationName returns the owning application's name.
func (r Result) ApplicationName() string { return r.applicationName }

// Vendor returns the owning application's vendor, or empty.
func (r Result) Vendor() string { return r.vendor }

// Similarity returns 1 - cosine distance between the query vector and the
// issue's embedding.
func (r Result) Similarity() float64 { return r.similarity }

// Distance returns the cosine distance (1 - similarity).
func (r Result) Distance() float64 { return 1 - r.similarity }

// VectorSearcher is the nearest-neighbor contract of the store adapter.
// Implementations rank by ascending cosine distance, break ties by
// descending created_at, restrict to rows with a present embedding, apply
// the filters as exact-match predicates before ranking, and reject query
// vectors whose dimension differs from the deployment's pinned dimension.
type VectorSearcher interface {
	NearestNeighbors(ctx context.Context, vector []float64, filters Filters, limit int) ([]Result, error)
}
