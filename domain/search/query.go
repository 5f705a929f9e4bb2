// Package search defines the semantic search query contract.
package search

import (
	"strings"

	"github.com/fixhound/fixhound/domain/issue"
)

// Limit bounds for a single search.
const (
	DefaultLimit = 20
	MinLimit     = 1
	MaxLimit     = 100
)

// Query is a free-text search request with optional relational filters.
type Query struct {
	text          string
	severity      issue.Severity
	applicationID string
	limit         int
}

// QueryOption configures a Query.
type QueryOption func(*Query)

// WithSeverity restricts results to one severity (exact match).
func WithSeverity(s issue.Severity) QueryOption {
	return func(q *Query) { q.severity = s }
}

// WithApplicationID restricts results to one application.
func WithApplicationID(id string) QueryOption {
	return func(q *Query) { q.applicationID = id }
}

// WithLimit sets the requested result limit. Non-positive values are treated
// as absent and fall back to DefaultLimit.
func WithLimit(n int) QueryOption {
	return func(q *Query) { q.limit = n }
}

// NewQuery creates a Query for the given free text.
func NewQuery(text string, opts ...QueryOption) Query {
	q := Query{text: text}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// Text returns the trimmed query text.
func (q Query) Text() string { return strings.TrimSpace(q.text) }

// Severity returns the severity filter (empty when unset).
func (q Query) Severity() issue.Severity { return q.severity }

// ApplicationID returns the application filter (empty when unset).
func (q Query) ApplicationID() string { return q.applicationID }

// EffectiveLimit resolves the requested limit against DefaultLimit.
func (q Query) EffectiveLimit() int {
	return q.LimitOr(DefaultLimit)
}

// LimitOr resolves the requested limit: absent or invalid values fall back
// to def (deployments may configure their own default), then the result is
// clamped into [MinLimit, MaxLimit]. Out-of-range limits are silently
// adjusted; they are never an error.
func (q Query) LimitOr(def int) int {
	if def <= 0 {
		def = DefaultLimit
	}
	limit := q.limit
	if limit <= 0 {
		limit = def
	}
	if limit < MinLimit {
		limit = MinLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit
}

// Filters returns the relational predicates of the query.
func (q Query) Filters() Filters {
	return Filters{severity: q.severity, applicationID: q.applicationID}
}

// Filters are exact-match relational predicates applied before ranking.
type Filters struct {
	severity      issue.Severity
	applicationID string
}

// NewFilters creates Filters with the given predicates; zero values mean
// "no restriction".
func NewFilters(severity issue.Severity, applicationID string) Filters {
	return Filters{severity: severity, applicationID: applicationID}
}

// Severity returns the severity predicate (empty when unset).
func (f Filters) Severity() issue.Severity { return f.severity }

// ApplicationID returns the application predicate (empty when unset).
func (f Filters) ApplicationID() string { return f.applicationID }
