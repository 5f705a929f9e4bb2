// Package issue holds the core domain types for tracked software issues.
package issue

import (
	"errors"
	"strings"
	"time"
)

// Validation errors for issue construction.
var (
	ErrApplicationIDRequired = errors.New("application_id is required")
	ErrTitleRequired         = errors.New("title is required")
	ErrSummaryRequired       = errors.New("summary is required")
)

// SourceTypeManual marks issues entered by hand rather than crawled.
const SourceTypeManual = "manual"

// Issue is a reported software problem for one application.
//
// The embedding vector itself lives in the store; the domain type only
// tracks whether one is present. An issue without an embedding is fully
// queryable through relational filters but never appears in similarity
// search results.
type Issue struct {
	id            string
	applicationID string
	title         string
	summary       string
	severity      Severity
	issueType     string
	sourceType    string
	sourceURL     string
	sourceDate    time.Time
	upvotes       int
	commentCount  int
	rawContent    string
	hasEmbedding  bool
	createdAt     time.Time
}

// NewIssue creates an Issue pending persistence. The embedding is always
// absent at creation; the ingestion pipeline attaches it afterwards.
func NewIssue(applicationID, title, summary string, severity Severity) (Issue, error) {
	applicationID = strings.TrimSpace(applicationID)
	title = strings.TrimSpace(title)
	summary = strings.TrimSpace(summary)

	switch {
	case applicationID == "":
		return Issue{}, ErrApplicationIDRequired
	case title == "":
		return Issue{}, ErrTitleRequired
	case summary == "":
		return Issue{}, ErrSummaryRequired
	}
	if !severity.Valid() {
		return Issue{}, ErrInvalidSeverity
	}

	return Issue{
		applicationID: applicationID,
		title:         title,
		summary:       summary,
		severity:      severity,
		sourceType:    SourceTypeManual,
	}, nil
}

// ReconstructIssue rebuilds an Issue from stored state.
func ReconstructIssue(
	id, applicationID, title, summary string,
	severity Severity,
	issueType, sourceType, sourceURL string,
	sourceDate time.Time,
	upvotes, commentCount int,
	rawContent string,
	hasEmbedding bool,
	createdAt time.Time,
) Issue {
	return Issue{
		id:            id,
		applicationID: applicationID,
		title:         title,
		summary:       summary,
		severity:      severity,
		issueType:     issueType,
		sourceType:    sourceType,
		sourceURL:     sourceURL,
		sourceDate:    sourceDate,
		upvotes:       upvotes,
		commentCount:  commentCount,
		rawContent:    rawContent,
		hasEmbedding:  hasEmbedding,
		createdAt:     createdAt,
	}
}

// ID returns the issue identifier.
func (i Issue) ID() string { return i.id }

// ApplicationID returns the owning application's identifier.
func (i Issue) ApplicationID() string { return i.applicationID }

// Title returns the issue title.
func (i Issue) Title() string { return i.title }

// Summary returns the issue summary.
func (i Issue) Summary() string { return i.summary }

// Severity returns the issue severity.
func (i Issue) Severity() Severity { return i.severity }

// IssueType returns the open-ended issue type, or empty.
func (i Issue) IssueType() string { return i.issueType }

// SourceType returns where the issue came from ("manual", "crawled-*").
func (i Issue) SourceType() string { return i.sourceType }

// SourceURL returns the originating report URL.
func (i Issue) SourceURL() string { return i.sourceURL }

// SourceDate returns the original report timestamp (zero if unknown).
func (i Issue) SourceDate() time.Time { return i.sourceDate }

// Upvotes returns the source upvote count.
func (i Issue) Upvotes() int { return i.upvotes }

// CommentCount returns the source comment count.
func (i Issue) CommentCount() int { return i.commentCount }

// RawContent returns the full source text, or empty.
func (i Issue) RawContent() string { return i.rawContent }

// HasEmbedding reports whether a semantic embedding is attached.
func (i Issue) HasEmbedding() bool { return i.hasEmbedding }

// CreatedAt returns the creation timestamp.
func (i Issue) CreatedAt() time.Time { return i.createdAt }

// EmbeddingText returns the canonical text the embedding is computed from:
// title, a single space, then summary. The order is fixed; changing it would
// silently shift every stored vector's meaning.
func (i Issue) EmbeddingText() string {
	return i.title + " " + i.summary
}

// WithIssueType returns a copy with the issue type set.
func (i Issue) WithIssueType(t string) Issue { i.issueType = t; return i }

// WithSource returns a copy with source tracking fields set.
func (i Issue) WithSource(sourceType, sourceURL string, sourceDate time.Time) Issue {
	if sourceType != "" {
		i.sourceType = sourceType
	}
	i.sourceURL = sourceURL
	i.sourceDate = sourceDate
	return i
}

// WithEngagement returns a copy with upvote and comment counts set.
// Negative counts are clamped to zero.
func (i Issue) WithEngagement(upvotes, commentCount int) Issue {
	i.upvotes = max(upvotes, 0)
	i.commentCount = max(commentCount, 0)
	return i
}

// WithRawContent returns a copy with the raw source text set.
func (i Issue) WithRawContent(raw string) Issue { i.rawContent = raw; return i }
