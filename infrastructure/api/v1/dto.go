// Package v1 implements the public JSON API handlers.
package v1

import (
	"time"

	"github.com/fixhound/fixhound/application/service"
	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/domain/search"
)

// IssueResponse is the JSON shape of one issue.
type IssueResponse struct {
	ID            string     `json:"id"`
	ApplicationID string     `json:"application_id"`
	Title         string     `json:"title"`
	Summary       string     `json:"summary"`
	Severity      string     `json:"severity"`
	IssueType     string     `json:"issue_type,omitempty"`
	SourceType    string     `json:"source_type"`
	SourceURL     string     `json:"source_url"`
	SourceDate    *time.Time `json:"source_date,omitempty"`
	Upvotes       int        `json:"upvotes"`
	CommentCount  int        `json:"comment_count"`
	RawContent    string     `json:"raw_content,omitempty"`
	HasEmbedding  bool       `json:"has_embedding"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toIssueResponse(i issue.Issue) IssueResponse {
	resp := IssueResponse{
		ID:            i.ID(),
		ApplicationID: i.ApplicationID(),
		Title:         i.Title(),
		Summary:       i.Summary(),
		Severity:      i.Severity().String(),
		IssueType:     i.IssueType(),
		SourceType:    i.SourceType(),
		SourceURL:     i.SourceURL(),
		Upvotes:       i.Upvotes(),
		CommentCount:  i.CommentCount(),
		RawContent:    i.RawContent(),
		HasEmbedding:  i.HasEmbedding(),
		CreatedAt:     i.CreatedAt(),
	}
	if d := i.SourceDate(); !d.IsZero() {
		resp.SourceDate = &d
	}
	return resp
}

// IssueDetailResponse is the response body for GET /api/issues/{id}: the
// issue joined with its application's summary fields.
type IssueDetailResponse struct {
	IssueResponse
	ApplicationName string `json:"application_name"`
	Vendor          string `json:"vendor,omitempty"`
}

func toIssueDetailResponse(d service.IssueDetail) IssueDetailResponse {
	return IssueDetailResponse{
		IssueResponse:   toIssueResponse(d.Issue()),
		ApplicationName: d.ApplicationName(),
		Vendor:          d.Vendor(),
	}
}

// SearchHit is one ranked search result.
type SearchHit struct {
	IssueResponse
	ApplicationName string  `json:"application_name"`
	Vendor          string  `json:"vendor,omitempty"`
	Similarity      float64 `json:"similarity"`
}

// SearchResponse is the response body for GET /api/search.
type SearchResponse struct {
	Query   string      `json:"query"`
	Count   int         `json:"count"`
	Results []SearchHit `json:"results"`
}

func toSearchResponse(query string, results []search.Result) SearchResponse {
	hits := make([]SearchHit, len(results))
	for i, r := range results {
		hits[i] = SearchHit{
			IssueResponse:   toIssueResponse(r.Issue()),
			ApplicationName: r.ApplicationName(),
			Vendor:          r.Vendor(),
			Similarity:      r.Similarity(),
		}
	}
	return SearchResponse{Query: query, Count: len(hits), Results: hits}
}

// CreateIssueRequest is the request body for POST /api/issues.
type CreateIssueRequest struct {
	ApplicationID string     `json:"application_id"`
	Title         string     `json:"title"`
	Summary       string     `json:"summary"`
	Severity      string     `json:"severity"`
	IssueType     string     `json:"issue_type"`
	SourceType    string     `json:"source_type"`
	SourceURL     string     `json:"source_url"`
	SourceDate    *time.Time `json:"source_date"`
	Upvotes       int        `json:"upvotes"`
	CommentCount  int        `json:"comment_count"`
	RawContent    string     `json:"raw_content"`
}

// IssueCounts aggregates per-severity issue counts.
type IssueCounts struct {
	Critical int `json:"critical"`
	Major    int `json:"major"`
	Minor    int `json:"minor"`
	Total    int `json:"total"`
}

// ApplicationResponse is the JSON shape of one application.
type ApplicationResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Vendor      string      `json:"vendor,omitempty"`
	Keywords    []string    `json:"keywords"`
	CreatedAt   time.Time   `json:"created_at"`
	IssueCounts IssueCounts `json:"issue_counts"`
}

func toApplicationResponse(s service.ApplicationSummary) ApplicationResponse {
	app := s.Application()
	counts := s.Counts()
	return ApplicationResponse{
		ID:        app.ID(),
		Name:      app.Name(),
		Vendor:    app.Vendor(),
		Keywords:  app.Keywords(),
		CreatedAt: app.CreatedAt(),
		IssueCounts: IssueCounts{
			Critical: counts.Critical,
			Major:    counts.Major,
			Minor:    counts.Minor,
			Total:    counts.Total(),
		},
	}
}

// CreateApplicationRequest is the request body for POST /api/applications.
type CreateApplicationRequest struct {
	Name     string   `json:"name"`
	Vendor   string   `json:"vendor"`
	Keywords []string `json:"keywords"`
}
