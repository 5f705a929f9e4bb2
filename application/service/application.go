package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/infrastructure/persistence"
)

// ApplicationSummary pairs an application with its per-severity issue
// counts.
type ApplicationSummary struct {
	application issue.Application
	counts      persistence.SeverityCounts
}

// Application returns the application.
func (s ApplicationSummary) Application() issue.Application { return s.application }

// Counts returns the per-severity issue counts.
func (s ApplicationSummary) Counts() persistence.SeverityCounts { return s.counts }

// Applications manages the tracked application catalog.
type Applications struct {
	apps   *persistence.ApplicationStore
	issues *persistence.IssueStore
	logger *slog.Logger
}

// NewApplications creates an Applications service.
func NewApplications(apps *persistence.ApplicationStore, issues *persistence.IssueStore, logger *slog.Logger) *Applications {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applications{apps: apps, issues: issues, logger: logger}
}

// Create registers a new application to track issues against.
func (s *Applications) Create(ctx context.Context, name, vendor string, keywords []string) (issue.Application, error) {
	app, err := issue.NewApplication(name, vendor, keywords)
	if err != nil {
		return issue.Application{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	saved, err := s.apps.Insert(ctx, app)
	if err != nil {
		return issue.Application{}, fmt.Errorf("%w: saving application: %v", ErrService, err)
	}
	return saved, nil
}

// List returns all applications with their issue counts, ordered by name.
func (s *Applications) List(ctx context.Context) ([]ApplicationSummary, error) {
	apps, err := s.apps.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing applications: %v", ErrService, err)
	}

	summaries := make([]ApplicationSummary, len(apps))
	for i, app := range apps {
		counts, err := s.apps.CountBySeverity(ctx, app.ID())
		if err != nil {
			return nil, fmt.Errorf("%w: counting issues: %v", ErrService, err)
		}
		summaries[i] = ApplicationSummary{application: app, counts: counts}
	}
	return summaries, nil
}

// Get returns one application with its issue counts.
func (s *Applications) Get(ctx context.Context, id string) (ApplicationSummary, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return ApplicationSummary{}, err
	}

	counts, err := s.apps.CountBySeverity(ctx, id)
	if err != nil {
		return ApplicationSummary{}, fmt.Errorf("%w: counting issues: %v", ErrService, err)
	}
	return ApplicationSummary{application: app, counts: counts}, nil
}

// Issues returns an application's issues, newest first, optionally
// restricted to one severity.
func (s *Applications) Issues(ctx context.Context, id string, severity issue.Severity, limit int) ([]issue.Issue, error) {
	if _, err := s.apps.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.issues.ListByApplication(ctx, id, severity, limit)
}

// IssueDetail pairs an issue with its owning application's name and vendor.
type IssueDetail struct {
	issue           issue.Issue
	applicationName string
	vendor          string
}

// Issue returns the issue.
func (d IssueDetail) Issue() issue.Issue { return d.issue }

// ApplicationName returns the owning application's name.
func (d IssueDetail) ApplicationName() string { return d.applicationName }

// Vendor returns the owning application's vendor (may be empty).
func (d IssueDetail) Vendor() string { return d.vendor }

// GetIssue returns one issue by ID, joined with its application's summary
// fields.
func (s *Applications) GetIssue(ctx context.Context, id string) (IssueDetail, error) {
	detail, err := s.issues.GetDetail(ctx, id)
	if err != nil {
		return IssueDetail{}, err
	}
	return IssueDetail{
		issue:           detail.Issue,
		applicationName: detail.ApplicationName,
		vendor:          detail.Vendor,
	}, nil
}
