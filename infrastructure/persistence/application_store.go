package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/internal/database"
)

// SeverityCounts aggregates issue counts per severity for one application.
type SeverityCounts struct {
	Critical int
	Major    int
	Minor    int
}

// Total returns the total issue count.
func (c SeverityCounts) Total() int {
	return c.Critical + c.Major + c.Minor
}

// ApplicationStore persists applications.
type ApplicationStore struct {
	db     database.Database
	mapper ApplicationMapper
}

// NewApplicationStore creates an ApplicationStore.
func NewApplicationStore(db database.Database) *ApplicationStore {
	return &ApplicationStore{db: db}
}

// Insert persists a new application, assigning its ID and creation time.
func (s *ApplicationStore) Insert(ctx context.Context, app issue.Application) (issue.Application, error) {
	model := s.mapper.ToModel(app)
	model.ID = uuid.NewString()
	model.CreatedAt = time.Now().UTC()

	if err := s.db.Session(ctx).Create(&model).Error; err != nil {
		return issue.Application{}, fmt.Errorf("insert application: %w", err)
	}
	return s.mapper.ToDomain(model), nil
}

// GetByID retrieves one application.
func (s *ApplicationStore) GetByID(ctx context.Context, id string) (issue.Application, error) {
	var model ApplicationModel
	err := s.db.Session(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return issue.Application{}, fmt.Errorf("%w: application %s", ErrNotFound, id)
		}
		return issue.Application{}, fmt.Errorf("get application: %w", err)
	}
	return s.mapper.ToDomain(model), nil
}

// List returns all applications ordered by name.
func (s *ApplicationStore) List(ctx context.Context) ([]issue.Application, error) {
	var models []ApplicationModel
	if err := s.db.Session(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	apps := make([]issue.Application, len(models))
	for i, m := range models {
		apps[i] = s.mapper.ToDomain(m)
	}
	return apps, nil
}

// CountBySeverity returns per-severity issue counts for one application.
func (s *ApplicationStore) CountBySeverity(ctx context.Context, applicationID string) (SeverityCounts, error) {
	rows := []struct {
		Severity string
		Count    int
	}{}

	err := s.db.Session(ctx).
		Model(&IssueModel{}).
		Select("severity, COUNT(*) AS count").
		Where("application_id = ?", applicationID).
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return SeverityCounts{}, fmt.Errorf("count issues by severity: %w", err)
	}

	var counts SeverityCounts
	for _, r := range rows {
		switch issue.Severity(r.Severity) {
		case issue.SeverityCritical:
			counts.Critical = r.Count
		case issue.SeverityMajor:
			counts.Major = r.Count
		case issue.SeverityMinor:
			counts.Minor = r.Count
		}
	}
	return counts, nil
}
