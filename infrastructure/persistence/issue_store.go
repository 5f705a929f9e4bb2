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

// issueColumns selects all relational issue fields plus the computed
// has_embedding flag. The vector itself is never loaded here.
const issueColumns = `issues.*, embedding IS NOT NULL AS has_embedding`

// IssueStore persists issues and owns every read and write of the embedding
// column. The vector format contract lives in database.Vector; callers never
// build vector literals by hand.
type IssueStore struct {
	db        database.Database
	dimension int
	mapper    IssueMapper
}

// NewIssueStore creates an IssueStore pinned to the deployment's embedding
// dimension.
func NewIssueStore(db database.Database, dimension int) *IssueStore {
	return &IssueStore{db: db, dimension: dimension}
}

// Dimension returns the pinned embedding dimension.
func (s *IssueStore) Dimension() int { return s.dimension }

// Insert persists a new issue, assigning its ID and creation time. The
// embedding is always absent on insert; attachment is a separate step so
// provider failures can never block issue creation.
func (s *IssueStore) Insert(ctx context.Context, i issue.Issue) (issue.Issue, error) {
	model := s.mapper.ToModel(i)
	model.ID = uuid.NewString()
	model.CreatedAt = time.Now().UTC()
	if model.SourceURL == "" {
		model.SourceURL = fmt.Sprintf("manual-%d", model.CreatedAt.UnixMilli())
	}

	if err := s.db.Session(ctx).Create(&model).Error; err != nil {
		return issue.Issue{}, fmt.Errorf("insert issue: %w", err)
	}
	return s.mapper.ToDomain(model), nil
}

// GetByID retrieves one issue.
func (s *IssueStore) GetByID(ctx context.Context, id string) (issue.Issue, error) {
	var model IssueModel
	err := s.db.Session(ctx).
		Select(issueColumns).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return issue.Issue{}, fmt.Errorf("%w: issue %s", ErrNotFound, id)
		}
		return issue.Issue{}, fmt.Errorf("get issue: %w", err)
	}
	return s.mapper.ToDomain(model), nil
}

// IssueDetail pairs an issue with its owning application's summary fields.
type IssueDetail struct {
	Issue           issue.Issue
	ApplicationName string
	Vendor          string
}

// GetDetail retrieves one issue joined with its application's name and
// vendor in a single round trip.
func (s *IssueStore) GetDetail(ctx context.Context, id string) (IssueDetail, error) {
	var row struct {
		IssueModel
		ApplicationName string
		Vendor          string
	}
	err := s.db.Session(ctx).
		Table("issues").
		Select(`issues.*, issues.embedding IS NOT NULL AS has_embedding,
applications.name AS application_name, applications.vendor AS vendor`).
		Joins("JOIN applications ON applications.id = issues.application_id").
		Where("issues.id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return IssueDetail{}, fmt.Errorf("%w: issue %s", ErrNotFound, id)
		}
		return IssueDetail{}, fmt.Errorf("get issue detail: %w", err)
	}

	return IssueDetail{
		Issue:           s.mapper.ToDomain(row.IssueModel),
		ApplicationName: row.ApplicationName,
		Vendor:          row.Vendor,
	}, nil
}

// ListByApplication returns issues for one application, newest first,
// optionally restricted to a severity.
func (s *IssueStore) ListByApplication(ctx context.Context, applicationID string, severity issue.Severity, limit int) ([]issue.Issue, error) {
	db := s.db.Session(ctx).
		Select(issueColumns).
		Where("application_id = ?", applicationID)
	if severity != "" {
		db = db.Where("severity = ?", severity.String())
	}
	if limit > 0 {
		db = db.Limit(limit)
	}

	var models []IssueModel
	if err := db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	issues := make([]issue.Issue, len(models))
	for i, m := range models {
		issues[i] = s.mapper.ToDomain(m)
	}
	return issues, nil
}

// ExistsBySourceURL reports whether an issue with the given source URL
// exists. Crawl collaborators use this for dedup.
func (s *IssueStore) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var count int64
	err := s.db.Session(ctx).
		Model(&IssueModel{}).
		Where("source_url = ?", sourceURL).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check source url: %w", err)
	}
	return count > 0, nil
}

// UpdateEmbedding writes an issue's embedding vector. The single UPDATE is
// atomic at row level: a concurrent reader sees either no embedding or the
// whole vector, never a torn one. Re-embedding overwrites; that is allowed
// and idempotent for unchanged text.
func (s *IssueStore) UpdateEmbedding(ctx context.Context, issueID string, vector database.Vector) error {
	if err := vector.Validate(s.dimension); err != nil {
		return err
	}

	result := s.db.Session(ctx).
		Model(&IssueModel{}).
		Where("id = ?", issueID).
		Update("embedding", vector)
	if result.Error != nil {
		return fmt.Errorf("update embedding: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: issue %s", ErrNotFound, issueID)
	}
	return nil
}

// UpdateEmbeddingIfAbsent writes the embedding only when none is present
// yet. The embedding IS NULL guard is the backfill claim: two workers racing
// on the same row cannot both satisfy it, so at most one write (and ideally
// one provider call) wins. Returns false when another worker got there
// first.
func (s *IssueStore) UpdateEmbeddingIfAbsent(ctx context.Context, issueID string, vector database.Vector) (bool, error) {
	if err := vector.Validate(s.dimension); err != nil {
		return false, err
	}

	result := s.db.Session(ctx).
		Model(&IssueModel{}).
		Where("id = ? AND embedding IS NULL", issueID).
		Update("embedding", vector)
	if result.Error != nil {
		return false, fmt.Errorf("update embedding: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FindNeedingEmbedding returns up to limit issues with no embedding, oldest
// first so the backlog drains in creation order.
func (s *IssueStore) FindNeedingEmbedding(ctx context.Context, limit int) ([]issue.Issue, error) {
	var models []IssueModel
	err := s.db.Session(ctx).
		Select(issueColumns).
		Where("embedding IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find issues needing embedding: %w", err)
	}

	issues := make([]issue.Issue, len(models))
	for i, m := range models {
		issues[i] = s.mapper.ToDomain(m)
	}
	return issues, nil
}

// CountNeedingEmbedding returns the number of issues with no embedding.
func (s *IssueStore) CountNeedingEmbedding(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.Session(ctx).
		Model(&IssueModel{}).
		Where("embedding IS NULL").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count issues needing embedding: %w", err)
	}
	return count, nil
}
