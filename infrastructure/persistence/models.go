// Package persistence provides database storage for applications and issues.
package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fixhound/fixhound/domain/issue"
)

// StringSlice stores a []string as a JSON text column, portable across
// SQLite and PostgreSQL.
type StringSlice []string

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}

	return json.Unmarshal(data, s)
}

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// ApplicationModel is the GORM model for the applications table.
type ApplicationModel struct {
	ID        string      `gorm:"column:id;primaryKey;type:varchar(36)"`
	Name      string      `gorm:"column:name;not null;uniqueIndex"`
	Vendor    string      `gorm:"column:vendor"`
	Keywords  StringSlice `gorm:"column:keywords;type:text"`
	CreatedAt time.Time   `gorm:"column:created_at"`
}

// TableName returns the table name.
func (ApplicationModel) TableName() string { return "applications" }

// IssueModel is the GORM model for the issues table.
//
// The embedding column is deliberately absent here: its type is
// backend-specific (pgvector VECTOR(D) vs SQLite TEXT) so migration and all
// reads/writes of it go through dedicated store methods instead of
// AutoMigrate. HasEmbedding is a computed column populated only by queries
// that select it explicitly.
type IssueModel struct {
	ID            string     `gorm:"column:id;primaryKey;type:varchar(36)"`
	ApplicationID string     `gorm:"column:application_id;not null;index"`
	Title         string     `gorm:"column:title;not null"`
	Summary       string     `gorm:"column:summary;not null;type:text"`
	Severity      string     `gorm:"column:severity;not null;index"`
	IssueType     string     `gorm:"column:issue_type"`
	SourceType    string     `gorm:"column:source_type"`
	SourceURL     string     `gorm:"column:source_url;index"`
	SourceDate    *time.Time `gorm:"column:source_date"`
	Upvotes       int        `gorm:"column:upvotes;not null;default:0"`
	CommentCount  int        `gorm:"column:comment_count;not null;default:0"`
	RawContent    string     `gorm:"column:raw_content;type:text"`
	CreatedAt     time.Time  `gorm:"column:created_at;index"`

	HasEmbedding bool `gorm:"column:has_embedding;->;-:migration"`
}

// TableName returns the table name.
func (IssueModel) TableName() string { return "issues" }

// ApplicationMapper maps between domain Application and ApplicationModel.
type ApplicationMapper struct{}

// ToDomain converts a model to a domain Application.
func (ApplicationMapper) ToDomain(m ApplicationModel) issue.Application {
	return issue.ReconstructApplication(m.ID, m.Name, m.Vendor, m.Keywords, m.CreatedAt)
}

// ToModel converts a domain Application to a model.
func (ApplicationMapper) ToModel(a issue.Application) ApplicationModel {
	return ApplicationModel{
		ID:        a.ID(),
		Name:      a.Name(),
		Vendor:    a.Vendor(),
		Keywords:  a.Keywords(),
		CreatedAt: a.CreatedAt(),
	}
}

// IssueMapper maps between domain Issue and IssueModel.
type IssueMapper struct{}

// ToDomain converts a model to a domain Issue.
func (IssueMapper) ToDomain(m IssueModel) issue.Issue {
	var sourceDate time.Time
	if m.SourceDate != nil {
		sourceDate = *m.SourceDate
	}
	return issue.ReconstructIssue(
		m.ID,
		m.ApplicationID,
		m.Title,
		m.Summary,
		issue.Severity(m.Severity),
		m.IssueType,
		m.SourceType,
		m.SourceURL,
		sourceDate,
		m.Upvotes,
		m.CommentCount,
		m.RawContent,
		m.HasEmbedding,
		m.CreatedAt,
	)
}

// ToModel converts a domain Issue to a model.
func (IssueMapper) ToModel(i issue.Issue) IssueModel {
	var sourceDate *time.Time
	if !i.SourceDate().IsZero() {
		d := i.SourceDate()
		sourceDate = &d
	}
	return IssueModel{
		ID:            i.ID(),
		ApplicationID: i.ApplicationID(),
		Title:         i.Title(),
		Summary:       i.Summary(),
		Severity:      i.Severity().String(),
		IssueType:     i.IssueType(),
		SourceType:    i.SourceType(),
		SourceURL:     i.SourceURL(),
		SourceDate:    sourceDate,
		Upvotes:       i.Upvotes(),
		CommentCount:  i.CommentCount(),
		RawContent:    i.RawContent(),
		CreatedAt:     i.CreatedAt(),
	}
}
