package persistence_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/infrastructure/persistence"
	"github.com/fixhound/fixhound/internal/database"
	"github.com/fixhound/fixhound/internal/testdb"
)

func newStores(t *testing.T) (*persistence.ApplicationStore, *persistence.IssueStore, string) {
	t.Helper()
	db := testdb.New(t)
	apps := persistence.NewApplicationStore(db)
	issues := persistence.NewIssueStore(db, testdb.Dimension)

	app, err := issue.NewApplication("PrintCenter", "Acme", nil)
	require.NoError(t, err)
	app, err = apps.Insert(context.Background(), app)
	require.NoError(t, err)
	return apps, issues, app.ID()
}

func mustIssue(t *testing.T, appID, title string, severity issue.Severity) issue.Issue {
	t.Helper()
	i, err := issue.NewIssue(appID, title, title+" happens on startup", severity)
	require.NoError(t, err)
	return i
}

func TestIssueInsertAssignsIdentity(t *testing.T) {
	_, issues, appID := newStores(t)
	ctx := context.Background()

	saved, err := issues.Insert(ctx, mustIssue(t, appID, "spooler crash", issue.SeverityCritical))
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID())
	assert.False(t, saved.CreatedAt().IsZero())
	assert.False(t, saved.HasEmbedding(), "embeddings are never attached on insert")
	assert.True(t, strings.HasPrefix(saved.SourceURL(), "manual-"),
		"manual issues get a synthetic source url")
}

func TestIssueInsertKeepsExplicitSource(t *testing.T) {
	_, issues, appID := newStores(t)
	ctx := context.Background()

	i := mustIssue(t, appID, "driver hang", issue.SeverityMajor).
		WithSource("crawled-forum", "https://forum.example/t/123", time.Now().UTC()).
		WithEngagement(12, 3)

	saved, err := issues.Insert(ctx, i)
	require.NoError(t, err)
	assert.Equal(t, "https://forum.example/t/123", saved.SourceURL())
	assert.Equal(t, "crawled-forum", saved.SourceType())
	assert.Equal(t, 12, saved.Upvotes())
	assert.Equal(t, 3, saved.CommentCount())
}

func TestIssueGetDetailJoinsApplication(t *testing.T) {
	_, issues, appID := newStores(t)
	ctx := context.Background()

	i := mustIssue(t, appID, "toner streaks", issue.SeverityMajor).
		WithRawContent("full forum post body")
	saved, err := issues.Insert(ctx, i)
	require.NoError(t, err)
	require.NoError(t, issues.UpdateEmbedding(ctx, saved.ID(), database.NewVector([]float64{1, 0, 0})))

	detail, err := issues.GetDetail(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, saved.ID(), detail.Issue.ID())
	assert.Equal(t, "PrintCenter", detail.ApplicationName)
	assert.Equal(t, "Acme", detail.Vendor)
	assert.Equal(t, "full forum post body", detail.Issue.RawContent())
	assert.True(t, detail.Issue.HasEmbedding())

	_, err = issues.GetDetail(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestIssueGetByID(t *testing.T) {
	_, issues, appID := newStores(t)
	ctx := context.Background()

	saved, err := issues.Insert(ctx, mustIssue(t, appID, "blank pages", issue.SeverityMinor))
	require.NoError(t, err)

	got, err := issues.GetByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, saved.ID(), got.ID())
	assert.Equal(t, "blank pages", got.Title())
	assert.Equal(t, issue.SeverityMinor, got.Severity())

	_, err = issues.GetByID(ctx, "does-not-exist")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestIssueListByApplication(t *testing.T) {
	apps, issues, appID := newStores(t)
	ctx := context.Background()

	other, err := issue.NewApplication("Other", "", nil)
	require.NoError(t, err)
	other, err = apps.Insert(ctx, other)
	require.NoError(t, err)

	_, err = issues.Insert(ctx, mustIssue(t, appID, "first", issue.SeverityCritical))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = issues.Insert(ctx, mustIssue(t, appID, "second", issue.SeverityMinor))
	require.NoError(t, err)
	_, err = issues.Insert(ctx, mustIssue(t, other.ID(), "elsewhere", issue.SeverityCritical))
	require.NoError(t, err)

	all, err := issues.ListByApplication(ctx, appID, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Title(), "newest first")
	assert.Equal(t, "first", all[1].Title())

	critical, err := issues.ListByApplication(ctx, appID, issue.SeverityCritical, 0)
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, "first", critical[0].Title())

	limited, err := issues.ListByApplication(ctx, appID, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestIssueExistsBySourceURL(t *testing.T) {
	_, issues, appID := newStores(t)
	ctx := context.Background()

	i := mustIssue(t, appID, "dup check", issue.SeverityMinor).
		WithSource("crawled-forum", "https://forum.example/t/99", time.Time{})
	_, err := issues.Insert(ctx, i)
	require.NoError(t, err)

	exists, err := issues.ExistsBySourceURL(ctx, "https://forum.example/t/99")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = issues.ExistsBySourceURL(ctx, "https://forum.example/t/100")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateEmbedding(t *testing.T) {
	_, issues, appID := newStores(t)
	ctx := context.Background()

	saved, err := issues.Insert(ctx, mustIssue(t, appID, "embed me", issue.SeverityMajor))
	require.NoError(t, err)

	err = issues.UpdateEmbedding(ctx, saved.ID(), database.NewVector([]float64{0.1, 0.2, 0.3}))
	require.NoError(t, err)

	got, err := issues.GetByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.True(t, got.HasEmbedding())
}

func TestUpdateEmbeddingRejectsWrongDimension(t *testing.T) {
	_, issues, appID := newStores(t)
	ctx := context.Background()

	saved, err := issues.Insert(ctx, mustIssue(t, appID, "short vector", issue.SeverityMajor))
	require.NoError(t, err)

	err = issues.UpdateEmbedding(ctx, saved.ID(), database.NewVector([]float64{0.1, 0.2}))
	require.ErrorIs(t, err, database.ErrDimensionMismatch)

	// The failed write must not leave a partial embedding behind.
	got, err := issues.GetByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.False(t, got.HasEmbedding())
}

func TestUpdateEmbeddingUnknownIssue(t *testing.T) {
	_, issues, _ := newStores(t)

	err := issues.UpdateEmbedding(context.Background(), "missing",
		database.NewVector([]float64{1, 2, 3}))
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestUpdateEmbeddingIfAbsentClaims(t *testing.T) {
	_, issues, appID := newStores(t)
	ctx := context.Background()

	saved, err := issues.Insert(ctx, mustIssue(t, appID, "claimed once", issue.SeverityMajor))
	require.NoError(t, err)

	claimed, err := issues.UpdateEmbeddingIfAbsent(ctx, saved.ID(),
		database.NewVector([]float64{1, 0, 0}))
	require.NoError(t, err)
	assert.True(t, claimed, "first writer wins the claim")

	claimed, err = issues.UpdateEmbeddingIfAbsent(ctx, saved.ID(),
		database.NewVector([]float64{0, 1, 0}))
	require.NoError(t, err)
	assert.False(t, claimed, "second writer must lose the claim")
}

func TestFindNeedingEmbedding(t *testing.T) {
	_, issues, appID := newStores(t)
	ctx := context.Background()

	first, err := issues.Insert(ctx, mustIssue(t, appID, "oldest", issue.SeverityMinor))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := issues.Insert(ctx, mustIssue(t, appID, "newer", issue.SeverityMinor))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	done, err := issues.Insert(ctx, mustIssue(t, appID, "already embedded", issue.SeverityMinor))
	require.NoError(t, err)
	require.NoError(t, issues.UpdateEmbedding(ctx, done.ID(), database.NewVector([]float64{1, 0, 0})))

	pending, err := issues.FindNeedingEmbedding(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID(), pending[0].ID(), "backlog drains oldest first")
	assert.Equal(t, second.ID(), pending[1].ID())

	count, err := issues.CountNeedingEmbedding(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
