package service_test

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixhound/fixhound/application/service"
	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/domain/search"
	"github.com/fixhound/fixhound/infrastructure/persistence"
	"github.com/fixhound/fixhound/infrastructure/provider"
	infrasearch "github.com/fixhound/fixhound/infrastructure/search"
	"github.com/fixhound/fixhound/internal/database"
	"github.com/fixhound/fixhound/internal/testdb"
)

// fakeEmbedder produces deterministic 3-dimensional vectors from a text
// hash, so the same text always lands on the same point.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeEmbedder) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return provider.EmbeddingResponse{}, provider.NewProviderError("embedding", 503, "upstream down", true, nil)
	}

	f.calls++
	texts := req.Texts()
	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		h := fnv.New64a()
		_, _ = h.Write([]byte(t))
		sum := h.Sum64()
		vectors[i] = []float64{
			float64(sum%1000)/1000 + 0.001,
			float64((sum/1000)%1000)/1000 + 0.001,
			float64((sum/1000000)%1000)/1000 + 0.001,
		}
	}
	return provider.NewEmbeddingResponse(vectors), nil
}

func (f *fakeEmbedder) Dimension() int { return testdb.Dimension }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeEmbedder) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

type services struct {
	embedder *fakeEmbedder
	issues   *persistence.IssueStore
	apps     *persistence.ApplicationStore
	searcher *infrasearch.VectorSearch
	search   *service.Search
	ingest   *service.Ingest
	catalog  *service.Applications
	appID    string
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testdb.New(t)

	embedder := &fakeEmbedder{}
	issues := persistence.NewIssueStore(db, testdb.Dimension)
	apps := persistence.NewApplicationStore(db)
	searcher := infrasearch.NewVectorSearch(db, testdb.Dimension, nil)

	s := &services{
		embedder: embedder,
		issues:   issues,
		apps:     apps,
		searcher: searcher,
		search:   service.NewSearch(embedder, searcher, service.SearchConfig{Timeout: 5 * time.Second}, nil),
		ingest: service.NewIngest(issues, apps, embedder, service.IngestConfig{
			BatchSize: 10,
			Workers:   4,
		}, nil),
		catalog: service.NewApplications(apps, issues, nil),
	}

	app, err := s.catalog.Create(context.Background(), "InkStation", "Acme", nil)
	require.NoError(t, err)
	s.appID = app.ID()
	return s
}

func (s *services) mustCreate(t *testing.T, title string, severity issue.Severity) issue.Issue {
	t.Helper()
	i, err := issue.NewIssue(s.appID, title, title+" details", severity)
	require.NoError(t, err)
	saved, err := s.ingest.CreateIssue(context.Background(), i)
	require.NoError(t, err)
	return saved
}

func TestQueryRequiresText(t *testing.T) {
	s := newServices(t)

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := s.search.Query(context.Background(), search.NewQuery(text))
		assert.ErrorIs(t, err, service.ErrValidation)
	}
	assert.Zero(t, s.embedder.callCount(), "validation failures must not reach the provider")
}

func TestQueryProviderDown(t *testing.T) {
	s := newServices(t)
	s.embedder.setFail(true)

	_, err := s.search.Query(context.Background(), search.NewQuery("paper jam"))
	assert.ErrorIs(t, err, service.ErrService)
}

func TestCreateIssueIsSearchable(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	saved := s.mustCreate(t, "paper jam on tray two", issue.SeverityMajor)
	assert.True(t, saved.HasEmbedding(), "create path embeds inline when the provider is up")

	results, err := s.search.Query(ctx, search.NewQuery(saved.EmbeddingText()))
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, saved.ID(), results[0].Issue().ID())
	assert.Equal(t, "InkStation", results[0].ApplicationName())
	assert.InDelta(t, 1.0, results[0].Similarity(), 1e-9, "identical text embeds to the same vector")
}

func TestCreateIssueSurvivesProviderOutage(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	s.embedder.setFail(true)
	i, err := issue.NewIssue(s.appID, "ghosting on duplex prints", "output shows ghost images", issue.SeverityMinor)
	require.NoError(t, err)

	saved, err := s.ingest.CreateIssue(ctx, i)
	require.NoError(t, err, "a provider outage must never lose the report")
	assert.False(t, saved.HasEmbedding())

	// Without an embedding the issue is invisible to similarity search but
	// fully present relationally.
	s.embedder.setFail(false)
	results, err := s.search.Query(ctx, search.NewQuery("ghosting on duplex prints"))
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, saved.ID(), r.Issue().ID())
	}

	listed, err := s.catalog.Issues(ctx, s.appID, "", 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// Backfill repairs it.
	stats, err := s.ingest.Backfill(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Embedded)

	results, err = s.search.Query(ctx, search.NewQuery("ghosting on duplex prints"))
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, saved.ID(), results[0].Issue().ID())
}

func TestCreateIssueUnknownApplication(t *testing.T) {
	s := newServices(t)

	i, err := issue.NewIssue("no-such-app", "title", "summary", issue.SeverityMinor)
	require.NoError(t, err)

	_, err = s.ingest.CreateIssue(context.Background(), i)
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Zero(t, s.embedder.callCount())
}

func TestQueryFilters(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	s.mustCreate(t, "slow spooling", issue.SeverityMinor)
	s.mustCreate(t, "data corruption in spool", issue.SeverityCritical)

	results, err := s.search.Query(ctx,
		search.NewQuery("spool", search.WithSeverity(issue.SeverityCritical)))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, issue.SeverityCritical, results[0].Issue().Severity())
}

func TestQueryDefaultLimitConfigured(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		s.mustCreate(t, fmt.Sprintf("flaky driver %d", i), issue.SeverityMinor)
	}

	capped := service.NewSearch(s.embedder, s.searcher, service.SearchConfig{DefaultLimit: 2}, nil)

	results, err := capped.Query(ctx, search.NewQuery("flaky driver"))
	require.NoError(t, err)
	assert.Len(t, results, 2, "a query without a limit uses the configured default")

	// An explicit limit on the query still wins over the configured default.
	results, err = capped.Query(ctx, search.NewQuery("flaky driver", search.WithLimit(3)))
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestBackfillDrainsBacklog(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	// Seed a backlog larger than one batch, all without embeddings.
	s.embedder.setFail(true)
	const n = 25
	for i := 0; i < n; i++ {
		item, err := issue.NewIssue(s.appID, fmt.Sprintf("issue %02d", i), "summary", issue.SeverityMinor)
		require.NoError(t, err)
		_, err = s.ingest.CreateIssue(ctx, item)
		require.NoError(t, err)
	}
	s.embedder.setFail(false)
	before := s.embedder.callCount()

	stats, err := s.ingest.Backfill(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, n, stats.Embedded)
	assert.Zero(t, stats.Skipped)
	assert.Zero(t, stats.Failed)
	assert.Equal(t, n, s.embedder.callCount()-before, "exactly one provider call per issue")

	remaining, err := s.issues.CountNeedingEmbedding(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	// A second run finds nothing to do and calls the provider zero times.
	after := s.embedder.callCount()
	stats, err = s.ingest.Backfill(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Embedded+stats.Skipped+stats.Failed)
	assert.Equal(t, after, s.embedder.callCount())
}

func TestBackfillNoProgress(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	s.embedder.setFail(true)
	item, err := issue.NewIssue(s.appID, "stuck", "summary", issue.SeverityMinor)
	require.NoError(t, err)
	_, err = s.ingest.CreateIssue(ctx, item)
	require.NoError(t, err)

	stats, err := s.ingest.Backfill(ctx)
	assert.ErrorIs(t, err, service.ErrService)
	assert.Zero(t, stats.Embedded)
	assert.EqualValues(t, 1, stats.Failed)
}

func TestBackfillSkipsAlreadyClaimed(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	s.embedder.setFail(true)
	item, err := issue.NewIssue(s.appID, "raced", "summary", issue.SeverityMinor)
	require.NoError(t, err)
	saved, err := s.ingest.CreateIssue(ctx, item)
	require.NoError(t, err)
	s.embedder.setFail(false)

	// Another process wins the claim between select and write.
	require.NoError(t, s.issues.UpdateEmbedding(ctx, saved.ID(), database.NewVector([]float64{1, 0, 0})))

	stats, err := s.ingest.Backfill(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Embedded+stats.Skipped+stats.Failed,
		"an externally embedded issue leaves the backlog entirely")
}

func TestApplicationsCatalog(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	s.mustCreate(t, "one", issue.SeverityCritical)
	s.mustCreate(t, "two", issue.SeverityCritical)
	s.mustCreate(t, "three", issue.SeverityMinor)

	summary, err := s.catalog.Get(ctx, s.appID)
	require.NoError(t, err)
	assert.Equal(t, "InkStation", summary.Application().Name())
	assert.Equal(t, 2, summary.Counts().Critical)
	assert.Equal(t, 1, summary.Counts().Minor)
	assert.Equal(t, 3, summary.Counts().Total())

	list, err := s.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Counts().Total())

	_, err = s.catalog.Get(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	_, err = s.catalog.Create(ctx, "   ", "", nil)
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = s.catalog.Issues(ctx, "missing", "", 0)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}
