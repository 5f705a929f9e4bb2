package fixhound_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixhound/fixhound"
	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/domain/search"
	"github.com/fixhound/fixhound/infrastructure/provider"
)

// constEmbedder returns a fixed vector for every text. Enough to exercise
// client wiring end to end.
type constEmbedder struct{}

func (constEmbedder) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	vectors := make([][]float64, len(req.Texts()))
	for i := range vectors {
		vectors[i] = []float64{0.5, 0.5, 0.5}
	}
	return provider.NewEmbeddingResponse(vectors), nil
}

func (constEmbedder) Dimension() int { return 3 }

func TestNewRequiresDatabase(t *testing.T) {
	_, err := fixhound.New(fixhound.WithEmbedder(constEmbedder{}))
	assert.ErrorIs(t, err, fixhound.ErrNoDatabase)
}

func TestNewRequiresEmbedder(t *testing.T) {
	_, err := fixhound.New(fixhound.WithSQLite(filepath.Join(t.TempDir(), "test.db")))
	assert.ErrorIs(t, err, fixhound.ErrNoEmbedder)
}

func TestClientLifecycle(t *testing.T) {
	ctx := context.Background()

	client, err := fixhound.New(
		fixhound.WithSQLite(filepath.Join(t.TempDir(), "test.db")),
		fixhound.WithEmbedder(constEmbedder{}),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, client.Dimension(), "dimension is pinned from the embedder")

	app, err := client.Applications.Create(ctx, "PlotMaster", "Acme", nil)
	require.NoError(t, err)

	i, err := issue.NewIssue(app.ID(), "pen carriage stalls", "carriage stops mid plot", issue.SeverityMajor)
	require.NoError(t, err)
	saved, err := client.Issues.CreateIssue(ctx, i)
	require.NoError(t, err)
	assert.True(t, saved.HasEmbedding())

	results, err := client.Search.Query(ctx, search.NewQuery("carriage stalls"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, saved.ID(), results[0].Issue().ID())

	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.Close(), fixhound.ErrClientClosed)
}
