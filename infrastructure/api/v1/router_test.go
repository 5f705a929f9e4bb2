package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixhound/fixhound"
	"github.com/fixhound/fixhound/infrastructure/api"
	v1 "github.com/fixhound/fixhound/infrastructure/api/v1"
	"github.com/fixhound/fixhound/infrastructure/provider"
)

// hashEmbedder maps text deterministically onto a 3-dimensional vector.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
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

func (hashEmbedder) Dimension() int { return 3 }

func newTestHandler(t *testing.T) (*fixhound.Client, http.Handler) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	client, err := fixhound.New(
		fixhound.WithSQLite(dbPath),
		fixhound.WithEmbedder(hashEmbedder{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, api.NewAPIServer(client, "127.0.0.1:0").Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func createApplication(t *testing.T, handler http.Handler, name string) v1.ApplicationResponse {
	t.Helper()
	w := doJSON(t, handler, http.MethodPost, "/api/applications", v1.CreateApplicationRequest{
		Name:   name,
		Vendor: "Acme",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[v1.ApplicationResponse](t, w)
}

func createIssue(t *testing.T, handler http.Handler, appID, title, severity string) v1.IssueResponse {
	t.Helper()
	w := doJSON(t, handler, http.MethodPost, "/api/issues", v1.CreateIssueRequest{
		ApplicationID: appID,
		Title:         title,
		Summary:       title + " summary",
		Severity:      severity,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[v1.IssueResponse](t, w)
}

func TestHealthz(t *testing.T) {
	_, handler := newTestHandler(t)

	w := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateAndGetIssue(t *testing.T) {
	_, handler := newTestHandler(t)

	app := createApplication(t, handler, "PrintServer")
	w := doJSON(t, handler, http.MethodPost, "/api/issues", v1.CreateIssueRequest{
		ApplicationID: app.ID,
		Title:         "spooler crash on large jobs",
		Summary:       "service dies past 500 pages",
		Severity:      "critical",
		RawContent:    "spoolsv.exe access violation at 0x0042",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[v1.IssueResponse](t, w)

	assert.NotEmpty(t, created.ID)
	assert.True(t, created.HasEmbedding, "inline embedding succeeds with a working provider")
	assert.Equal(t, "critical", created.Severity)

	// The detail view joins the owning application and carries the raw
	// report content.
	w = doJSON(t, handler, http.MethodGet, "/api/issues/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[v1.IssueDetailResponse](t, w)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "spooler crash on large jobs", got.Title)
	assert.Equal(t, "PrintServer", got.ApplicationName)
	assert.Equal(t, "Acme", got.Vendor)
	assert.Equal(t, "spoolsv.exe access violation at 0x0042", got.RawContent)

	w = doJSON(t, handler, http.MethodGet, "/api/issues/unknown-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateIssueValidation(t *testing.T) {
	_, handler := newTestHandler(t)
	app := createApplication(t, handler, "Validated")

	cases := []struct {
		name string
		body v1.CreateIssueRequest
	}{
		{"missing title", v1.CreateIssueRequest{ApplicationID: app.ID, Summary: "s", Severity: "minor"}},
		{"missing summary", v1.CreateIssueRequest{ApplicationID: app.ID, Title: "t", Severity: "minor"}},
		{"bad severity", v1.CreateIssueRequest{ApplicationID: app.ID, Title: "t", Summary: "s", Severity: "catastrophic"}},
		{"unknown application", v1.CreateIssueRequest{ApplicationID: "nope", Title: "t", Summary: "s", Severity: "minor"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, handler, http.MethodPost, "/api/issues", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, handler := newTestHandler(t)

	app := createApplication(t, handler, "InkStation")
	createIssue(t, handler, app.ID, "paper jam in tray two", "major")
	createIssue(t, handler, app.ID, "firmware update bricks device", "critical")

	w := doJSON(t, handler, http.MethodGet, "/api/search?q=paper+jam", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[v1.SearchResponse](t, w)
	assert.Equal(t, "paper jam", resp.Query)
	assert.Equal(t, 2, resp.Count, "both issues have embeddings and no filter applies")
	assert.Equal(t, "InkStation", resp.Results[0].ApplicationName)
	assert.Equal(t, "Acme", resp.Results[0].Vendor)

	// Severity filter excludes the major issue.
	w = doJSON(t, handler, http.MethodGet, "/api/search?q=paper+jam&severity=critical", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[v1.SearchResponse](t, w)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "critical", resp.Results[0].Severity)
}

func TestSearchEndpointValidation(t *testing.T) {
	_, handler := newTestHandler(t)
	app := createApplication(t, handler, "Edge")
	createIssue(t, handler, app.ID, "anything", "minor")

	// Missing query text is the caller's fault.
	w := doJSON(t, handler, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, handler, http.MethodGet, "/api/search?q=%20%20", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// An unknown severity fails; a malformed limit does not.
	w = doJSON(t, handler, http.MethodGet, "/api/search?q=x&severity=huge", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, handler, http.MethodGet, "/api/search?q=anything&limit=banana", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, handler, http.MethodGet, "/api/search?q=anything&limit=99999", nil)
	assert.Equal(t, http.StatusOK, w.Code, "oversized limits are clamped, not rejected")
}

func TestApplicationsEndpoints(t *testing.T) {
	_, handler := newTestHandler(t)

	app := createApplication(t, handler, "ScanSuite")
	createIssue(t, handler, app.ID, "one", "critical")
	createIssue(t, handler, app.ID, "two", "minor")

	w := doJSON(t, handler, http.MethodGet, "/api/applications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]v1.ApplicationResponse](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].IssueCounts.Total)
	assert.Equal(t, 1, list[0].IssueCounts.Critical)

	w = doJSON(t, handler, http.MethodGet, "/api/applications/"+app.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[v1.ApplicationResponse](t, w)
	assert.Equal(t, "ScanSuite", got.Name)

	w = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/applications/%s/issues?severity=minor", app.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	issues := decode[[]v1.IssueResponse](t, w)
	require.Len(t, issues, 1)
	assert.Equal(t, "two", issues[0].Title)

	w = doJSON(t, handler, http.MethodGet, "/api/applications/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, handler, http.MethodGet, "/api/applications/missing/issues", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, handler, http.MethodPost, "/api/applications", v1.CreateApplicationRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
