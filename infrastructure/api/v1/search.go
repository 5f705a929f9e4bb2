package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fixhound/fixhound"
	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/domain/search"
	"github.com/fixhound/fixhound/infrastructure/api/middleware"
)

// SearchRouter handles search API endpoints.
type SearchRouter struct {
	client *fixhound.Client
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(client *fixhound.Client) *SearchRouter {
	return &SearchRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.Search)

	return router
}

// Search handles GET /api/search. Query parameters:
//
//	q              free-text query (required)
//	severity       restrict to one severity
//	application_id restrict to one application
//	limit          result cap; non-numeric or out-of-range values fall back
//	               to the default rather than failing the request
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	params := req.URL.Query()

	var opts []search.QueryOption
	if raw := params.Get("severity"); raw != "" {
		severity, err := issue.ParseSeverity(raw)
		if err != nil {
			middleware.WriteError(w, req, err, r.logger)
			return
		}
		opts = append(opts, search.WithSeverity(severity))
	}
	if appID := params.Get("application_id"); appID != "" {
		opts = append(opts, search.WithApplicationID(appID))
	}
	if raw := params.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			opts = append(opts, search.WithLimit(n))
		}
	}

	query := search.NewQuery(params.Get("q"), opts...)
	results, err := r.client.Search.Query(req.Context(), query)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toSearchResponse(query.Text(), results))
}
