package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fixhound/fixhound"
	"github.com/fixhound/fixhound/application/service"
	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/infrastructure/api/middleware"
)

// ApplicationsRouter handles application API endpoints.
type ApplicationsRouter struct {
	client *fixhound.Client
	logger *slog.Logger
}

// NewApplicationsRouter creates a new ApplicationsRouter.
func NewApplicationsRouter(client *fixhound.Client) *ApplicationsRouter {
	return &ApplicationsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for application endpoints.
func (r *ApplicationsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	router.Get("/{id}/issues", r.Issues)

	return router
}

// List handles GET /api/applications.
func (r *ApplicationsRouter) List(w http.ResponseWriter, req *http.Request) {
	summaries, err := r.client.Applications.List(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resp := make([]ApplicationResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = toApplicationResponse(s)
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/applications.
func (r *ApplicationsRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body CreateApplicationRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req,
			fmt.Errorf("%w: invalid request body: %v", service.ErrValidation, err), r.logger)
		return
	}

	app, err := r.client.Applications.Create(req.Context(), body.Name, body.Vendor, body.Keywords)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, ApplicationResponse{
		ID:        app.ID(),
		Name:      app.Name(),
		Vendor:    app.Vendor(),
		Keywords:  app.Keywords(),
		CreatedAt: app.CreatedAt(),
	})
}

// Get handles GET /api/applications/{id}.
func (r *ApplicationsRouter) Get(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	summary, err := r.client.Applications.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toApplicationResponse(summary))
}

// Issues handles GET /api/applications/{id}/issues. Accepts severity and
// limit query parameters.
func (r *ApplicationsRouter) Issues(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	params := req.URL.Query()

	var severity issue.Severity
	if raw := params.Get("severity"); raw != "" {
		parsed, err := issue.ParseSeverity(raw)
		if err != nil {
			middleware.WriteError(w, req, err, r.logger)
			return
		}
		severity = parsed
	}

	// Listing is capped; use search or pagination-free exports for more.
	limit := 100
	if raw := params.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	issues, err := r.client.Applications.Issues(req.Context(), id, severity, limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resp := make([]IssueResponse, len(issues))
	for i, item := range issues {
		resp[i] = toIssueResponse(item)
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
