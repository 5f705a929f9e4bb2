package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixhound/fixhound"
	"github.com/fixhound/fixhound/application/service"
	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/infrastructure/api/middleware"
)

// IssuesRouter handles issue API endpoints.
type IssuesRouter struct {
	client *fixhound.Client
	logger *slog.Logger
}

// NewIssuesRouter creates a new IssuesRouter.
func NewIssuesRouter(client *fixhound.Client) *IssuesRouter {
	return &IssuesRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for issue endpoints.
func (r *IssuesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)

	return router
}

// Create handles POST /api/issues. The issue is durable once this returns
// 201; embedding attachment is best effort and reflected in has_embedding.
func (r *IssuesRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body CreateIssueRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req,
			fmt.Errorf("%w: invalid request body: %v", service.ErrValidation, err), r.logger)
		return
	}

	severity, err := issue.ParseSeverity(body.Severity)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	i, err := issue.NewIssue(body.ApplicationID, body.Title, body.Summary, severity)
	if err != nil {
		middleware.WriteError(w, req,
			fmt.Errorf("%w: %v", service.ErrValidation, err), r.logger)
		return
	}

	if body.IssueType != "" {
		i = i.WithIssueType(body.IssueType)
	}
	if body.SourceType != "" || body.SourceURL != "" || body.SourceDate != nil {
		sourceDate := i.SourceDate()
		if body.SourceDate != nil {
			sourceDate = *body.SourceDate
		}
		i = i.WithSource(body.SourceType, body.SourceURL, sourceDate)
	}
	if body.Upvotes != 0 || body.CommentCount != 0 {
		i = i.WithEngagement(body.Upvotes, body.CommentCount)
	}
	if body.RawContent != "" {
		i = i.WithRawContent(body.RawContent)
	}

	saved, err := r.client.Issues.CreateIssue(req.Context(), i)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, toIssueResponse(saved))
}

// Get handles GET /api/issues/{id}.
func (r *IssuesRouter) Get(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	detail, err := r.client.Applications.GetIssue(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toIssueDetailResponse(detail))
}
