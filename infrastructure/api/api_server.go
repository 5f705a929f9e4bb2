package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fixhound/fixhound"
	apimiddleware "github.com/fixhound/fixhound/infrastructure/api/middleware"
	v1 "github.com/fixhound/fixhound/infrastructure/api/v1"
)

// APIServer provides the HTTP API backed by a fixhound Client.
type APIServer struct {
	client *fixhound.Client
	server Server
	logger *slog.Logger
}

// NewAPIServer creates an APIServer with all routes mounted.
func NewAPIServer(client *fixhound.Client, addr string) *APIServer {
	logger := client.Logger()
	server := NewServer(addr, logger)

	a := &APIServer{
		client: client,
		server: server,
		logger: logger,
	}
	a.mountRoutes(server.Router())
	return a
}

// Handler returns the root HTTP handler, mainly for tests.
func (a *APIServer) Handler() http.Handler {
	return a.server.Router()
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (a *APIServer) ListenAndServe() error {
	return a.server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// mountRoutes wires up all API routes on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	router.Use(apimiddleware.Logging(a.logger))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	searchRouter := v1.NewSearchRouter(a.client)
	issuesRouter := v1.NewIssuesRouter(a.client)
	applicationsRouter := v1.NewApplicationsRouter(a.client)

	router.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Mount("/search", searchRouter.Routes())
		r.Mount("/issues", issuesRouter.Routes())
		r.Mount("/applications", applicationsRouter.Routes())
	})
}
