package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fixhound/fixhound/application/service"
	"github.com/fixhound/fixhound/domain/issue"
	"github.com/fixhound/fixhound/infrastructure/persistence"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError writes a JSON error response with a status derived from the
// error category. Validation failures are the caller's fault (400), missing
// resources are 404, everything else is an internal failure (500) whose
// detail is logged but not exposed.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	detail := "internal server error"

	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, issue.ErrInvalidSeverity):
		status = http.StatusBadRequest
		detail = err.Error()
	case errors.Is(err, persistence.ErrNotFound):
		status = http.StatusNotFound
		detail = err.Error()
	}

	if logger != nil {
		logger.Error("request error",
			"status", status,
			"error", err.Error(),
			"method", r.Method,
			"path", r.URL.Path,
		)
	}

	WriteJSON(w, status, ErrorResponse{Error: detail})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
