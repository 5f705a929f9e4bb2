package service

import "errors"

// Service-level error categories. Handlers map these onto HTTP statuses;
// everything else is treated as an internal failure.
var (
	// ErrValidation indicates a malformed or incomplete request.
	ErrValidation = errors.New("validation failed")

	// ErrService indicates a downstream failure (embedding provider,
	// database) while handling an otherwise valid request.
	ErrService = errors.New("service unavailable")
)
