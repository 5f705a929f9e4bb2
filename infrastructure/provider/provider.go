// Package provider wraps remote embedding model APIs behind a uniform
// contract with an explicit retryable/non-retryable error taxonomy.
package provider

import (
	"errors"
	"fmt"
	"strings"
)

// MaxInputChars is the truncation point for overlong input. The cut is a
// pure function of text length, never content, so behavior stays
// deterministic and testable.
const MaxInputChars = 30000

// ErrEmptyText indicates input that is empty after trimming. This is a
// caller mistake, never retried.
var ErrEmptyText = errors.New("text must not be empty")

// EmbeddingRequest carries texts to embed.
type EmbeddingRequest struct {
	texts []string
}

// NewEmbeddingRequest creates an EmbeddingRequest.
func NewEmbeddingRequest(texts ...string) EmbeddingRequest {
	cp := make([]string, len(texts))
	copy(cp, texts)
	return EmbeddingRequest{texts: cp}
}

// Texts returns the texts to embed.
func (r EmbeddingRequest) Texts() []string {
	cp := make([]string, len(r.texts))
	copy(cp, r.texts)
	return cp
}

// Validate returns ErrEmptyText if any text is empty after trimming.
func (r EmbeddingRequest) Validate() error {
	for i, t := range r.texts {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w (text %d)", ErrEmptyText, i)
		}
	}
	return nil
}

// EmbeddingResponse carries the returned vectors, one per input text.
type EmbeddingResponse struct {
	embeddings [][]float64
}

// NewEmbeddingResponse creates an EmbeddingResponse.
func NewEmbeddingResponse(embeddings [][]float64) EmbeddingResponse {
	cp := make([][]float64, len(embeddings))
	for i, e := range embeddings {
		cp[i] = make([]float64, len(e))
		copy(cp[i], e)
	}
	return EmbeddingResponse{embeddings: cp}
}

// Embeddings returns the embedding vectors.
func (r EmbeddingResponse) Embeddings() [][]float64 {
	cp := make([][]float64, len(r.embeddings))
	for i, e := range r.embeddings {
		cp[i] = make([]float64, len(e))
		copy(cp[i], e)
	}
	return cp
}

// Truncate cuts text to MaxInputChars.
func Truncate(text string) string {
	if len(text) > MaxInputChars {
		return text[:MaxInputChars]
	}
	return text
}

// ProviderError wraps a provider failure with enough context to decide
// whether retrying can help. Rate limits, timeouts, and 5xx responses are
// retryable (the provider is unavailable); 4xx responses are not (the
// provider rejected the input).
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	retryable  bool
	cause      error
}

// NewProviderError creates a ProviderError.
func NewProviderError(operation string, statusCode int, message string, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		retryable:  retryable,
		cause:      cause,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.statusCode > 0 {
		return fmt.Sprintf("provider %s failed (status %d): %s", e.operation, e.statusCode, e.message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.operation, e.message)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error { return e.cause }

// StatusCode returns the HTTP status of the failure, or 0 if none applies.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// Retryable reports whether a later retry could succeed.
func (e *ProviderError) Retryable() bool { return e.retryable }

// IsRetryable reports whether err is a retryable provider failure.
// Non-provider errors are treated as non-retryable.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable()
}
