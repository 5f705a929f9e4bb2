package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fixhound/fixhound/internal/database"
)

// errEmbeddingCountMismatch indicates the API returned fewer vectors than
// requested. Transient upstream issues can produce partial responses behind
// a 200 status, so this is retryable.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API.
//
// The model identifier and output dimension are pinned per deployment and
// never silently upgraded: swapping models mid-deployment would mix
// incompatible vector spaces.
type OpenAIEmbedder struct {
	client        *openai.Client
	model         string
	dimension     int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// OpenAIConfig holds configuration for the OpenAI embedder.
type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimension     int
	Timeout       time.Duration
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// NewOpenAIEmbedder creates an embedder from configuration.
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)

	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 1536
	}

	initialDelay := cfg.InitialDelay
	if initialDelay == 0 {
		initialDelay = 2 * time.Second
	}

	backoffFactor := cfg.BackoffFactor
	if backoffFactor == 0 {
		backoffFactor = 2.0
	}

	return &OpenAIEmbedder{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         model,
		dimension:     dimension,
		maxRetries:    cfg.MaxRetries,
		initialDelay:  initialDelay,
		backoffFactor: backoffFactor,
	}
}

// Model returns the pinned model identifier.
func (p *OpenAIEmbedder) Model() string { return p.model }

// Dimension returns the pinned output dimension.
func (p *OpenAIEmbedder) Dimension() int { return p.dimension }

// Embed generates embeddings for the given texts in a single API call.
// Inputs must be non-empty after trimming; overlong inputs are truncated to
// MaxInputChars before the call. A returned vector whose length differs
// from the pinned dimension fails with database.ErrDimensionMismatch.
func (p *OpenAIEmbedder) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	if err := req.Validate(); err != nil {
		return EmbeddingResponse{}, err
	}

	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse(nil), nil
	}
	for i, t := range texts {
		texts[i] = Truncate(t)
	}

	openaiReq := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	var err error

	err = p.withRetry(ctx, func() error {
		resp, err = p.client.CreateEmbeddings(ctx, openaiReq)
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})

	if err != nil {
		return EmbeddingResponse{}, p.wrapError(err)
	}

	embeddings := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		if len(data.Embedding) != p.dimension {
			return EmbeddingResponse{}, fmt.Errorf(
				"model %s returned %d components, deployment pinned to %d: %w",
				p.model, len(data.Embedding), p.dimension, database.ErrDimensionMismatch,
			)
		}
		embeddings[i] = make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			embeddings[i][j] = float64(v)
		}
	}

	return NewEmbeddingResponse(embeddings), nil
}

// withRetry executes fn with exponential backoff. With maxRetries == 0 it
// is a single attempt, which is what the search path uses: a search has a
// user-facing latency budget and defers retrying to the next request.
func (p *OpenAIEmbedder) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return lastErr
}

// isRetryable classifies raw API errors before wrapping.
func isRetryable(err error) bool {
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// Transport-level failures (connection refused, reset) are retryable.
		return true
	}

	return false
}

// wrapError converts a raw failure into a ProviderError carrying the
// retryable classification.
func (p *OpenAIEmbedder) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError("embedding", apiErr.HTTPStatusCode, apiErr.Message, isRetryable(err), err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError("embedding", reqErr.HTTPStatusCode, reqErr.Error(), true, err)
	}

	return NewProviderError("embedding", 0, err.Error(), isRetryable(err), err)
}

// Embedder generates embedding vectors for text.
type Embedder interface {
	Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error)
	Dimension() int
}

var _ Embedder = (*OpenAIEmbedder)(nil)
