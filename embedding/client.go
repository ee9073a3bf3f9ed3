package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the embedding model used for all corpora.
	DefaultModel = "mistral-embed"
	// DefaultBaseURL points at the Mistral OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.mistral.ai/v1"
	// DefaultMaxInputChars is the provider-imposed input cap. Longer
	// texts are truncated, not rejected.
	DefaultMaxInputChars = 8000
)

// Client wraps one call to the external embedding API. It performs no
// retries itself: backoff state is shared across all call sites through
// the RateLimiter, so retry policy lives with the callers.
type Client struct {
	api           *openai.Client
	model         string
	dimensions    int
	maxInputChars int
}

// ClientConfig holds configuration for the embedding client.
type ClientConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimensions    int
	MaxInputChars int
	Timeout       time.Duration
}

// NewClient creates an embedding client for an OpenAI-compatible endpoint.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1024
	}
	if cfg.MaxInputChars == 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:           openai.NewClientWithConfig(apiCfg),
		model:         cfg.Model,
		dimensions:    cfg.Dimensions,
		maxInputChars: cfg.MaxInputChars,
	}
}

// Dimensions returns the vector length the client produces.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Embed returns the embedding vector for one text. Errors are mapped to
// the taxonomy sentinels: ErrAuth (401/403), ErrRateLimited (429) and
// ErrTransient (network failures, 5xx and everything else).
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty embedding input")
	}
	if len(text) > c.maxInputChars {
		text = text[:c.maxInputChars]
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, c.mapError(err)
	}

	if len(resp.Data) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for 1 input", ErrTransient, len(resp.Data))
	}

	vector := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float64(v)
	}

	if len(vector) != c.dimensions {
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d", ErrTransient, c.dimensions, len(vector))
	}

	return vector, nil
}

// mapError converts provider errors into the taxonomy sentinels.
func (c *Client) mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrAuth, apiErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		default:
			return fmt.Errorf("%w: status %d: %s", ErrTransient, apiErr.HTTPStatusCode, apiErr.Message)
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrAuth, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}

	// Anything else is a network-level failure.
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
