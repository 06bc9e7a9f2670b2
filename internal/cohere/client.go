package cohere

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloo-solutions/agentrag/internal/domain"
	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/core"
	"github.com/cohere-ai/cohere-go/v2/option"
	"golang.org/x/time/rate"
)

const (
	providerName = "cohere"

	// DefaultEmbeddingModel returns 1536-dimensional vectors by default.
	DefaultEmbeddingModel = "embed-v4.0"
)

var (
	// ErrNoAPIKey is returned when no Cohere API key is configured
	ErrNoAPIKey = errors.New("cohere api key not set")
)

// EmbeddingAPI is the single call the client makes against Cohere.
type EmbeddingAPI interface {
	EmbedDocuments(ctx context.Context, model string, texts []string) ([][]float64, error)
}

// StatusError carries the HTTP status of a rejected request.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// SDKAdapter calls the v2 embed endpoint through the official SDK.
type SDKAdapter struct {
	client *cohereclient.Client
}

func NewSDKAdapter(apiKey string) *SDKAdapter {
	return &SDKAdapter{client: cohereclient.NewClient(option.WithToken(apiKey))}
}

// EmbedDocuments requests float embeddings in search_document mode.
func (a *SDKAdapter) EmbedDocuments(ctx context.Context, model string, texts []string) ([][]float64, error) {
	resp, err := a.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:          texts,
		Model:          model,
		InputType:      cohere.EmbedInputTypeSearchDocument,
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	})
	if err != nil {
		var apiErr *core.APIError
		if errors.As(err, &apiErr) {
			return nil, &StatusError{StatusCode: apiErr.StatusCode, Err: err}
		}
		return nil, err
	}
	if resp == nil || resp.Embeddings == nil {
		return nil, nil
	}
	return resp.Embeddings.Float, nil
}

// Config configures the client. A zero RequestsPerSecond disables throttling.
type Config struct {
	APIKey            string
	Model             string
	RequestsPerSecond float64
}

// Client embeds agent file chunks with Cohere.
type Client struct {
	api     EmbeddingAPI
	model   string
	limiter *rate.Limiter
}

// NewClient builds a Client backed by the Cohere SDK.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	return newClient(NewSDKAdapter(cfg.APIKey), cfg), nil
}

func newClient(api EmbeddingAPI, cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	c := &Client{api: api, model: model}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// EmbedDocuments sends all texts in a single request and returns one vector
// per text in input order.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	raw, err := c.api.EmbedDocuments(ctx, c.model, texts)
	if err != nil {
		return nil, &domain.ProviderError{
			Provider:   providerName,
			StatusCode: statusCode(err),
			Err:        fmt.Errorf("embed request failed: %w", err),
		}
	}

	vectors := make([][]float32, len(raw))
	for i, v := range raw {
		vectors[i] = toFloat32(v)
	}
	return vectors, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

func statusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
