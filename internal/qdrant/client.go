package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloo-solutions/agentrag/internal/domain"
)

// APIError is a non-2xx response from Qdrant.
type APIError struct {
	StatusCode int
	StatusText string
	Details    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Qdrant API Error: %d - %s. Details: %s.", e.StatusCode, e.StatusText, e.Details)
}

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client is a REST client for the subset of the Qdrant API used for indexing.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type collectionInfoResponse struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors json.RawMessage `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

// CollectionInfo reads the collection's vector size. A 404 means it does not exist.
func (c *Client) CollectionInfo(ctx context.Context, name string) (int, bool, error) {
	var resp collectionInfoResponse
	err := c.do(ctx, http.MethodGet, c.collectionURL(name), nil, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}

	size, err := vectorSize(resp.Result.Config.Params.Vectors)
	if err != nil {
		return 0, true, err
	}
	return size, true, nil
}

// vectorSize handles the unnamed vector config. Named vectors report size 0 so
// the caller treats the collection as mismatched.
func vectorSize(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var params vectorParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return 0, fmt.Errorf("failed to decode vector params: %w", err)
	}
	return params.Size, nil
}

func (c *Client) CreateCollection(ctx context.Context, name string, size int) error {
	body := map[string]any{
		"vectors": vectorParams{Size: size, Distance: "Cosine"},
	}
	err := c.do(ctx, http.MethodPut, c.collectionURL(name), body, nil)
	if isConflict(err) {
		return domain.ErrCollectionExists
	}
	return err
}

func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, c.collectionURL(name), nil, nil)
}

// CreatePayloadIndex creates a keyword index on field.
func (c *Client) CreatePayloadIndex(ctx context.Context, name, field string) error {
	body := map[string]any{
		"field_name":   field,
		"field_schema": "keyword",
	}
	err := c.do(ctx, http.MethodPut, c.collectionURL(name)+"/index?wait=true", body, nil)
	if isConflict(err) {
		return domain.ErrPayloadIndexExists
	}
	return err
}

type point struct {
	ID      string              `json:"id"`
	Vector  []float32           `json:"vector"`
	Payload domain.PointPayload `json:"payload"`
}

// Upsert writes points in a single request.
func (c *Client) Upsert(ctx context.Context, name string, points []domain.Point, wait bool) error {
	body := struct {
		Points []point `json:"points"`
	}{Points: make([]point, len(points))}
	for i, p := range points {
		body.Points[i] = point{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}

	u := c.collectionURL(name) + "/points"
	if wait {
		u += "?wait=true"
	}
	return c.do(ctx, http.MethodPut, u, body, nil)
}

func (c *Client) collectionURL(name string) string {
	return c.baseURL + "/collections/" + url.PathEscape(name)
}

type errorResponse struct {
	Status struct {
		Error string `json:"error"`
	} `json:"status"`
}

func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		details := strings.TrimSpace(string(raw))
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && er.Status.Error != "" {
			details = er.Status.Error
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Details:    details,
		}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func isConflict(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusConflict {
		return true
	}
	return apiErr.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Details), "already exists")
}
