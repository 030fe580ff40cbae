// Package client is a typed HTTP client for the recipe search API.
//
// Errors returned by the server decode into *APIError, so callers can tell a
// broken search (errors.As + Retryable) from an empty result.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/pageza/saveurs/backend/internal/api"
	"github.com/pageza/saveurs/backend/internal/middleware"
	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/service"
)

// DefaultTimeout bounds every request made by the client
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a non-JSON error body ends up in Message
const maxErrorBody = 512

// APIError is a non-2xx response from the API
type APIError struct {
	Status    int
	Code      string
	Message   string
	Retryable bool
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsRetryable reports whether err is worth retrying: a retryable API error,
// a timeout, or a transport failure.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable || apiErr.Status == http.StatusTooManyRequests
	}
	return err != nil && !errors.Is(err, context.Canceled)
}

// Client talks to one API base URL
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New parses baseURL, e.g. http://localhost:8080
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListIngredients fetches the selectable catalog
func (c *Client) ListIngredients(ctx context.Context, locale model.Locale) ([]service.IngredientDTO, error) {
	q := url.Values{}
	if locale != "" {
		q.Set("locale", locale.String())
	}
	var resp api.IngredientsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/ingredients", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Ingredients, nil
}

// SearchByIngredients ranks recipes against catalog ingredient ids
func (c *Client) SearchByIngredients(ctx context.Context, req api.SearchByIngredientsRequest) (api.SearchResponse, error) {
	if req.IngredientIDs == nil {
		req.IngredientIDs = []uint{}
	}
	var resp api.SearchResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/recipes/search-by-ingredients", nil, req, &resp)
	return resp, err
}

// SearchByNames ranks recipes against free-text ingredient names
func (c *Client) SearchByNames(ctx context.Context, req api.SearchByNamesRequest) (api.SearchResponse, error) {
	if req.Names == nil {
		req.Names = []string{}
	}
	var resp api.SearchResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/recipes/search-by-names", nil, req, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.baseURL
	u.Path += path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status, Retryable: status >= 500}
	var body middleware.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
		apiErr.Retryable = body.Retryable || apiErr.Retryable
		return apiErr
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	apiErr.Message = msg
	return apiErr
}
