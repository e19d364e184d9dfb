// Package gateway implements the request executor shared by every typed
// service client: it attaches the bearer credential, serializes JSON bodies,
// interprets responses by content type and normalizes failures. It performs
// no retries; callers decide whether a failed call is worth repeating.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yeagerd/briefly-bff/pkg/logger"
	"github.com/yeagerd/briefly-bff/pkg/metrics"
)

// TokenSource supplies the bearer credential for a single request. Returning
// an empty token with a nil error means "call unauthenticated".
type TokenSource func(ctx context.Context) (string, error)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport (mainly for tests and
// for callers that need timeouts beyond platform defaults).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource injects the credential provider consulted before every call.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithAPIKey sets a static X-API-Key header for direct server-to-service
// calls that bypass the gateway.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// Client executes requests against a single base URL.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	apiKey  string
}

// New creates an executor for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Options describes a single call. Method defaults to GET. Body is ignored
// for GET requests. Headers are merged over the computed ones, with the
// caller winning on collision.
type Options struct {
	Method  string
	Body    any
	Headers map[string]string
}

// Do executes a request and returns the decoded JSON body when the response
// declares a JSON content type, otherwise the raw text body as a string.
// Non-2xx statuses surface as *APIError, connection failures as
// *TransportError.
func (c *Client) Do(ctx context.Context, endpoint string, opts Options) (any, error) {
	raw, isJSON, err := c.execute(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	if !isJSON {
		return string(raw), nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return v, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, endpoint string) (any, error) {
	return c.Do(ctx, endpoint, Options{})
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (any, error) {
	return c.Do(ctx, endpoint, Options{Method: http.MethodPost, Body: body})
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (any, error) {
	return c.Do(ctx, endpoint, Options{Method: http.MethodPut, Body: body})
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body any) (any, error) {
	return c.Do(ctx, endpoint, Options{Method: http.MethodPatch, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string) (any, error) {
	return c.Do(ctx, endpoint, Options{Method: http.MethodDelete})
}

// Call executes a request and decodes the JSON response into T. Typed
// service clients use this instead of Do to avoid a map round-trip.
func Call[T any](ctx context.Context, c *Client, endpoint string, opts Options) (T, error) {
	var out T
	raw, isJSON, err := c.execute(ctx, endpoint, opts)
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if !isJSON {
		return out, fmt.Errorf("expected JSON response from %s", endpoint)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return out, nil
}

func (c *Client) execute(ctx context.Context, endpoint string, opts Options) ([]byte, bool, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(endpoint, "/") {
		return nil, false, fmt.Errorf("endpoint must be a relative path starting with '/': %q", endpoint)
	}

	// GET never carries a body, even when the caller supplied one.
	var reqBody io.Reader
	if method != http.MethodGet && opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, false, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if c.tokens != nil {
		tok, err := c.tokens(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("resolve bearer credential: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(method, "transport_error").Inc()
		if !logger.Quiet() {
			logger.Errorf("gateway request failed: %s %s: %v", method, endpoint, err)
		}
		return nil, false, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(method, "transport_error").Inc()
		if !logger.Quiet() {
			logger.Errorf("gateway response read failed: %s %s: %v", method, endpoint, err)
		}
		return nil, false, &TransportError{Endpoint: endpoint, Err: err}
	}

	metrics.GatewayDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	metrics.GatewayRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, raw)
		if !logger.Quiet() {
			logger.Errorf("gateway error: %s %s: %s", method, endpoint, apiErr.Message)
		}
		return nil, false, apiErr
	}

	ct := resp.Header.Get("Content-Type")
	return raw, strings.Contains(ct, "application/json"), nil
}

// newAPIError extracts a `message` field from a JSON error body; when the
// body is not JSON (or carries no message) the raw text is used verbatim,
// prefixed with the status code.
func newAPIError(status int, raw []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return &APIError{Status: status, Message: payload.Message}
	}
	return &APIError{Status: status, Message: fmt.Sprintf("Gateway Error (%d): %s", status, string(raw))}
}
