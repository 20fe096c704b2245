// ABOUTME: HTTP client for the ticket backend API
// ABOUTME: Wraps API calls with authentication, caching, and error handling for CLI usage

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/markalston/ticketdesk/internal/auth"
	"github.com/markalston/ticketdesk/internal/querycache"
)

// DefaultTimeout bounds each HTTP exchange when no timeout is configured
const DefaultTimeout = 30 * time.Second

// Client is the API client for the ticket backend.
//
// Data calls go through Transport, which attaches the stored access token and
// recovers from one 401 per request. Login and refresh use a separate client
// without that interceptor.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authClient *http.Client
	cache      *querycache.Cache
}

type options struct {
	timeout   time.Duration
	cache     *querycache.Cache
	breaker   BreakerConfig
	onExpired func(error)
	base      http.RoundTripper
}

// Option configures a Client
type Option func(*options)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithCache enables response caching for list and detail reads
func WithCache(c *querycache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithBreaker overrides the circuit breaker settings
func WithBreaker(cfg BreakerConfig) Option {
	return func(o *options) { o.breaker = cfg }
}

// WithSessionExpiredHandler registers fn to run when a refresh fails and the
// session has been cleared
func WithSessionExpiredHandler(fn func(error)) Option {
	return func(o *options) { o.onExpired = fn }
}

// WithBaseTransport replaces http.DefaultTransport underneath the client
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// New creates a new API client for baseURL that authenticates from store
func New(baseURL string, store auth.TokenStore, opts ...Option) *Client {
	o := options{
		timeout: DefaultTimeout,
		breaker: DefaultBreakerConfig(),
		base:    http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(&o)
	}

	base := newBreakerTransport(o.breaker, &loggingTransport{next: o.base})

	c := &Client{
		baseURL: baseURL,
		cache:   o.cache,
		authClient: &http.Client{
			Timeout:   o.timeout,
			Transport: base,
		},
	}
	c.httpClient = &http.Client{
		Timeout: o.timeout,
		Transport: &Transport{
			Base:             base,
			Store:            store,
			Refresh:          c.refreshTokens,
			OnSessionExpired: o.onExpired,
		},
	}
	return c
}

// BaseURL returns the backend URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Invalidate drops cached reads for key and everything below it
func (c *Client) Invalidate(key string) {
	c.cache.Invalidate(key)
}

// do sends one JSON request. in is marshalled as the body when non-nil and
// a 2xx body is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal input: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.handleErrorResponse(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// handleRequestError converts transport errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(err, ErrBackendUnavailable) {
		return &ConnectionError{Message: fmt.Sprintf("backend at %s is unavailable, retry later", c.baseURL), Err: err}
	}
	if ctx.Err() == context.Canceled {
		return &ConnectionError{Message: "request canceled", Err: ctx.Err()}
	}
	var netErr net.Error
	if ctx.Err() == context.DeadlineExceeded || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ConnectionError{Message: "request timed out", Err: err}
	}
	return &ConnectionError{Message: fmt.Sprintf("cannot connect to backend at %s: %v", c.baseURL, err), Err: err}
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		apiErr.Message = errResp.FirstMessage()
	}
	return apiErr
}

// cached returns the value stored under key or loads it with fetch
func cached[T any](c *Client, key string, fetch func() (T, error)) (T, error) {
	if v, ok := c.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	c.cache.Set(key, v)
	return v, nil
}
