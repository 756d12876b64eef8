package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/kabelplan/pkg/cache"
	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
	"github.com/matzehuels/kabelplan/pkg/observability"
)

// DefaultTimeout is the per-request timeout of clients built by
// [NewHTTPClient].
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when the upstream resource doesn't exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with the given timeout, or
// [DefaultTimeout] when timeout is zero.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Client provides shared HTTP functionality for upstream API clients.
// It handles caching, retry logic, and common request headers.
//
// A Client is safe for concurrent use.
type Client struct {
	http     *http.Client
	cache    cache.Cache
	ttl      time.Duration
	headers  map[string]string
	attempts int
	delay    time.Duration
}

// NewClient creates a Client caching responses in c for ttl and sending
// headers with every request. Pass nil for c to disable caching and nil
// for headers if no default headers are needed.
func NewClient(c cache.Cache, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:     NewHTTPClient(0),
		cache:    c,
		ttl:      ttl,
		headers:  headers,
		attempts: 3,
		delay:    time.Second,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// WithRetry sets the number of attempts and the initial backoff delay.
func (c *Client) WithRetry(attempts int, delay time.Duration) *Client {
	c.attempts, c.delay = attempts, delay
	return c
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if !refresh {
		if err := cache.GetJSON(ctx, c.cache, key, v); err == nil {
			return nil
		}
	}
	if err := Retry(ctx, c.attempts, c.delay, fetch); err != nil {
		return err
	}
	_ = cache.SetJSON(ctx, c.cache, key, v, c.ttl)
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// Retries are the caller's business; wrap the call in [Client.Cached] or
// [Retry].
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	return c.GetWithHeaders(ctx, rawURL, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized:
		return kerrors.New(kerrors.ErrCodeUnauthorized, "upstream rejected the API token (status %d)", code)
	case code == http.StatusForbidden:
		return kerrors.New(kerrors.ErrCodeForbidden, "API token lacks permission (status %d)", code)
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return Retryable(&kerrors.RateLimitedError{RetryAfter: retryAfter})
	case code >= 500:
		return Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
