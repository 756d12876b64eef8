package netbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kabelplan/pkg/cache"
	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
	"github.com/matzehuels/kabelplan/pkg/httputil"
)

// Defaults for list requests.
const (
	DefaultPageSize  = 1000
	DefaultChunkSize = 50
	DefaultCacheTTL  = 5 * time.Minute
)

// ErrNotFound is returned when a NetBox endpoint or object does not exist.
var ErrNotFound = httputil.ErrNotFound

// Client reads sites, devices, interfaces and cables from the NetBox REST API.
// List endpoints are paginated by following "next", responses are cached and
// transient failures are retried with backoff.
//
// A Client is safe for concurrent use.
type Client struct {
	*httputil.Client
	baseURL   *url.URL
	keyer     cache.Keyer
	pageSize  int
	chunkSize int
	logger    *log.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithLogger sets the logger used for request summaries.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPageSize sets the limit sent with list requests.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithChunkSize sets how many device ids go into one interface request.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.Client.WithHTTPClient(h) }
}

// WithRetry sets the retry attempts and initial backoff.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) { c.Client.WithRetry(attempts, delay) }
}

// WithKeyer sets the cache key strategy.
func WithKeyer(k cache.Keyer) Option {
	return func(c *Client) {
		if k != nil {
			c.keyer = k
		}
	}
}

// NewClient creates a client for the NetBox instance at baseURL. An empty
// token sends unauthenticated requests. Pass nil for backend to disable
// response caching.
func NewClient(baseURL, token string, backend cache.Cache, ttl time.Duration, opts ...Option) (*Client, error) {
	if err := kerrors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "invalid NetBox URL")
	}

	headers := map[string]string{"Accept": "application/json"}
	if token != "" {
		headers["Authorization"] = "Token " + token
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	c := &Client{
		Client:    httputil.NewClient(backend, ttl, headers),
		baseURL:   u,
		keyer:     cache.NewDefaultKeyer(),
		pageSize:  DefaultPageSize,
		chunkSize: DefaultChunkSize,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the NetBox root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// list fetches every page of a list endpoint below /api/.
func list[T any](ctx context.Context, c *Client, endpoint string, params url.Values, refresh bool) ([]T, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("limit", fmt.Sprint(c.pageSize))
	first := c.endpoint(endpoint, q)
	key := c.keyer.HTTPKey("netbox", first)

	var results []T
	err := c.Cached(ctx, key, refresh, &results, func() error {
		results = results[:0]
		next := first
		for next != "" {
			var p page[T]
			if err := c.Get(ctx, next, &p); err != nil {
				return err
			}
			results = append(results, p.Results...)
			next = c.rebase(p.Next)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, endpoint)
	}
	c.logger.Debug("netbox list", "endpoint", endpoint, "results", len(results))
	return results, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/api/" + strings.Trim(path, "/") + "/"
	u.RawQuery = q.Encode()
	return u.String()
}

// rebase points a "next" link at the configured base URL. NetBox builds
// these links from its own idea of the host, which differs behind proxies.
func (c *Client) rebase(next string) string {
	if next == "" {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil {
		return next
	}
	u.Scheme, u.Host = c.baseURL.Scheme, c.baseURL.Host
	return u.String()
}

func classify(err error, endpoint string) error {
	switch {
	case kerrors.GetCode(err) != "":
		return err
	case errors.Is(err, ErrNotFound):
		return kerrors.Wrap(kerrors.ErrCodeNotFound, err, "netbox %s: not found", endpoint)
	case errors.Is(err, context.DeadlineExceeded):
		return kerrors.Wrap(kerrors.ErrCodeTimeout, err, "netbox %s: timed out", endpoint)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, httputil.ErrNetwork):
		return kerrors.Wrap(kerrors.ErrCodeNetwork, err, "netbox %s: %v", endpoint, err)
	default:
		return kerrors.Wrap(kerrors.ErrCodeFetchFailed, err, "netbox %s: %v", endpoint, err)
	}
}
