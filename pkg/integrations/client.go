package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/stackscout/pkg/buildinfo"
	"github.com/matzehuels/stackscout/pkg/cache"
	errs "github.com/matzehuels/stackscout/pkg/errors"
	"github.com/matzehuels/stackscout/pkg/httputil"
	"github.com/matzehuels/stackscout/pkg/observability"
)

// Client provides shared HTTP functionality for all upstream API clients.
// It handles caching, retry logic, per-host circuit breaking, and common
// request headers.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
	policy    httputil.Policy
	breakers  *httputil.Breakers
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = NewHTTPClient(d) }
}

// WithRetryPolicy overrides [httputil.DefaultPolicy].
func WithRetryPolicy(p httputil.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithBreakers routes every request through the given per-host breakers.
// Clients talking to the same hosts should share one set.
func WithBreakers(b *httputil.Breakers) Option {
	return func(c *Client) { c.breakers = b }
}

// NewClient creates a Client with the given cache and default headers.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed, and nil for cache
// to disable caching.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, headers map[string]string, opts ...Option) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	client := &Client{
		http:      NewHTTPClient(httpTimeout),
		cache:     c,
		keyer:     cache.NewDefaultKeyer(),
		namespace: strings.TrimSuffix(namespace, ":"),
		ttl:       ttl,
		headers:   headers,
		policy:    httputil.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if !refresh && c.Lookup(ctx, key, v) {
		return nil
	}
	if err := c.Retry(ctx, fetch); err != nil {
		return err
	}
	c.Store(ctx, key, v)
	return nil
}

// Lookup decodes a cached value into v and reports whether it was found.
// Unreadable entries count as misses.
func (c *Client) Lookup(ctx context.Context, key string, v any) bool {
	data, ok, err := c.cache.Get(ctx, c.keyer.HTTPKey(c.namespace, key))
	if err != nil || !ok || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, c.namespace)
		return false
	}
	observability.Cache().OnCacheHit(ctx, c.namespace)
	return true
}

// Store caches v under key. Cache write failures are ignored.
func (c *Client) Store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if c.cache.Set(ctx, c.keyer.HTTPKey(c.namespace, key), data, c.ttl) == nil {
		observability.Cache().OnCacheSet(ctx, c.namespace, len(data))
	}
}

// Retry runs fn under the client's retry policy.
func (c *Client) Retry(ctx context.Context, fn func() error) error {
	return c.policy.Do(ctx, fn)
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers. Retrying is left to the caller.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	_, err := c.GetWithResponse(ctx, url, headers, v)
	return err
}

// GetWithResponse is GetWithHeaders that also returns the response headers,
// for endpoints that carry data in them (pagination links, rate limits).
func (c *Client) GetWithResponse(ctx context.Context, url string, headers map[string]string, v any) (http.Header, error) {
	body, header, err := c.GetRaw(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return header, fmt.Errorf("decode %s: %w", url, err)
	}
	return header, nil
}

// GetText performs an HTTP GET request and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, _, err := c.GetRaw(ctx, url, nil)
	return string(body), err
}

// GetRaw performs an HTTP GET and returns the undecoded body.
func (c *Client) GetRaw(ctx context.Context, rawURL string, headers map[string]string) ([]byte, http.Header, error) {
	var (
		body   []byte
		header http.Header
	)
	do := func() error {
		var err error
		body, header, err = c.doRequest(ctx, rawURL, headers)
		return err
	}

	var err error
	if c.breakers != nil {
		err = c.breakers.Do(httputil.HostOf(rawURL), do)
	} else {
		err = do()
	}
	return body, header, err
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
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
			return nil, nil, ctx.Err()
		}
		return nil, nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkResponse(resp); err != nil {
		return nil, resp.Header, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.Header, &httputil.RetryableError{Err: fmt.Errorf("%w: read body: %v", ErrNetwork, err)}
	}
	return body, resp.Header, nil
}

// checkResponse adds rate-limit details from the response headers to the
// classification done by checkStatus.
func checkResponse(resp *http.Response) error {
	code := resp.StatusCode
	if code == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return fmt.Errorf("%w: %w", ErrNetwork, &errs.RateLimitedError{
			Host:       hostOf(resp.Request),
			RetryAfter: secondsUntilReset(resp.Header.Get("X-RateLimit-Reset")),
		})
	}
	if code == http.StatusTooManyRequests {
		wait := httputil.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return &httputil.RetryableError{
			Err: fmt.Errorf("%w: %w", ErrNetwork, &errs.RateLimitedError{
				Host:       hostOf(resp.Request),
				RetryAfter: int(wait / time.Second),
			}),
			RetryAfter: wait,
		}
	}
	return checkStatus(code)
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests, code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func hostOf(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	return req.URL.Host
}

func secondsUntilReset(v string) int {
	epoch, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return max(int(time.Until(time.Unix(epoch, 0))/time.Second), 0)
}

// URLEncode percent-encodes a string for use in URLs.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }

// PathEscape encodes a package name for use as a single path segment.
// Scoped names become @scope%2Fname, which every npm endpoint accepts.
func PathEscape(name string) string { return url.PathEscape(name) }
