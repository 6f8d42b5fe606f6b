package zurich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultUserAgent identifies the server to the upstream operators.
	DefaultUserAgent = "ZurichOpenDataMCP/0.3 (MCP Server; +https://github.com/schulamt-zurich)"

	// DefaultTimeout bounds every upstream request.
	DefaultTimeout = 30 * time.Second

	// maxBodySize caps upstream responses; a 500 feature polygon layer stays well below it.
	maxBodySize = 64 << 20
)

// Options configures a Client. Zero values fall back to the defaults,
// except CacheTTL: a TTL <= 0 disables the response memo.
type Options struct {
	Endpoints  Endpoints
	UserAgent  string
	Timeout    time.Duration
	RateLimits map[string]RateLimit
	CacheTTL   time.Duration
	CacheSize  int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the Zurich open data upstreams. It is safe for concurrent use.
type Client struct {
	endpoints Endpoints
	userAgent string
	http      *http.Client
	limiter   *RateLimiter
	memo      *memo
	logger    *slog.Logger
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: timeout,
		}
	}

	limits := DefaultRateLimits()
	for service, rl := range opts.RateLimits {
		limits[service] = rl
	}

	return &Client{
		endpoints: opts.Endpoints.withDefaults(),
		userAgent: ua,
		http:      httpClient,
		limiter:   NewRateLimiter(limits),
		memo:      newMemo(opts.CacheSize, opts.CacheTTL),
		logger:    logger,
	}
}

// Endpoints returns the upstream base URLs in use.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// request describes a single upstream GET.
type request struct {
	service string
	url     string
	params  url.Values
	accept  string
	memoize bool
}

func (r request) fullURL() string {
	if len(r.params) == 0 {
		return r.url
	}
	sep := "?"
	if strings.Contains(r.url, "?") {
		sep = "&"
	}
	return r.url + sep + r.params.Encode()
}

// fetch performs the request and returns the response body of a 2xx answer.
func (c *Client) fetch(ctx context.Context, r request) ([]byte, error) {
	target := r.fullURL()
	if r.memoize {
		if body, ok := c.memo.get(target); ok {
			c.logger.Debug("upstream memo hit", "service", r.service, "url", target)
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx, r.service); err != nil {
		return nil, fmt.Errorf("%s rate limit: %w", r.service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", r.service, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed", "service", r.service, "url", target, "error", err)
		return nil, fmt.Errorf("%s request: %w", r.service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.logger.Debug("upstream request",
		"service", r.service,
		"url", target,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(r.service, resp.StatusCode, body)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", r.service, err)
	}

	if r.memoize {
		c.memo.add(target, body)
	}
	return body, nil
}

// fetchJSON performs the request and decodes the JSON body into out.
func (c *Client) fetchJSON(ctx context.Context, r request, out any) error {
	body, err := c.fetch(ctx, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.service, err)
	}
	return nil
}
