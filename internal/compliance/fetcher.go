package compliance

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// RobotsFetcher retrieves the robots.txt body for an origin (scheme+host).
// Implementations return the HTTP status and body on success; any transport
// or timeout failure comes back as an error.
type RobotsFetcher interface {
	Fetch(ctx context.Context, origin string) (status int, body string, err error)
}

const (
	defaultFetchTimeout = 10 * time.Second
	maxRobotsBody       = 512 * 1024
	defaultFetchRate    = rate.Limit(2)
	defaultFetchBurst   = 2
	defaultFetcherAgent = "leadgen-cli/1.0"
)

// HTTPRobotsFetcher fetches robots.txt over HTTP with a bounded timeout and
// a global politeness limiter across all origins.
type HTTPRobotsFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// HTTPRobotsFetcherOption configures an HTTPRobotsFetcher.
type HTTPRobotsFetcherOption func(*HTTPRobotsFetcher)

// WithFetchTimeout overrides the per-request timeout.
func WithFetchTimeout(d time.Duration) HTTPRobotsFetcherOption {
	return func(f *HTTPRobotsFetcher) {
		f.client.Timeout = d
	}
}

// WithFetcherUserAgent overrides the User-Agent header.
func WithFetcherUserAgent(ua string) HTTPRobotsFetcherOption {
	return func(f *HTTPRobotsFetcher) {
		f.userAgent = ua
	}
}

// NewHTTPRobotsFetcher creates a fetcher with sane politeness defaults.
func NewHTTPRobotsFetcher(opts ...HTTPRobotsFetcherOption) *HTTPRobotsFetcher {
	f := &HTTPRobotsFetcher{
		client: &http.Client{
			Timeout: defaultFetchTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: defaultFetcherAgent,
		limiter:   rate.NewLimiter(defaultFetchRate, defaultFetchBurst),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves <origin>/robots.txt.
func (f *HTTPRobotsFetcher) Fetch(ctx context.Context, origin string) (int, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return 0, "", eris.Wrap(err, "compliance: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return 0, "", eris.Wrap(err, "compliance: create robots request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", eris.Wrap(err, "compliance: fetch robots.txt")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBody))
	if err != nil {
		return resp.StatusCode, "", eris.Wrap(err, "compliance: read robots body")
	}
	return resp.StatusCode, string(body), nil
}
