package compliance

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// stubFetcher serves canned robots bodies keyed by origin and counts fetches.
type stubFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	status  int
	err     error
	fetches atomic.Int64
	delay   time.Duration
}

func (s *stubFetcher) Fetch(_ context.Context, origin string) (int, string, error) {
	s.fetches.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, "", s.err
	}
	status := s.status
	if status == 0 {
		status = 200
	}
	return status, s.bodies[origin], nil
}

func TestCheckURLAllowed(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{
		"https://example.com": "User-agent: *\nDisallow: /search\n",
	}}
	gate := NewGate(fetcher)

	d := gate.CheckURL(context.Background(), "https://example.com/listings")

	assert.True(t, d.Allowed)
	assert.Equal(t, RiskLow, d.RiskLevel)
	assert.Equal(t, DefaultMinCrawlDelay, d.CrawlDelaySeconds)
	assert.Empty(t, d.Issues)
}

func TestCheckURLRobotsDisallowed(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{
		"https://example.com": "User-agent: *\nDisallow: /search\n",
	}}
	gate := NewGate(fetcher)

	d := gate.CheckURL(context.Background(), "https://example.com/search?q=grill")

	assert.False(t, d.Allowed)
	assert.Equal(t, RiskHigh, d.RiskLevel)
	assert.Contains(t, d.Issues, "path disallowed by robots.txt")
}

func TestCheckURLRestrictedPathHighRiskRegardlessOfRobots(t *testing.T) {
	t.Parallel()

	// robots.txt allows everything; the restricted-path policy still denies.
	fetcher := &stubFetcher{bodies: map[string]string{"https://example.com": ""}}
	gate := NewGate(fetcher)

	for _, path := range []string{"/admin/users", "/private/data", "/account/settings"} {
		d := gate.CheckURL(context.Background(), "https://example.com"+path)
		assert.False(t, d.Allowed, "path %s", path)
		assert.Equal(t, RiskHigh, d.RiskLevel, "path %s", path)
		assert.NotEmpty(t, d.Issues, "path %s", path)
	}
}

func TestCheckURLSensitivePathMediumRisk(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{"https://example.com": ""}}
	gate := NewGate(fetcher)

	d := gate.CheckURL(context.Background(), "https://example.com/login")

	assert.True(t, d.Allowed, "sensitive but robots-allowed paths stay allowed")
	assert.Equal(t, RiskMedium, d.RiskLevel)
	assert.NotEmpty(t, d.Recommendations)
}

func TestCheckURLSocialHostMediumRisk(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{
		"https://www.instagram.com": "",
	}}
	gate := NewGate(fetcher)

	d := gate.CheckURL(context.Background(), "https://www.instagram.com/islandgrill")

	assert.True(t, d.Allowed)
	assert.Equal(t, RiskMedium, d.RiskLevel)
}

func TestCheckURLFetchFailureDenies(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{err: eris.New("connection refused")}
	gate := NewGate(fetcher)

	d := gate.CheckURL(context.Background(), "https://example.com/listings")

	assert.False(t, d.Allowed)
	assert.Equal(t, RiskHigh, d.RiskLevel)
	assert.NotEmpty(t, d.Issues)
}

func TestCheckURLServerErrorDenies(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{status: 503}
	gate := NewGate(fetcher)

	d := gate.CheckURL(context.Background(), "https://example.com/listings")
	assert.False(t, d.Allowed)
	assert.Equal(t, RiskHigh, d.RiskLevel)
}

func TestCheckURLMissingRobotsAllows(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{status: 404}
	gate := NewGate(fetcher)

	d := gate.CheckURL(context.Background(), "https://example.com/listings")
	assert.True(t, d.Allowed)
	assert.Equal(t, RiskLow, d.RiskLevel)
}

func TestCheckURLInvalidURL(t *testing.T) {
	t.Parallel()

	gate := NewGate(&stubFetcher{})

	d := gate.CheckURL(context.Background(), "not a url")
	assert.False(t, d.Allowed)
	assert.Equal(t, RiskHigh, d.RiskLevel)
}

func TestCheckURLCrawlDelayFloor(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{
		"https://slow.example.com": "User-agent: *\nCrawl-delay: 4\n",
		"https://fast.example.com": "User-agent: *\nCrawl-delay: 0.2\n",
	}}
	gate := NewGate(fetcher)

	slow := gate.CheckURL(context.Background(), "https://slow.example.com/a")
	assert.Equal(t, 4.0, slow.CrawlDelaySeconds)

	fast := gate.CheckURL(context.Background(), "https://fast.example.com/a")
	assert.Equal(t, DefaultMinCrawlDelay, fast.CrawlDelaySeconds, "politeness floor applies")
}

func TestCacheNoRefetchWithinTTL(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{"https://example.com": ""}}
	gate := NewGate(fetcher)

	for range 5 {
		gate.CheckURL(context.Background(), "https://example.com/listings")
	}
	assert.Equal(t, int64(1), fetcher.fetches.Load())
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{"https://example.com": ""}}

	current := time.Now()
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	gate := NewGate(fetcher, WithTTL(time.Minute), WithNow(now))

	gate.CheckURL(context.Background(), "https://example.com/a")
	gate.CheckURL(context.Background(), "https://example.com/b")
	require.Equal(t, int64(1), fetcher.fetches.Load())

	mu.Lock()
	current = current.Add(2 * time.Minute)
	mu.Unlock()

	gate.CheckURL(context.Background(), "https://example.com/c")
	assert.Equal(t, int64(2), fetcher.fetches.Load())
}

func TestConcurrentChecksSameOriginSingleFetch(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{
		bodies: map[string]string{"https://example.com": ""},
		delay:  20 * time.Millisecond,
	}
	gate := NewGate(fetcher)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gate.CheckURL(context.Background(), "https://example.com/listings")
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), fetcher.fetches.Load())
}
