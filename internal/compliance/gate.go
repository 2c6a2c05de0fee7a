// Package compliance decides whether and how fast external sources may be
// crawled. It combines the target's robots.txt ruleset with a fixed policy
// over administratively sensitive paths and terms-of-service-sensitive
// hosts. Robots rulesets are cached per origin with a TTL; a failed fetch
// denies rather than assumes permission.
package compliance

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RiskLevel classifies how risky crawling a URL is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// escalate raises r to at least min.
func (r RiskLevel) escalate(min RiskLevel) RiskLevel {
	rank := map[RiskLevel]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2}
	if rank[min] > rank[r] {
		return min
	}
	return r
}

// Decision is the per-URL compliance evaluation.
type Decision struct {
	URL               string    `json:"url"`
	Allowed           bool      `json:"allowed"`
	CrawlDelaySeconds float64   `json:"crawl_delay_seconds"`
	RiskLevel         RiskLevel `json:"risk_level"`
	Issues            []string  `json:"issues,omitempty"`
	Recommendations   []string  `json:"recommendations,omitempty"`
}

// restrictedPatterns are path prefixes that must never be crawled. Matching
// one forces allowed=false and high risk regardless of robots rules.
var restrictedPatterns = []string{
	"/admin", "/private", "/internal", "/api/private", "/user/", "/account",
}

// sensitivePatterns are paths that stay allowed when robots permits them but
// carry heightened risk and a skip recommendation.
var sensitivePatterns = []string{
	"/login", "/register", "/checkout", "/payment", "/cart",
}

// socialHosts have terms of service that restrict automated collection.
var socialHosts = []string{
	"instagram.com", "facebook.com", "twitter.com", "x.com",
	"tiktok.com", "linkedin.com",
}

// originState tracks the per-origin robots cache lifecycle.
type originState int

const (
	stateUnchecked originState = iota
	stateFetching
	stateCached
)

type originEntry struct {
	mu        sync.Mutex
	state     originState
	rules     *robotsRules
	fetchFail bool
	expiresAt time.Time
}

const (
	// DefaultMinCrawlDelay is the politeness floor in seconds. A robots
	// crawl-delay below it is raised to it.
	DefaultMinCrawlDelay = 1.0

	defaultTTL       = time.Hour
	defaultUserAgent = "leadgen-cli"
)

// Gate evaluates URL compliance against cached robots rulesets and the fixed
// risk policy. Safe for concurrent use; concurrent checks of the same origin
// share a single robots fetch.
type Gate struct {
	fetcher   RobotsFetcher
	userAgent string
	ttl       time.Duration
	minDelay  float64
	now       func() time.Time

	mu      sync.Mutex
	origins map[string]*originEntry
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithTTL overrides how long a cached robots ruleset stays valid.
func WithTTL(ttl time.Duration) GateOption {
	return func(g *Gate) { g.ttl = ttl }
}

// WithMinCrawlDelay overrides the politeness floor in seconds.
func WithMinCrawlDelay(seconds float64) GateOption {
	return func(g *Gate) { g.minDelay = seconds }
}

// WithUserAgent sets the agent name matched against robots.txt groups.
func WithUserAgent(ua string) GateOption {
	return func(g *Gate) { g.userAgent = ua }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// NewGate creates a Gate backed by the given robots fetcher.
func NewGate(fetcher RobotsFetcher, opts ...GateOption) *Gate {
	g := &Gate{
		fetcher:   fetcher,
		userAgent: defaultUserAgent,
		ttl:       defaultTTL,
		minDelay:  DefaultMinCrawlDelay,
		now:       time.Now,
		origins:   make(map[string]*originEntry),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckURL evaluates a single URL. It never returns an error: unparsable
// URLs and failed robots fetches both resolve to a denied, high-risk
// decision with the problem recorded as an issue.
func (g *Gate) CheckURL(ctx context.Context, rawURL string) Decision {
	d := Decision{
		URL:       rawURL,
		Allowed:   true,
		RiskLevel: RiskLow,
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		d.Allowed = false
		d.RiskLevel = RiskHigh
		d.Issues = append(d.Issues, "URL could not be parsed")
		d.Recommendations = append(d.Recommendations, "skip this URL")
		d.CrawlDelaySeconds = g.minDelay
		return d
	}

	entry := g.entryFor(u.Scheme + "://" + u.Host)

	entry.mu.Lock()
	g.refreshLocked(ctx, entry, u.Scheme+"://"+u.Host)
	rules, fetchFail := entry.rules, entry.fetchFail
	entry.mu.Unlock()

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	lowerPath := strings.ToLower(path)
	host := strings.ToLower(u.Hostname())

	d.CrawlDelaySeconds = g.minDelay
	if rules != nil && rules.crawlDelay > g.minDelay {
		d.CrawlDelaySeconds = rules.crawlDelay
	}

	if fetchFail {
		d.Allowed = false
		d.RiskLevel = RiskHigh
		d.Issues = append(d.Issues, "robots.txt could not be fetched; denying by policy")
		d.Recommendations = append(d.Recommendations, "retry after the robots cache expires")
		return d
	}

	for _, p := range restrictedPatterns {
		if strings.HasPrefix(lowerPath, p) {
			d.Allowed = false
			d.RiskLevel = RiskHigh
			d.Issues = append(d.Issues, "path matches restricted pattern "+p)
			d.Recommendations = append(d.Recommendations, "do not crawl administrative paths")
			break
		}
	}

	if rules != nil && !rules.allowed(path) {
		d.Allowed = false
		d.RiskLevel = RiskHigh
		d.Issues = append(d.Issues, "path disallowed by robots.txt")
		d.Recommendations = append(d.Recommendations, "respect the robots exclusion for this path")
	}

	for _, p := range sensitivePatterns {
		if strings.HasPrefix(lowerPath, p) {
			d.RiskLevel = d.RiskLevel.escalate(RiskMedium)
			d.Issues = append(d.Issues, "path is account or transaction sensitive: "+p)
			d.Recommendations = append(d.Recommendations, "skip pages behind authentication or checkout flows")
			break
		}
	}

	for _, s := range socialHosts {
		if host == s || strings.HasSuffix(host, "."+s) {
			d.RiskLevel = d.RiskLevel.escalate(RiskMedium)
			d.Issues = append(d.Issues, "host is a social platform with restrictive terms of service")
			d.Recommendations = append(d.Recommendations, "prefer the platform's official API over scraping")
			break
		}
	}

	return d
}

// entryFor returns the cache entry for an origin, creating it on first use.
func (g *Gate) entryFor(origin string) *originEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.origins[origin]
	if !ok {
		entry = &originEntry{}
		g.origins[origin] = entry
	}
	return entry
}

// refreshLocked fetches and parses robots.txt when the entry is unchecked or
// its TTL has expired. The caller holds entry.mu, so concurrent checks of
// the same origin wait here instead of issuing duplicate fetches. A failed
// fetch is cached too: the deny stance holds until the TTL expires.
func (g *Gate) refreshLocked(ctx context.Context, entry *originEntry, origin string) {
	if entry.state == stateCached && g.now().Before(entry.expiresAt) {
		return
	}

	entry.state = stateFetching
	status, body, err := g.fetcher.Fetch(ctx, origin)

	switch {
	case err != nil || status >= 500:
		entry.rules = nil
		entry.fetchFail = true
		zap.L().Warn("compliance: robots fetch failed, denying origin",
			zap.String("origin", origin),
			zap.Int("status", status),
			zap.Error(err),
		)
	case status >= 400:
		// No robots.txt published; everything is permitted.
		entry.rules = emptyRules()
		entry.fetchFail = false
	default:
		entry.rules = parseRobots(body, g.userAgent)
		entry.fetchFail = false
	}

	entry.state = stateCached
	entry.expiresAt = g.now().Add(g.ttl)
}
