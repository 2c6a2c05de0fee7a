package compliance

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

const sessionConcurrency = 8

// Session-shape thresholds that trigger pacing recommendations.
const (
	wideSpreadDomains  = 10
	heavyPerDomainLoad = 100
)

// SessionReport aggregates per-URL decisions for a planned crawl session.
type SessionReport struct {
	TotalURLs        int            `json:"total_urls"`
	CompliantURLs    int            `json:"compliant_urls"`
	NonCompliantURLs int            `json:"non_compliant_urls"`
	HighRiskURLs     int            `json:"high_risk_urls"`
	DomainCounts     map[string]int `json:"domain_counts"`
	OverallCompliant bool           `json:"overall_compliant"`
	Decisions        []Decision     `json:"decisions"`
	Recommendations  []string       `json:"recommendations,omitempty"`
}

// CheckSession evaluates every URL of a planned session and aggregates the
// results. Decisions keep input order. Same-origin URLs share one robots
// fetch through the gate's cache.
func (g *Gate) CheckSession(ctx context.Context, urls []string) SessionReport {
	report := SessionReport{
		TotalURLs:    len(urls),
		DomainCounts: make(map[string]int),
		Decisions:    make([]Decision, len(urls)),
	}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(sessionConcurrency)
	for i, rawURL := range urls {
		eg.Go(func() error {
			report.Decisions[i] = g.CheckURL(gCtx, rawURL)
			return nil
		})
	}
	_ = eg.Wait()

	for i, d := range report.Decisions {
		if d.Allowed {
			report.CompliantURLs++
		} else {
			report.NonCompliantURLs++
		}
		if d.RiskLevel == RiskHigh {
			report.HighRiskURLs++
		}
		if u, err := url.Parse(urls[i]); err == nil && u.Hostname() != "" {
			report.DomainCounts[strings.ToLower(u.Hostname())]++
		}
	}

	report.OverallCompliant = report.NonCompliantURLs == 0 && report.HighRiskURLs == 0
	report.Recommendations = sessionRecommendations(report)
	return report
}

func sessionRecommendations(r SessionReport) []string {
	var recs []string

	if r.HighRiskURLs > 0 {
		recs = append(recs, fmt.Sprintf("review %d high-risk URLs before starting the session", r.HighRiskURLs))
	}
	if r.NonCompliantURLs > 0 {
		recs = append(recs, fmt.Sprintf("remove %d non-compliant URLs from the session", r.NonCompliantURLs))
	}
	if len(r.DomainCounts) > wideSpreadDomains {
		recs = append(recs, "session spans many domains; stagger crawls to avoid burst traffic")
	}
	domains := make([]string, 0, len(r.DomainCounts))
	for domain := range r.DomainCounts {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	for _, domain := range domains {
		if count := r.DomainCounts[domain]; count > heavyPerDomainLoad {
			recs = append(recs, fmt.Sprintf("domain %s receives %d requests; apply conservative pacing", domain, count))
		}
	}
	return recs
}
