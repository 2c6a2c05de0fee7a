package compliance

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSessionAggregates(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{
		"https://example.com": "",
		"https://other.com":   "",
	}}
	gate := NewGate(fetcher)

	urls := []string{
		"https://example.com/listings",
		"https://example.com/admin/panel",
		"https://example.com/private/files",
		"https://other.com/shops",
		"https://other.com/contact",
	}

	report := gate.CheckSession(context.Background(), urls)

	assert.Equal(t, 5, report.TotalURLs)
	assert.Equal(t, 3, report.CompliantURLs)
	assert.Equal(t, 2, report.NonCompliantURLs)
	assert.GreaterOrEqual(t, report.HighRiskURLs, 2)
	assert.False(t, report.OverallCompliant)
	assert.NotEmpty(t, report.Recommendations)

	assert.Equal(t, 3, report.DomainCounts["example.com"])
	assert.Equal(t, 2, report.DomainCounts["other.com"])
}

func TestCheckSessionPreservesOrder(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{"https://example.com": ""}}
	gate := NewGate(fetcher)

	urls := make([]string, 20)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/page/%d", i)
	}

	report := gate.CheckSession(context.Background(), urls)
	require.Len(t, report.Decisions, len(urls))
	for i, d := range report.Decisions {
		assert.Equal(t, urls[i], d.URL)
	}
}

func TestCheckSessionAllCompliant(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{"https://example.com": ""}}
	gate := NewGate(fetcher)

	report := gate.CheckSession(context.Background(), []string{
		"https://example.com/a",
		"https://example.com/b",
	})

	assert.True(t, report.OverallCompliant)
	assert.Empty(t, report.Recommendations)
}

func TestCheckSessionEmpty(t *testing.T) {
	t.Parallel()

	gate := NewGate(&stubFetcher{})
	report := gate.CheckSession(context.Background(), nil)

	assert.Zero(t, report.TotalURLs)
	assert.True(t, report.OverallCompliant)
}
