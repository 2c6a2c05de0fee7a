package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sntry/leadgen-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const listingPage = `
<html><body>
<div class="business-listing">
  <h2 class="business-name">Island Grill</h2>
  <span class="category">Restaurant</span>
  <div class="address">123 Main Street, Kingston 10, Jamaica</div>
  <a class="phone" href="tel:8765551234">876-555-1234</a>
  <a class="email" href="mailto:info@islandgrill.com">email us</a>
  <div class="website"><a href="https://islandgrill.com">site</a></div>
  <p class="description">Authentic jerk chicken</p>
  <span class="rating">4.5 stars</span>
</div>
<div class="business-listing">
  <h2 class="business-name">Blue Mountain Coffee</h2>
  <div class="address">P.O. Box 55, Mandeville</div>
  <span class="phone">876-555-9999</span>
</div>
<div class="business-listing">
  <span class="category">Empty Card</span>
</div>
</body></html>
`

func TestExtractListings(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	ex := NewExtractor(WithNow(func() time.Time { return now }))

	records, err := ex.Extract(strings.NewReader(listingPage), "https://directory.example.com/kingston")
	require.NoError(t, err)
	require.Len(t, records, 2, "nameless and addressless cards are skipped")

	first := records[0]
	assert.Equal(t, "Island Grill", first.Name)
	assert.Equal(t, "Restaurant", first.Category)
	assert.Equal(t, "123 Main Street, Kingston 10, Jamaica", first.RawAddress)
	assert.Equal(t, "8765551234", first.PhoneNumber, "tel: href wins over display text")
	assert.Equal(t, "info@islandgrill.com", first.Email)
	assert.Equal(t, "https://islandgrill.com", first.Website)
	assert.Equal(t, "Authentic jerk chicken", first.Description)
	assert.Equal(t, 4.5, first.Rating)
	assert.Equal(t, "https://directory.example.com/kingston", first.SourceURL)
	assert.Equal(t, now, first.LastScrapedAt)
	assert.Equal(t, model.ScrapeStatusPending, first.ScrapeStatus)
	assert.True(t, first.IsActive)

	second := records[1]
	assert.Equal(t, "Blue Mountain Coffee", second.Name)
	assert.Equal(t, "876-555-9999", second.PhoneNumber, "plain text phone still extracted")
	assert.Empty(t, second.Email)
	assert.Zero(t, second.Rating)
}

func TestExtractEmptyPage(t *testing.T) {
	t.Parallel()

	ex := NewExtractor()
	records, err := ex.Extract(strings.NewReader("<html><body></body></html>"), "https://example.com")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractCustomSelectors(t *testing.T) {
	t.Parallel()

	page := `<ul><li class="shop"><b>Corner Shop</b><i>45 King Street, Kingston</i></li></ul>`
	ex := NewExtractor(WithSelectors(Selectors{
		Listing: "li.shop",
		Name:    "b",
		Address: "i",
	}))

	records, err := ex.Extract(strings.NewReader(page), "https://example.com")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Corner Shop", records[0].Name)
	assert.Equal(t, "45 King Street, Kingston", records[0].RawAddress)
}
