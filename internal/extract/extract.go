// Package extract pulls business listings out of already-fetched directory
// HTML. It owns no HTTP: callers hand it page bodies that passed the
// compliance gate.
package extract

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sntry/leadgen-cli/internal/model"
)

// Selectors maps record fields to CSS selectors within one listing node.
// Directory sites differ only in markup, not shape, so a selector set is the
// entire per-site configuration.
type Selectors struct {
	Listing     string `mapstructure:"listing" yaml:"listing"`
	Name        string `mapstructure:"name" yaml:"name"`
	Category    string `mapstructure:"category" yaml:"category"`
	Address     string `mapstructure:"address" yaml:"address"`
	Phone       string `mapstructure:"phone" yaml:"phone"`
	Email       string `mapstructure:"email" yaml:"email"`
	Website     string `mapstructure:"website" yaml:"website"`
	Description string `mapstructure:"description" yaml:"description"`
	Hours       string `mapstructure:"hours" yaml:"hours"`
	Rating      string `mapstructure:"rating" yaml:"rating"`
}

// DefaultSelectors matches the markup conventions most Jamaican directory
// sites share: one card per listing with classed child nodes.
func DefaultSelectors() Selectors {
	return Selectors{
		Listing:     ".business-listing, .listing, .biz-card",
		Name:        ".business-name, .name, h2, h3",
		Category:    ".category",
		Address:     ".address",
		Phone:       ".phone, a[href^='tel:']",
		Email:       ".email, a[href^='mailto:']",
		Website:     ".website a, a.website",
		Description: ".description",
		Hours:       ".hours, .opening-hours",
		Rating:      ".rating",
	}
}

// Extractor parses listing pages into raw business records.
type Extractor struct {
	selectors Selectors
	now       func() time.Time
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithSelectors replaces the default selector set.
func WithSelectors(s Selectors) ExtractorOption {
	return func(e *Extractor) { e.selectors = s }
}

// WithNow overrides the scrape timestamp clock, for tests.
func WithNow(now func() time.Time) ExtractorOption {
	return func(e *Extractor) { e.now = now }
}

// NewExtractor creates an Extractor with the default selector set.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		selectors: DefaultSelectors(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses every listing in the page body. Listings with no name and
// no address are skipped; all other parse defects degrade the field. The
// returned records carry sourceURL and a pending scrape status for the
// cleaning stage.
func (e *Extractor) Extract(body io.Reader, sourceURL string) ([]model.BusinessRecord, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse listing html")
	}

	var records []model.BusinessRecord
	doc.Find(e.selectors.Listing).Each(func(i int, sel *goquery.Selection) {
		rec := e.extractOne(sel, sourceURL)
		if rec.Name == "" && rec.RawAddress == "" {
			zap.L().Debug("extract: skipped listing with no name or address",
				zap.String("source_url", sourceURL),
				zap.Int("index", i),
			)
			return
		}
		records = append(records, rec)
	})

	return records, nil
}

func (e *Extractor) extractOne(sel *goquery.Selection, sourceURL string) model.BusinessRecord {
	rec := model.BusinessRecord{
		Name:           text(sel, e.selectors.Name),
		Category:       text(sel, e.selectors.Category),
		RawAddress:     text(sel, e.selectors.Address),
		Description:    text(sel, e.selectors.Description),
		OperatingHours: text(sel, e.selectors.Hours),
		SourceURL:      sourceURL,
		LastScrapedAt:  e.now(),
		ScrapeStatus:   model.ScrapeStatusPending,
		IsActive:       true,
	}

	rec.PhoneNumber = linkValue(sel, e.selectors.Phone, "tel:")
	rec.Email = linkValue(sel, e.selectors.Email, "mailto:")

	if site := sel.Find(e.selectors.Website).First(); site.Length() > 0 {
		if href, ok := site.Attr("href"); ok {
			rec.Website = strings.TrimSpace(href)
		} else {
			rec.Website = strings.TrimSpace(site.Text())
		}
	}

	if raw := text(sel, e.selectors.Rating); raw != "" {
		if rating, err := strconv.ParseFloat(strings.Fields(raw)[0], 64); err == nil {
			rec.Rating = rating
		}
	}

	return rec
}

// text returns the trimmed text of the first node matching selector.
func text(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(sel.Find(selector).First().Text())
}

// linkValue reads a contact value from either node text or a schemed href
// (tel:, mailto:), preferring the href since display text is often
// abbreviated.
func linkValue(sel *goquery.Selection, selector, scheme string) string {
	node := sel.Find(selector).First()
	if node.Length() == 0 {
		return ""
	}
	if href, ok := node.Attr("href"); ok && strings.HasPrefix(strings.ToLower(href), scheme) {
		return strings.TrimSpace(href[len(scheme):])
	}
	return strings.TrimSpace(node.Text())
}
