package model

import (
	"time"

	"github.com/sntry/leadgen-cli/internal/addr"
)

// ScrapeStatus represents the outcome of the most recent acquisition attempt
// for a business record.
type ScrapeStatus string

const (
	ScrapeStatusPending ScrapeStatus = "pending"
	ScrapeStatusSuccess ScrapeStatus = "success"
	ScrapeStatusFailed  ScrapeStatus = "failed"
	ScrapeStatusRetry   ScrapeStatus = "retry"
	ScrapeStatusAntiBot ScrapeStatus = "anti_bot"
)

// Valid reports whether s is one of the defined statuses.
func (s ScrapeStatus) Valid() bool {
	switch s {
	case ScrapeStatusPending, ScrapeStatusSuccess, ScrapeStatusFailed,
		ScrapeStatusRetry, ScrapeStatusAntiBot:
		return true
	}
	return false
}

// BusinessRecord is a raw business listing as acquired from a source, before
// any cleaning or normalization.
type BusinessRecord struct {
	Name           string       `json:"name"`
	Category       string       `json:"category,omitempty"`
	RawAddress     string       `json:"raw_address,omitempty"`
	PhoneNumber    string       `json:"phone_number,omitempty"`
	Email          string       `json:"email,omitempty"`
	Website        string       `json:"website,omitempty"`
	Description    string       `json:"description,omitempty"`
	OperatingHours string       `json:"operating_hours,omitempty"`
	Rating         float64      `json:"rating,omitempty"`
	SourceURL      string       `json:"source_url,omitempty"`
	LastScrapedAt  time.Time    `json:"last_scraped_at,omitempty"`
	ScrapeStatus   ScrapeStatus `json:"scrape_status,omitempty"`
	IsActive       bool         `json:"is_active"`
}

// CleanedBusinessRecord is a BusinessRecord after field normalization, with
// the raw address resolved into structured components and a completeness
// score over the populated fields.
type CleanedBusinessRecord struct {
	BusinessRecord

	Address           addr.ParsedAddress `json:"address"`
	CompletenessScore float64            `json:"completeness_score"`
}

// LeadRecord is a cleaned business scored against relationship history and
// ranked for outreach.
type LeadRecord struct {
	Business          CleanedBusinessRecord `json:"business"`
	LeadScore         float64               `json:"lead_score"`
	CustomerInsights  map[string]any        `json:"customer_insights,omitempty"`
	MatchedCustomerID string                `json:"matched_customer_id,omitempty"`
}
