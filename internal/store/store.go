// Package store persists acquired businesses and scored leads. Two backends
// implement the same interface: SQLite for single-machine runs and
// PostgreSQL for shared deployments.
package store

import (
	"context"

	"github.com/sntry/leadgen-cli/internal/model"
)

// BusinessFilter specifies criteria for listing stored businesses.
type BusinessFilter struct {
	City            string  `json:"city,omitempty"`
	Category        string  `json:"category,omitempty"`
	MinCompleteness float64 `json:"min_completeness,omitempty"`
	Limit           int     `json:"limit,omitempty"`
	Offset          int     `json:"offset,omitempty"`
}

// Store defines the persistence interface for the acquisition pipeline.
type Store interface {
	// Businesses
	SaveBusinesses(ctx context.Context, records []model.CleanedBusinessRecord) (int, error)
	ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.CleanedBusinessRecord, error)

	// Leads, grouped by the pipeline run that produced them.
	SaveLeads(ctx context.Context, runID string, leads []model.LeadRecord) error
	ListLeads(ctx context.Context, runID string) ([]model.LeadRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
