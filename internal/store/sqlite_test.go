package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sntry/leadgen-cli/internal/addr"
	"github.com/sntry/leadgen-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := NewSQLite(filepath.Join(t.TempDir(), "leadgen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func cleanedRecord(name, city, category string, completeness float64) model.CleanedBusinessRecord {
	return model.CleanedBusinessRecord{
		BusinessRecord: model.BusinessRecord{
			Name:         name,
			Category:     category,
			ScrapeStatus: model.ScrapeStatusSuccess,
			IsActive:     true,
		},
		Address: addr.ParsedAddress{
			City:    city,
			Country: addr.DefaultCountry,
		},
		CompletenessScore: completeness,
	}
}

func TestSQLiteSaveAndListBusinesses(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	records := []model.CleanedBusinessRecord{
		cleanedRecord("Island Grill", "KINGSTON", "Restaurant", 0.8),
		cleanedRecord("Corner Pharmacy", "MANDEVILLE", "Pharmacy", 0.6),
		cleanedRecord("Harbour Bakery", "KINGSTON", "Bakery", 0.4),
	}

	n, err := st.SaveBusinesses(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := st.ListBusinesses(ctx, BusinessFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	kingston, err := st.ListBusinesses(ctx, BusinessFilter{City: "KINGSTON"})
	require.NoError(t, err)
	require.Len(t, kingston, 2)
	for _, rec := range kingston {
		assert.Equal(t, "KINGSTON", rec.Address.City)
	}

	quality, err := st.ListBusinesses(ctx, BusinessFilter{MinCompleteness: 0.5})
	require.NoError(t, err)
	assert.Len(t, quality, 2)

	limited, err := st.ListBusinesses(ctx, BusinessFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteListBusinessesRoundTripsRecord(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := cleanedRecord("Island Grill", "KINGSTON", "Restaurant", 0.8)
	rec.PhoneNumber = "+1 (876) 555-1234"
	rec.Address.PostalZone = "KINGSTON 10"

	_, err := st.SaveBusinesses(ctx, []model.CleanedBusinessRecord{rec})
	require.NoError(t, err)

	got, err := st.ListBusinesses(ctx, BusinessFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestSQLiteSaveAndListLeads(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	leads := []model.LeadRecord{
		{Business: cleanedRecord("First", "KINGSTON", "Restaurant", 0.9), LeadScore: 0.9},
		{Business: cleanedRecord("Second", "KINGSTON", "Bakery", 0.5), LeadScore: 0.5},
	}

	require.NoError(t, st.SaveLeads(ctx, "run-1", leads))
	require.NoError(t, st.SaveLeads(ctx, "run-2", leads[:1]))

	got, err := st.ListLeads(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "First", got[0].Business.Name, "rank order preserved")
	assert.Equal(t, "Second", got[1].Business.Name)

	other, err := st.ListLeads(ctx, "run-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSQLiteEmptySaves(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.SaveBusinesses(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, st.SaveLeads(ctx, "run-1", nil))

	leads, err := st.ListLeads(ctx, "missing-run")
	require.NoError(t, err)
	assert.Empty(t, leads)
}
