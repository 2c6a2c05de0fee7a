package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sntry/leadgen-cli/internal/compliance"
	"github.com/sntry/leadgen-cli/internal/fusion"
	"github.com/sntry/leadgen-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// permissiveFetcher answers every robots.txt fetch with 404, which the gate
// treats as an empty permissive ruleset.
type permissiveFetcher struct{}

func (permissiveFetcher) Fetch(context.Context, string) (int, string, error) {
	return http.StatusNotFound, "", nil
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	api := &apiServer{
		gate:   compliance.NewGate(permissiveFetcher{}),
		scorer: fusion.NewScorer(nil),
	}
	srv := httptest.NewServer(api.router([]string{"*"}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestParseEndpoint(t *testing.T) {
	srv := testServer(t)

	payload := `{"addresses": ["123 Main Street, Kingston 10, Jamaica"]}`
	resp, err := http.Post(srv.URL+"/v1/addresses/parse", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results []parseResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.Equal(t, "KINGSTON", results[0].Address.City)
	assert.Equal(t, "KINGSTON 10", results[0].Address.PostalZone)
	require.NotNil(t, results[0].Valid)
	assert.True(t, *results[0].Valid)
	assert.NotEmpty(t, results[0].Candidates)
}

func TestParseEndpointBadRequest(t *testing.T) {
	srv := testServer(t)

	for _, payload := range []string{`{}`, `not json`} {
		resp, err := http.Post(srv.URL+"/v1/addresses/parse", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		resp.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestCleanEndpoint(t *testing.T) {
	srv := testServer(t)

	raws := []model.BusinessRecord{
		{Name: "island grill ltd", RawAddress: "23 Knutsford Blvd, Kingston 5"},
		{Name: "", RawAddress: ""},
	}
	payload, err := json.Marshal(raws)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v1/records/clean", "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cleaned []model.CleanedBusinessRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cleaned))
	require.Len(t, cleaned, 1)
	assert.Equal(t, "Island Grill Limited", cleaned[0].Name)
	assert.Equal(t, "KINGSTON", cleaned[0].Address.City)
}

func TestComplianceEndpoint(t *testing.T) {
	srv := testServer(t)

	payload := `{"urls": ["https://directory.example.com/a", "https://directory.example.com/admin/x"]}`
	resp, err := http.Post(srv.URL+"/v1/compliance/session", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report compliance.SessionReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 2, report.TotalURLs)
	assert.Equal(t, 1, report.CompliantURLs)
	assert.Equal(t, 1, report.NonCompliantURLs)
	assert.False(t, report.OverallCompliant)
}

func TestLeadsEndpoint(t *testing.T) {
	srv := testServer(t)

	records := []model.CleanedBusinessRecord{
		{
			BusinessRecord: model.BusinessRecord{
				Name:        "Island Grill Limited",
				Category:    "restaurant",
				PhoneNumber: "+1 (876) 555-1234",
			},
			CompletenessScore: 0.8,
		},
	}
	payload, err := json.Marshal(records)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v1/leads/score", "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var leads []model.LeadRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&leads))
	require.Len(t, leads, 1)
	assert.Greater(t, leads[0].LeadScore, 0.0)
}
