package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sntry/leadgen-cli/internal/addr"
)

func TestScrapeStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range []ScrapeStatus{
		ScrapeStatusPending, ScrapeStatusSuccess, ScrapeStatusFailed,
		ScrapeStatusRetry, ScrapeStatusAntiBot,
	} {
		assert.True(t, s.Valid(), "status %q", s)
	}

	assert.False(t, ScrapeStatus("").Valid())
	assert.False(t, ScrapeStatus("blocked").Valid())
}

func TestLeadRecordJSONRoundTrip(t *testing.T) {
	t.Parallel()

	lead := LeadRecord{
		Business: CleanedBusinessRecord{
			BusinessRecord: BusinessRecord{
				Name:          "Island Grill",
				Category:      "Restaurant",
				PhoneNumber:   "+1 (876) 555-1234",
				LastScrapedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
				ScrapeStatus:  ScrapeStatusSuccess,
				IsActive:      true,
			},
			Address: addr.ParsedAddress{
				City:    "KINGSTON",
				Country: "JAMAICA",
			},
			CompletenessScore: 0.7,
		},
		LeadScore:         0.85,
		MatchedCustomerID: "003XX0000012345",
	}

	data, err := json.Marshal(lead)
	require.NoError(t, err)

	var got LeadRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, lead, got)
}
