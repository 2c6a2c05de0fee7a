package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodingCandidatesOrder(t *testing.T) {
	t.Parallel()

	pa, err := Parse("123 Main Street, Kingston 10, Jamaica")
	require.NoError(t, err)

	candidates := GeocodingCandidates(pa)
	require.NotEmpty(t, candidates)

	assert.Equal(t, pa.FormattedAddress, candidates[0], "formatted address must rank first")
	assert.Contains(t, candidates, "123 MAIN STREET, KINGSTON 10, JAMAICA")
	assert.Contains(t, candidates, "KINGSTON 10, JAMAICA")
}

func TestGeocodingCandidatesPOBox(t *testing.T) {
	t.Parallel()

	pa, err := Parse("P.O. Box 1234, Spanish Town 01, Jamaica")
	require.NoError(t, err)

	candidates := GeocodingCandidates(pa)
	assert.Contains(t, candidates, "PO BOX 1234, SPANISH TOWN 01, JAMAICA")
	assert.Contains(t, candidates, "PO BOX 1234, SPANISH TOWN, JAMAICA")
}

func TestGeocodingCandidatesDeduped(t *testing.T) {
	t.Parallel()

	pa, err := Parse("Kingston, Jamaica")
	require.NoError(t, err)

	candidates := GeocodingCandidates(pa)
	seen := make(map[string]int)
	for _, c := range candidates {
		seen[c]++
		assert.Equal(t, 1, seen[c], "duplicate candidate %q", c)
	}
}

func TestGeocodingCandidatesNeverEmpty(t *testing.T) {
	t.Parallel()

	candidates := GeocodingCandidates(ParsedAddress{})
	assert.Equal(t, []string{DefaultCountry}, candidates)
}
