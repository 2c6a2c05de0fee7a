package addr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestStandardizeBatchEmpty(t *testing.T) {
	t.Parallel()

	results, err := StandardizeBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestStandardizeBatchPreservesOrder(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"123 Main Street, Kingston 10, Jamaica",
		"P.O. Box 1234, Spanish Town 01, Jamaica",
		"10 Molynes Road, Half Way Tree, St. Andrew",
		"88 Church St, Montego Bay",
	}

	results, err := StandardizeBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, results, len(inputs))

	assert.Equal(t, "KINGSTON", results[0].City)
	assert.Equal(t, "PO BOX 1234", results[1].POBox)
	assert.Equal(t, "HALF WAY TREE", results[2].City)
	assert.Equal(t, "MONTEGO BAY", results[3].City)
}

func TestStandardizeBatchInvalidElementFallsBack(t *testing.T) {
	t.Parallel()

	results, err := StandardizeBatch(context.Background(), []string{""})
	require.NoError(t, err, "a bad element must not fail the batch")
	require.Len(t, results, 1)

	assert.Equal(t, UnknownCity, results[0].City)
	assert.Equal(t, DefaultCountry, results[0].Country)
	assert.NotEmpty(t, results[0].FormattedAddress)
}

func TestStandardizeBatchMixedValidity(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"123 Main Street, Kingston 10, Jamaica",
		"   ",
		"P.O. Box 55, Mandeville",
	}

	results, err := StandardizeBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "KINGSTON", results[0].City)
	assert.Equal(t, UnknownCity, results[1].City)
	assert.Equal(t, "MANDEVILLE", results[2].City)
}

func TestStandardizeBatchCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := make([]string, 100)
	for i := range inputs {
		inputs[i] = "123 Main Street, Kingston 10, Jamaica"
	}

	results, err := StandardizeBatch(ctx, inputs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, len(results), len(inputs))
}
