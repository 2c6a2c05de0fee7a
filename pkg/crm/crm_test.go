package crm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sntry/leadgen-cli/internal/fusion"
)

// fakeClient records queries and returns canned contacts.
type fakeClient struct {
	lastSOQL string
	contacts []Contact
	err      error
}

func (f *fakeClient) Query(_ context.Context, soql string, out any) error {
	f.lastSOQL = soql
	if f.err != nil {
		return f.err
	}
	*(out.(*[]Contact)) = f.contacts
	return nil
}

func (f *fakeClient) InsertOne(context.Context, string, map[string]any) (string, error) {
	return "new-id", nil
}

func TestSalesforceSourceLookupByEmail(t *testing.T) {
	t.Parallel()

	client := &fakeClient{contacts: []Contact{{
		ID:               "003XX001",
		Email:            "info@islandgrill.com",
		LastActivityDate: "2026-08-01",
		Interactions:     6,
	}}}
	source := NewSalesforceSource(client)

	history, err := source.LookupByEmail(context.Background(), "info@islandgrill.com")
	require.NoError(t, err)
	require.NotNil(t, history)

	assert.Equal(t, "003XX001", history.CustomerID)
	assert.Equal(t, 6, history.InteractionCount)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), history.LastInteractionAt)
	assert.Contains(t, client.lastSOQL, "Email = 'info@islandgrill.com'")
}

func TestSalesforceSourceNoMatch(t *testing.T) {
	t.Parallel()

	source := NewSalesforceSource(&fakeClient{})

	history, err := source.LookupByPhone(context.Background(), "+1 (876) 555-1234")
	require.NoError(t, err)
	assert.Nil(t, history)
}

func TestSalesforceSourceEscapesSOQL(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	source := NewSalesforceSource(client)

	_, err := source.LookupByEmail(context.Background(), "o'brien@example.com")
	require.NoError(t, err)
	assert.Contains(t, client.lastSOQL, `o\'brien@example.com`)
}

func TestMemorySourceLookups(t *testing.T) {
	t.Parallel()

	source := NewMemorySource()
	source.Add("info@islandgrill.com", "+1 (876) 555-1234", fusion.ContactHistory{
		CustomerID:       "c-1",
		InteractionCount: 3,
	})

	byEmail, err := source.LookupByEmail(context.Background(), "INFO@islandgrill.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "c-1", byEmail.CustomerID)

	byPhone, err := source.LookupByPhone(context.Background(), "+1 (876) 555-1234")
	require.NoError(t, err)
	require.NotNil(t, byPhone)

	missing, err := source.LookupByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReadMemorySource(t *testing.T) {
	t.Parallel()

	csvData := strings.Join([]string{
		"customer_id,email,phone,last_interaction_at,interaction_count",
		"c-1,info@islandgrill.com,+1 (876) 555-1234,2026-08-01,6",
		"c-2,sales@coffee.com,,2026-07-15T10:30:00Z,2",
		"c-3,,+1 (876) 555-9999,,1",
	}, "\n")

	source, err := readMemorySource(strings.NewReader(csvData))
	require.NoError(t, err)

	first, err := source.LookupByEmail(context.Background(), "info@islandgrill.com")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "c-1", first.CustomerID)
	assert.Equal(t, 6, first.InteractionCount)

	second, err := source.LookupByEmail(context.Background(), "sales@coffee.com")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, time.Date(2026, 7, 15, 10, 30, 0, 0, time.UTC), second.LastInteractionAt)

	third, err := source.LookupByPhone(context.Background(), "+1 (876) 555-9999")
	require.NoError(t, err)
	require.NotNil(t, third)
	assert.True(t, third.LastInteractionAt.IsZero())
}

func TestReadMemorySourceBadCount(t *testing.T) {
	t.Parallel()

	_, err := readMemorySource(strings.NewReader("c-1,a@b.com,,2026-01-01,notanumber\n"))
	assert.Error(t, err)
}
