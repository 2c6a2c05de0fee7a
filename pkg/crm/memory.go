package crm

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sntry/leadgen-cli/internal/fusion"
)

// MemorySource is an in-memory relationship source loaded from a CSV export.
// It serves offline runs and environments without CRM credentials.
type MemorySource struct {
	byEmail map[string]*fusion.ContactHistory
	byPhone map[string]*fusion.ContactHistory
}

// NewMemorySource builds a source from explicit history entries keyed by
// email and phone.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		byEmail: make(map[string]*fusion.ContactHistory),
		byPhone: make(map[string]*fusion.ContactHistory),
	}
}

// Add registers a history entry under its contact channels. Empty channels
// are skipped.
func (m *MemorySource) Add(email, phone string, history fusion.ContactHistory) {
	h := history
	if email != "" {
		m.byEmail[strings.ToLower(email)] = &h
	}
	if phone != "" {
		m.byPhone[phone] = &h
	}
}

// LookupByEmail implements fusion.RelationshipSource.
func (m *MemorySource) LookupByEmail(_ context.Context, email string) (*fusion.ContactHistory, error) {
	return m.byEmail[strings.ToLower(email)], nil
}

// LookupByPhone implements fusion.RelationshipSource.
func (m *MemorySource) LookupByPhone(_ context.Context, phone string) (*fusion.ContactHistory, error) {
	return m.byPhone[phone], nil
}

// csv column layout for customer exports.
const (
	colCustomerID = iota
	colEmail
	colPhone
	colLastInteraction
	colInteractionCount
	customerColumns
)

// LoadMemorySource reads a customer history CSV with the columns
// customer_id, email, phone, last_interaction_at (RFC 3339 or YYYY-MM-DD),
// interaction_count. A header row is detected and skipped.
func LoadMemorySource(path string) (*MemorySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "crm: open customer csv")
	}
	defer f.Close() //nolint:errcheck

	return readMemorySource(f)
}

func readMemorySource(r io.Reader) (*MemorySource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = customerColumns

	source := NewMemorySource()
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "crm: read customer csv")
		}
		if first {
			first = false
			if strings.EqualFold(row[colCustomerID], "customer_id") {
				continue
			}
		}

		count, err := strconv.Atoi(strings.TrimSpace(row[colInteractionCount]))
		if err != nil {
			return nil, eris.Wrapf(err, "crm: bad interaction count for %s", row[colCustomerID])
		}

		history := fusion.ContactHistory{
			CustomerID:       strings.TrimSpace(row[colCustomerID]),
			InteractionCount: count,
		}
		if raw := strings.TrimSpace(row[colLastInteraction]); raw != "" {
			at, err := parseInteractionTime(raw)
			if err != nil {
				return nil, eris.Wrapf(err, "crm: bad timestamp for %s", row[colCustomerID])
			}
			history.LastInteractionAt = at
		}

		source.Add(strings.TrimSpace(row[colEmail]), strings.TrimSpace(row[colPhone]), history)
	}
	return source, nil
}

func parseInteractionTime(raw string) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339, raw); err == nil {
		return at, nil
	}
	return time.Parse("2006-01-02", raw)
}
