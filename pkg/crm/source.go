package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sntry/leadgen-cli/internal/fusion"
)

// Contact is the subset of a Salesforce Contact used for lead matching.
type Contact struct {
	ID               string  `json:"Id" salesforce:"Id"`
	Email            string  `json:"Email" salesforce:"Email"`
	Phone            string  `json:"Phone" salesforce:"Phone"`
	LastActivityDate string  `json:"LastActivityDate" salesforce:"LastActivityDate"`
	Interactions     float64 `json:"Interactions__c" salesforce:"Interactions__c"`
}

var contactFields = []string{
	"Id", "Email", "Phone", "LastActivityDate", "Interactions__c",
}

// SalesforceSource resolves relationship history from Salesforce Contacts.
// It implements fusion.RelationshipSource.
type SalesforceSource struct {
	client Client
}

// NewSalesforceSource wraps a CRM client as a relationship source.
func NewSalesforceSource(client Client) *SalesforceSource {
	return &SalesforceSource{client: client}
}

// LookupByEmail finds the contact with the given normalized email.
func (s *SalesforceSource) LookupByEmail(ctx context.Context, email string) (*fusion.ContactHistory, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Contact WHERE Email = '%s' LIMIT 1",
		strings.Join(contactFields, ", "), escapeSoql(email),
	)
	return s.lookup(ctx, soql)
}

// LookupByPhone finds the contact with the given normalized phone number.
func (s *SalesforceSource) LookupByPhone(ctx context.Context, phone string) (*fusion.ContactHistory, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Contact WHERE Phone = '%s' LIMIT 1",
		strings.Join(contactFields, ", "), escapeSoql(phone),
	)
	return s.lookup(ctx, soql)
}

func (s *SalesforceSource) lookup(ctx context.Context, soql string) (*fusion.ContactHistory, error) {
	var contacts []Contact
	if err := s.client.Query(ctx, soql, &contacts); err != nil {
		return nil, eris.Wrap(err, "crm: contact lookup")
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return toHistory(contacts[0]), nil
}

func toHistory(c Contact) *fusion.ContactHistory {
	history := &fusion.ContactHistory{
		CustomerID:       c.ID,
		InteractionCount: int(c.Interactions),
	}
	if c.LastActivityDate != "" {
		if at, err := time.Parse("2006-01-02", c.LastActivityDate); err == nil {
			history.LastInteractionAt = at
		}
	}
	return history
}

// PushLead inserts a scored lead into the CRM as a Lead record.
func PushLead(ctx context.Context, client Client, name, email, phone string, score float64) (string, error) {
	id, err := client.InsertOne(ctx, "Lead", map[string]any{
		"LastName":      name,
		"Company":       name,
		"Email":         email,
		"Phone":         phone,
		"Lead_Score__c": score,
	})
	if err != nil {
		return "", eris.Wrap(err, "crm: push lead")
	}
	return id, nil
}
