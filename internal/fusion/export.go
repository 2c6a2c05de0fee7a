package fusion

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sntry/leadgen-cli/internal/model"
)

// Format selects the export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for formats Export does not handle.
var ErrUnsupportedFormat = eris.New("fusion: unsupported export format")

// flatLead is the export row shape: one flat object per lead, address fields
// prefixed with address_ instead of nested.
type flatLead struct {
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	PhoneNumber       string  `json:"phone_number"`
	Email             string  `json:"email"`
	Website           string  `json:"website"`
	Rating            float64 `json:"rating"`
	SourceURL         string  `json:"source_url"`
	AddressHouseNo    string  `json:"address_house_number"`
	AddressStreet     string  `json:"address_street_name"`
	AddressPOBox      string  `json:"address_po_box"`
	AddressCity       string  `json:"address_city"`
	AddressPostalZone string  `json:"address_postal_zone"`
	AddressParish     string  `json:"address_parish"`
	AddressCountry    string  `json:"address_country"`
	AddressFormatted  string  `json:"address_formatted"`
	CompletenessScore float64 `json:"completeness_score"`
	LeadScore         float64 `json:"lead_score"`
	MatchedCustomerID string  `json:"matched_customer_id"`
}

func flatten(lead model.LeadRecord) flatLead {
	b := lead.Business
	return flatLead{
		Name:              b.Name,
		Category:          b.Category,
		PhoneNumber:       b.PhoneNumber,
		Email:             b.Email,
		Website:           b.Website,
		Rating:            b.Rating,
		SourceURL:         b.SourceURL,
		AddressHouseNo:    b.Address.HouseNumber,
		AddressStreet:     b.Address.StreetName,
		AddressPOBox:      b.Address.POBox,
		AddressCity:       b.Address.City,
		AddressPostalZone: b.Address.PostalZone,
		AddressParish:     b.Address.Parish,
		AddressCountry:    b.Address.Country,
		AddressFormatted:  b.Address.FormattedAddress,
		CompletenessScore: b.CompletenessScore,
		LeadScore:         lead.LeadScore,
		MatchedCustomerID: lead.MatchedCustomerID,
	}
}

var exportHeader = []string{
	"name", "category", "phone_number", "email", "website", "rating",
	"source_url", "address_house_number", "address_street_name",
	"address_po_box", "address_city", "address_postal_zone",
	"address_parish", "address_country", "address_formatted",
	"completeness_score", "lead_score", "matched_customer_id",
}

func (f flatLead) row() []string {
	return []string{
		f.Name, f.Category, f.PhoneNumber, f.Email, f.Website,
		fmt.Sprintf("%.1f", f.Rating), f.SourceURL,
		f.AddressHouseNo, f.AddressStreet, f.AddressPOBox,
		f.AddressCity, f.AddressPostalZone, f.AddressParish,
		f.AddressCountry, f.AddressFormatted,
		fmt.Sprintf("%.4f", f.CompletenessScore),
		fmt.Sprintf("%.4f", f.LeadScore),
		f.MatchedCustomerID,
	}
}

// Export writes the ranked lead list to w in the requested format. Record
// order is preserved.
func Export(w io.Writer, leads []model.LeadRecord, format Format) error {
	switch format {
	case FormatJSON:
		return exportJSON(w, leads)
	case FormatCSV:
		return exportCSV(w, leads)
	case FormatXLSX:
		return exportXLSX(w, leads)
	}
	return eris.Wrapf(ErrUnsupportedFormat, "%q", format)
}

func exportJSON(w io.Writer, leads []model.LeadRecord) error {
	flat := make([]flatLead, 0, len(leads))
	for _, lead := range leads {
		flat = append(flat, flatten(lead))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(flat); err != nil {
		return eris.Wrap(err, "fusion: encode json export")
	}
	return nil
}

func exportCSV(w io.Writer, leads []model.LeadRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return eris.Wrap(err, "fusion: write csv header")
	}
	for _, lead := range leads {
		if err := cw.Write(flatten(lead).row()); err != nil {
			return eris.Wrap(err, "fusion: write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "fusion: flush csv export")
	}
	return nil
}

func exportXLSX(w io.Writer, leads []model.LeadRecord) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "fusion: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range exportHeader {
		header.AddCell().SetString(col)
	}
	for _, lead := range leads {
		row := sheet.AddRow()
		for _, val := range flatten(lead).row() {
			row.AddCell().SetString(val)
		}
	}

	if err := file.Write(w); err != nil {
		return eris.Wrap(err, "fusion: write xlsx export")
	}
	return nil
}
