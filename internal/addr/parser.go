// Package addr parses free-text Jamaican postal addresses into structured
// components. Jamaican addresses mix formal and informal conventions: postal
// zones ("KINGSTON 10"), PO boxes, parish names, and unlabelled town names
// often appear in the same comma-delimited string.
package addr

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidInput is returned by Parse for empty or whitespace-only input.
// Callers that want best-effort fallback behavior should use StandardizeBatch.
var ErrInvalidInput = eris.New("addr: address text is empty")

const (
	// UnknownCity is the sentinel used when no city can be resolved.
	UnknownCity = "UNKNOWN"
	// DefaultCountry is assumed when no explicit country token is present.
	DefaultCountry = "JAMAICA"
)

// ParsedAddress is an immutable value object produced by Parse. City is never
// empty (falls back to UnknownCity) and FormattedAddress is a pure function
// of the other fields.
type ParsedAddress struct {
	HouseNumber      string `json:"house_number,omitempty"`
	StreetName       string `json:"street_name,omitempty"`
	POBox            string `json:"po_box,omitempty"`
	City             string `json:"city"`
	PostalZone       string `json:"postal_zone,omitempty"`
	Parish           string `json:"parish,omitempty"`
	Country          string `json:"country"`
	FormattedAddress string `json:"formatted_address"`
}

// parishes is the fixed set of Jamaican administrative regions.
var parishes = []string{
	"KINGSTON", "ST. ANDREW", "ST. THOMAS", "PORTLAND", "ST. MARY",
	"ST. ANN", "TRELAWNY", "ST. JAMES", "HANOVER", "WESTMORELAND",
	"ST. ELIZABETH", "MANCHESTER", "CLARENDON", "ST. CATHERINE",
}

// cities holds known Jamaican cities, towns, and Kingston-area districts.
var cities = []string{
	"KINGSTON", "SPANISH TOWN", "PORTMORE", "MONTEGO BAY", "MAY PEN",
	"MANDEVILLE", "OLD HARBOUR", "SAVANNA-LA-MAR", "OCHO RIOS",
	"PORT ANTONIO", "LINSTEAD", "HALF WAY TREE", "CROSS ROADS",
	"NEW KINGSTON", "DOWNTOWN", "UPTOWN", "PAPINE", "LIGUANEA",
	"CONSTANT SPRING", "HOPE PASTURES", "BARBICAN", "MEADOWBROOK",
}

// countries recognized as explicit trailing country tokens. Anything else
// leaves Country at the default.
var countries = []string{
	"JAMAICA", "TRINIDAD AND TOBAGO", "BARBADOS", "BAHAMAS", "CUBA",
	"UNITED STATES", "USA", "CANADA", "UNITED KINGDOM",
}

// streetTypes expands common street-type abbreviations.
var streetTypes = map[string]string{
	"ST": "STREET", "ST.": "STREET", "STR": "STREET", "STREET": "STREET",
	"RD": "ROAD", "RD.": "ROAD", "ROAD": "ROAD",
	"AVE": "AVENUE", "AVE.": "AVENUE", "AVENUE": "AVENUE",
	"BLVD": "BOULEVARD", "BLVD.": "BOULEVARD", "BOULEVARD": "BOULEVARD",
	"DR": "DRIVE", "DR.": "DRIVE", "DRIVE": "DRIVE",
	"LN": "LANE", "LANE": "LANE",
	"CT": "COURT", "COURT": "COURT",
	"PL": "PLACE", "PLACE": "PLACE",
	"WAY": "WAY", "CRESCENT": "CRESCENT", "CLOSE": "CLOSE",
	"GARDENS": "GARDENS", "HEIGHTS": "HEIGHTS", "PLAZA": "PLAZA",
}

var (
	multiSpaceRe  = regexp.MustCompile(`\s+`)
	prefixRe      = regexp.MustCompile(`^(ADDRESS:|LOCATED AT:|AT:)\s*`)
	westIndiesRe  = regexp.MustCompile(`\bW\.?I\.?\b`)
	poBoxRe       = regexp.MustCompile(`\b(?:P\.?\s?O\.?\s*BOX|POST\s*OFFICE\s*BOX)\s*(\d+)\b`)
	houseStreetRe = regexp.MustCompile(`^\s*(\d+[A-Z]?)\s+([^,]+)`)
	chunkHouseRe  = regexp.MustCompile(`^(\d+[A-Z]?)\s+(.+)$`)
	genericZoneRe = regexp.MustCompile(`\b([A-Z][A-Z\s\-]+?)\s+(\d{2})\b`)

	postalZoneFormatRe = regexp.MustCompile(`^[A-Z][A-Z\s\-]*\s\d{1,2}$`)
	houseNumberRe      = regexp.MustCompile(`^\d+[A-Z]?$`)

	// cityZoneRes matches a known city immediately followed by a 1-2 digit
	// zone. Longer city names are tried first so "NEW KINGSTON 5" is not
	// claimed by "KINGSTON".
	cityZoneRes []cityZonePattern

	// cityRes matches a bare known city name, longest-first.
	cityRes []cityZonePattern

	parishRes []parishPattern

	// countryRes matches an explicit trailing country token.
	countryRes []countryPattern
)

type cityZonePattern struct {
	city string
	re   *regexp.Regexp
}

type parishPattern struct {
	parish string
	re     *regexp.Regexp
}

type countryPattern struct {
	country string
	re      *regexp.Regexp
}

func init() {
	sorted := make([]string, len(cities))
	copy(sorted, cities)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	for _, c := range sorted {
		cityZoneRes = append(cityZoneRes, cityZonePattern{
			city: c,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(c) + `\s+(\d{1,2})\b`),
		})
		cityRes = append(cityRes, cityZonePattern{
			city: c,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(c) + `\b`),
		})
	}

	for _, p := range parishes {
		// Accept "ST. ANDREW", "ST ANDREW", and "SAINT ANDREW".
		pattern := regexp.QuoteMeta(p)
		pattern = strings.Replace(pattern, `ST\.`, `(?:ST\.?|SAINT)`, 1)
		parishRes = append(parishRes, parishPattern{
			parish: p,
			re:     regexp.MustCompile(`\b` + pattern + `\b`),
		})
	}

	for _, c := range countries {
		countryRes = append(countryRes, countryPattern{
			country: c,
			re:      regexp.MustCompile(`(?:,|\s|^)\s*` + regexp.QuoteMeta(c) + `\s*$`),
		})
	}
}

// Parse extracts structured components from a free-text address string.
// Extraction is greedy and non-backtracking: each matched span is removed
// before later, less specific extractors run. A postal-zone match beats a
// bare city match on the same span. The returned address always has a
// non-empty City (UnknownCity sentinel) and Country.
func Parse(text string) (ParsedAddress, error) {
	if strings.TrimSpace(text) == "" {
		return ParsedAddress{}, ErrInvalidInput
	}

	s := normalize(text)
	pa := ParsedAddress{Country: DefaultCountry}

	// Explicit country token.
	for _, cp := range countryRes {
		if loc := cp.re.FindStringIndex(s); loc != nil {
			country := cp.country
			if country == "USA" {
				country = "UNITED STATES"
			}
			pa.Country = country
			s = strings.TrimSpace(s[:loc[0]])
			break
		}
	}

	// PO box.
	if m := poBoxRe.FindStringSubmatchIndex(s); m != nil {
		pa.POBox = "PO BOX " + s[m[2]:m[3]]
		s = cutSpan(s, m[0], m[1])
	}

	// Leading house number + street, up to the first comma.
	if m := houseStreetRe.FindStringSubmatchIndex(s); m != nil {
		pa.HouseNumber = s[m[2]:m[3]]
		pa.StreetName = expandStreetTypes(strings.TrimSpace(s[m[4]:m[5]]))
		s = cutSpan(s, m[0], m[1])
	}

	// Postal zone: known city + zone digits first, then a generic
	// uppercase-words + two-digit fallback for unlisted towns.
	if pa.PostalZone == "" {
		for _, cz := range cityZoneRes {
			if m := cz.re.FindStringSubmatchIndex(s); m != nil {
				pa.PostalZone = fmt.Sprintf("%s %s", cz.city, s[m[2]:m[3]])
				pa.City = cz.city
				s = cutSpan(s, m[0], m[1])
				break
			}
		}
	}
	if pa.PostalZone == "" {
		if m := genericZoneRe.FindStringSubmatchIndex(s); m != nil {
			zoneCity := strings.TrimSpace(s[m[2]:m[3]])
			if zoneCity != "" && !isParish(zoneCity) {
				pa.PostalZone = fmt.Sprintf("%s %s", zoneCity, s[m[4]:m[5]])
				pa.City = zoneCity
				s = cutSpan(s, m[0], m[1])
			}
		}
	}

	// Parish.
	for _, pp := range parishRes {
		if loc := pp.re.FindStringIndex(s); loc != nil {
			pa.Parish = pp.parish
			s = cutSpan(s, loc[0], loc[1])
			break
		}
	}

	// Known city anywhere in the residue.
	if pa.City == "" {
		for _, cr := range cityRes {
			if loc := cr.re.FindStringIndex(s); loc != nil {
				pa.City = cr.city
				s = cutSpan(s, loc[0], loc[1])
				break
			}
		}
	}

	// Remaining comma-delimited residue: street first if still unset, city
	// from the last chunk if still unset, everything else discarded.
	chunks := splitChunks(s)
	for _, chunk := range chunks {
		if pa.StreetName == "" && pa.POBox == "" {
			if m := chunkHouseRe.FindStringSubmatch(chunk); m != nil {
				pa.HouseNumber = m[1]
				pa.StreetName = expandStreetTypes(m[2])
			} else {
				pa.StreetName = expandStreetTypes(chunk)
			}
			continue
		}
		if pa.City == "" {
			pa.City = chunk
		}
	}

	// "Kingston" alone names both the parish and the city; when only the
	// parish matched, carry it over rather than falling back to UNKNOWN.
	if pa.City == "" && pa.Parish != "" && isKnownCity(pa.Parish) {
		pa.City = pa.Parish
	}
	if pa.City == "" {
		pa.City = UnknownCity
	}

	pa.FormattedAddress = Format(pa)
	return pa, nil
}

// Format reconstructs the canonical single-line representation. It is a pure
// function of the structured fields: house number + street, PO box, postal
// zone (or city when no zone), parish when distinct from city, country.
func Format(pa ParsedAddress) string {
	var parts []string

	switch {
	case pa.HouseNumber != "" && pa.StreetName != "":
		parts = append(parts, pa.HouseNumber+" "+pa.StreetName)
	case pa.StreetName != "":
		parts = append(parts, pa.StreetName)
	case pa.HouseNumber != "":
		parts = append(parts, pa.HouseNumber)
	}

	if pa.POBox != "" {
		parts = append(parts, pa.POBox)
	}

	if pa.PostalZone != "" {
		parts = append(parts, pa.PostalZone)
	} else if pa.City != "" {
		parts = append(parts, pa.City)
	}

	if pa.Parish != "" && pa.Parish != pa.City {
		parts = append(parts, pa.Parish)
	}

	if pa.Country != "" {
		parts = append(parts, pa.Country)
	} else {
		parts = append(parts, DefaultCountry)
	}

	return strings.Join(parts, ", ")
}

// normalize uppercases, collapses whitespace, strips label prefixes, and
// truncates anything trailing the country name.
func normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = prefixRe.ReplaceAllString(s, "")
	s = westIndiesRe.ReplaceAllString(s, "WEST INDIES")
	if idx := strings.Index(s, "JAMAICA"); idx >= 0 {
		s = s[:idx+len("JAMAICA")]
	}
	return strings.TrimSpace(s)
}

// cutSpan removes s[start:end], joining the remainder with a single space.
func cutSpan(s string, start, end int) string {
	left := strings.TrimRight(strings.TrimSpace(s[:start]), ",")
	right := strings.TrimLeft(strings.TrimSpace(s[end:]), ",")
	switch {
	case left == "":
		return strings.TrimSpace(right)
	case right == "":
		return strings.TrimSpace(left)
	default:
		return strings.TrimSpace(left) + ", " + strings.TrimSpace(right)
	}
}

// splitChunks breaks residue text on commas, dropping empty chunks.
func splitChunks(s string) []string {
	var chunks []string
	for _, c := range strings.Split(s, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// expandStreetTypes replaces street-type abbreviations with their full form.
func expandStreetTypes(street string) string {
	words := strings.Fields(street)
	for i, w := range words {
		if full, ok := streetTypes[strings.TrimRight(w, ".,")]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

func isParish(s string) bool {
	for _, p := range parishes {
		if p == s {
			return true
		}
	}
	return false
}

func isKnownCity(s string) bool {
	for _, c := range cities {
		if c == s {
			return true
		}
	}
	return false
}
