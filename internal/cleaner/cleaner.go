// Package cleaner normalizes raw scraped business records into canonical
// cleaned records. Every normalizer is pure and idempotent: running it on its
// own output is a no-op, so records can be re-cleaned safely.
package cleaner

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sntry/leadgen-cli/internal/addr"
	"github.com/sntry/leadgen-cli/internal/model"
)

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)
	nonDigitRe   = regexp.MustCompile(`\D`)
	emailRe      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	titleCaser = cases.Title(language.English)
)

// legalSuffixes maps trailing legal-entity tokens (lowercased, trailing
// punctuation stripped) to their canonical form.
var legalSuffixes = map[string]string{
	"ltd":          "Limited",
	"limited":      "Limited",
	"inc":          "Incorporated",
	"incorporated": "Incorporated",
	"corp":         "Corporation",
	"corporation":  "Corporation",
	"co":           "Company",
	"company":      "Company",
	"llc":          "LLC",
	"plc":          "PLC",
}

// multiWordSuffixes collapses spelled-out entity forms before title casing.
var multiWordSuffixes = []struct {
	phrase string
	abbrev string
}{
	{" limited liability company", " llc"},
	{" public limited company", " plc"},
}

// StandardizeBusinessName collapses whitespace, title-cases the name, and
// canonicalizes a trailing legal-entity suffix.
func StandardizeBusinessName(name string) string {
	name = multiSpaceRe.ReplaceAllString(strings.TrimSpace(name), " ")
	if name == "" {
		return ""
	}

	lower := strings.ToLower(name)
	for _, s := range multiWordSuffixes {
		if strings.HasSuffix(lower, s.phrase) {
			lower = strings.TrimSuffix(lower, s.phrase) + s.abbrev
			break
		}
	}

	name = titleCaser.String(lower)

	words := strings.Fields(name)
	last := strings.ToLower(strings.TrimRight(words[len(words)-1], ".,"))
	if canonical, ok := legalSuffixes[last]; ok {
		words[len(words)-1] = canonical
	}
	return strings.Join(words, " ")
}

// FormatPhoneNumber normalizes Jamaican phone numbers to the canonical
// "+1 (876) XXX-XXXX" international form. Seven-digit local numbers get the
// 876 area code; ten-digit numbers must carry the 876 area code; eleven-digit
// numbers must lead with 1876. Anything else, including foreign area codes,
// is returned trimmed but otherwise unchanged, digits are never invented.
func FormatPhoneNumber(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	digits := nonDigitRe.ReplaceAllString(trimmed, "")
	switch {
	case len(digits) == 7:
		return "+1 (876) " + digits[:3] + "-" + digits[3:]
	case len(digits) == 10 && strings.HasPrefix(digits, "876"):
		return "+1 (876) " + digits[3:6] + "-" + digits[6:]
	case len(digits) == 11 && strings.HasPrefix(digits, "1876"):
		return "+1 (876) " + digits[4:7] + "-" + digits[7:]
	}
	return trimmed
}

// NormalizeEmail trims and lowercases an email address. Addresses failing a
// minimal local@domain.tld structural check come back empty.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailRe.MatchString(email) {
		return ""
	}
	return email
}

// NormalizeWebsite trims a URL, prefixes https:// when no scheme is present,
// and lowercases the scheme and host. URLs with no recognizable host come
// back empty.
func NormalizeWebsite(raw string) string {
	site := strings.TrimSpace(raw)
	if site == "" {
		return ""
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}

	u, err := url.Parse(site)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// CleanCategory collapses whitespace and title-cases a category label.
func CleanCategory(raw string) string {
	cat := multiSpaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
	if cat == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(cat))
}

// CleanText collapses runs of whitespace in free-form text fields.
func CleanText(raw string) string {
	return multiSpaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
}

// clampRating forces a rating into the [0,5] scale.
func clampRating(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 5:
		return 5
	}
	return r
}

// Business-field weighting for the overall completeness score. The address
// carries the weight of four scalar fields since it is the primary
// identification and geocoding signal.
const (
	businessFieldCount = 8.0
	addressWeight      = 4.0
)

// Clean normalizes every scalar field of a raw record, parses its address,
// and computes an overall completeness score. It returns nil, not an error,
// when the record carries neither a name nor a raw address; partial failures
// in individual fields degrade that field only.
func Clean(raw model.BusinessRecord) *model.CleanedBusinessRecord {
	name := StandardizeBusinessName(raw.Name)
	if name == "" && strings.TrimSpace(raw.RawAddress) == "" {
		return nil
	}

	parsed, err := addr.Parse(raw.RawAddress)
	if err != nil {
		parsed = addr.ParsedAddress{City: addr.UnknownCity, Country: addr.DefaultCountry}
		parsed.FormattedAddress = addr.Format(parsed)
	}

	cleaned := raw
	cleaned.Name = name
	cleaned.Category = CleanCategory(raw.Category)
	cleaned.PhoneNumber = FormatPhoneNumber(raw.PhoneNumber)
	cleaned.Email = NormalizeEmail(raw.Email)
	cleaned.Website = NormalizeWebsite(raw.Website)
	cleaned.Description = CleanText(raw.Description)
	cleaned.OperatingHours = CleanText(raw.OperatingHours)
	cleaned.Rating = clampRating(raw.Rating)

	return &model.CleanedBusinessRecord{
		BusinessRecord:    cleaned,
		Address:           parsed,
		CompletenessScore: completeness(cleaned, parsed),
	}
}

// completeness blends populated business fields with the structured address
// score into a single [0,1] measure.
func completeness(rec model.BusinessRecord, parsed addr.ParsedAddress) float64 {
	populated := 0.0
	for _, f := range []string{
		rec.Name, rec.Category, rec.PhoneNumber, rec.Email,
		rec.Website, rec.Description, rec.OperatingHours,
	} {
		if f != "" {
			populated++
		}
	}
	if rec.Rating > 0 {
		populated++
	}

	score := (populated + addressWeight*addr.CompletenessScore(parsed)) /
		(businessFieldCount + addressWeight)
	if score > 1.0 {
		score = 1.0
	}
	return score
}
