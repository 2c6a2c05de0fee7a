package addr

// Validate checks a parsed address for structural problems. It never fails;
// problems come back as a list of human-readable issues alongside an overall
// validity flag (valid means zero issues).
func Validate(pa ParsedAddress) (bool, []string) {
	var issues []string

	hasStreet := pa.HouseNumber != "" || pa.StreetName != ""
	if !hasStreet && pa.POBox == "" {
		issues = append(issues, "no street address or PO box found")
	}

	switch {
	case pa.City == "":
		issues = append(issues, "no city identified")
	case pa.City == UnknownCity:
		issues = append(issues, "city could not be resolved")
	case !isKnownCity(pa.City):
		issues = append(issues, "unrecognized city: "+pa.City)
	}

	if pa.PostalZone != "" {
		if !postalZoneFormatRe.MatchString(pa.PostalZone) {
			issues = append(issues, "invalid postal zone format: "+pa.PostalZone)
		} else if pa.City != "" && pa.City != UnknownCity && !hasPrefixWord(pa.PostalZone, pa.City) {
			issues = append(issues, "postal zone city does not match identified city")
		}
	}

	if pa.Parish != "" && !isParish(pa.Parish) {
		issues = append(issues, "unrecognized parish: "+pa.Parish)
	}

	if pa.Country != DefaultCountry {
		issues = append(issues, "country is not "+DefaultCountry)
	}

	if pa.HouseNumber != "" && !houseNumberRe.MatchString(pa.HouseNumber) {
		issues = append(issues, "invalid house number format: "+pa.HouseNumber)
	}

	return len(issues) == 0, issues
}

// Completeness weights. Street context matters most for geocoding, parish
// least; the UNKNOWN city sentinel earns nothing.
const (
	weightHouseNumber  = 1.0
	weightStreetName   = 2.0
	weightStreetLength = 0.5
	weightPOBox        = 1.5
	weightCity         = 2.0
	weightKnownCity    = 0.5
	weightPostalZone   = 1.5
	weightZoneFormat   = 0.5
	weightParish       = 1.0
	weightKnownParish  = 0.5
	weightCountry      = 0.5
	weightStreetZone   = 1.0
	weightBoxZone      = 1.0

	maxCompletenessScore = 10.0
)

// CompletenessScore returns a [0,1] measure of how many structured fields
// were populated, weighted by their value for geocoding and identification.
// Populating a previously empty field never lowers the score.
func CompletenessScore(pa ParsedAddress) float64 {
	score := 0.0

	if pa.HouseNumber != "" {
		score += weightHouseNumber
	}
	if pa.StreetName != "" {
		score += weightStreetName
		if len(pa.StreetName) > 5 {
			score += weightStreetLength
		}
	}
	if pa.POBox != "" {
		score += weightPOBox
	}
	if pa.City != "" && pa.City != UnknownCity {
		score += weightCity
		if isKnownCity(pa.City) {
			score += weightKnownCity
		}
	}
	if pa.PostalZone != "" {
		score += weightPostalZone
		if postalZoneFormatRe.MatchString(pa.PostalZone) {
			score += weightZoneFormat
		}
	}
	if pa.Parish != "" {
		score += weightParish
		if isParish(pa.Parish) {
			score += weightKnownParish
		}
	}
	if pa.Country == DefaultCountry {
		score += weightCountry
	}

	hasStreet := pa.HouseNumber != "" || pa.StreetName != ""
	if hasStreet && pa.PostalZone != "" {
		score += weightStreetZone
	}
	if pa.POBox != "" && pa.PostalZone != "" {
		score += weightBoxZone
	}

	score /= maxCompletenessScore
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// hasPrefixWord reports whether s starts with prefix followed by a space.
func hasPrefixWord(s, prefix string) bool {
	return len(s) > len(prefix) && s[:len(prefix)] == prefix && s[len(prefix)] == ' '
}
