package addr

import "strings"

// GeocodingCandidates builds a ranked list of query strings for an external
// geocoder, most specific first. Later entries drop street-level detail so a
// geocoder that misses the exact address can still place the general area.
// The list is deduplicated and never empty.
func GeocodingCandidates(pa ParsedAddress) []string {
	var candidates []string

	candidates = append(candidates, pa.FormattedAddress)

	street := streetPart(pa)

	if street != "" && pa.PostalZone != "" {
		candidates = append(candidates, joinParts(street, pa.PostalZone, pa.Country))
	}
	if street != "" && pa.City != "" && pa.City != UnknownCity {
		candidates = append(candidates, joinParts(street, cityParishPart(pa), pa.Country))
	}
	if pa.POBox != "" && pa.PostalZone != "" {
		candidates = append(candidates, joinParts(pa.POBox, pa.PostalZone, pa.Country))
	}
	if pa.POBox != "" && pa.City != "" && pa.City != UnknownCity {
		candidates = append(candidates, joinParts(pa.POBox, pa.City, pa.Country))
	}
	if pa.City != "" && pa.City != UnknownCity {
		candidates = append(candidates, joinParts(cityParishPart(pa), pa.Country))
	}
	if pa.PostalZone != "" {
		candidates = append(candidates, joinParts(pa.PostalZone, pa.Country))
	}

	// Dedupe preserving order.
	seen := make(map[string]struct{}, len(candidates))
	var unique []string
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}

	if len(unique) == 0 {
		unique = []string{DefaultCountry}
	}
	return unique
}

func streetPart(pa ParsedAddress) string {
	switch {
	case pa.HouseNumber != "" && pa.StreetName != "":
		return pa.HouseNumber + " " + pa.StreetName
	case pa.StreetName != "":
		return pa.StreetName
	case pa.HouseNumber != "":
		return pa.HouseNumber
	}
	return ""
}

func cityParishPart(pa ParsedAddress) string {
	if pa.Parish != "" && pa.Parish != pa.City {
		return pa.City + ", " + pa.Parish
	}
	return pa.City
}

func joinParts(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
