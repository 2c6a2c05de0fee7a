package dedup

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)
	nonDigitRe   = regexp.MustCompile(`\D`)
	nameSuffixRe = regexp.MustCompile(`\b(?:ltd|limited|inc|incorporated|corp|corporation|co|company|llc|plc)\.?\b`)
	schemeRe     = regexp.MustCompile(`^https?://`)
	wwwRe        = regexp.MustCompile(`^www\.`)

	levParams = levenshtein.NewParams()
)

// streetAbbrevs expands common street-type abbreviations so "Main St" and
// "Main Street" compare equal.
var streetAbbrevs = []struct {
	re   *regexp.Regexp
	full string
}{
	{regexp.MustCompile(`\bst\.?\b`), "street"},
	{regexp.MustCompile(`\brd\.?\b`), "road"},
	{regexp.MustCompile(`\bave\.?\b`), "avenue"},
	{regexp.MustCompile(`\bblvd\.?\b`), "boulevard"},
	{regexp.MustCompile(`\bdr\.?\b`), "drive"},
	{regexp.MustCompile(`\bln\.?\b`), "lane"},
	{regexp.MustCompile(`\bct\.?\b`), "court"},
	{regexp.MustCompile(`\bpl\.?\b`), "place"},
}

func normalizeBasic(s string) string {
	return multiSpaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// normalizeName lowercases, strips legal-entity suffixes, and collapses
// whitespace so "Island Grill Ltd." and "ISLAND GRILL LIMITED" hash equal.
func normalizeName(s string) string {
	s = nameSuffixRe.ReplaceAllString(strings.ToLower(s), "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	return multiSpaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// normalizeAddress lowercases, expands street-type abbreviations, and
// collapses whitespace.
func normalizeAddress(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ",", " ")
	for _, a := range streetAbbrevs {
		s = a.re.ReplaceAllString(s, a.full)
	}
	return multiSpaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

func normalizeWebsite(s string) string {
	s = normalizeBasic(s)
	s = schemeRe.ReplaceAllString(s, "")
	s = wwwRe.ReplaceAllString(s, "")
	return strings.TrimSuffix(s, "/")
}

func digitsOnly(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// ratio is a 0-100 edit-distance similarity.
func ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(a, b, levParams) * 100
}

// tokenSortRatio compares the two strings with their words sorted, so word
// order does not matter.
func tokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenSetRatio compares the shared-token core against each side's full token
// set, tolerating extra words on either side.
func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	var inter, onlyA, onlyB []string
	for tok := range setA {
		if setB[tok] {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	core := strings.Join(inter, " ")
	full1 := strings.TrimSpace(core + " " + strings.Join(onlyA, " "))
	full2 := strings.TrimSpace(core + " " + strings.Join(onlyB, " "))

	best := ratio(full1, full2)
	if core != "" {
		if r := ratio(core, full1); r > best {
			best = r
		}
		if r := ratio(core, full2); r > best {
			best = r
		}
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}
