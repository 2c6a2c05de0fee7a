// Package dedup detects duplicate business records with exact hashing over
// identity fields and weighted fuzzy field similarity, and merges confirmed
// duplicates into a single record.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/sntry/leadgen-cli/internal/addr"
	"github.com/sntry/leadgen-cli/internal/model"
)

// MatchType distinguishes hash-identical records from fuzzy matches.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// Confidence buckets a match score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MergeStrategy says whether a merge may be applied without review.
type MergeStrategy string

const (
	MergeAutomatic      MergeStrategy = "automatic"
	MergeReviewRequired MergeStrategy = "review_required"
)

// DefaultThreshold is the minimum weighted similarity (0-100) for a fuzzy
// duplicate.
const DefaultThreshold = 80.0

const (
	highConfidence   = 90.0
	mediumConfidence = 70.0
)

// Field weights for the fuzzy similarity sum. Phone, email, and website only
// contribute when both records carry them.
const (
	weightName    = 0.40
	weightAddress = 0.30
	weightPhone   = 0.15
	weightEmail   = 0.10
	weightWebsite = 0.05
)

// Match is a candidate duplicate pair. A and B index the scanned slice.
type Match struct {
	A                int                `json:"a"`
	B                int                `json:"b"`
	Type             MatchType          `json:"type"`
	Score            float64            `json:"score"`
	Confidence       Confidence         `json:"confidence"`
	MatchingFields   []string           `json:"matching_fields"`
	SimilarityScores map[string]float64 `json:"similarity_scores"`
}

// MergeDecision pairs a confirmed duplicate with its merged record. Primary
// is the record whose values win conflicts.
type MergeDecision struct {
	Primary   int
	Secondary int
	Merged    model.CleanedBusinessRecord
	Strategy  MergeStrategy
	Score     float64
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithThreshold sets the fuzzy-duplicate score threshold (0-100).
func WithThreshold(threshold float64) EngineOption {
	return func(e *Engine) {
		if threshold > 0 {
			e.threshold = threshold
		}
	}
}

// WithNow overrides the clock used for merge-priority recency.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// Engine finds and merges duplicate records.
type Engine struct {
	threshold float64
	now       func() time.Time
}

// NewEngine builds an engine with the default threshold.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		threshold: DefaultThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindDuplicates compares every record pair and returns candidate matches.
// Hash-identical pairs short-circuit the fuzzy comparison.
func (e *Engine) FindDuplicates(records []model.CleanedBusinessRecord) []Match {
	var matches []Match
	hashes := make([]string, len(records))
	for i, rec := range records {
		hashes[i] = identityHash(rec)
	}

	for i := range records {
		for j := i + 1; j < len(records); j++ {
			if hashes[i] != "" && hashes[i] == hashes[j] {
				matches = append(matches, Match{
					A: i, B: j,
					Type:           MatchExact,
					Score:          100,
					Confidence:     ConfidenceHigh,
					MatchingFields: []string{"name", "raw_address"},
					SimilarityScores: map[string]float64{
						"name":        100,
						"raw_address": 100,
					},
				})
				continue
			}
			if m, ok := e.fuzzyMatch(records[i], records[j]); ok {
				m.A, m.B = i, j
				matches = append(matches, m)
			}
		}
	}

	zap.L().Debug("duplicate detection complete",
		zap.Int("records", len(records)),
		zap.Int("matches", len(matches)),
	)
	return matches
}

func (e *Engine) fuzzyMatch(a, b model.CleanedBusinessRecord) (Match, bool) {
	scores := make(map[string]float64)
	var weighted float64
	var matching []string

	compare := func(field string, similarity, weight float64) {
		scores[field] = similarity
		weighted += similarity * weight
		if similarity >= e.threshold {
			matching = append(matching, field)
		}
	}

	compare("name", tokenSortRatio(normalizeName(a.Name), normalizeName(b.Name)), weightName)
	compare("raw_address", tokenSetRatio(normalizeAddress(a.RawAddress), normalizeAddress(b.RawAddress)), weightAddress)

	if a.PhoneNumber != "" && b.PhoneNumber != "" {
		compare("phone_number", ratio(digitsOnly(a.PhoneNumber), digitsOnly(b.PhoneNumber)), weightPhone)
	}
	if a.Email != "" && b.Email != "" {
		compare("email", ratio(normalizeBasic(a.Email), normalizeBasic(b.Email)), weightEmail)
	}
	if a.Website != "" && b.Website != "" {
		compare("website", ratio(normalizeWebsite(a.Website), normalizeWebsite(b.Website)), weightWebsite)
	}

	if weighted < e.threshold {
		return Match{}, false
	}

	confidence := ConfidenceLow
	switch {
	case weighted >= highConfidence:
		confidence = ConfidenceHigh
	case weighted >= mediumConfidence:
		confidence = ConfidenceMedium
	}

	return Match{
		Type:             MatchFuzzy,
		Score:            weighted,
		Confidence:       confidence,
		MatchingFields:   matching,
		SimilarityScores: scores,
	}, true
}

// MergeDecisions turns matches into merge decisions. Low-confidence matches
// are dropped for manual review; only high-confidence merges are automatic.
func (e *Engine) MergeDecisions(records []model.CleanedBusinessRecord, matches []Match) []MergeDecision {
	var decisions []MergeDecision
	for _, m := range matches {
		if m.Confidence == ConfidenceLow {
			continue
		}

		primary, secondary := m.A, m.B
		if e.priorityScore(records[secondary]) > e.priorityScore(records[primary]) {
			primary, secondary = secondary, primary
		}

		strategy := MergeReviewRequired
		if m.Confidence == ConfidenceHigh {
			strategy = MergeAutomatic
		}

		decisions = append(decisions, MergeDecision{
			Primary:   primary,
			Secondary: secondary,
			Merged:    mergeRecords(records[primary], records[secondary]),
			Strategy:  strategy,
			Score:     m.Score,
		})
	}
	return decisions
}

// Dedupe applies automatic merges and returns the surviving records in input
// order plus the number of records merged away. Review-required matches keep
// both records.
func (e *Engine) Dedupe(records []model.CleanedBusinessRecord) ([]model.CleanedBusinessRecord, int) {
	decisions := e.MergeDecisions(records, e.FindDuplicates(records))

	out := make([]model.CleanedBusinessRecord, len(records))
	copy(out, records)
	dropped := make([]bool, len(records))
	merged := 0
	for _, d := range decisions {
		if d.Strategy != MergeAutomatic || dropped[d.Primary] || dropped[d.Secondary] {
			continue
		}
		out[d.Primary] = d.Merged
		dropped[d.Secondary] = true
		merged++
	}

	result := make([]model.CleanedBusinessRecord, 0, len(records)-merged)
	for i, rec := range out {
		if !dropped[i] {
			result = append(result, rec)
		}
	}

	if merged > 0 {
		zap.L().Info("duplicates merged",
			zap.Int("merged", merged),
			zap.Int("remaining", len(result)),
		)
	}
	return result, merged
}

// priorityScore ranks a record's fitness to be the merge primary: richer and
// fresher data wins.
func (e *Engine) priorityScore(rec model.CleanedBusinessRecord) float64 {
	var score float64
	if rec.PhoneNumber != "" {
		score += 1.0
	}
	if rec.Email != "" {
		score += 1.0
	}
	if rec.Website != "" {
		score += 1.0
	}
	if rec.Description != "" {
		score += 0.5
	}
	if rec.OperatingHours != "" {
		score += 0.5
	}
	if rec.Rating > 0 {
		score += 0.5
	}
	if !rec.LastScrapedAt.IsZero() {
		daysOld := e.now().Sub(rec.LastScrapedAt).Hours() / 24
		if bonus := 1.0 - daysOld/365; bonus > 0 {
			score += bonus
		}
	}
	return score
}

// mergeRecords keeps the primary's values and fills its gaps from the
// secondary. Ratings keep the higher value.
func mergeRecords(primary, secondary model.CleanedBusinessRecord) model.CleanedBusinessRecord {
	merged := primary

	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&merged.Name, secondary.Name)
	fill(&merged.Category, secondary.Category)
	fill(&merged.RawAddress, secondary.RawAddress)
	fill(&merged.PhoneNumber, secondary.PhoneNumber)
	fill(&merged.Email, secondary.Email)
	fill(&merged.Website, secondary.Website)
	fill(&merged.Description, secondary.Description)
	fill(&merged.OperatingHours, secondary.OperatingHours)
	fill(&merged.SourceURL, secondary.SourceURL)

	if secondary.Rating > merged.Rating {
		merged.Rating = secondary.Rating
	}
	if secondary.LastScrapedAt.After(merged.LastScrapedAt) {
		merged.LastScrapedAt = secondary.LastScrapedAt
	}
	if merged.Address.City == addr.UnknownCity && secondary.Address.City != addr.UnknownCity {
		merged.Address = secondary.Address
	}
	if secondary.CompletenessScore > merged.CompletenessScore {
		merged.CompletenessScore = secondary.CompletenessScore
	}
	return merged
}

// identityHash fingerprints the exact-match identity fields. Records with
// neither a name nor an address hash to "" and never match exactly.
func identityHash(rec model.CleanedBusinessRecord) string {
	name := normalizeName(rec.Name)
	address := normalizeAddress(rec.RawAddress)
	if name == "" && address == "" {
		return ""
	}
	sum := sha256.Sum256([]byte("name:" + name + "|raw_address:" + address))
	return hex.EncodeToString(sum[:])
}
