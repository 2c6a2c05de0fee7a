// Package fusion merges cleaned business records with customer relationship
// history into a ranked lead list. Matching is exact on normalized email
// first, then normalized phone; unmatched records still receive a score from
// their data quality and category alone.
package fusion

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sntry/leadgen-cli/internal/model"
)

// ContactHistory is the relationship signal for a known customer.
type ContactHistory struct {
	CustomerID        string    `json:"customer_id"`
	LastInteractionAt time.Time `json:"last_interaction_at"`
	InteractionCount  int       `json:"interaction_count"`
}

// RelationshipSource looks up interaction history by normalized contact
// channel. A nil, nil return means no match.
type RelationshipSource interface {
	LookupByEmail(ctx context.Context, email string) (*ContactHistory, error)
	LookupByPhone(ctx context.Context, phone string) (*ContactHistory, error)
}

// Weights are the lead-score component weights. They sum to 1 by default;
// each component is in [0,1], so so is the default score.
type Weights struct {
	Completeness float64 `mapstructure:"completeness" yaml:"completeness"`
	Contact      float64 `mapstructure:"contact" yaml:"contact"`
	Recency      float64 `mapstructure:"recency" yaml:"recency"`
	Category     float64 `mapstructure:"category" yaml:"category"`
}

// DefaultWeights returns the standard component weighting.
func DefaultWeights() Weights {
	return Weights{
		Completeness: 0.30,
		Contact:      0.25,
		Recency:      0.30,
		Category:     0.15,
	}
}

// Contact-channel contributions. Having both channels verified is worth more
// than the sum of either alone.
const (
	phoneContribution     = 0.4
	emailContribution     = 0.4
	bothChannelsBonus     = 0.2
	defaultHalfLifeDays   = 180.0
	interactionSaturation = 10.0
)

// Scorer fuses cleaned records with relationship history.
type Scorer struct {
	source          RelationshipSource
	weights         Weights
	categoryWeights map[string]float64
	halfLifeDays    float64
	now             func() time.Time
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithWeights overrides the component weights.
func WithWeights(w Weights) ScorerOption {
	return func(s *Scorer) { s.weights = w }
}

// WithCategoryWeights replaces the category value table. Keys are matched
// case-insensitively.
func WithCategoryWeights(weights map[string]float64) ScorerOption {
	return func(s *Scorer) {
		s.categoryWeights = make(map[string]float64, len(weights))
		for k, v := range weights {
			s.categoryWeights[strings.ToLower(k)] = v
		}
	}
}

// WithHalfLife overrides the recency decay half-life in days.
func WithHalfLife(days float64) ScorerOption {
	return func(s *Scorer) { s.halfLifeDays = days }
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) ScorerOption {
	return func(s *Scorer) { s.now = now }
}

// NewScorer creates a Scorer backed by the given relationship source. A nil
// source is valid and leaves every record unmatched.
func NewScorer(source RelationshipSource, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		source:          source,
		weights:         DefaultWeights(),
		categoryWeights: DefaultCategoryWeights(),
		halfLifeDays:    defaultHalfLifeDays,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes a ranked lead list from cleaned records. Lookup failures
// degrade the affected record to unmatched rather than failing the batch.
// The result is sorted by score descending, ties broken by completeness
// descending then name ascending.
func (s *Scorer) Score(ctx context.Context, records []model.CleanedBusinessRecord) ([]model.LeadRecord, error) {
	leads := make([]model.LeadRecord, 0, len(records))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return leads, err
		}
		leads = append(leads, s.scoreOne(ctx, rec))
	}

	sort.Slice(leads, func(i, j int) bool {
		if leads[i].LeadScore != leads[j].LeadScore {
			return leads[i].LeadScore > leads[j].LeadScore
		}
		if leads[i].Business.CompletenessScore != leads[j].Business.CompletenessScore {
			return leads[i].Business.CompletenessScore > leads[j].Business.CompletenessScore
		}
		return leads[i].Business.Name < leads[j].Business.Name
	})

	return leads, nil
}

func (s *Scorer) scoreOne(ctx context.Context, rec model.CleanedBusinessRecord) model.LeadRecord {
	history := s.match(ctx, rec)

	contact := contactScore(rec)
	recency := s.recencyScore(history)
	category := s.categoryWeight(rec.Category)

	score := s.weights.Completeness*rec.CompletenessScore +
		s.weights.Contact*contact +
		s.weights.Recency*recency +
		s.weights.Category*category
	if score < 0 {
		score = 0
	}

	lead := model.LeadRecord{
		Business:         rec,
		LeadScore:        score,
		CustomerInsights: s.insights(rec, history),
	}
	if history != nil {
		lead.MatchedCustomerID = history.CustomerID
	}
	return lead
}

// match resolves relationship history by email first, then phone.
func (s *Scorer) match(ctx context.Context, rec model.CleanedBusinessRecord) *ContactHistory {
	if s.source == nil {
		return nil
	}

	if rec.Email != "" {
		history, err := s.source.LookupByEmail(ctx, rec.Email)
		if err != nil {
			zap.L().Warn("fusion: email lookup failed",
				zap.String("business", rec.Name),
				zap.Error(err),
			)
		} else if history != nil {
			return history
		}
	}

	if rec.PhoneNumber != "" {
		history, err := s.source.LookupByPhone(ctx, rec.PhoneNumber)
		if err != nil {
			zap.L().Warn("fusion: phone lookup failed",
				zap.String("business", rec.Name),
				zap.Error(err),
			)
		} else if history != nil {
			return history
		}
	}

	return nil
}

func contactScore(rec model.CleanedBusinessRecord) float64 {
	score := 0.0
	if rec.PhoneNumber != "" {
		score += phoneContribution
	}
	if rec.Email != "" {
		score += emailContribution
	}
	if rec.PhoneNumber != "" && rec.Email != "" {
		score += bothChannelsBonus
	}
	return score
}

// recencyScore decays by half-life over the days since the last interaction
// and scales with interaction volume up to a saturation point. Unmatched
// records score zero.
func (s *Scorer) recencyScore(history *ContactHistory) float64 {
	if history == nil {
		return 0
	}

	decayed := 1.0
	if !history.LastInteractionAt.IsZero() {
		ageDays := s.now().Sub(history.LastInteractionAt).Hours() / 24
		if ageDays > 0 {
			decayed = math.Pow(2, -ageDays/s.halfLifeDays)
		}
	}

	volume := float64(history.InteractionCount) / interactionSaturation
	if volume > 1 {
		volume = 1
	}
	return decayed * (0.7 + 0.3*volume)
}

func (s *Scorer) categoryWeight(category string) float64 {
	if w, ok := s.categoryWeights[strings.ToLower(category)]; ok {
		return w
	}
	return defaultCategoryWeight
}

func (s *Scorer) insights(rec model.CleanedBusinessRecord, history *ContactHistory) map[string]any {
	var methods []string
	if rec.PhoneNumber != "" {
		methods = append(methods, "phone")
	}
	if rec.Email != "" {
		methods = append(methods, "email")
	}

	presence := 0.0
	if rec.Website != "" {
		presence += 0.5
	}
	if rec.Email != "" {
		presence += 0.5
	}

	out := map[string]any{
		"matched":                   history != nil,
		"available_contact_methods": methods,
		"digital_presence_score":    presence,
	}
	if history != nil {
		out["interaction_count"] = history.InteractionCount
		if !history.LastInteractionAt.IsZero() {
			days := int(s.now().Sub(history.LastInteractionAt).Hours() / 24)
			if days < 0 {
				days = 0
			}
			out["days_since_last_interaction"] = days
		}
	}
	return out
}
