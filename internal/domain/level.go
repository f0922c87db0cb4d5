package domain

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierBronze, TierSilver, TierGold, TierPlatinum}

// Rank orders tiers; unknown tiers rank below bronze.
func (t Tier) Rank() int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return -1
}

func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", &ValidationError{Field: "level", Message: fmt.Sprintf("unknown level %q", s)}
	}
	return t, nil
}

type MemberLevelRule struct {
	ID              uuid.UUID       `json:"id"`
	Level           Tier            `json:"level"`
	MinPoints       int64           `json:"min_points"`
	PointsEarnRate  decimal.Decimal `json:"points_earn_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// DefaultLevelRules is the table seeded when member_levels is empty.
func DefaultLevelRules() []MemberLevelRule {
	return []MemberLevelRule{
		{Level: TierBronze, MinPoints: 0, PointsEarnRate: decimal.NewFromInt(1), DiscountPercent: decimal.Zero},
		{Level: TierSilver, MinPoints: 1000, PointsEarnRate: decimal.RequireFromString("1.25"), DiscountPercent: decimal.NewFromInt(5)},
		{Level: TierGold, MinPoints: 2500, PointsEarnRate: decimal.RequireFromString("1.5"), DiscountPercent: decimal.NewFromInt(10)},
		{Level: TierPlatinum, MinPoints: 5000, PointsEarnRate: decimal.NewFromInt(2), DiscountPercent: decimal.NewFromInt(15)},
	}
}

// Classify returns the tier of the rule with the greatest MinPoints not above
// lifetimePoints. Equal thresholds resolve to the higher tier. With no
// qualifying rule the result is bronze.
func Classify(rules []MemberLevelRule, lifetimePoints int64) Tier {
	best := TierBronze
	var bestMin int64
	found := false
	for _, r := range rules {
		if r.MinPoints > lifetimePoints {
			continue
		}
		if !found || r.MinPoints > bestMin || (r.MinPoints == bestMin && r.Level.Rank() > best.Rank()) {
			best, bestMin, found = r.Level, r.MinPoints, true
		}
	}
	return best
}

// RuleFor returns the rule configured for tier, if any.
func RuleFor(rules []MemberLevelRule, tier Tier) (MemberLevelRule, bool) {
	for _, r := range rules {
		if r.Level == tier {
			return r, true
		}
	}
	return MemberLevelRule{}, false
}

// ValidateLevelTable checks that thresholds strictly increase with tier rank,
// which keeps Classify monotonic in lifetime points.
func ValidateLevelTable(rules []MemberLevelRule) error {
	sorted := make([]MemberLevelRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level.Rank() < sorted[j].Level.Rank() })

	var errs ValidationErrors
	for i, r := range sorted {
		if !r.Level.Valid() {
			errs = append(errs, ValidationError{Field: "level", Message: fmt.Sprintf("unknown level %q", r.Level)})
			continue
		}
		if r.MinPoints < 0 {
			errs = append(errs, ValidationError{Field: "min_points", Message: "must be non-negative"})
		}
		if r.PointsEarnRate.IsNegative() {
			errs = append(errs, ValidationError{Field: "points_earn_rate", Message: "must be non-negative"})
		}
		if r.DiscountPercent.IsNegative() || r.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			errs = append(errs, ValidationError{Field: "discount_percent", Message: "must be between 0 and 100"})
		}
		if i > 0 && sorted[i-1].Level == r.Level {
			errs = append(errs, ValidationError{Field: "level", Message: fmt.Sprintf("duplicate level %q", r.Level)})
			continue
		}
		if i > 0 && r.MinPoints <= sorted[i-1].MinPoints {
			errs = append(errs, ValidationError{
				Field:   "min_points",
				Message: fmt.Sprintf("%s threshold must exceed %s threshold", r.Level, sorted[i-1].Level),
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
