// internal/admission/quota.go
package admission

import (
	"admission-workers/internal/models"

	"github.com/shopspring/decimal"
)

// ScoreRange is an inclusive bound for one second-round score.
type ScoreRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

func NewScoreRange(min, max int64) ScoreRange {
	return ScoreRange{Min: decimal.NewFromInt(min), Max: decimal.NewFromInt(max)}
}

func (r ScoreRange) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(r.Min) && v.LessThanOrEqual(r.Max)
}

// CategoryRanges bounds the second-round scores of one category. A nil
// CodingTest means the category has no coding test.
type CategoryRanges struct {
	DepthInterview ScoreRange  `json:"depthInterview"`
	NCS            ScoreRange  `json:"ncs"`
	CodingTest     *ScoreRange `json:"codingTest,omitempty"`
}

// QuotaConfig is the read-only selection policy for one admission cycle.
type QuotaConfig struct {
	TotalSeats      int                                `json:"totalSeats"`
	Seats           map[models.Category]int            `json:"seats"`
	Multiplier      decimal.Decimal                    `json:"multiplier"`
	OtherRegionRate decimal.Decimal                    `json:"otherRegionRate"`
	Ranges          map[models.Category]CategoryRanges `json:"ranges"`
}

// DefaultQuotaConfig returns the seat table used when configuration is silent.
func DefaultQuotaConfig() QuotaConfig {
	standard := CategoryRanges{
		DepthInterview: NewScoreRange(0, 120),
		NCS:            NewScoreRange(0, 40),
	}
	coding := NewScoreRange(0, 80)

	return QuotaConfig{
		TotalSeats: 18,
		Seats: map[models.Category]int{
			models.CategoryRegular:                   6,
			models.CategoryMeisterTalent:             6,
			models.CategorySocialIntegration:         6,
			models.CategoryNationalVeteransEducation: 0,
			models.CategorySpecialAdmission:          0,
		},
		Multiplier:      decimal.RequireFromString("1.3"),
		OtherRegionRate: decimal.RequireFromString("0.5"),
		Ranges: map[models.Category]CategoryRanges{
			models.CategoryRegular: standard,
			models.CategoryMeisterTalent: {
				DepthInterview: NewScoreRange(0, 120),
				NCS:            NewScoreRange(0, 40),
				CodingTest:     &coding,
			},
			models.CategorySocialIntegration: {
				DepthInterview: NewScoreRange(0, 200),
				NCS:            NewScoreRange(0, 40),
			},
			models.CategoryNationalVeteransEducation: standard,
			models.CategorySpecialAdmission:          standard,
		},
	}
}

// FirstRoundTarget is ceil(seats × multiplier) for the category.
func (q QuotaConfig) FirstRoundTarget(c models.Category) int {
	seats := decimal.NewFromInt(int64(q.Seats[c]))
	return int(seats.Mul(q.Multiplier).Ceil().IntPart())
}

// RegionalCap is ceil(target × other-region rate).
func (q QuotaConfig) RegionalCap(target int) int {
	return int(decimal.NewFromInt(int64(target)).Mul(q.OtherRegionRate).Ceil().IntPart())
}

// RangesFor falls back to the standard interview and NCS bounds for
// categories without an explicit entry.
func (q QuotaConfig) RangesFor(c models.Category) CategoryRanges {
	if r, ok := q.Ranges[c]; ok {
		return r
	}
	return CategoryRanges{
		DepthInterview: NewScoreRange(0, 120),
		NCS:            NewScoreRange(0, 40),
	}
}
