// internal/common/config/admission.go
package config

import (
	"fmt"
	"strings"

	"admission-workers/internal/admission"
	"admission-workers/internal/models"

	"github.com/shopspring/decimal"
)

// QuotaConfig builds the engine policy. Unset values keep the defaults of
// admission.DefaultQuotaConfig.
func (a AdmissionConfig) QuotaConfig() (admission.QuotaConfig, error) {
	q := admission.DefaultQuotaConfig()

	if a.TotalSeats > 0 {
		q.TotalSeats = a.TotalSeats
	}
	if len(a.Seats) > 0 {
		seats := make(map[models.Category]int, len(models.Categories))
		for key, n := range a.Seats {
			c, err := categoryKey(key)
			if err != nil {
				return q, fmt.Errorf("admission.seats: %w", err)
			}
			if n < 0 {
				return q, fmt.Errorf("admission.seats.%s: negative seat count %d", key, n)
			}
			seats[c] = n
		}
		q.Seats = seats
	}

	if a.Multiplier != "" {
		m, err := decimal.NewFromString(a.Multiplier)
		if err != nil || !m.IsPositive() {
			return q, fmt.Errorf("admission.multiplier: invalid value %q", a.Multiplier)
		}
		q.Multiplier = m
	}
	if a.OtherRegionRate != "" {
		r, err := decimal.NewFromString(a.OtherRegionRate)
		if err != nil || r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
			return q, fmt.Errorf("admission.other_region_rate: invalid value %q", a.OtherRegionRate)
		}
		q.OtherRegionRate = r
	}

	for key, rc := range a.Ranges {
		c, err := categoryKey(key)
		if err != nil {
			return q, fmt.Errorf("admission.ranges: %w", err)
		}
		ranges := q.RangesFor(c)
		if ranges.DepthInterview, err = boundOr(rc.DepthInterview, ranges.DepthInterview); err != nil {
			return q, fmt.Errorf("admission.ranges.%s.depth_interview: %w", key, err)
		}
		if ranges.NCS, err = boundOr(rc.NCS, ranges.NCS); err != nil {
			return q, fmt.Errorf("admission.ranges.%s.ncs: %w", key, err)
		}
		if len(rc.CodingTest) > 0 {
			coding, err := boundOr(rc.CodingTest, admission.ScoreRange{})
			if err != nil {
				return q, fmt.Errorf("admission.ranges.%s.coding_test: %w", key, err)
			}
			ranges.CodingTest = &coding
		}
		q.Ranges[c] = ranges
	}

	return q, nil
}

// ExaminationNumberBases returns the per-category block starts, falling back
// to admission.DefaultExaminationNumberBases.
func (a AdmissionConfig) ExaminationNumberBases() (map[models.Category]int64, error) {
	if len(a.ExaminationNumbers) == 0 {
		return admission.DefaultExaminationNumberBases, nil
	}
	bases := make(map[models.Category]int64, len(a.ExaminationNumbers))
	for key, base := range a.ExaminationNumbers {
		c, err := categoryKey(key)
		if err != nil {
			return nil, fmt.Errorf("admission.examination_number_base: %w", err)
		}
		bases[c] = base
	}
	return bases, nil
}

// IsOtherRegion reports whether a school location lies outside the home region.
func (a AdmissionConfig) IsOtherRegion(schoolLocation string) bool {
	if a.HomeRegion == "" {
		return false
	}
	return !strings.HasPrefix(strings.TrimSpace(schoolLocation), a.HomeRegion)
}

func categoryKey(key string) (models.Category, error) {
	return models.ParseCategory(strings.ToUpper(key))
}

func boundOr(v []int64, fallback admission.ScoreRange) (admission.ScoreRange, error) {
	switch len(v) {
	case 0:
		return fallback, nil
	case 2:
		if v[0] > v[1] {
			return fallback, fmt.Errorf("min %d above max %d", v[0], v[1])
		}
		return admission.NewScoreRange(v[0], v[1]), nil
	default:
		return fallback, fmt.Errorf("expected [min, max], got %v", v)
	}
}
