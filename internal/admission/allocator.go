// internal/admission/allocator.go
package admission

import (
	"fmt"
	"sort"

	"admission-workers/internal/models"

	"github.com/shopspring/decimal"
)

// CategorySelection is the audit trail for one category of a selection run.
type CategorySelection struct {
	Category            models.Category `json:"category"`
	Candidates          int             `json:"candidates"`
	Target              int             `json:"target"`
	RegionalCap         int             `json:"regionalCap"`
	Admitted            int             `json:"admitted"`
	OtherRegionAdmitted int             `json:"otherRegionAdmitted"`
	Passed              []string        `json:"passed"`
	Deferred            []string        `json:"deferred,omitempty"`
	Failed              []string        `json:"failed,omitempty"`
}

// SelectionResult lists the admitted application ids per category.
type SelectionResult struct {
	Categories []CategorySelection `json:"categories"`
}

// PassedIDs returns every admitted id, category by category in rank order.
func (r *SelectionResult) PassedIDs() []string {
	var ids []string
	for _, c := range r.Categories {
		ids = append(ids, c.Passed...)
	}
	return ids
}

// FailedIDs returns ids ranked but not admitted. Only filled by
// SelectSecondPass; first-round losers stay untouched.
func (r *SelectionResult) FailedIDs() []string {
	var ids []string
	for _, c := range r.Categories {
		ids = append(ids, c.Failed...)
	}
	return ids
}

func (r *SelectionResult) Contains(id string) bool {
	for _, c := range r.Categories {
		for _, p := range c.Passed {
			if p == id {
				return true
			}
		}
	}
	return false
}

func (r *SelectionResult) TotalPassed() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Admitted
	}
	return n
}

// SelectFirstPass picks first-round passers per category. Only RECEIVED
// records take part. Candidates are ranked by first-round score, highest
// first, then by examination number. Each category admits
// ceil(seats × multiplier) candidates, and at most ceil(target × rate) of
// them may come from other regions. An other-region candidate met once the
// cap is reached is deferred. The cap is a hard ceiling, so deferred
// candidates are reported but never admitted.
//
// A seat left free by a deferred candidate stays free, so a category can
// end below its target when it lacks in-region candidates.
//
// A RECEIVED record with an unknown category, no first-round score or no
// examination number fails the whole selection.
func SelectFirstPass(records []models.Application, cfg QuotaConfig) (*SelectionResult, error) {
	byCategory := make(map[models.Category][]*models.Application)
	for i := range records {
		app := &records[i]
		if app.Status != models.StatusReceived {
			continue
		}
		if !app.Category.Valid() {
			return nil, fmt.Errorf("%w: application %s has unknown category %q", ErrInsufficientData, app.ID, app.Category)
		}
		if !app.Score.FirstRoundScore.Valid {
			return nil, fmt.Errorf("%w: application %s has no first round score", ErrInsufficientData, app.ID)
		}
		if !app.HasExaminationNumber() {
			return nil, fmt.Errorf("%w: application %s has no examination number", ErrInsufficientData, app.ID)
		}
		byCategory[app.Category] = append(byCategory[app.Category], app)
	}

	result := &SelectionResult{}
	for _, category := range models.Categories {
		ranked := byCategory[category]
		rank(ranked, func(a *models.Application) decimal.Decimal {
			return a.Score.FirstRoundScore.Decimal
		})

		target := cfg.FirstRoundTarget(category)
		sel := allocate(ranked, target, cfg.RegionalCap(target))
		sel.Category = category
		result.Categories = append(result.Categories, sel)
	}
	return result, nil
}

// rank sorts descending by key, then by examination number, then by id so
// the order never depends on input order.
func rank(apps []*models.Application, key func(*models.Application) decimal.Decimal) {
	sort.SliceStable(apps, func(i, j int) bool {
		ki, kj := key(apps[i]), key(apps[j])
		if c := ki.Cmp(kj); c != 0 {
			return c > 0
		}
		if ni, nj := apps[i].ExamNo(), apps[j].ExamNo(); ni != nj {
			return ni < nj
		}
		return apps[i].ID < apps[j].ID
	})
}

func allocate(ranked []*models.Application, target, regionalCap int) CategorySelection {
	sel := CategorySelection{
		Candidates:  len(ranked),
		Target:      target,
		RegionalCap: regionalCap,
		Passed:      []string{},
	}

	for _, app := range ranked {
		if sel.Admitted == target {
			break
		}
		if app.OtherRegion {
			if sel.OtherRegionAdmitted >= regionalCap {
				sel.Deferred = append(sel.Deferred, app.ID)
				continue
			}
			sel.OtherRegionAdmitted++
		}
		sel.Passed = append(sel.Passed, app.ID)
		sel.Admitted++
	}
	return sel
}
