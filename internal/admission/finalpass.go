// internal/admission/finalpass.go
package admission

import (
	"fmt"

	"admission-workers/internal/models"

	"github.com/shopspring/decimal"
)

// SelectSecondPass ranks FIRST_PASSED records by total score and admits
// exactly the category's seat count under the same regional cap. Every
// other ranked record is reported as failed. NO_SHOW records were already
// decided and are skipped.
func SelectSecondPass(records []models.Application, cfg QuotaConfig) (*SelectionResult, error) {
	byCategory := make(map[models.Category][]*models.Application)
	for i := range records {
		app := &records[i]
		if app.Status != models.StatusFirstPassed {
			continue
		}
		if !app.Category.Valid() {
			return nil, fmt.Errorf("%w: application %s has unknown category %q", ErrInsufficientData, app.ID, app.Category)
		}
		if !app.Score.TotalScore.Valid {
			return nil, fmt.Errorf("%w: application %s has no second round score", ErrInsufficientData, app.ID)
		}
		byCategory[app.Category] = append(byCategory[app.Category], app)
	}

	result := &SelectionResult{}
	for _, category := range models.Categories {
		ranked := byCategory[category]
		rank(ranked, func(a *models.Application) decimal.Decimal {
			return a.Score.TotalScore.Decimal
		})

		target := cfg.Seats[category]
		sel := allocate(ranked, target, cfg.RegionalCap(target))
		sel.Category = category

		admitted := make(map[string]struct{}, len(sel.Passed))
		for _, id := range sel.Passed {
			admitted[id] = struct{}{}
		}
		for _, app := range ranked {
			if _, ok := admitted[app.ID]; !ok {
				sel.Failed = append(sel.Failed, app.ID)
			}
		}
		result.Categories = append(result.Categories, sel)
	}
	return result, nil
}
