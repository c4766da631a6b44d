// internal/admission/secondround.go
package admission

import (
	"fmt"
	"sort"

	"admission-workers/internal/models"
)

// ApplySecondRound pairs imported sheet rows with FIRST_PASSED records by
// examination number. An absent applicant becomes NO_SHOW. A present one
// gets the second-round scores and a new total. The result is a set of
// updated copies sorted by examination number; the inputs are left as they
// were, and nothing is returned unless every record pairs up.
func ApplySecondRound(records []models.Application, rows []ScoreSheetRow) ([]models.Application, error) {
	byNumber := make(map[int64]*models.Application, len(records))
	for i := range records {
		app := &records[i]
		if app.Status != models.StatusFirstPassed {
			return nil, fmt.Errorf("%w: application %s is %s, not %s",
				ErrInvalidTransition, app.ID, app.Status, models.StatusFirstPassed)
		}
		if !app.HasExaminationNumber() {
			return nil, fmt.Errorf("%w: application %s has no examination number", ErrExaminationNumberMismatch, app.ID)
		}
		if _, dup := byNumber[app.ExamNo()]; dup {
			return nil, fmt.Errorf("%w: examination number %d is held by more than one application",
				ErrExaminationNumberMismatch, app.ExamNo())
		}
		byNumber[app.ExamNo()] = app
	}

	seen := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.ExaminationNumber]; dup {
			return nil, fmt.Errorf("%w: examination number %d appears twice on the sheet",
				ErrExaminationNumberMismatch, row.ExaminationNumber)
		}
		seen[row.ExaminationNumber] = struct{}{}

		app, ok := byNumber[row.ExaminationNumber]
		if !ok {
			return nil, fmt.Errorf("%w: examination number %d is not a first round passer",
				ErrExaminationNumberMismatch, row.ExaminationNumber)
		}
		if row.Category != app.Category {
			return nil, fmt.Errorf("%w: examination number %d is %s, sheet says %s",
				ErrExaminationNumberMismatch, row.ExaminationNumber, app.Category, row.Category)
		}
	}

	var missing []int64
	for n := range byNumber {
		if _, ok := seen[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, fmt.Errorf("%w: examination numbers %v are missing from the sheet",
			ErrExaminationNumberMismatch, missing)
	}

	updated := make([]models.Application, 0, len(rows))
	for _, row := range rows {
		app := byNumber[row.ExaminationNumber].Clone()
		if row.Present {
			app.Score = ComputeSecondRound(&app, row.SecondRoundInput())
		} else {
			app.Status = models.StatusNoShow
		}
		updated = append(updated, app)
	}

	sort.SliceStable(updated, func(i, j int) bool {
		return updated[i].ExamNo() < updated[j].ExamNo()
	})
	return updated, nil
}
