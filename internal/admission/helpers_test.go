// internal/admission/helpers_test.go
package admission

import (
	"testing"

	"admission-workers/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func examNo(n int64) *int64 {
	return &n
}

func intPtr(n int) *int {
	return &n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func newReceived(id string, category models.Category, firstRound string, number int64, otherRegion bool) models.Application {
	return models.Application{
		ID:                id,
		Category:          category,
		OtherRegion:       otherRegion,
		ExaminationNumber: examNo(number),
		Status:            models.StatusReceived,
		Score: models.ScoreBreakdown{
			FirstRoundScore: decimal.NewNullDecimal(dec(firstRound)),
		},
	}
}

func newFirstPassed(id string, category models.Category, number int64) models.Application {
	return models.Application{
		ID:                id,
		Type:              models.FormType(category),
		Category:          category,
		ExaminationNumber: examNo(number),
		Status:            models.StatusFirstPassed,
		Score: models.ScoreBreakdown{
			SubjectGradeScore: dec("150"),
			AttendanceScore:   dec("18"),
			VolunteerScore:    dec("18"),
			BonusScore:        dec("4"),
			FirstRoundScore:   decimal.NewNullDecimal(dec("190")),
		},
	}
}

func quotaFor(category models.Category, seats int) QuotaConfig {
	cfg := DefaultQuotaConfig()
	cfg.Seats = map[models.Category]int{category: seats}
	return cfg
}

func selectionFor(t *testing.T, result *SelectionResult, category models.Category) CategorySelection {
	t.Helper()
	for _, c := range result.Categories {
		if c.Category == category {
			return c
		}
	}
	t.Fatalf("no selection for %s", category)
	return CategorySelection{}
}
