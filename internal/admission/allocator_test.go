// internal/admission/allocator_test.go
package admission

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"admission-workers/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Quota Tests
// ==========================

func TestQuotaConfig_Targets(t *testing.T) {
	cfg := DefaultQuotaConfig()

	assert.Equal(t, 8, cfg.FirstRoundTarget(models.CategoryRegular))
	assert.Equal(t, 0, cfg.FirstRoundTarget(models.CategorySpecialAdmission))
	assert.Equal(t, 4, cfg.RegionalCap(8))
	assert.Equal(t, 12, cfg.RegionalCap(24))
	assert.Equal(t, 4, cfg.RegionalCap(7))

	// 10 × 1.3 is exactly 13; binary floating point would round up to 14.
	assert.Equal(t, 13, quotaFor(models.CategoryRegular, 10).FirstRoundTarget(models.CategoryRegular))
	assert.Equal(t, 24, quotaFor(models.CategoryRegular, 18).FirstRoundTarget(models.CategoryRegular))
}

func TestQuotaConfig_RangesFor(t *testing.T) {
	cfg := DefaultQuotaConfig()

	social := cfg.RangesFor(models.CategorySocialIntegration)
	assert.True(t, social.DepthInterview.Contains(decimal.NewFromInt(200)))
	assert.Nil(t, social.CodingTest)

	meister := cfg.RangesFor(models.CategoryMeisterTalent)
	require.NotNil(t, meister.CodingTest)
	assert.False(t, meister.CodingTest.Contains(decimal.NewFromInt(81)))

	cfg.Ranges = nil
	fallback := cfg.RangesFor(models.CategoryRegular)
	assert.True(t, fallback.DepthInterview.Contains(decimal.NewFromInt(120)))
	assert.False(t, fallback.NCS.Contains(decimal.RequireFromString("40.5")))
}

// ==========================
// Selection Tests
// ==========================

func TestSelectFirstPass_RegionalCap(t *testing.T) {
	var records []models.Application
	// Other-region applicants take the top twenty scores.
	for i := 0; i < 20; i++ {
		records = append(records, newReceived(fmt.Sprintf("other-%02d", i), models.CategoryRegular,
			fmt.Sprint(200-i), int64(1001+i), true))
	}
	for i := 0; i < 40; i++ {
		records = append(records, newReceived(fmt.Sprintf("local-%02d", i), models.CategoryRegular,
			fmt.Sprint(180-i), int64(1021+i), false))
	}

	result, err := SelectFirstPass(records, quotaFor(models.CategoryRegular, 18))
	require.NoError(t, err)

	sel := selectionFor(t, result, models.CategoryRegular)
	assert.Equal(t, 60, sel.Candidates)
	assert.Equal(t, 24, sel.Target)
	assert.Equal(t, 12, sel.RegionalCap)
	assert.Equal(t, 24, sel.Admitted)
	assert.Equal(t, 12, sel.OtherRegionAdmitted)
	assert.Len(t, sel.Deferred, 8)

	for i := 0; i < 12; i++ {
		assert.True(t, result.Contains(fmt.Sprintf("other-%02d", i)))
		assert.True(t, result.Contains(fmt.Sprintf("local-%02d", i)))
	}
	assert.False(t, result.Contains("other-12"))
	assert.False(t, result.Contains("local-12"))
}

func TestSelectFirstPass_DeferredNeverBackfill(t *testing.T) {
	var records []models.Application
	for i := 0; i < 20; i++ {
		records = append(records, newReceived(fmt.Sprintf("other-%02d", i), models.CategoryRegular,
			fmt.Sprint(200-i), int64(1001+i), true))
	}
	for i := 0; i < 5; i++ {
		records = append(records, newReceived(fmt.Sprintf("local-%02d", i), models.CategoryRegular,
			fmt.Sprint(150-i), int64(1101+i), false))
	}

	result, err := SelectFirstPass(records, quotaFor(models.CategoryRegular, 18))
	require.NoError(t, err)

	sel := selectionFor(t, result, models.CategoryRegular)
	assert.Equal(t, 17, sel.Admitted)
	assert.Equal(t, 12, sel.OtherRegionAdmitted)
	assert.Len(t, sel.Deferred, 8)
	assert.Equal(t, 17, result.TotalPassed())
}

func TestSelectFirstPass_TieBreakByExaminationNumber(t *testing.T) {
	records := []models.Application{
		newReceived("late", models.CategoryRegular, "150", 1003, false),
		newReceived("early", models.CategoryRegular, "150", 1001, false),
		newReceived("middle", models.CategoryRegular, "150", 1002, false),
	}
	cfg := quotaFor(models.CategoryRegular, 1)
	cfg.Multiplier = decimal.NewFromInt(2)

	result, err := SelectFirstPass(records, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"early", "middle"}, result.PassedIDs())
}

func TestSelectFirstPass_NoBorrowingAcrossCategories(t *testing.T) {
	records := []models.Application{
		newReceived("m1", models.CategoryMeisterTalent, "120", 2001, false),
		newReceived("m2", models.CategoryMeisterTalent, "110", 2002, false),
	}
	for i := 0; i < 12; i++ {
		records = append(records, newReceived(fmt.Sprintf("r%02d", i), models.CategoryRegular,
			fmt.Sprint(200-i), int64(1001+i), false))
	}

	result, err := SelectFirstPass(records, DefaultQuotaConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, selectionFor(t, result, models.CategoryMeisterTalent).Admitted)
	assert.Equal(t, 8, selectionFor(t, result, models.CategoryRegular).Admitted)
	assert.Len(t, result.Categories, len(models.Categories))
}

func TestSelectFirstPass_IgnoresOtherStatuses(t *testing.T) {
	submitted := models.Application{ID: "draft", Category: models.CategoryRegular, Status: models.StatusSubmitted}
	records := []models.Application{
		submitted,
		newReceived("ok", models.CategoryRegular, "100", 1001, false),
	}

	result, err := SelectFirstPass(records, DefaultQuotaConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, result.PassedIDs())
	assert.Empty(t, result.FailedIDs())
}

func TestSelectFirstPass_InsufficientData(t *testing.T) {
	noScore := newReceived("no-score", models.CategoryRegular, "0", 1001, false)
	noScore.Score.FirstRoundScore = decimal.NullDecimal{}

	noNumber := newReceived("no-number", models.CategoryRegular, "100", 0, false)
	noNumber.ExaminationNumber = nil

	unknown := newReceived("unknown-category", models.Category("REGION_VARIANT"), "250", 1002, false)

	for _, app := range []models.Application{noScore, noNumber, unknown} {
		ok := newReceived("ok", models.CategoryRegular, "100", 1003, false)
		result, err := SelectFirstPass([]models.Application{app, ok}, DefaultQuotaConfig())
		assert.True(t, errors.Is(err, ErrInsufficientData), app.ID)
		assert.Nil(t, result, app.ID)
	}
}

func TestSelectFirstPass_RanksUnroundedScores(t *testing.T) {
	// Equal at report precision; the earlier examination number must not win.
	records := []models.Application{
		newReceived("early", models.CategoryRegular, "200.0001", 1001, false),
		newReceived("late", models.CategoryRegular, "200.0004", 1002, false),
	}

	result, err := SelectFirstPass(records, quotaFor(models.CategoryRegular, 1))
	require.NoError(t, err)

	sel := selectionFor(t, result, models.CategoryRegular)
	require.Equal(t, 2, sel.Target)
	assert.Equal(t, []string{"late", "early"}, sel.Passed)

	one := quotaFor(models.CategoryRegular, 1)
	one.Multiplier = decimal.NewFromInt(1)
	result, err = SelectFirstPass(records, one)
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, result.PassedIDs())
}

func TestSelectFirstPass_Deterministic(t *testing.T) {
	var records []models.Application
	for i := 0; i < 30; i++ {
		records = append(records, newReceived(fmt.Sprintf("app-%02d", i), models.CategoryRegular,
			fmt.Sprint(100+i%7), int64(1001+i), i%3 == 0))
	}

	first, err := SelectFirstPass(records, DefaultQuotaConfig())
	require.NoError(t, err)

	shuffled := append([]models.Application(nil), records...)
	rand.New(rand.NewSource(42)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	second, err := SelectFirstPass(shuffled, DefaultQuotaConfig())
	require.NoError(t, err)

	assert.Equal(t, first.PassedIDs(), second.PassedIDs())
}

// ==========================
// Final Selection Tests
// ==========================

func TestSelectSecondPass(t *testing.T) {
	var records []models.Application
	for i := 0; i < 8; i++ {
		app := newFirstPassed(fmt.Sprintf("r%d", i), models.CategoryRegular, int64(1001+i))
		app.Score.TotalScore = decimal.NewNullDecimal(decimal.NewFromInt(int64(300 - i)))
		app.OtherRegion = i < 5
		records = append(records, app)
	}
	noShow := newFirstPassed("absent", models.CategoryRegular, 1009)
	noShow.Status = models.StatusNoShow
	records = append(records, noShow)

	result, err := SelectSecondPass(records, DefaultQuotaConfig())
	require.NoError(t, err)

	sel := selectionFor(t, result, models.CategoryRegular)
	assert.Equal(t, 6, sel.Target)
	assert.Equal(t, 3, sel.RegionalCap)
	assert.Equal(t, []string{"r0", "r1", "r2", "r5", "r6", "r7"}, sel.Passed)
	assert.Equal(t, []string{"r3", "r4"}, sel.Failed)
	assert.False(t, result.Contains("absent"))
}

func TestSelectSecondPass_MissingTotal(t *testing.T) {
	records := []models.Application{newFirstPassed("r0", models.CategoryRegular, 1001)}

	_, err := SelectSecondPass(records, DefaultQuotaConfig())
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestSelectSecondPass_UnknownCategory(t *testing.T) {
	odd := newFirstPassed("odd", models.Category("REGION_VARIANT"), 1001)
	odd.Score.TotalScore = decimal.NewNullDecimal(dec("300"))
	ok := newFirstPassed("ok", models.CategoryRegular, 1002)
	ok.Score.TotalScore = decimal.NewNullDecimal(dec("250"))

	result, err := SelectSecondPass([]models.Application{ok, odd}, DefaultQuotaConfig())

	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.Contains(t, err.Error(), "REGION_VARIANT")
	assert.Nil(t, result)
}
