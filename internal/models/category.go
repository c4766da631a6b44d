// internal/models/category.go
package models

import "fmt"

// Category is the admission track a form competes in. Quotas, score ranges
// and examination number blocks are all keyed by category.
type Category string

const (
	CategoryRegular                   Category = "REGULAR"
	CategoryMeisterTalent             Category = "MEISTER_TALENT"
	CategorySocialIntegration         Category = "SOCIAL_INTEGRATION"
	CategoryNationalVeteransEducation Category = "NATIONAL_VETERANS_EDUCATION"
	CategorySpecialAdmission          Category = "SPECIAL_ADMISSION"
)

// Categories lists every category in processing order.
var Categories = []Category{
	CategoryRegular,
	CategoryMeisterTalent,
	CategorySocialIntegration,
	CategoryNationalVeteransEducation,
	CategorySpecialAdmission,
}

var categoryLabels = map[Category]string{
	CategoryRegular:                   "일반전형",
	CategoryMeisterTalent:             "마이스터인재전형",
	CategorySocialIntegration:         "사회통합전형",
	CategoryNationalVeteransEducation: "국가보훈대상자 중 교육지원대상자녀",
	CategorySpecialAdmission:          "특례입학대상자",
}

// Label returns the display name printed on score sheets and notices.
func (c Category) Label() string {
	return categoryLabels[c]
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// UsesCodingTest reports whether the second round includes a coding test.
func (c Category) UsesCodingTest() bool {
	return c == CategoryMeisterTalent
}

// ParseCategory accepts either the enum code or the display label.
func ParseCategory(s string) (Category, error) {
	if c := Category(s); c.Valid() {
		return c, nil
	}
	for c, label := range categoryLabels {
		if label == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// FormType is the concrete admission type an applicant selects.
type FormType string

const (
	FormTypeRegular                   FormType = "REGULAR"
	FormTypeMeisterTalent             FormType = "MEISTER_TALENT"
	FormTypeNationalBasicLiving       FormType = "NATIONAL_BASIC_LIVING"
	FormTypeNearPoverty               FormType = "NEAR_POVERTY"
	FormTypeNationalVeterans          FormType = "NATIONAL_VETERANS"
	FormTypeOneParent                 FormType = "ONE_PARENT"
	FormTypeFromNorthKorea            FormType = "FROM_NORTH_KOREA"
	FormTypeMulticultural             FormType = "MULTICULTURAL"
	FormTypeTeenHouseholder           FormType = "TEEN_HOUSEHOLDER"
	FormTypeMultiChildren             FormType = "MULTI_CHILDREN"
	FormTypeFarmingAndFishing         FormType = "FARMING_AND_FISHING"
	FormTypeNationalVeteransEducation FormType = "NATIONAL_VETERANS_EDUCATION"
	FormTypeSpecialAdmission          FormType = "SPECIAL_ADMISSION"
)

var formTypeCategories = map[FormType]Category{
	FormTypeRegular:                   CategoryRegular,
	FormTypeMeisterTalent:             CategoryMeisterTalent,
	FormTypeNationalBasicLiving:       CategorySocialIntegration,
	FormTypeNearPoverty:               CategorySocialIntegration,
	FormTypeNationalVeterans:          CategorySocialIntegration,
	FormTypeOneParent:                 CategorySocialIntegration,
	FormTypeFromNorthKorea:            CategorySocialIntegration,
	FormTypeMulticultural:             CategorySocialIntegration,
	FormTypeTeenHouseholder:           CategorySocialIntegration,
	FormTypeMultiChildren:             CategorySocialIntegration,
	FormTypeFarmingAndFishing:         CategorySocialIntegration,
	FormTypeNationalVeteransEducation: CategoryNationalVeteransEducation,
	FormTypeSpecialAdmission:          CategorySpecialAdmission,
}

func (t FormType) Valid() bool {
	_, ok := formTypeCategories[t]
	return ok
}

// Category returns the quota category the form type competes in.
func (t FormType) Category() Category {
	return formTypeCategories[t]
}

func (t FormType) IsRegular() bool {
	return t == FormTypeRegular
}

// IsSupernumerary reports types admitted outside the regular seat count.
// They are scored with the regular formula.
func (t FormType) IsSupernumerary() bool {
	return t == FormTypeNationalVeteransEducation || t == FormTypeSpecialAdmission
}

// IsSpecial covers meister talent and every social integration type.
func (t FormType) IsSpecial() bool {
	return t.Valid() && !t.IsRegular() && !t.IsSupernumerary()
}
