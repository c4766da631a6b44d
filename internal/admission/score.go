// Package admission holds the scoring and selection rules. Everything here
// is pure: callers load records, call in, and persist what comes back.
package admission

import (
	"admission-workers/internal/models"

	"github.com/shopspring/decimal"
)

const (
	mathematics = "수학"

	maxBonusScore = 4

	defaultAttendanceScore = 14
	maxAttendanceScore     = 18
	maxAbsenceCount        = 16

	defaultVolunteerScore = 14
	maxVolunteerScore     = 18
	minVolunteerHours     = 15
	maxVolunteerHours     = 30

	// ReportPrecision is the number of decimal places used on result sheets.
	ReportPrecision = 3
)

var (
	regularBase = decimal.NewFromInt(80)
	specialBase = decimal.NewFromInt(48)

	regularSecondGradeWeight = decimal.RequireFromString("4.8")
	regularThirdGradeWeight  = decimal.RequireFromString("7.2")
	regularQualifyingWeight  = decimal.NewFromInt(12)
	specialSecondGradeWeight = decimal.RequireFromString("2.88")
	specialThirdGradeWeight  = decimal.RequireFromString("4.32")
	specialQualifyingWeight  = decimal.RequireFromString("7.2")

	two  = decimal.NewFromInt(2)
	half = decimal.RequireFromString("0.5")
)

var achievementPoints = map[models.AchievementLevel]int64{
	models.AchievementA: 5,
	models.AchievementB: 4,
	models.AchievementC: 3,
	models.AchievementD: 2,
	models.AchievementE: 1,
}

var certificatePoints = map[models.Certificate]int64{
	models.CertificateCraftsmanInformationProcessing:         4,
	models.CertificateCraftsmanInformationEquipmentOperation: 4,
	models.CertificateCraftsmanComputer:                      4,
	models.CertificateComputerSpecialistLevel1:               3,
	models.CertificateComputerSpecialistLevel2:               2,
	models.CertificateComputerSpecialistLevel3:               1,
}

// SecondRoundInput carries the raw interview scores for one applicant.
type SecondRoundInput struct {
	DepthInterview decimal.Decimal
	NCS            decimal.Decimal
	CodingTest     decimal.NullDecimal
}

// ComputeFirstRound derives the first-round breakdown from raw inputs.
// Second-round fields of the existing breakdown are carried over.
func ComputeFirstRound(app *models.Application) models.ScoreBreakdown {
	score := app.Score
	score.SubjectGradeScore = subjectGradeScore(app)
	score.AttendanceScore = decimal.NewFromInt(attendanceScore(app))
	score.VolunteerScore = decimal.NewFromInt(volunteerScore(app))
	score.BonusScore = decimal.NewFromInt(bonusScore(app))
	score.FirstRoundScore = decimal.NewNullDecimal(firstRoundOf(score))
	return score
}

// ComputeSecondRound stores the interview scores and the new total. The
// coding test only counts for categories that run one.
func ComputeSecondRound(app *models.Application, in SecondRoundInput) models.ScoreBreakdown {
	score := app.Score
	first := firstRoundOf(score)

	score.FirstRoundScore = decimal.NewNullDecimal(first)
	score.DepthInterviewScore = decimal.NewNullDecimal(in.DepthInterview)
	score.NCSScore = decimal.NewNullDecimal(in.NCS)
	score.CodingTestScore = decimal.NullDecimal{}

	total := first.Add(in.DepthInterview).Add(in.NCS)
	if app.Category.UsesCodingTest() && in.CodingTest.Valid {
		score.CodingTestScore = in.CodingTest
		total = total.Add(in.CodingTest.Decimal)
	}
	score.TotalScore = decimal.NewNullDecimal(total)
	return score
}

// FormatScore renders a score for result sheets and search documents,
// rounded half away from zero to ReportPrecision places. Ranking always
// compares the unrounded value.
func FormatScore(v decimal.Decimal) string {
	return v.StringFixed(ReportPrecision)
}

func firstRoundOf(s models.ScoreBreakdown) decimal.Decimal {
	return s.SubjectGradeScore.Add(s.AttendanceScore).Add(s.VolunteerScore).Add(s.BonusScore)
}

func subjectGradeScore(app *models.Application) decimal.Decimal {
	subjects := app.Grade.Subjects
	qualifying := app.Education.GraduationType == models.GraduationQualificationExamination

	switch {
	case app.Type.IsRegular() || app.Type.IsSupernumerary():
		if qualifying {
			return regularBase.Add(regularQualifyingWeight.Mul(two).Mul(averageOf(subjects)))
		}
		return regularBase.
			Add(regularSecondGradeWeight.Mul(semesterAverage(subjects, 2, 1).Add(semesterAverage(subjects, 2, 2)))).
			Add(regularThirdGradeWeight.Mul(two).Mul(semesterAverage(subjects, 3, 1)))
	case app.Type.IsSpecial():
		if qualifying {
			return specialBase.Add(specialQualifyingWeight.Mul(two).Mul(averageOf(subjects)))
		}
		return specialBase.
			Add(specialSecondGradeWeight.Mul(semesterAverage(subjects, 2, 1).Add(semesterAverage(subjects, 2, 2)))).
			Add(specialThirdGradeWeight.Mul(two).Mul(semesterAverage(subjects, 3, 1)))
	default:
		return decimal.Zero
	}
}

func subjectPoints(s models.Subject) (points, weight int64) {
	points = achievementPoints[s.AchievementLevel]
	if s.Name == mathematics {
		return points * 2, 2
	}
	return points, 1
}

func averageOf(subjects []models.Subject) decimal.Decimal {
	var total, count int64
	for _, s := range subjects {
		p, w := subjectPoints(s)
		total += p
		count += w
	}
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(count))
}

func semesterAverage(subjects []models.Subject, grade, semester int) decimal.Decimal {
	filtered := make([]models.Subject, 0, len(subjects))
	for _, s := range subjects {
		if s.Grade == grade && s.Semester == semester {
			filtered = append(filtered, s)
		}
	}
	return averageOf(filtered)
}

func attendanceScore(app *models.Application) int64 {
	if app.Education.GraduationType == models.GraduationQualificationExamination {
		return defaultAttendanceScore
	}

	var absence, minor int
	for _, a := range app.Grade.Attendance {
		if a == nil {
			return defaultAttendanceScore
		}
		absence += a.Absence
		minor += a.Lateness + a.EarlyLeave + a.ClassAbsence
	}

	converted := absence + minor/3
	if converted > maxAbsenceCount {
		return 0
	}
	return int64(maxAttendanceScore - converted)
}

func volunteerScore(app *models.Application) int64 {
	if app.Education.GraduationType == models.GraduationQualificationExamination {
		return defaultVolunteerScore
	}

	total := 0
	for _, h := range app.Grade.VolunteerHours {
		if h == nil {
			return defaultVolunteerScore
		}
		total += *h
	}

	switch {
	case total < minVolunteerHours:
		return 0
	case total > maxVolunteerHours:
		return maxVolunteerScore
	}
	missing := decimal.NewFromInt(int64(maxVolunteerHours - total)).Mul(half)
	return decimal.NewFromInt(maxVolunteerScore).Sub(missing).Round(0).IntPart()
}

func bonusScore(app *models.Application) int64 {
	var sum int64
	for _, c := range app.Grade.Certificates {
		sum += certificatePoints[c]
	}
	if sum > maxBonusScore {
		return maxBonusScore
	}
	return sum
}
