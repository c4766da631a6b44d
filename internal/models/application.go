// internal/models/application.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type GraduationType string

const (
	GraduationExpected                 GraduationType = "EXPECTED"
	GraduationGraduated                GraduationType = "GRADUATED"
	GraduationQualificationExamination GraduationType = "QUALIFICATION_EXAMINATION"
)

type AchievementLevel string

const (
	AchievementA AchievementLevel = "A"
	AchievementB AchievementLevel = "B"
	AchievementC AchievementLevel = "C"
	AchievementD AchievementLevel = "D"
	AchievementE AchievementLevel = "E"
)

type Certificate string

const (
	CertificateCraftsmanInformationProcessing         Certificate = "CRAFTSMAN_INFORMATION_PROCESSING"
	CertificateCraftsmanInformationEquipmentOperation Certificate = "CRAFTSMAN_INFORMATION_EQUIPMENT_OPERATION"
	CertificateCraftsmanComputer                      Certificate = "CRAFTSMAN_COMPUTER"
	CertificateComputerSpecialistLevel1               Certificate = "COMPUTER_SPECIALIST_LEVEL_1"
	CertificateComputerSpecialistLevel2               Certificate = "COMPUTER_SPECIALIST_LEVEL_2"
	CertificateComputerSpecialistLevel3               Certificate = "COMPUTER_SPECIALIST_LEVEL_3"
)

// Application is a submitted admission form together with its scores.
type Application struct {
	ID                string         `json:"id"`
	UserID            string         `json:"userId"`
	Type              FormType       `json:"type"`
	Category          Category       `json:"category"`
	Applicant         Applicant      `json:"applicant"`
	Education         Education      `json:"education"`
	OtherRegion       bool           `json:"otherRegion"`
	ExaminationNumber *int64         `json:"examinationNumber,omitempty"`
	Status            FormStatus     `json:"status"`
	Grade             Grade          `json:"grade"`
	Score             ScoreBreakdown `json:"score"`
	SubmittedAt       time.Time      `json:"submittedAt"`
}

type Applicant struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email,omitempty"`
}

type Education struct {
	GraduationType GraduationType `json:"graduationType"`
	SchoolName     string         `json:"schoolName,omitempty"`
	SchoolLocation string         `json:"schoolLocation,omitempty"`
}

// Grade holds the raw first-round inputs. Attendance and volunteer hours
// are per school year; a nil entry means the year was not reported.
type Grade struct {
	Subjects       []Subject      `json:"subjects"`
	Attendance     [3]*Attendance `json:"attendance"`
	VolunteerHours [3]*int        `json:"volunteerHours"`
	Certificates   []Certificate  `json:"certificates,omitempty"`
}

// Subject is one achievement level for a (grade, semester). Qualification
// examination scores are stored with grade and semester zero.
type Subject struct {
	Name             string           `json:"name"`
	Grade            int              `json:"grade"`
	Semester         int              `json:"semester"`
	AchievementLevel AchievementLevel `json:"achievementLevel"`
}

type Attendance struct {
	Absence      int `json:"absence"`
	Lateness     int `json:"lateness"`
	EarlyLeave   int `json:"earlyLeave"`
	ClassAbsence int `json:"classAbsence"`
}

// ScoreBreakdown carries every score component. FirstRoundScore and
// TotalScore are derived and only ever written by the score calculator.
type ScoreBreakdown struct {
	SubjectGradeScore   decimal.Decimal     `json:"subjectGradeScore"`
	AttendanceScore     decimal.Decimal     `json:"attendanceScore"`
	VolunteerScore      decimal.Decimal     `json:"volunteerScore"`
	BonusScore          decimal.Decimal     `json:"bonusScore"`
	DepthInterviewScore decimal.NullDecimal `json:"depthInterviewScore"`
	NCSScore            decimal.NullDecimal `json:"ncsScore"`
	CodingTestScore     decimal.NullDecimal `json:"codingTestScore"`
	FirstRoundScore     decimal.NullDecimal `json:"firstRoundScore"`
	TotalScore          decimal.NullDecimal `json:"totalScore"`
}

// HasExaminationNumber reports whether a number was already issued.
func (a *Application) HasExaminationNumber() bool {
	return a.ExaminationNumber != nil
}

// ExamNo returns the examination number or zero when unassigned.
func (a *Application) ExamNo() int64 {
	if a.ExaminationNumber == nil {
		return 0
	}
	return *a.ExaminationNumber
}

// Clone returns a copy that shares no mutable state with a.
func (a Application) Clone() Application {
	out := a
	if a.ExaminationNumber != nil {
		n := *a.ExaminationNumber
		out.ExaminationNumber = &n
	}
	out.Grade.Subjects = append([]Subject(nil), a.Grade.Subjects...)
	out.Grade.Certificates = append([]Certificate(nil), a.Grade.Certificates...)
	for i := range a.Grade.Attendance {
		if a.Grade.Attendance[i] != nil {
			att := *a.Grade.Attendance[i]
			out.Grade.Attendance[i] = &att
		}
		if a.Grade.VolunteerHours[i] != nil {
			h := *a.Grade.VolunteerHours[i]
			out.Grade.VolunteerHours[i] = &h
		}
	}
	return out
}
