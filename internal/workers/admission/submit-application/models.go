// internal/workers/admission/submit-application/models.go
package submitapplication

import (
	"admission-workers/internal/common/validation"
	"admission-workers/internal/models"
)

type Input struct {
	UserID    string           `json:"userId"`
	FormType  models.FormType  `json:"formType"`
	Applicant models.Applicant `json:"applicant"`
	Education models.Education `json:"education"`
	Grade     models.Grade     `json:"grade"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ExaminationNumber int64  `json:"examinationNumber"`
	Category          string `json:"category"`
	Status            string `json:"status"`
	FirstRoundScore   string `json:"firstRoundScore"`
	SubmittedAt       string `json:"submittedAt"` // ISO 8601
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["userId", "formType", "applicant", "education", "grade"],
	"properties": {
		"userId": {"type": "string", "minLength": 1},
		"formType": {
			"type": "string",
			"enum": [
				"REGULAR", "MEISTER_TALENT", "NATIONAL_BASIC_LIVING", "NEAR_POVERTY",
				"NATIONAL_VETERANS", "ONE_PARENT", "FROM_NORTH_KOREA", "MULTICULTURAL",
				"TEEN_HOUSEHOLDER", "MULTI_CHILDREN", "FARMING_AND_FISHING",
				"NATIONAL_VETERANS_EDUCATION", "SPECIAL_ADMISSION"
			]
		},
		"applicant": {
			"type": "object",
			"required": ["name", "phoneNumber"],
			"properties": {
				"name": {"type": "string", "minLength": 1, "maxLength": 50},
				"phoneNumber": {"type": "string", "pattern": "^01[016789]-?[0-9]{3,4}-?[0-9]{4}$"},
				"email": {"type": "string"}
			}
		},
		"education": {
			"type": "object",
			"required": ["graduationType"],
			"properties": {
				"graduationType": {"type": "string", "enum": ["EXPECTED", "GRADUATED", "QUALIFICATION_EXAMINATION"]},
				"schoolName": {"type": "string"},
				"schoolLocation": {"type": "string"}
			}
		},
		"grade": {
			"type": "object",
			"properties": {
				"subjects": {
					"type": ["array", "null"],
					"items": {
						"type": "object",
						"required": ["name", "achievementLevel"],
						"properties": {
							"name": {"type": "string", "minLength": 1},
							"grade": {"type": "integer", "minimum": 0, "maximum": 3},
							"semester": {"type": "integer", "minimum": 0, "maximum": 2},
							"achievementLevel": {"type": "string", "enum": ["A", "B", "C", "D", "E"]}
						}
					}
				},
				"attendance": {
					"type": "array",
					"maxItems": 3,
					"items": {
						"type": ["object", "null"],
						"properties": {
							"absence": {"type": "integer", "minimum": 0},
							"lateness": {"type": "integer", "minimum": 0},
							"earlyLeave": {"type": "integer", "minimum": 0},
							"classAbsence": {"type": "integer", "minimum": 0}
						}
					}
				},
				"volunteerHours": {
					"type": "array",
					"maxItems": 3,
					"items": {"type": ["integer", "null"], "minimum": 0}
				},
				"certificates": {
					"type": ["array", "null"],
					"items": {
						"type": "string",
						"enum": [
							"CRAFTSMAN_INFORMATION_PROCESSING", "CRAFTSMAN_INFORMATION_EQUIPMENT_OPERATION",
							"CRAFTSMAN_COMPUTER", "COMPUTER_SPECIALIST_LEVEL_1",
							"COMPUTER_SPECIALIST_LEVEL_2", "COMPUTER_SPECIALIST_LEVEL_3"
						]
					}
				}
			}
		}
	}
}`)
