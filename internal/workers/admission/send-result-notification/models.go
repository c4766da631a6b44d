// internal/workers/admission/send-result-notification/models.go
package sendresultnotification

import (
	"admission-workers/internal/common/validation"
	"admission-workers/internal/models"
)

type Input struct {
	Status models.FormStatus `json:"status"`
}

type Output struct {
	Status     string `json:"notifiedStatus"`
	Recipients int    `json:"recipients"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["status"],
	"properties": {
		"status": {
			"type": "string",
			"enum": ["FIRST_PASSED", "FIRST_FAILED", "NO_SHOW", "SECOND_PASSED", "SECOND_FAILED"]
		}
	}
}`)

// Placeholders: {{schoolName}}, {{name}}, {{examinationNumber}}, {{category}}.
var defaultTemplates = map[models.FormStatus]models.NotificationTemplate{
	models.StatusFirstPassed: {
		Status:  models.StatusFirstPassed,
		Subject: "[{{schoolName}}] 1차 전형 합격 안내",
		Body:    "{{name}}님(수험번호 {{examinationNumber}}, {{category}}), {{schoolName}} 1차 전형에 합격하셨습니다. 2차 전형 일정을 확인해 주세요.",
	},
	models.StatusFirstFailed: {
		Status:  models.StatusFirstFailed,
		Subject: "[{{schoolName}}] 1차 전형 결과 안내",
		Body:    "{{name}}님(수험번호 {{examinationNumber}}), 아쉽게도 {{schoolName}} 1차 전형에 합격하지 못하셨습니다.",
	},
	models.StatusNoShow: {
		Status:  models.StatusNoShow,
		Subject: "[{{schoolName}}] 2차 전형 결과 안내",
		Body:    "{{name}}님(수험번호 {{examinationNumber}}), 2차 전형에 응시하지 않아 불합격 처리되었습니다.",
	},
	models.StatusSecondPassed: {
		Status:  models.StatusSecondPassed,
		Subject: "[{{schoolName}}] 최종 합격 안내",
		Body:    "{{name}}님(수험번호 {{examinationNumber}}, {{category}}), {{schoolName}}에 최종 합격하셨습니다. 축하드립니다.",
	},
	models.StatusSecondFailed: {
		Status:  models.StatusSecondFailed,
		Subject: "[{{schoolName}}] 최종 결과 안내",
		Body:    "{{name}}님(수험번호 {{examinationNumber}}), 아쉽게도 {{schoolName}}에 최종 합격하지 못하셨습니다.",
	},
}
