// internal/workers/admission/receive-application/models.go
package receiveapplication

import (
	"admission-workers/internal/common/validation"
	"admission-workers/internal/models"
)

// Input is the outcome of a document review. Decision is the target status:
// RECEIVED accepts the form, REJECTED sends it back with a reason and
// SUBMITTED reopens a rejected form.
type Input struct {
	ApplicationID string            `json:"applicationId"`
	Decision      models.FormStatus `json:"decision"`
	Reason        string            `json:"reason,omitempty"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	PreviousStatus    string `json:"previousStatus"`
	Status            string `json:"status"`
	ExaminationNumber int64  `json:"examinationNumber"`
	ReviewedAt        string `json:"reviewedAt"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["applicationId", "decision"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"decision": {"type": "string", "enum": ["RECEIVED", "REJECTED", "SUBMITTED"]},
		"reason": {"type": "string", "maxLength": 500}
	}
}`)
