// internal/workers/admission/index-admission-results/models.go
package indexadmissionresults

import (
	"admission-workers/internal/common/validation"
	"admission-workers/internal/models"
)

type Input struct {
	Statuses []models.FormStatus `json:"statuses"`
}

type Output struct {
	Index     string `json:"resultsIndex"`
	Indexed   int    `json:"indexedCount"`
	IndexedAt string `json:"resultsIndexedAt"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["statuses"],
	"properties": {
		"statuses": {
			"type": "array",
			"minItems": 1,
			"uniqueItems": true,
			"items": {
				"type": "string",
				"enum": ["SUBMITTED", "RECEIVED", "REJECTED", "FIRST_PASSED", "FIRST_FAILED",
					"NO_SHOW", "SECOND_PASSED", "SECOND_FAILED", "ENTERED"]
			}
		}
	}
}`)
