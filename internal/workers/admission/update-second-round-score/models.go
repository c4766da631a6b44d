// internal/workers/admission/update-second-round-score/models.go
package updatesecondroundscore

import (
	"admission-workers/internal/admission"
	"admission-workers/internal/common/validation"
)

// Input carries the uploaded score sheet. The first row is the header.
type Input struct {
	Sheet admission.Grid `json:"sheet"`
}

type Output struct {
	Rows       int    `json:"scoreSheetRows"`
	Present    int    `json:"presentCount"`
	NoShow     int    `json:"noShowCount"`
	ImportedAt string `json:"scoresImportedAt"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["sheet"],
	"properties": {
		"sheet": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "array",
				"items": {"type": ["number", "string", "boolean", "null"]}
			}
		}
	}
}`)
