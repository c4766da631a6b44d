// internal/workers/admission/select-first-pass/models.go
package selectfirstpass

import (
	"admission-workers/internal/common/validation"
	"admission-workers/internal/selection"
)

type Input struct {
	DryRun bool `json:"dryRun"`
}

type Output struct {
	RunID           string                    `json:"firstPassRunId"`
	DryRun          bool                      `json:"dryRun"`
	Candidates      int                       `json:"candidates"`
	PassedCount     int                       `json:"passedCount"`
	UnselectedCount int                       `json:"unselectedCount"`
	Categories      []selection.CategoryCount `json:"categories"`
	CompletedAt     string                    `json:"firstPassCompletedAt"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"dryRun": {"type": "boolean"}
	}
}`)
