// internal/workers/admission/select-second-pass/models.go
package selectsecondpass

import (
	"admission-workers/internal/common/validation"
	"admission-workers/internal/selection"
)

type Input struct {
	DryRun bool `json:"dryRun"`
}

type Output struct {
	RunID       string                    `json:"secondPassRunId"`
	DryRun      bool                      `json:"dryRun"`
	Candidates  int                       `json:"candidates"`
	PassedCount int                       `json:"finalPassedCount"`
	FailedCount int                       `json:"finalFailedCount"`
	Categories  []selection.CategoryCount `json:"categories"`
	CompletedAt string                    `json:"secondPassCompletedAt"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"dryRun": {"type": "boolean"}
	}
}`)
