// internal/workers/admission/index-admission-results/config.go
package indexadmissionresults

import (
	"fmt"
	"time"

	"admission-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig(appCfg *config.Config) (*Config, error) {
	if appCfg.Admission.ResultsIndex == "" {
		return nil, fmt.Errorf("admission.results_index is required")
	}

	timeout := 2 * time.Minute
	if w, ok := appCfg.Workers[TaskType]; ok && w.Timeout > 0 {
		timeout = config.GetDuration(w.Timeout)
	}

	return &Config{
		Timeout: timeout,
		Index:   appCfg.Admission.ResultsIndex,
	}, nil
}
