// internal/workers/admission/select-first-pass/config.go
package selectfirstpass

import (
	"time"

	"admission-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig reads the job timeout. Selection locks every RECEIVED row, so
// the default is generous.
func LoadConfig(appCfg *config.Config) (*Config, error) {
	timeout := 2 * time.Minute
	if w, ok := appCfg.Workers[TaskType]; ok && w.Timeout > 0 {
		timeout = config.GetDuration(w.Timeout)
	}
	return &Config{Timeout: timeout}, nil
}
