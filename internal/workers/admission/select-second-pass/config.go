// internal/workers/admission/select-second-pass/config.go
package selectsecondpass

import (
	"time"

	"admission-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(appCfg *config.Config) (*Config, error) {
	timeout := 2 * time.Minute
	if w, ok := appCfg.Workers[TaskType]; ok && w.Timeout > 0 {
		timeout = config.GetDuration(w.Timeout)
	}
	return &Config{Timeout: timeout}, nil
}
