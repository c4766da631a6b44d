// internal/workers/admission/receive-application/config.go
package receiveapplication

import (
	"time"

	"admission-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(appCfg *config.Config) (*Config, error) {
	timeout := 10 * time.Second
	if w, ok := appCfg.Workers[TaskType]; ok && w.Timeout > 0 {
		timeout = config.GetDuration(w.Timeout)
	}
	return &Config{Timeout: timeout}, nil
}
