// internal/workers/admission/send-result-notification/config.go
package sendresultnotification

import (
	"time"

	"admission-workers/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	SchoolName   string
	EmailEnabled bool
	SMSEnabled   bool
}

func LoadConfig(appCfg *config.Config) (*Config, error) {
	timeout := 5 * time.Minute
	if w, ok := appCfg.Workers[TaskType]; ok && w.Timeout > 0 {
		timeout = config.GetDuration(w.Timeout)
	}

	return &Config{
		Timeout:      timeout,
		SchoolName:   appCfg.Admission.SchoolName,
		EmailEnabled: appCfg.Integrations.AWS.SES.Enabled,
		SMSEnabled:   appCfg.Integrations.AWS.SNS.Enabled,
	}, nil
}
