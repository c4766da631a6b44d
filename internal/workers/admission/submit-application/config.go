// internal/workers/admission/submit-application/config.go
package submitapplication

import (
	"fmt"
	"time"

	"admission-workers/internal/common/config"
	"admission-workers/internal/models"
)

type Config struct {
	Timeout   time.Duration
	Period    config.PeriodConfig
	Bases     map[models.Category]int64
	Admission config.AdmissionConfig
}

func LoadConfig(appCfg *config.Config) (*Config, error) {
	bases, err := appCfg.Admission.ExaminationNumberBases()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TaskType, err)
	}
	if _, _, err := appCfg.Admission.ApplicationPeriod.Bounds(); err != nil {
		return nil, fmt.Errorf("%s: %w", TaskType, err)
	}

	timeout := 30 * time.Second
	if w, ok := appCfg.Workers[TaskType]; ok && w.Timeout > 0 {
		timeout = config.GetDuration(w.Timeout)
	}

	return &Config{
		Timeout:   timeout,
		Period:    appCfg.Admission.ApplicationPeriod,
		Bases:     bases,
		Admission: appCfg.Admission,
	}, nil
}
