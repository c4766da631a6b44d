// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	Admission    AdmissionConfig         `mapstructure:"admission"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPPort    int    `mapstructure:"http_port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// IntegrationConfig holds settings for the AWS services used to notify applicants.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// --- Admission Configuration ---

// AdmissionConfig is the selection policy of one admission cycle. Map keys
// are category codes; viper lowercases them, so lookups are case-insensitive.
type AdmissionConfig struct {
	SchoolName         string                 `mapstructure:"school_name"`
	HomeRegion         string                 `mapstructure:"home_region"`
	ApplicationPeriod  PeriodConfig           `mapstructure:"application_period"`
	TotalSeats         int                    `mapstructure:"total_seats"`
	Seats              map[string]int         `mapstructure:"seats"`
	Multiplier         string                 `mapstructure:"multiplier"`
	OtherRegionRate    string                 `mapstructure:"other_region_rate"`
	Ranges             map[string]RangeConfig `mapstructure:"ranges"`
	ExaminationNumbers map[string]int64       `mapstructure:"examination_number_base"`
	LockTTL            int                    `mapstructure:"lock_ttl"` // milliseconds
	ResultsIndex       string                 `mapstructure:"results_index"`
}

// PeriodConfig bounds the submission window. Both ends are RFC 3339.
type PeriodConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// Bounds parses the window. An empty end means the window never closes.
func (p PeriodConfig) Bounds() (start, end time.Time, err error) {
	if p.Start != "" {
		if start, err = time.Parse(time.RFC3339, p.Start); err != nil {
			return start, end, fmt.Errorf("admission.application_period.start: %w", err)
		}
	}
	if p.End != "" {
		if end, err = time.Parse(time.RFC3339, p.End); err != nil {
			return start, end, fmt.Errorf("admission.application_period.end: %w", err)
		}
	}
	return start, end, nil
}

// Contains reports whether t falls inside the window.
func (p PeriodConfig) Contains(t time.Time) (bool, error) {
	start, end, err := p.Bounds()
	if err != nil {
		return false, err
	}
	if !start.IsZero() && t.Before(start) {
		return false, nil
	}
	if !end.IsZero() && t.After(end) {
		return false, nil
	}
	return true, nil
}

type RangeConfig struct {
	DepthInterview []int64 `mapstructure:"depth_interview"`
	NCS            []int64 `mapstructure:"ncs"`
	CodingTest     []int64 `mapstructure:"coding_test"`
}
