package config

import "fmt"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Redis      RedisConfig      `mapstructure:"redis" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	Mail       MailConfig       `mapstructure:"mail"`
	Task       TaskConfig       `mapstructure:"task" validate:"required"`
	Report     ReportConfig     `mapstructure:"report" validate:"required"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`

	// BackendURL is the externally reachable base URL used to build
	// verification links sent by e-mail.
	BackendURL string `mapstructure:"backend_url" validate:"required,url"`

	// SecurePaths are regular expressions matched against the request path.
	// Matching requests must carry a valid bearer token.
	SecurePaths []string `mapstructure:"secure_paths" validate:"dive,required"`

	EnableDebugRoutes      bool `mapstructure:"enable_debug_routes"`
	ShutdownTimeoutSeconds int  `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains the document store settings.
type DatabaseConfig struct {
	URL                   string `mapstructure:"url" validate:"required,startswith=mongodb"`
	Name                  string `mapstructure:"name" validate:"required"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds" validate:"gt=0"`
}

// RedisConfig contains the message broker settings.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"required,startswith=redis"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	JWTAlgorithm         string `mapstructure:"jwt_algorithm" validate:"required,oneof=HS256 HS384 HS512"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=44640"` // Max 31 days
	BcryptCost           int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// MailConfig contains outbound SMTP settings. Only the worker needs them,
// so none of the fields are required at load time.
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,gt=0,lt=65536"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
	FromName string `mapstructure:"from_name"`

	// SSLTLS selects implicit TLS (usually port 465). Without it STARTTLS
	// is used whenever the server offers it.
	SSLTLS bool `mapstructure:"ssl_tls"`
}

// TaskConfig contains settings for the background job queue and worker pool.
type TaskConfig struct {
	Stream             string `mapstructure:"stream" validate:"required"`
	Group              string `mapstructure:"group" validate:"required"`
	WorkerCount        int    `mapstructure:"worker_count" validate:"gt=0"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"gte=0"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
	ResultCollection   string `mapstructure:"result_collection" validate:"required"`
	BlockTimeoutMS     int    `mapstructure:"block_timeout_ms" validate:"gt=0"`
	BatchSize          int    `mapstructure:"batch_size" validate:"gt=0"`
	JobTimeoutSeconds  int    `mapstructure:"job_timeout_seconds" validate:"gt=0"`

	// ReclaimIdleSeconds is how long an unacknowledged entry may sit before
	// another worker takes it over. It must exceed the job timeout by
	// ReclaimMarginSeconds.
	ReclaimIdleSeconds int `mapstructure:"reclaim_idle_seconds" validate:"gt=0"`

	// MaxLen caps the ready stream (approximate trimming). Zero disables it.
	MaxLen int64 `mapstructure:"max_len" validate:"gte=0"`
}

// ReclaimMarginSeconds is the minimum gap between the job timeout and the
// reclaim idle time.
const ReclaimMarginSeconds = 30

// Validate checks the rules that span several fields.
func (c TaskConfig) Validate() error {
	if c.ReclaimIdleSeconds < c.JobTimeoutSeconds+ReclaimMarginSeconds {
		return fmt.Errorf("task.reclaim_idle_seconds (%d) must be at least task.job_timeout_seconds (%d) + %d",
			c.ReclaimIdleSeconds, c.JobTimeoutSeconds, ReclaimMarginSeconds)
	}
	return nil
}

// ReportConfig contains settings for candidate report generation.
type ReportConfig struct {
	Dir       string `mapstructure:"dir" validate:"required"`
	BatchSize int    `mapstructure:"batch_size" validate:"gt=0"`
}

// MonitoringConfig contains error-reporting settings.
// An empty SentryDSN disables reporting.
type MonitoringConfig struct {
	SentryDSN        string  `mapstructure:"sentry_dsn" validate:"omitempty,url"`
	Environment      string  `mapstructure:"environment"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate" validate:"gte=0,lte=1"`
	Debug            bool    `mapstructure:"debug"`
}
