package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
// Nested keys use underscores, e.g. CANDIDATE_AUTH_JWT_SECRET.
const EnvPrefix = "CANDIDATE"

// ConfigFileEnv names the environment variable that points to an optional
// YAML or JSON configuration file.
const ConfigFileEnv = EnvPrefix + "_CONFIG_FILE"

// DefaultSecurePaths are the path patterns that require a bearer token.
var DefaultSecurePaths = []string{
	`^/send-report$`,
	`^/all-candidates$`,
	`^/candidate(/[\w-]+)?$`,
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := cfg.Task.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.backend_url", "http://localhost:8000")
	v.SetDefault("server.secure_paths", DefaultSecurePaths)
	v.SetDefault("server.enable_debug_routes", false)
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("database.url", "mongodb://localhost:27017")
	v.SetDefault("database.name", "assignment_db")
	v.SetDefault("database.connect_timeout_seconds", 10)

	v.SetDefault("redis.url", "redis://localhost:6379/0")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_algorithm", "HS256")
	v.SetDefault("auth.token_lifetime_minutes", 30)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.from_name", "Candidate Management")
	v.SetDefault("mail.ssl_tls", false)

	v.SetDefault("task.stream", "candidate:jobs")
	v.SetDefault("task.group", "workers")
	v.SetDefault("task.worker_count", 4)
	v.SetDefault("task.max_retries", 3)
	v.SetDefault("task.retry_delay_seconds", 60)
	v.SetDefault("task.result_collection", "task_results")
	v.SetDefault("task.block_timeout_ms", 1000)
	v.SetDefault("task.batch_size", 10)
	v.SetDefault("task.job_timeout_seconds", 300)
	v.SetDefault("task.reclaim_idle_seconds", 600)
	v.SetDefault("task.max_len", 100000)

	v.SetDefault("report.dir", "/tmp/reports")
	v.SetDefault("report.batch_size", 1000)

	v.SetDefault("monitoring.sentry_dsn", "")
	v.SetDefault("monitoring.environment", "local")
	v.SetDefault("monitoring.traces_sample_rate", 0.5)
	v.SetDefault("monitoring.debug", false)
}
