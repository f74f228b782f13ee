package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "thisisasecretkeythatis32charslong!!"

// setupEnv sets environment variables for the duration of the test.
func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for name, value := range envVars {
		t.Setenv(name, value)
	}
}

// TestLoadDefaults verifies the defaults applied when only the required secret is set.
func TestLoadDefaults(t *testing.T) {
	setupEnv(t, map[string]string{
		"CANDIDATE_AUTH_JWT_SECRET": testSecret,
	})

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "http://localhost:8000", cfg.Server.BackendURL)
	assert.Equal(t, DefaultSecurePaths, cfg.Server.SecurePaths)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.URL)
	assert.Equal(t, "assignment_db", cfg.Database.Name)
	assert.Equal(t, "HS256", cfg.Auth.JWTAlgorithm)
	assert.Equal(t, 30, cfg.Auth.TokenLifetimeMinutes)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "Candidate Management", cfg.Mail.FromName)
	assert.Equal(t, 3, cfg.Task.MaxRetries)
	assert.Equal(t, 60, cfg.Task.RetryDelaySeconds)
	assert.Equal(t, "task_results", cfg.Task.ResultCollection)
	assert.Equal(t, 300, cfg.Task.JobTimeoutSeconds)
	assert.Equal(t, 600, cfg.Task.ReclaimIdleSeconds)
	assert.Equal(t, int64(100000), cfg.Task.MaxLen)
	assert.Equal(t, "/tmp/reports", cfg.Report.Dir)
	assert.Equal(t, 1000, cfg.Report.BatchSize)
	assert.Equal(t, "local", cfg.Monitoring.Environment)
	assert.InDelta(t, 0.5, cfg.Monitoring.TracesSampleRate, 0.0001)
}

// TestLoadFromEnv verifies that environment variables override defaults.
func TestLoadFromEnv(t *testing.T) {
	setupEnv(t, map[string]string{
		"CANDIDATE_SERVER_PORT":                 "9090",
		"CANDIDATE_SERVER_LOG_LEVEL":            "debug",
		"CANDIDATE_SERVER_SECURE_PATHS":         "^/a$,^/b$",
		"CANDIDATE_DATABASE_URL":                "mongodb://db:27017",
		"CANDIDATE_DATABASE_NAME":               "candidates_test",
		"CANDIDATE_AUTH_JWT_SECRET":             testSecret,
		"CANDIDATE_AUTH_JWT_ALGORITHM":          "HS512",
		"CANDIDATE_AUTH_TOKEN_LIFETIME_MINUTES": "15",
		"CANDIDATE_MAIL_HOST":                   "smtp.example.com",
		"CANDIDATE_MAIL_FROM":                   "noreply@example.com",
		"CANDIDATE_TASK_MAX_RETRIES":            "5",
		"CANDIDATE_MONITORING_DEBUG":            "true",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, []string{"^/a$", "^/b$"}, cfg.Server.SecurePaths)
	assert.Equal(t, "mongodb://db:27017", cfg.Database.URL)
	assert.Equal(t, "candidates_test", cfg.Database.Name)
	assert.Equal(t, "HS512", cfg.Auth.JWTAlgorithm)
	assert.Equal(t, 15, cfg.Auth.TokenLifetimeMinutes)
	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, "noreply@example.com", cfg.Mail.From)
	assert.Equal(t, 5, cfg.Task.MaxRetries)
	assert.True(t, cfg.Monitoring.Debug)
}

// TestLoadFromFile verifies that a config file is read and env still wins.
func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 7000
  log_level: warn
auth:
  jwt_secret: "` + testSecret + `"
report:
  dir: /var/reports
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	setupEnv(t, map[string]string{
		ConfigFileEnv:           path,
		"CANDIDATE_SERVER_PORT": "7100",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.Server.Port, "env should take precedence over file")
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, "/var/reports", cfg.Report.Dir)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing jwt secret",
			env:  map[string]string{},
		},
		{
			name: "short jwt secret",
			env:  map[string]string{"CANDIDATE_AUTH_JWT_SECRET": "tooshort"},
		},
		{
			name: "unsupported algorithm",
			env: map[string]string{
				"CANDIDATE_AUTH_JWT_SECRET":    testSecret,
				"CANDIDATE_AUTH_JWT_ALGORITHM": "RS256",
			},
		},
		{
			name: "invalid port",
			env: map[string]string{
				"CANDIDATE_AUTH_JWT_SECRET": testSecret,
				"CANDIDATE_SERVER_PORT":     "70000",
			},
		},
		{
			name: "invalid log level",
			env: map[string]string{
				"CANDIDATE_AUTH_JWT_SECRET":  testSecret,
				"CANDIDATE_SERVER_LOG_LEVEL": "verbose",
			},
		},
		{
			name: "non mongo database url",
			env: map[string]string{
				"CANDIDATE_AUTH_JWT_SECRET": testSecret,
				"CANDIDATE_DATABASE_URL":    "postgres://localhost/db",
			},
		},
		{
			name: "reclaim idle not above job timeout",
			env: map[string]string{
				"CANDIDATE_AUTH_JWT_SECRET":           testSecret,
				"CANDIDATE_TASK_JOB_TIMEOUT_SECONDS":  "300",
				"CANDIDATE_TASK_RECLAIM_IDLE_SECONDS": "300",
			},
		},
		{
			name: "reclaim idle inside margin",
			env: map[string]string{
				"CANDIDATE_AUTH_JWT_SECRET":           testSecret,
				"CANDIDATE_TASK_JOB_TIMEOUT_SECONDS":  "300",
				"CANDIDATE_TASK_RECLAIM_IDLE_SECONDS": "329",
			},
		},
		{
			name: "sample rate out of range",
			env: map[string]string{
				"CANDIDATE_AUTH_JWT_SECRET":               testSecret,
				"CANDIDATE_MONITORING_TRACES_SAMPLE_RATE": "1.5",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear the secret so the "missing" case is not satisfied by the outer environment
			t.Setenv("CANDIDATE_AUTH_JWT_SECRET", "")
			setupEnv(t, tt.env)

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	setupEnv(t, map[string]string{
		ConfigFileEnv:               filepath.Join(t.TempDir(), "missing.yaml"),
		"CANDIDATE_AUTH_JWT_SECRET": testSecret,
	})

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestTaskConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		jobTimeout  int
		reclaimIdle int
		wantErr     bool
	}{
		{"default gap", 300, 600, false},
		{"exact margin", 300, 300 + ReclaimMarginSeconds, false},
		{"equal", 300, 300, true},
		{"reclaim shorter than timeout", 600, 300, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TaskConfig{JobTimeoutSeconds: tt.jobTimeout, ReclaimIdleSeconds: tt.reclaimIdle}.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
