package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: `
database:
  host: localhost
  name: shopdb
  user: forecaster
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "shopdb", cfg.Database.Name)
				assert.Equal(t, "forecaster", cfg.Database.User)
			},
		},
		{
			name: "defaults applied for optional fields",
			yaml: `
database:
  host: localhost
  name: shopdb
  user: forecaster
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 10, cfg.Database.PoolSize)
				assert.Equal(t, "https://api.majako.net/sales-forecast/v1", cfg.Forecasting.BaseURL)
				assert.Equal(t, 30*time.Minute, cfg.Forecasting.SubmitTimeout)
				assert.Equal(t, 5*time.Second, cfg.Forecasting.PollInterval)
				assert.Equal(t, time.Minute, cfg.Schedule.ResumeInterval)
				assert.Equal(t, 6*time.Hour, cfg.Schedule.PruneInterval)
				assert.Equal(t, 7*24*time.Hour, cfg.Schedule.PruneAge)
				assert.Equal(t, "en", cfg.Locale)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "env var substitution",
			yaml: `
database:
  host: localhost
  name: shopdb
  user: forecaster
  password: "${TEST_DB_PASSWORD}"
`,
			envVars: map[string]string{
				"TEST_DB_PASSWORD": "secret123",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "secret123", cfg.Database.Password)
			},
		},
		{
			name: "missing required database.host",
			yaml: `
database:
  name: shopdb
  user: forecaster
`,
			wantErr: "database.host is required",
		},
		{
			name: "webhook enabled without url",
			yaml: `
database:
  host: localhost
  name: shopdb
  user: forecaster
notifications:
  webhook:
    enabled: true
`,
			wantErr: "notifications.webhook.url is required when enabled",
		},
		{
			name: "poll interval below one second",
			yaml: `
database:
  host: localhost
  name: shopdb
  user: forecaster
forecasting:
  poll_interval: 100ms
`,
			wantErr: "forecasting.poll_interval must be at least 1s",
		},
		{
			name:    "invalid YAML",
			yaml:    "database: [not a map",
			wantErr: "parsing config YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			cfg, err := Load(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.checkFunc(t, cfg)
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestDatabaseDSN(t *testing.T) {
	t.Parallel()

	d := DatabaseConfig{
		Host: "db", Port: 5433, Name: "shop", User: "fc",
		Password: "pw", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db port=5433 dbname=shop user=fc password=pw sslmode=require",
		d.DSN(),
	)
}
