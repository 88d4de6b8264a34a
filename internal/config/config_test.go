package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 90, cfg.Cleanup.RetentionDays)
	assert.True(t, cfg.Scheduler.NightlyEnabled)
	assert.Equal(t, "03:00", cfg.Scheduler.NightlyTime)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	yaml := `
server:
  port: "9000"
database:
  mysql:
    host: db.internal
    port: 3307
    user: marketplace
    database: marketplace_prod
  reporting:
    enabled: true
    host: replica.internal
cleanup:
  retention_days: 30
scheduler:
  nightly_enabled: false
rate_limit:
  enabled: true
  requests_per_minute: 10
cors:
  allow_origins:
    - https://app.example.com
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.MySQL.Host)
	assert.Equal(t, 3307, cfg.Database.MySQL.Port)
	assert.True(t, cfg.Database.Reporting.Enabled)
	assert.Equal(t, 30, cfg.Cleanup.RetentionDays)
	assert.False(t, cfg.Scheduler.NightlyEnabled)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowOrigins)

	// Untouched sections keep their defaults.
	assert.Equal(t, 10000, cfg.Cleanup.MaxDeletionCount)
	assert.Equal(t, "03:00", cfg.Scheduler.NightlyTime)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
