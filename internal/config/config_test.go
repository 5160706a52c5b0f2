package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetViper clears viper's global state between tests.
// Note: environment variables are read at runtime via AutomaticEnv,
// so we also unset any vars we set in tests to avoid cross-test pollution.
func resetViper() {
	viper.Reset()
}

// unsetEnvKeys unsets provided environment variable keys.
func unsetEnvKeys(keys ...string) {
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}

// writeTempYAML writes a temporary YAML file with given content and returns its path.
func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
	return path
}

func requiredEnv(t *testing.T) {
	t.Helper()
	require.NoError(t, os.Setenv("SF_DRIVE_CONFIG_ACCOUNT", "acct"))
	require.NoError(t, os.Setenv("SF_DRIVE_CONFIG_USER", "svc"))
	require.NoError(t, os.Setenv("SF_DRIVE_CONFIG_PASSWORD", "pw"))
	require.NoError(t, os.Setenv("SF_DRIVE_CONFIG_WAREHOUSE", "wh"))
	require.NoError(t, os.Setenv("SF_DRIVE_CONFIG_DATABASE", "db"))
	require.NoError(t, os.Setenv("SF_DRIVE_CONFIG_SCHEMA", "public"))
	require.NoError(t, os.Setenv("SF_DRIVE_CONFIG_TABLE", "drive_table"))
	require.NoError(t, os.Setenv("PIPELINE_NAME", "orders"))
	require.NoError(t, os.Setenv("PIPELINE_SOURCE_NAME", "billing"))
	require.NoError(t, os.Setenv("PIPELINE_SOURCE_CATEGORY", "batch"))
	require.NoError(t, os.Setenv("PIPELINE_SOURCE_SUB_TYPE", "nightly"))
	t.Cleanup(func() {
		unsetEnvKeys(
			"SF_DRIVE_CONFIG_ACCOUNT", "SF_DRIVE_CONFIG_USER", "SF_DRIVE_CONFIG_PASSWORD",
			"SF_DRIVE_CONFIG_WAREHOUSE", "SF_DRIVE_CONFIG_DATABASE", "SF_DRIVE_CONFIG_SCHEMA",
			"SF_DRIVE_CONFIG_TABLE", "PIPELINE_NAME", "PIPELINE_SOURCE_NAME",
			"PIPELINE_SOURCE_CATEGORY", "PIPELINE_SOURCE_SUB_TYPE",
		)
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetViper()
	requiredEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "require", cfg.Drive.SSLMode)
	assert.EqualValues(t, 5, cfg.Drive.MaxConns)
	assert.EqualValues(t, 1, cfg.Drive.MinConns)
	assert.Equal(t, "UTC", cfg.Tick.Timezone)
	assert.Equal(t, 3.0, cfg.Tick.StaleThresholdFactor)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoadConfig_File(t *testing.T) {
	resetViper()
	requiredEnv(t)

	yaml := `
tick:
  timezone: "America/New_York"
  x_time_back: "2h"
  granularity: "15m"
  max_pending_records: 500
  stale_threshold_factor: 2.5
log:
  level: "debug"
sf_drive_config:
  host: "db.local"
  port: 5433
  ssl_mode: "disable"
`
	path := writeTempYAML(t, yaml)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "America/New_York", cfg.Tick.Timezone)
	assert.Equal(t, "2h", cfg.Tick.XTimeBack)
	assert.Equal(t, "15m", cfg.Tick.Granularity)
	assert.Equal(t, 500, cfg.Tick.MaxPendingRecords)
	assert.Equal(t, 2.5, cfg.Tick.StaleThresholdFactor)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "db.local", cfg.Drive.Host)
	assert.Equal(t, 5433, cfg.Drive.Port)
	assert.Equal(t, "disable", cfg.Drive.SSLMode)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	resetViper()
	requiredEnv(t)

	yaml := `
tick:
  timezone: "UTC"
sf_drive_config:
  host: "file-db.local"
`
	path := writeTempYAML(t, yaml)

	require.NoError(t, os.Setenv("TICK_TIMEZONE", "Europe/Berlin"))
	require.NoError(t, os.Setenv("SF_DRIVE_CONFIG_HOST", "env-db.local"))
	t.Cleanup(func() {
		unsetEnvKeys("TICK_TIMEZONE", "SF_DRIVE_CONFIG_HOST")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.Tick.Timezone, "env should override file")
	assert.Equal(t, "env-db.local", cfg.Drive.Host, "env should override file")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	resetViper()
	requiredEnv(t)

	invalid := `
tick:
  timezone: : invalid
`
	path := writeTempYAML(t, invalid)

	cfg, err := LoadConfig(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_ValidationError_MissingDrive(t *testing.T) {
	resetViper()
	unsetEnvKeys(
		"SF_DRIVE_CONFIG_ACCOUNT", "SF_DRIVE_CONFIG_USER", "SF_DRIVE_CONFIG_PASSWORD",
		"SF_DRIVE_CONFIG_WAREHOUSE", "SF_DRIVE_CONFIG_DATABASE", "SF_DRIVE_CONFIG_SCHEMA",
		"SF_DRIVE_CONFIG_TABLE",
	)

	cfg, err := LoadConfig("")
	require.Error(t, err)
	assert.Nil(t, cfg)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "sf_drive_config.account", fieldErr.Field)
}

func TestLoadConfig_ValidationError_MissingPipeline(t *testing.T) {
	resetViper()
	requiredEnv(t)
	unsetEnvKeys("PIPELINE_NAME")

	cfg, err := LoadConfig("")
	require.Error(t, err)
	assert.Nil(t, cfg)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "PIPELINE_NAME", fieldErr.Field)
}

func TestValidateDagRunID(t *testing.T) {
	assert.NoError(t, ValidateDagRunID("run-123"))

	err := ValidateDagRunID("  ")
	require.Error(t, err)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "dag_run_id", fieldErr.Field)
}
