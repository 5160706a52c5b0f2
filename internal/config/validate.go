package config

import "strings"

// Validate implements §4.2's validate_config: it fails with a *FieldError
// (wrapping ErrMissingField) naming the first missing required key. Drive
// config fields are checked first since a missing drive connection makes
// every other field moot for this tick.
func Validate(cfg *Config) error {
	driveFields := map[string]string{
		"sf_drive_config.account":   cfg.Drive.Account,
		"sf_drive_config.user":      cfg.Drive.User,
		"sf_drive_config.password":  cfg.Drive.Password,
		"sf_drive_config.warehouse": cfg.Drive.Warehouse,
		"sf_drive_config.database":  cfg.Drive.Database,
		"sf_drive_config.schema":    cfg.Drive.Schema,
		"sf_drive_config.table":     cfg.Drive.Table,
	}
	for _, field := range []string{
		"sf_drive_config.account", "sf_drive_config.user", "sf_drive_config.password",
		"sf_drive_config.warehouse", "sf_drive_config.database", "sf_drive_config.schema",
		"sf_drive_config.table",
	} {
		if strings.TrimSpace(driveFields[field]) == "" {
			return missingField(field)
		}
	}

	pipelineFields := []struct {
		name  string
		value string
	}{
		{"PIPELINE_NAME", cfg.Pipeline.Name},
		{"SOURCE_NAME", cfg.Pipeline.SourceName},
		{"SOURCE_CATEGORY", cfg.Pipeline.Category},
		{"SOURCE_SUB_TYPE", cfg.Pipeline.SubType},
	}
	for _, f := range pipelineFields {
		if strings.TrimSpace(f.value) == "" {
			return missingField(f.name)
		}
	}

	return nil
}

// ValidateDagRunID is the arbiter's own required-field check (spec §4.4):
// dag_run_id is not required for the drive store or evaluator, only for
// any tick that reaches the capability arbiter.
func ValidateDagRunID(dagRunID string) error {
	if strings.TrimSpace(dagRunID) == "" {
		return missingField("dag_run_id")
	}
	return nil
}
