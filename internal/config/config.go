// Package config loads and validates the control plane's configuration:
// drive table connection parameters, pipeline identity, tick timing, and
// the ambient logging/metrics/alert settings.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for one tick of the control plane.
type Config struct {
	// Drive holds the drive table connection parameters (sf_drive_config).
	Drive DriveConfig `mapstructure:"sf_drive_config"`

	// Pipeline identifies the (pipeline, source) quadruple this instance
	// of the control plane owns. At most one live reclaimer is assumed
	// per quadruple; the core does not enforce this itself.
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Tick holds timing and admission parameters evaluated once per tick.
	Tick TickConfig `mapstructure:"tick"`

	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Alert   AlertConfig   `mapstructure:"alert"`
	Probes  ProbeConfig   `mapstructure:"probes"`
}

// ProbeConfig carries the dial targets for the source/stage/target
// connectivity stand-ins cmd/reclaimerd wires by default. The four
// real probes are out of scope for this core (spec.md §1); an empty
// target makes its probe report healthy unconditionally, so a
// single-sided pipeline (e.g. source-only) doesn't need to configure
// endpoints it never uses.
type ProbeConfig struct {
	SourceAddr string `mapstructure:"source_addr"`
	StageAddr  string `mapstructure:"stage_addr"`
	TargetAddr string `mapstructure:"target_addr"`

	DialTimeout string `mapstructure:"dial_timeout"`
}

// DriveConfig holds the drive table's connection parameters.
type DriveConfig struct {
	Account  string `mapstructure:"account"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Warehouse string `mapstructure:"warehouse"`
	Database string `mapstructure:"database"`
	Schema   string `mapstructure:"schema"`
	Table    string `mapstructure:"table"`

	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	SSLMode string `mapstructure:"ssl_mode"`

	MaxConns int32 `mapstructure:"max_conns"`
	MinConns int32 `mapstructure:"min_conns"`
}

// PipelineConfig is the classification quadruple plus a dag_run_id
// field. The tick command does not read DagRunID: it takes its
// dag_run_id from --dag-run-id or generates a random one.
type PipelineConfig struct {
	Name       string `mapstructure:"name"`
	SourceName string `mapstructure:"source_name"`
	Category   string `mapstructure:"source_category"`
	SubType    string `mapstructure:"source_sub_type"`
	DagRunID   string `mapstructure:"dag_run_id"`
}

// TickConfig drives the staleness evaluator and pending selector.
type TickConfig struct {
	Timezone             string  `mapstructure:"timezone"`
	XTimeBack            string  `mapstructure:"x_time_back"`
	Granularity          string  `mapstructure:"granularity"`
	MaxPendingRecords    int     `mapstructure:"max_pending_records"`
	StaleThresholdFactor float64 `mapstructure:"stale_threshold_factor"`
	PipelineExpDuration  string  `mapstructure:"pipeline_exp_duration"`
}

// LogConfig configures pkg/logger.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig configures the Prometheus exposition.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

// AlertConfig configures the default SMTP alert dispatcher.
type AlertConfig struct {
	SMTPAddr string   `mapstructure:"smtp_addr"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// LoadConfig loads configuration from an optional YAML file, overlaid with
// environment variables (dots become underscores, matching the teacher's
// convention), and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// AutomaticEnv only resolves keys viper already knows from a default
	// or the config file, so keys with neither are bound explicitly.
	for _, key := range []string{
		"sf_drive_config.account", "sf_drive_config.user", "sf_drive_config.password",
		"sf_drive_config.warehouse", "sf_drive_config.database", "sf_drive_config.schema",
		"sf_drive_config.table", "sf_drive_config.host", "sf_drive_config.port",
		"pipeline.name", "pipeline.source_name", "pipeline.source_category", "pipeline.source_sub_type",
	} {
		_ = viper.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	if configPath != "" {
		viper.SetConfigFile(configPath)
		viper.SetConfigType("yaml")

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("sf_drive_config.ssl_mode", "require")
	viper.SetDefault("sf_drive_config.max_conns", 5)
	viper.SetDefault("sf_drive_config.min_conns", 1)

	viper.SetDefault("tick.timezone", "UTC")
	viper.SetDefault("tick.stale_threshold_factor", 3.0)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("metrics.port", 9090)

	viper.SetDefault("probes.dial_timeout", "5s")
}
