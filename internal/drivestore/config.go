package drivestore

import (
	"fmt"
	"time"

	"github.com/datadrive/reclaimerd/internal/config"
)

// PoolConfig holds the pgxpool-specific settings derived from
// config.DriveConfig. It is split out from config.DriveConfig so the
// store package does not need to import viper/mapstructure concerns.
type PoolConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	Table string

	MaxConns int32
	MinConns int32

	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

// NewPoolConfig builds a PoolConfig from the loaded application
// config, applying the same fixed timeouts the teacher's
// DefaultConfig used (this repo has no need to make these tunable per
// tick — only the connection endpoint and credentials vary).
func NewPoolConfig(drive config.DriveConfig) PoolConfig {
	return PoolConfig{
		Host:              drive.Host,
		Port:              drive.Port,
		Database:          drive.Database,
		User:              drive.User,
		Password:          drive.Password,
		SSLMode:           drive.SSLMode,
		Table:             drive.Table,
		MaxConns:          drive.MaxConns,
		MinConns:          drive.MinConns,
		MaxConnLifetime:   1 * time.Hour,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
		ConnectTimeout:    30 * time.Second,
	}
}

// ValidateConfig implements §4.2's validate_config for the drive
// store specifically: it checks the connection and table parameters
// drivestore itself needs, separately from internal/config.Validate's
// broader field coverage.
func ValidateConfig(cfg PoolConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("drivestore: host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("drivestore: port must be between 1 and 65535")
	}
	if cfg.Database == "" {
		return fmt.Errorf("drivestore: database name is required")
	}
	if cfg.User == "" {
		return fmt.Errorf("drivestore: user is required")
	}
	if cfg.Table == "" {
		return fmt.Errorf("drivestore: table name is required")
	}
	if cfg.MaxConns <= 0 {
		return fmt.Errorf("drivestore: max connections must be greater than 0")
	}
	if cfg.MinConns < 0 || cfg.MinConns > cfg.MaxConns {
		return fmt.Errorf("drivestore: min connections must be between 0 and max connections")
	}
	return nil
}

// DSN returns the pgx connection string for this pool configuration.
func (c PoolConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}
