package cmd

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/datadrive/reclaimerd/internal/config"
	"github.com/datadrive/reclaimerd/internal/drivestore"
	"github.com/datadrive/reclaimerd/internal/migrations"
	"github.com/datadrive/reclaimerd/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or roll back the drive table schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, closeDB, err := openMigrator()
		if err != nil {
			return err
		}
		defer closeDB()
		return m.Up(cmd.Context())
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recently applied migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, closeDB, err := openMigrator()
		if err != nil {
			return err
		}
		defer closeDB()
		return m.Down(cmd.Context())
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the applied/pending state of every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, closeDB, err := openMigrator()
		if err != nil {
			return err
		}
		defer closeDB()
		return m.Status(cmd.Context())
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

// openMigrator loads config and opens a *sql.DB against the same
// drive table database drivestore connects to, via pgx's database/sql
// adapter (migrations uses goose, which speaks database/sql, not
// pgxpool).
func openMigrator() (*migrations.Manager, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})

	poolCfg := drivestore.NewPoolConfig(cfg.Drive)
	db, err := sql.Open("pgx", poolCfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	m, err := migrations.NewManager(db, log)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("build migration manager: %w", err)
	}

	return m, func() { db.Close() }, nil
}
