// Package migrations owns the drive table's one piece of schema
// management: the DDL that creates it. It is a supplemented feature
// (SPEC_FULL.md §7) — spec.md's Non-goal that the core does not own
// schema migrations is about internal/drivestore, not about the
// repository as a whole, and a runnable repo needs some way to create
// its own table. This package is never imported by the core packages
// (drivestore, reclaimer, pending, capability); only cmd/reclaimerd's
// migrate subcommand reaches it.
//
// Re-themed from the teacher's internal/infrastructure/migrations
// manager: goose over a *sql.DB, pointed at an embedded directory of
// versioned SQL files instead of a path on disk.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var migrationFS embed.FS

// Manager runs goose migrations for the drive table schema against db.
type Manager struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewManager wraps db (already opened by the caller against the same
// database drivestore connects to) in a Manager.
func NewManager(db *sql.DB, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("migrations: set dialect: %w", err)
	}
	return &Manager{db: db, logger: logger}, nil
}

// Up applies every pending migration under sql/.
func (m *Manager) Up(ctx context.Context) error {
	m.logger.Info("applying drive table migrations", "keyword", "MIGRATIONS_UP_START")
	if err := goose.UpContext(ctx, m.db, "sql"); err != nil {
		m.logger.Error("migration up failed", "keyword", "MIGRATIONS_UP_FAILED", "error", err)
		return fmt.Errorf("migrations: up: %w", err)
	}
	m.logger.Info("drive table migrations applied", "keyword", "MIGRATIONS_UP_COMPLETE")
	return nil
}

// Down rolls back the most recently applied migration.
func (m *Manager) Down(ctx context.Context) error {
	m.logger.Info("rolling back last drive table migration", "keyword", "MIGRATIONS_DOWN_START")
	if err := goose.DownContext(ctx, m.db, "sql"); err != nil {
		m.logger.Error("migration down failed", "keyword", "MIGRATIONS_DOWN_FAILED", "error", err)
		return fmt.Errorf("migrations: down: %w", err)
	}
	m.logger.Info("drive table migration rolled back", "keyword", "MIGRATIONS_DOWN_COMPLETE")
	return nil
}

// Status reports the applied/pending state of every migration, for
// operator diagnostics.
func (m *Manager) Status(ctx context.Context) error {
	return goose.StatusContext(ctx, m.db, "sql")
}
