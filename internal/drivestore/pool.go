package drivestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXPool is the minimal surface Store needs from a connection pool.
// *pgxpool.Pool satisfies it directly; tests substitute pgxmock's
// pool, which implements the same pgx.Tx/Query/Exec contract.
type PGXPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Store wraps a PGXPool and the table name it operates against.
type Store struct {
	pool   PGXPool
	table  string
	logger *slog.Logger
}

// Conn is the scoped handle WithConnection passes to its callback: the
// same query surface the pool exposes, bound to one acquired
// connection for the callback's lifetime.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// acquirer is satisfied by *pgxpool.Pool. pgxmock's pool mock flattens
// every call directly onto the pool with no separate acquire/release
// step, so it does not implement this.
type acquirer interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

// NewStore wraps an already-connected pool. Production callers get the
// pool from Connect; tests construct one directly around a pgxmock pool.
func NewStore(pool PGXPool, table string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, table: table, logger: logger}
}

// Connect opens a pgxpool against cfg and pings it before returning,
// mirroring the teacher's PostgresPool.Connect validate-parse-ping
// sequence.
func Connect(ctx context.Context, cfg PoolConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("drivestore: invalid config: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("drivestore: parse dsn: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	start := time.Now()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("drivestore: connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("drivestore: ping: %w", err)
	}

	logger.Info("connected to drive table store",
		"keyword", "DRIVE_STORE_CONNECTED",
		"host", cfg.Host, "database", cfg.Database, "table", cfg.Table,
		"connect_duration", time.Since(start),
	)

	return NewStore(pool, cfg.Table, logger), nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping reports whether the underlying pool can still reach the drive
// table database. cmd/reclaimerd wires this in directly as the
// Prober's drive ProbeFunc.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// WithConnection implements spec.md §4.2's with_connection: it scopes
// one acquired connection to fn's lifetime and guarantees release on
// every exit path, including a panic inside fn, which is recovered,
// released past, and re-panicked so the caller still sees the original
// failure. Release never fails in pgx's pool API, but any recovered
// panic during release is logged rather than allowed to mask fn's own
// error or panic.
//
// Against *pgxpool.Pool this acquires a dedicated connection; against a
// test pool that mocks the pool surface directly (pgxmock has no
// separate per-connection acquisition step) fn runs against the pool
// itself, since there is nothing further to acquire or release.
func (s *Store) WithConnection(ctx context.Context, fn func(ctx context.Context, conn Conn) error) error {
	a, ok := s.pool.(acquirer)
	if !ok {
		return fn(ctx, s.pool)
	}

	conn, err := a.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("drivestore: acquire connection: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			s.releaseConn(conn)
			panic(r)
		}
		s.releaseConn(conn)
	}()

	return fn(ctx, conn)
}

// releaseConn releases conn back to the pool, recovering and logging
// rather than propagating anything that goes wrong during release
// itself, matching spec.md §4.2's "release errors are logged, not
// propagated".
func (s *Store) releaseConn(conn *pgxpool.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("connection release panicked", "keyword", "DRIVE_CONNECTION_RELEASE_FAILED", "error", r)
		}
	}()
	conn.Release()
}
