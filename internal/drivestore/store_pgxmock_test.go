package drivestore

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/datadrive/reclaimerd/internal/drivemodel"
)

// mockRow builds one full allColumns()-ordered value slice for row, the
// way a real Postgres driver would hand it to rowScanner.targets().
func mockRow(row drivemodel.Row) []any {
	values := []any{
		row.PipelineID, row.PipelineName, row.SourceName, row.SourceCategory, row.SourceSubType,
		row.QueryWindowStartTime, row.QueryWindowEndTime,
		string(row.PipelineStatus), row.PipelineStartTime, row.PipelineEndTime, row.PipelineDuration,
		row.PipelineExpDuration, row.RetryAttemptNumber,
		row.ContinuityCheckPerformed, row.CanFetchHistoricalData,
	}
	for _, name := range drivemodel.PhaseOrder {
		phase := row.Phase(name)
		values = append(values, phase.Enabled, phase.Status, phase.StartTS, phase.EndTS, phase.Duration)
	}
	return values
}

func TestFetchInProcess_MapsRowsFromPool(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	windowStart := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	windowEnd := windowStart.Add(time.Hour)
	want := drivemodel.Row{
		PipelineID:               "p-1",
		PipelineName:             "orders",
		SourceName:               "billing",
		SourceCategory:           "batch",
		SourceSubType:            "nightly",
		QueryWindowStartTime:     windowStart,
		QueryWindowEndTime:       windowEnd,
		PipelineStatus:           drivemodel.StatusInProcess,
		PipelineExpDuration:      "1h",
		ContinuityCheckPerformed: "YES",
		CanFetchHistoricalData:   "YES",
	}

	rows := pgxmock.NewRows(allColumns()).AddRow(mockRow(want)...)
	pool.ExpectQuery(".*").WillReturnRows(rows)

	store := NewStore(pool, "DRIVE_TABLE", slog.Default())
	got, err := store.FetchInProcess(context.Background(), Quadruple{
		PipelineName:   "orders",
		SourceName:     "billing",
		SourceCategory: "batch",
		SourceSubType:  "nightly",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, want.PipelineID, got[0].PipelineID)
	require.Equal(t, want.PipelineStatus, got[0].PipelineStatus)
	require.Equal(t, want.QueryWindowStartTime, got[0].QueryWindowStartTime)

	require.NoError(t, pool.ExpectationsWereMet())
}

func TestFetchAdmissiblePending_AppliesLimitAndLateness(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	pool.ExpectQuery("QUERY_WINDOW_START_TIME <= .*LIMIT 25").WillReturnRows(pgxmock.NewRows(allColumns()))

	store := NewStore(pool, "DRIVE_TABLE", slog.Default())
	got, err := store.FetchAdmissiblePending(context.Background(), Quadruple{
		PipelineName:   "orders",
		SourceName:     "billing",
		SourceCategory: "batch",
		SourceSubType:  "nightly",
	}, time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC), 25)
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, pool.ExpectationsWereMet())
}

// TestWithConnection_RunsAgainstMockPool exercises the fallback path
// WithConnection takes when the underlying PGXPool doesn't implement
// per-connection acquisition, which is the case for pgxmock's pool
// (it flattens every call onto the pool mock directly); the real
// *pgxpool.Pool acquire/release path is covered in integration tests
// against a live connection.
func TestWithConnection_RunsAgainstMockPool(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	pool.ExpectQuery(".*").WillReturnRows(pgxmock.NewRows(allColumns()))

	store := NewStore(pool, "DRIVE_TABLE", slog.Default())

	called := false
	err = store.WithConnection(context.Background(), func(ctx context.Context, conn Conn) error {
		called = true
		_, err := conn.Query(ctx, "SELECT 1")
		return err
	})
	require.NoError(t, err)
	require.True(t, called, "expected fn to run")
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestWithConnection_PropagatesCallbackError(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	wantErr := errors.New("callback failed")
	store := NewStore(pool, "DRIVE_TABLE", slog.Default())

	err = store.WithConnection(context.Background(), func(ctx context.Context, conn Conn) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
}
