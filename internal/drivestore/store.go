// Package drivestore is the only component in this repository that
// talks to the drive table. It mirrors drive_scripts.py's query shapes
// and keyword-logging sequence but speaks Postgres through pgx instead
// of the Snowflake connector, since §9 resolves the storage backend
// question in favor of Postgres.
package drivestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/datadrive/reclaimerd/internal/drivemodel"
)

// Quadruple identifies the (pipeline, source) tuple every query in
// this package scopes itself to.
type Quadruple struct {
	PipelineName   string
	SourceName     string
	SourceCategory string
	SourceSubType  string
}

// FetchInProcess returns every IN_PROCESS row for q, ordered by window
// start time ascending, grounded in find_in_process_records.
func (s *Store) FetchInProcess(ctx context.Context, q Quadruple) ([]drivemodel.Row, error) {
	return s.fetchByStatus(ctx, q, drivemodel.StatusInProcess, "FIND_IN_PROCESS_RECORDS", nil)
}

// FetchAdmissiblePending returns every PENDING row for q that has
// passed continuity checks, is eligible to fetch historical data, and
// whose window start is at or before maxAcceptedTime, ordered by
// window start time ascending and capped at limit rows. This is
// find_in_process_records' admissible-selection sibling, parameterized
// on PENDING instead of IN_PROCESS and scoped by the lateness margin
// spec.md §4.8 computes.
func (s *Store) FetchAdmissiblePending(ctx context.Context, q Quadruple, maxAcceptedTime time.Time, limit int) ([]drivemodel.Row, error) {
	return s.fetchByStatus(ctx, q, drivemodel.StatusPending, "FIND_ADMISSIBLE_PENDING_RECORDS", &admissionFilter{
		maxAcceptedTime: maxAcceptedTime,
		limit:           limit,
	})
}

// admissionFilter narrows fetchByStatus's query to the pending
// selector's lateness-margin and fan-out-cap predicate. It is nil for
// FetchInProcess, which has no such predicate.
type admissionFilter struct {
	maxAcceptedTime time.Time
	limit           int
}

func (s *Store) fetchByStatus(ctx context.Context, q Quadruple, status drivemodel.Status, keyword string, admission *admissionFilter) ([]drivemodel.Row, error) {
	args := pgx.NamedArgs{
		"pipeline_status": string(status),
		"pipeline_name":   q.PipelineName,
		"source_name":     q.SourceName,
		"source_category": q.SourceCategory,
		"source_sub_type": q.SourceSubType,
	}

	extra := ""
	if admission != nil {
		extra = "\nAND QUERY_WINDOW_START_TIME <= @max_accepted_time"
		args["max_accepted_time"] = admission.maxAcceptedTime
	}

	limitClause := ""
	if admission != nil && admission.limit > 0 {
		limitClause = fmt.Sprintf("\nLIMIT %d", admission.limit)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE PIPELINE_STATUS = @pipeline_status
		AND CONTINUITY_CHECK_PERFORMED = 'YES'
		AND CAN_FETCH_HISTORICAL_DATA = 'YES'
		AND PIPELINE_NAME = @pipeline_name
		AND SOURCE_NAME = @source_name
		AND SOURCE_CATEGORY = @source_category
		AND SOURCE_SUB_TYPE = @source_sub_type%s
		ORDER BY QUERY_WINDOW_START_TIME ASC%s
	`, strings.Join(allColumns(), ", "), s.table, extra, limitClause)

	s.logger.Info("executing record lookup query",
		"keyword", keyword,
		"query", query,
		"pipeline_status", status,
		"pipeline_name", q.PipelineName,
		"source_name", q.SourceName,
	)

	rows, err := s.pool.Query(ctx, query, args)
	if err != nil {
		s.logger.Error("record lookup query failed", "keyword", keyword, "error", err)
		return nil, fmt.Errorf("drivestore: %s: %w", keyword, err)
	}
	defer rows.Close()

	var results []drivemodel.Row
	for rows.Next() {
		scanner := newRowScanner()
		if err := rows.Scan(scanner.targets()...); err != nil {
			return nil, fmt.Errorf("drivestore: %s: scan: %w", keyword, err)
		}
		results = append(results, scanner.row())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("drivestore: %s: %w", keyword, err)
	}

	s.logger.Info("record lookup query completed",
		"keyword", keyword, "records_found", len(results))

	return results, nil
}

// DeleteOne removes the row identified by pipelineID, failing unless
// exactly one row was affected, mirroring
// delete_single_record_from_snowflake's rowcount check.
func (s *Store) DeleteOne(ctx context.Context, pipelineID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE PIPELINE_ID = @pipeline_id", s.table)
	args := pgx.NamedArgs{"pipeline_id": pipelineID}

	s.logger.Info("executing delete query", "keyword", "DELETE_RECORD_SQL", "pipeline_id", pipelineID)

	tag, err := s.pool.Exec(ctx, query, args)
	if err != nil {
		s.logger.Error("delete query failed", "keyword", "DELETE_RECORD_FAILED", "pipeline_id", pipelineID, "error", err)
		return rowErr("DeleteOne", pipelineID, err)
	}

	s.logger.Info("delete query executed",
		"keyword", "DELETE_RECORD_SUCCESS", "pipeline_id", pipelineID, "rows_affected", tag.RowsAffected())

	if tag.RowsAffected() != 1 {
		err := fmt.Errorf("%w: expected 1 row, got %d", ErrUnexpectedRowCount, tag.RowsAffected())
		s.logger.Error("delete affected unexpected row count", "keyword", "DELETE_RECORD_FAILED", "pipeline_id", pipelineID, "error", err)
		return rowErr("DeleteOne", pipelineID, err)
	}

	return nil
}

// InsertOne inserts row, failing unless exactly one row was affected,
// mirroring insert_single_record_to_snowflake's rowcount check.
func (s *Store) InsertOne(ctx context.Context, row drivemodel.Row) error {
	return s.insertOne(ctx, nil, row)
}

func (s *Store) insertOne(ctx context.Context, tx pgx.Tx, row drivemodel.Row) error {
	cols := allColumns()
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		placeholders[i] = "@" + paramName(c)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	args := pgx.NamedArgs{}
	for k, v := range insertArgs(row) {
		args[paramName(k)] = v
	}

	s.logger.Info("executing insert query",
		"keyword", "INSERT_RECORD_SQL", "pipeline_id", row.PipelineID, "fields_count", len(cols))

	var tag interface{ RowsAffected() int64 }
	var err error
	if tx != nil {
		t, e := tx.Exec(ctx, query, args)
		tag, err = t, e
	} else {
		t, e := s.pool.Exec(ctx, query, args)
		tag, err = t, e
	}
	if err != nil {
		s.logger.Error("insert query failed", "keyword", "INSERT_RECORD_FAILED", "pipeline_id", row.PipelineID, "error", err)
		return rowErr("InsertOne", row.PipelineID, err)
	}

	s.logger.Info("insert query executed",
		"keyword", "INSERT_RECORD_SUCCESS", "pipeline_id", row.PipelineID, "rows_affected", tag.RowsAffected())

	if tag.RowsAffected() != 1 {
		err := fmt.Errorf("%w: expected 1 row, got %d", ErrUnexpectedRowCount, tag.RowsAffected())
		s.logger.Error("insert affected unexpected row count", "keyword", "INSERT_RECORD_FAILED", "pipeline_id", row.PipelineID, "error", err)
		return rowErr("InsertOne", row.PipelineID, err)
	}

	return nil
}

// paramName turns a column name into a valid pgx.NamedArgs key (lower
// case, since pgx named args are matched case-sensitively against Go
// identifiers rather than the quoted SQL text).
func paramName(column string) string {
	return strings.ToLower(column)
}
