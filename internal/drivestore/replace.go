package drivestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/datadrive/reclaimerd/internal/drivemodel"
)

// ReplaceRow atomically deletes original and inserts updated inside a
// single transaction, grounded in
// delete_old_in_process_record_and_insert_new_pending_record: begin,
// delete (verify one row), insert (verify one row), commit; any
// failure rolls back and is reported, never partially applied.
//
// Before the delete runs, the pre-transaction image of original is
// logged under the record-before-delete keyword so an operator can
// recover the row's prior state from logs alone if something downstream
// of the commit goes wrong.
func (s *Store) ReplaceRow(ctx context.Context, original, updated drivemodel.Row) error {
	if original.PipelineID == "" {
		return rowErr("ReplaceRow", "", fmt.Errorf("%w: original row has no PIPELINE_ID", ErrInvalidReplacement))
	}
	if updated.PipelineID != original.PipelineID {
		return rowErr("ReplaceRow", original.PipelineID, fmt.Errorf("%w: original=%s updated=%s",
			ErrInvalidReplacement, original.PipelineID, updated.PipelineID))
	}

	pipelineID := original.PipelineID

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return rowErr("ReplaceRow", pipelineID, fmt.Errorf("begin transaction: %w", err))
	}

	s.logger.Info("starting delete+insert transaction",
		"keyword", "DELETE_INSERT_TRANSACTION_START", "pipeline_id", pipelineID, "table", s.table)

	before, err := s.captureBeforeImage(ctx, tx, pipelineID)
	if err != nil {
		s.rollback(ctx, tx, pipelineID, err)
		wrapped := rowErr("ReplaceRow", pipelineID, err)
		s.logger.Error("delete+insert transaction failed",
			"keyword", "DELETE_INSERT_RECORD_FAILED", "pipeline_id", pipelineID, "error", wrapped)
		return wrapped
	}

	s.logger.Info("row before delete",
		"keyword", "record-before-delete",
		"pipeline_id", before.PipelineID,
		"pipeline_status", before.PipelineStatus,
		"retry_attempt_number", before.RetryAttemptNumber,
		"record", insertArgs(before),
	)

	if err := s.deleteWithinTx(ctx, tx, pipelineID); err != nil {
		s.rollback(ctx, tx, pipelineID, err)
		wrapped := rowErr("ReplaceRow", pipelineID, err)
		s.logger.Error("delete+insert transaction failed",
			"keyword", "DELETE_INSERT_RECORD_FAILED", "pipeline_id", pipelineID, "error", wrapped)
		return wrapped
	}

	if err := s.insertOne(ctx, tx, updated); err != nil {
		s.rollback(ctx, tx, pipelineID, err)
		s.logger.Error("delete+insert transaction failed",
			"keyword", "DELETE_INSERT_RECORD_FAILED", "pipeline_id", pipelineID, "error", err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		wrapped := rowErr("ReplaceRow", pipelineID, fmt.Errorf("commit: %w", err))
		s.logger.Error("delete+insert transaction failed",
			"keyword", "DELETE_INSERT_RECORD_FAILED", "pipeline_id", pipelineID, "error", wrapped)
		return wrapped
	}

	s.logger.Info("delete+insert transaction committed",
		"keyword", "DELETE_INSERT_TRANSACTION_SUCCESS", "pipeline_id", pipelineID, "table", s.table)

	return nil
}

// captureBeforeImage runs the before-image SELECT spec.md §4.2 step 2
// requires: exactly one row must come back for pipelineID, or the
// replace is aborted before the delete ever runs. This is also the
// mechanism that catches a duplicate PIPELINE_ID the caller's own
// in-memory original didn't know about.
func (s *Store) captureBeforeImage(ctx context.Context, tx pgx.Tx, pipelineID string) (drivemodel.Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE PIPELINE_ID = @pipeline_id",
		strings.Join(allColumns(), ", "), s.table)
	args := pgx.NamedArgs{"pipeline_id": pipelineID}

	s.logger.Info("executing before-image select", "keyword", "RECORD_BEFORE_DELETE_SQL", "pipeline_id", pipelineID)

	rows, err := tx.Query(ctx, query, args)
	if err != nil {
		return drivemodel.Row{}, fmt.Errorf("before-image select: %w", err)
	}
	defer rows.Close()

	var found []drivemodel.Row
	for rows.Next() {
		scanner := newRowScanner()
		if err := rows.Scan(scanner.targets()...); err != nil {
			return drivemodel.Row{}, fmt.Errorf("before-image select: scan: %w", err)
		}
		found = append(found, scanner.row())
	}
	if err := rows.Err(); err != nil {
		return drivemodel.Row{}, fmt.Errorf("before-image select: %w", err)
	}

	switch len(found) {
	case 0:
		return drivemodel.Row{}, fmt.Errorf("%w: pipeline_id %s", ErrRecordNotFound, pipelineID)
	case 1:
		return found[0], nil
	default:
		return drivemodel.Row{}, fmt.Errorf("%w: pipeline_id %s matched %d rows", ErrIntegrityViolation, pipelineID, len(found))
	}
}

// deleteWithinTx runs the same DELETE_RECORD_SQL/SUCCESS/FAILED
// keyword sequence as DeleteOne, but against a transaction so it
// shares atomicity with the following insert.
func (s *Store) deleteWithinTx(ctx context.Context, tx pgx.Tx, pipelineID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE PIPELINE_ID = @pipeline_id", s.table)
	args := pgx.NamedArgs{"pipeline_id": pipelineID}

	s.logger.Info("executing delete query", "keyword", "DELETE_RECORD_SQL", "pipeline_id", pipelineID)

	tag, err := tx.Exec(ctx, query, args)
	if err != nil {
		s.logger.Error("delete query failed", "keyword", "DELETE_RECORD_FAILED", "pipeline_id", pipelineID, "error", err)
		return fmt.Errorf("delete: %w", err)
	}

	s.logger.Info("delete query executed",
		"keyword", "DELETE_RECORD_SUCCESS", "pipeline_id", pipelineID, "rows_affected", tag.RowsAffected())

	if tag.RowsAffected() != 1 {
		err := fmt.Errorf("%w: expected 1 row, got %d", ErrUnexpectedRowCount, tag.RowsAffected())
		s.logger.Error("delete affected unexpected row count", "keyword", "DELETE_RECORD_FAILED", "pipeline_id", pipelineID, "error", err)
		return err
	}

	return nil
}

func (s *Store) rollback(ctx context.Context, tx pgx.Tx, pipelineID string, cause error) {
	if err := tx.Rollback(ctx); err != nil {
		s.logger.Error("rollback failed",
			"keyword", "DELETE_INSERT_ROLLBACK_FAILED", "pipeline_id", pipelineID, "error", err, "cause", cause)
		return
	}
	s.logger.Warn("transaction rolled back",
		"keyword", "DELETE_INSERT_TRANSACTION_ROLLBACK", "pipeline_id", pipelineID, "error", cause)
}
