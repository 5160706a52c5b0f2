package drivestore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected mirrors the teacher's postgres.ErrNotConnected:
	// an operation was attempted before the pool connected.
	ErrNotConnected = errors.New("drivestore: pool is not connected")

	// ErrRecordNotFound is returned when ReplaceRow's before-image SELECT
	// returns zero rows. A DELETE that affects zero rows is reported as
	// ErrUnexpectedRowCount instead.
	ErrRecordNotFound = errors.New("drivestore: record not found")

	// ErrUnexpectedRowCount is returned when a single-row DELETE or
	// INSERT affects a row count other than exactly one, mirroring
	// drive_scripts.py's "Expected to delete/insert 1 row" checks.
	ErrUnexpectedRowCount = errors.New("drivestore: unexpected row count")

	// ErrIntegrityViolation is returned when a before-image SELECT
	// matches more than one row for a PIPELINE_ID that is meant to be
	// unique. A DELETE/INSERT inside ReplaceRow's transaction that affects
	// a row count other than one is reported as ErrUnexpectedRowCount.
	ErrIntegrityViolation = errors.New("drivestore: integrity violation")

	// ErrInvalidReplacement is returned when ReplaceRow's own
	// preconditions are violated before any query runs: an empty or
	// mismatched PIPELINE_ID between original and updated. Spec.md's S6
	// scenario classes this as a config-level precondition failure, not
	// a row-level integrity violation caught against the database.
	ErrInvalidReplacement = errors.New("drivestore: invalid replacement")
)

// RowError wraps a drivestore operation failure with the pipeline ID
// and operation name it occurred under, inspected with errors.As the
// same way the teacher's DatabaseError/ConnectionError types are.
type RowError struct {
	Operation  string
	PipelineID string
	Err        error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("drivestore: %s failed for pipeline_id %s: %v", e.Operation, e.PipelineID, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func rowErr(operation, pipelineID string, err error) error {
	return &RowError{Operation: operation, PipelineID: pipelineID, Err: err}
}
