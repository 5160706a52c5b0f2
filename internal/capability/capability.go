// Package capability decides which transfer operations a tick may
// perform given the health of the four external systems, mirroring
// pipeline_capabilities.py's determine_pipeline_capabilities exactly,
// including its alert subject/message copy.
package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/datadrive/reclaimerd/internal/alertdispatch"
	"github.com/datadrive/reclaimerd/internal/config"
	"github.com/datadrive/reclaimerd/internal/healthprobe"
)

// ErrAlertDispatch wraps any error returned by the injected Dispatcher.
var ErrAlertDispatch = errors.New("capability: alert dispatch failed")

// ArbiterError is returned when a fatal condition (most commonly a
// failed alert dispatch) prevents Decide from reaching a verdict.
type ArbiterError struct {
	DagRunID string
	Err      error
}

func (e *ArbiterError) Error() string {
	return fmt.Sprintf("capability: dag_run_id %s: %v", e.DagRunID, e.Err)
}

func (e *ArbiterError) Unwrap() error { return e.Err }

// Decision is the arbiter's verdict for one tick.
type Decision struct {
	ExitDag                 bool
	CanProcessSourceToStage bool
	CanProcessStageToTarget bool

	// Subject and Message carry the fully-rendered operator-facing
	// alert text already dispatched for this decision.
	Subject string
	Message string
}

// Decide implements the capability decision table:
//
//  1. Drive unavailable is a hard stop (mandatory system).
//  2. Source, stage and target all unavailable is a hard stop too,
//     even with drive healthy, since no transfer can run.
//  3. Otherwise, source-to-stage and stage-to-target are each enabled
//     independently based on their endpoints' health.
//
// A blank dagRunID is rejected with a fatal *ArbiterError before any
// alert is sent. Otherwise every decision branch dispatches exactly one
// alert before returning (none when dispatcher is nil); a dispatch
// failure is wrapped in a fatal *ArbiterError, matching the original's
// "cannot send alert" being treated as unrecoverable.
func Decide(ctx context.Context, status healthprobe.Status, dagRunID string, dispatcher alertdispatch.Dispatcher, logger *slog.Logger) (Decision, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := config.ValidateDagRunID(dagRunID); err != nil {
		logger.Error("dag_run_id missing - cannot determine pipeline capabilities",
			"keyword", "CAPABILITY_CHECK_CONFIG_ERROR", "error", err)
		return Decision{}, &ArbiterError{DagRunID: dagRunID, Err: err}
	}

	logger.Info("starting pipeline capability determination",
		"keyword", "CAPABILITY_CHECK_START",
		"source", status.Source, "stage", status.Stage, "target", status.Target, "drive", status.Drive,
	)

	if !status.Drive {
		decision := Decision{
			ExitDag: true,
			Subject: fmt.Sprintf("CRITICAL: Pipeline Aborted - Drive Connection Missing - DAG %s", dagRunID),
			Message: fmt.Sprintf("Critical: Drive connection unavailable. Cannot log pipeline status. Exiting DAG run %s. All data transfer operations aborted.", dagRunID),
		}
		if err := dispatch(ctx, dispatcher, decision, dagRunID); err != nil {
			return Decision{}, err
		}
		logger.Error("drive connection unavailable - exiting DAG",
			"keyword", "DRIVE_CONNECTION_FAILED", "dag_run_id", dagRunID)
		return decision, nil
	}

	if !status.Source && !status.Stage && !status.Target {
		decision := Decision{
			ExitDag: true,
			Subject: fmt.Sprintf("WARNING: No Data Connections Available - DAG %s", dagRunID),
			Message: fmt.Sprintf("No data connections available (source, stage, target all unavailable). Cannot perform any data transfer operations. Exiting DAG run %s. Will retry in next scheduled run.", dagRunID),
		}
		if err := dispatch(ctx, dispatcher, decision, dagRunID); err != nil {
			return Decision{}, err
		}
		logger.Warn("no data connections available - exiting DAG",
			"keyword", "NO_DATA_CONNECTIONS", "dag_run_id", dagRunID)
		return decision, nil
	}

	canSrcToStg := status.Source && status.Stage
	canStgToTgt := status.Stage && status.Target

	decision := Decision{
		CanProcessSourceToStage: canSrcToStg,
		CanProcessStageToTarget: canStgToTgt,
	}

	switch {
	case canSrcToStg && canStgToTgt:
		decision.Subject = fmt.Sprintf("INFO: Complete Pipeline Execution - DAG %s", dagRunID)
		decision.Message = fmt.Sprintf("All connections available (source, stage, target, drive). Performing complete pipeline: source-to-stage and stage-to-target data transfers. DAG run ID: %s.", dagRunID)
	case canSrcToStg && !canStgToTgt:
		decision.Subject = fmt.Sprintf("WARNING: Partial Pipeline - Source to Stage Only - DAG %s", dagRunID)
		decision.Message = fmt.Sprintf("Partial pipeline execution: source, stage, and drive connections available. Target connection unavailable. Performing source-to-stage data transfer only. DAG run ID: %s.", dagRunID)
	case !canSrcToStg && canStgToTgt:
		decision.Subject = fmt.Sprintf("WARNING: Partial Pipeline - Stage to Target Only - DAG %s", dagRunID)
		decision.Message = fmt.Sprintf("Partial pipeline execution: stage, target, and drive connections available. Source connection unavailable. Performing stage-to-target data transfer only. DAG run ID: %s.", dagRunID)
	default:
		decision.Subject = fmt.Sprintf("WARNING: No Data Transfers Possible - DAG %s", dagRunID)
		decision.Message = fmt.Sprintf("Only drive connection available. Source, stage, and target connections unavailable. No data transfer operations possible. DAG run ID: %s. Status will be logged to drive table only.", dagRunID)
	}

	if err := dispatch(ctx, dispatcher, decision, dagRunID); err != nil {
		return Decision{}, err
	}

	logger.Info("pipeline capability determination completed",
		"keyword", "CAPABILITY_CHECK_COMPLETE",
		"dag_run_id", dagRunID,
		"can_process_source_to_stage", decision.CanProcessSourceToStage,
		"can_process_stage_to_target", decision.CanProcessStageToTarget,
		"exit_dag", decision.ExitDag,
	)

	return decision, nil
}

func dispatch(ctx context.Context, dispatcher alertdispatch.Dispatcher, decision Decision, dagRunID string) error {
	if dispatcher == nil {
		return nil
	}
	if err := dispatcher.Send(ctx, alertdispatch.Alert{Subject: decision.Subject, Message: decision.Message}); err != nil {
		return &ArbiterError{DagRunID: dagRunID, Err: fmt.Errorf("%w: %v", ErrAlertDispatch, err)}
	}
	return nil
}
