// Package reclaimer implements the end-to-end stale-reclaim flow:
// fetch in-flight rows, classify the stale ones, alert (best-effort),
// reset each stale row's phases, and swap it back to PENDING via the
// drive store's transactional replace. Grounded in stale_main_script.py
// and stale_detection_functions.py::detect_and_handle_stale_processes.
package reclaimer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/datadrive/reclaimerd/internal/alertdispatch"
	"github.com/datadrive/reclaimerd/internal/drivemodel"
	"github.com/datadrive/reclaimerd/internal/drivestore"
	"github.com/datadrive/reclaimerd/internal/resetter"
	"github.com/datadrive/reclaimerd/internal/staleness"
)

// Store is the subset of drivestore.Store the orchestrator needs.
type Store interface {
	FetchInProcess(ctx context.Context, q drivestore.Quadruple) ([]drivemodel.Row, error)
	ReplaceRow(ctx context.Context, original, updated drivemodel.Row) error
}

// Config bundles the staleness evaluator's parameters with the
// quadruple the reclaimer scopes every query to.
type Config struct {
	Quadruple drivestore.Quadruple
	Staleness staleness.Config

	// DryRun logs the delete+insert ReplaceRow would perform instead of
	// issuing it, for cmd/reclaimerd tick --dry-run.
	DryRun bool
}

// Result is the tick's reclaim summary: how many rows were in flight,
// how many were classified stale, and how many were successfully
// converted back to PENDING.
type Result struct {
	Total     int
	Stale     int
	Converted int
}

// Run executes spec.md §4.7's five-step flow. Stale rows are reclaimed
// sequentially in QUERY_WINDOW_START_TIME ASC order (the order
// FetchInProcess/Classify already preserve); a failure reclaiming one
// row is logged with full identity context and does not block the
// rest (§5 concurrency model: per-row failures have localized blast
// radius).
func Run(ctx context.Context, store Store, dispatcher alertdispatch.Dispatcher, cfg Config, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	inFlight, err := store.FetchInProcess(ctx, cfg.Quadruple)
	if err != nil {
		return Result{}, fmt.Errorf("reclaimer: fetch in-process: %w", err)
	}
	if len(inFlight) == 0 {
		logger.Info("no in-process records found", "keyword", "RECLAIM_TICK_EMPTY")
		return Result{Total: 0, Stale: 0, Converted: 0}, nil
	}

	stale := staleness.Classify(inFlight, cfg.Staleness, time.Now(), logger)
	if len(stale) == 0 {
		logger.Info("no stale records found",
			"keyword", "RECLAIM_TICK_NO_STALE", "total_records", len(inFlight))
		return Result{Total: len(inFlight), Stale: 0, Converted: 0}, nil
	}

	dispatchStaleAlert(ctx, dispatcher, stale, cfg.Quadruple, logger)

	converted := 0
	for _, original := range stale {
		updated := resetter.Reset(original)

		if cfg.DryRun {
			logger.Info("dry run: would reclaim stale record",
				"keyword", "RECLAIM_RECORD_DRY_RUN",
				"pipeline_id", original.PipelineID,
				"retry_attempt_number", updated.RetryAttemptNumber,
			)
			converted++
			continue
		}

		if err := store.ReplaceRow(ctx, original, updated); err != nil {
			logger.Error("failed to reclaim stale record",
				"keyword", "RECLAIM_RECORD_FAILED",
				"pipeline_id", original.PipelineID,
				"pipeline_name", original.PipelineName,
				"source_name", original.SourceName,
				"source_category", original.SourceCategory,
				"source_sub_type", original.SourceSubType,
				"error", err,
			)
			continue
		}

		converted++
		logger.Info("reclaimed stale record",
			"keyword", "RECLAIM_RECORD_SUCCESS",
			"pipeline_id", original.PipelineID,
			"retry_attempt_number", updated.RetryAttemptNumber,
		)
	}

	result := Result{Total: len(inFlight), Stale: len(stale), Converted: converted}
	logger.Info("reclaim tick completed",
		"keyword", "RECLAIM_TICK_COMPLETE",
		"total_records", result.Total, "stale_count", result.Stale, "converted_count", result.Converted)

	return result, nil
}

// dispatchStaleAlert sends the stale-process notification best-effort:
// a dispatch failure is logged and never blocks the reclaim loop,
// since reclaim correctness must not depend on outbound mail (spec.md
// §4.7 step 3).
func dispatchStaleAlert(ctx context.Context, dispatcher alertdispatch.Dispatcher, stale []drivemodel.Row, q drivestore.Quadruple, logger *slog.Logger) {
	if dispatcher == nil {
		return
	}

	alert := alertdispatch.Alert{
		Subject: fmt.Sprintf("WARNING: %d Stale Pipeline(s) Detected - %s/%s", len(stale), q.PipelineName, q.SourceName),
		Message: staleAlertBody(stale),
	}

	if err := dispatcher.Send(ctx, alert); err != nil {
		logger.Warn("stale process alert dispatch failed",
			"keyword", "STALE_ALERT_DISPATCH_FAILED", "error", err, "stale_count", len(stale))
		return
	}

	logger.Info("stale process alert dispatched",
		"keyword", "STALE_ALERT_DISPATCH_SUCCESS", "stale_count", len(stale))
}

func staleAlertBody(stale []drivemodel.Row) string {
	body := fmt.Sprintf("%d pipeline(s) exceeded their expected duration and will be reclaimed to PENDING:\n", len(stale))
	for _, row := range stale {
		body += fmt.Sprintf("- pipeline_id=%s retry_attempt_number=%d\n", row.PipelineID, row.RetryAttemptNumber)
	}
	return body
}
