// Package pending selects the batch of PENDING work-unit rows that are
// admissible to run this tick, mirroring drive_scripts.py's
// find_in_process_records admissible-selection sibling (spec.md §4.8).
package pending

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/datadrive/reclaimerd/internal/drivemodel"
	"github.com/datadrive/reclaimerd/internal/drivestore"
	"github.com/datadrive/reclaimerd/internal/duration"
)

// Store is the subset of drivestore.Store the selector needs.
// *drivestore.Store satisfies it directly; tests substitute a fake.
type Store interface {
	FetchAdmissiblePending(ctx context.Context, q drivestore.Quadruple, maxAcceptedTime time.Time, limit int) ([]drivemodel.Row, error)
}

// Config holds the tick parameters the selector reads: the lateness
// margin (XTimeBack + Granularity, each a §4.1 duration string) and
// the fan-out cap.
type Config struct {
	Timezone          string // IANA zone name; defaults to "UTC" if empty
	XTimeBack         string
	Granularity       string
	MaxPendingRecords int
}

// Select computes the lateness margin and fan-out cap from cfg and
// returns the admissible PENDING rows for q, ASC by window start time,
// already capped at MaxPendingRecords by the store's LIMIT clause.
//
// now is the caller-supplied wall-clock instant so the computation is
// test-friendly. A duration parse failure here is fatal to the tick
// (spec.md §7: InvalidDuration is fatal inside the selector, unlike
// the evaluator's per-row skip).
func Select(ctx context.Context, store Store, q drivestore.Quadruple, cfg Config, now time.Time, logger *slog.Logger) ([]drivemodel.Row, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tz := cfg.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("pending: invalid timezone %q: %w", tz, err)
	}

	xTimeBack, err := duration.Parse(cfg.XTimeBack)
	if err != nil {
		return nil, fmt.Errorf("pending: x_time_back: %w", err)
	}
	granularity, err := duration.Parse(cfg.Granularity)
	if err != nil {
		return nil, fmt.Errorf("pending: granularity: %w", err)
	}

	maxAcceptedTime := now.In(loc).Add(-xTimeBack).Add(-granularity)

	logger.Info("selecting admissible pending records",
		"keyword", "FIND_ADMISSIBLE_PENDING_RECORDS_START",
		"pipeline_name", q.PipelineName,
		"source_name", q.SourceName,
		"max_accepted_time", maxAcceptedTime,
		"max_pending_records", cfg.MaxPendingRecords,
	)

	rows, err := store.FetchAdmissiblePending(ctx, q, maxAcceptedTime, cfg.MaxPendingRecords)
	if err != nil {
		logger.Error("admissible pending lookup failed",
			"keyword", "FIND_ADMISSIBLE_PENDING_RECORDS_FAILED", "error", err)
		return nil, fmt.Errorf("pending: %w", err)
	}

	logger.Info("selected admissible pending records",
		"keyword", "FIND_ADMISSIBLE_PENDING_RECORDS_COMPLETE", "records_found", len(rows))

	return rows, nil
}
