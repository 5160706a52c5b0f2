// Package staleness classifies in-process work-unit rows as stale when
// they have run longer than their expected duration allows, mirroring
// stale_detection_functions.py's identify_stale_records.
package staleness

import (
	"log/slog"
	"time"

	"github.com/datadrive/reclaimerd/internal/duration"
	"github.com/datadrive/reclaimerd/internal/drivemodel"
)

// Config holds the parameters identify_stale_records reads from its
// config dict: the fallback expected duration and the multiplier
// applied to it.
type Config struct {
	// PipelineExpDuration is used when a row carries no
	// PipelineExpDuration of its own.
	PipelineExpDuration string

	// StaleThresholdFactor multiplies the expected duration to get the
	// staleness threshold: a row is stale once its elapsed time
	// exceeds factor * expected_duration.
	StaleThresholdFactor float64
}

// Classify returns the subset of rows whose elapsed in-process time
// exceeds cfg.StaleThresholdFactor times their expected duration, as
// measured against now. Classify is pure: the caller supplies now so
// tests don't depend on wall-clock time.
//
// A row whose duration string (its own or the config fallback) fails
// to parse is logged at Warn and skipped — never aborts the batch,
// matching the original's per-record try/continue.
func Classify(rows []drivemodel.Row, cfg Config, now time.Time, logger *slog.Logger) []drivemodel.Row {
	if logger == nil {
		logger = slog.Default()
	}

	var stale []drivemodel.Row
	for _, row := range rows {
		expDurationStr := row.PipelineExpDuration
		if expDurationStr == "" {
			expDurationStr = cfg.PipelineExpDuration
		}

		expDuration, err := duration.Parse(expDurationStr)
		if err != nil {
			logger.Warn("failed to process record for staleness check",
				"keyword", "IDENTIFY_STALE_RECORDS",
				"error", err,
				"pipeline_id", row.PipelineID,
				"pipeline_name", row.PipelineName,
				"source_category", row.SourceCategory,
				"source_sub_type", row.SourceSubType,
			)
			continue
		}

		if row.PipelineStartTime == nil {
			continue
		}

		elapsed := now.Sub(*row.PipelineStartTime)
		threshold := time.Duration(float64(expDuration) * cfg.StaleThresholdFactor)

		if elapsed > threshold {
			stale = append(stale, row)
		}
	}

	logger.Info("identified stale records",
		"keyword", "IDENTIFY_STALE_RECORDS",
		"total_records", len(rows),
		"stale_count", len(stale),
	)

	return stale
}
