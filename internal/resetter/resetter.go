// Package resetter converts a stalled in-process work-unit row back to
// PENDING: every phase that has not already reached COMPLETED is
// reset, and the row's retry counter is bumped.
//
// The original implementation (stale_detection_functions.py's
// convert_to_pending) expressed this as a ~200-line cascade of nested
// "if phase enabled and phase in some status" checks, one level per
// phase. The underlying requirement is simpler than the cascade makes
// it look: for each of the five phases, if it is not COMPLETED, clear
// it. ENABLED does not gate the reset — it only gates whether a
// downstream worker later acts on the phase, so clearing a disabled
// phase's already-null fields is a no-op either way, and skipping the
// clear would risk leaving a stale timestamp behind if the phase is
// ever re-enabled on a later retry.
package resetter

import "github.com/datadrive/reclaimerd/internal/drivemodel"

// Reset returns a copy of row with every non-COMPLETED phase moved
// back to PENDING with null timestamps/duration, top-level timing
// fields cleared, pipeline status set to PENDING, and
// RetryAttemptNumber incremented by exactly one. COMPLETED phases are
// preserved verbatim. The input row is never mutated.
func Reset(row drivemodel.Row) drivemodel.Row {
	out := row

	out.PipelineStatus = drivemodel.StatusPending
	out.PipelineStartTime = nil
	out.PipelineEndTime = nil
	out.PipelineDuration = nil

	for _, name := range drivemodel.PhaseOrder {
		phase := out.Phase(name)
		if phase.Status != nil && *phase.Status == drivemodel.PhaseStatusCompleted {
			continue
		}

		pending := drivemodel.PhaseStatusPending
		out = out.WithPhase(name, drivemodel.Phase{
			Enabled: phase.Enabled,
			Status:  &pending,
		})
	}

	out.RetryAttemptNumber++

	return out
}
