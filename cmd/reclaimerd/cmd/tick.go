package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/datadrive/reclaimerd/internal/capability"
	"github.com/datadrive/reclaimerd/internal/healthprobe"
	"github.com/datadrive/reclaimerd/internal/pending"
	"github.com/datadrive/reclaimerd/internal/reclaimer"
	"github.com/datadrive/reclaimerd/internal/staleness"
)

var (
	tickDryRun   bool
	tickDagRunID string
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run one evaluation cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.store.Close()

		return runOnce(cmd.Context(), a, tickDagRunID, tickDryRun)
	},
}

func init() {
	tickCmd.Flags().BoolVar(&tickDryRun, "dry-run", false, "log the reclaim and admission decisions this tick would make without writing them")
	tickCmd.Flags().StringVar(&tickDagRunID, "dag-run-id", "", "correlation ID for this tick's logs and alerts (a random one is generated if omitted)")
}

// runOnce executes the full health -> capability -> reclaim -> pending
// flow for one tick. Both the tick and run subcommands drive it.
func runOnce(ctx context.Context, a *app, dagRunID string, dryRun bool) error {
	if dagRunID == "" {
		dagRunID = uuid.NewString()
	}

	start := time.Now()
	outcome := "ok"
	defer func() {
		a.metrics.TickDuration.Observe(time.Since(start).Seconds())
		a.metrics.TickTotal.WithLabelValues(outcome).Inc()
	}()

	logger := a.logger.With("dag_run_id", dagRunID)

	status := a.prober.Check(ctx)
	recordProbeOutcome(a, status)

	decision, err := capability.Decide(ctx, status, dagRunID, a.alerter, logger)
	if err != nil {
		outcome = "capability_error"
		return fmt.Errorf("tick: capability decision: %w", err)
	}
	a.metrics.ArbiterDecision.WithLabelValues(decisionTier(decision)).Inc()

	if decision.ExitDag {
		outcome = "exit"
		return nil
	}

	result, err := reclaimer.Run(ctx, a.store, a.alerter, reclaimer.Config{
		Quadruple: a.quadruple(),
		Staleness: staleness.Config{
			PipelineExpDuration:  a.cfg.Tick.PipelineExpDuration,
			StaleThresholdFactor: a.cfg.Tick.StaleThresholdFactor,
		},
		DryRun: dryRun,
	}, logger)
	if err != nil {
		outcome = "reclaim_error"
		return fmt.Errorf("tick: reclaim: %w", err)
	}
	a.metrics.RowsInFlight.Set(float64(result.Total))
	a.metrics.RowsStale.Add(float64(result.Stale))
	a.metrics.RowsReclaimed.Add(float64(result.Converted))

	admissible, err := pending.Select(ctx, a.store, a.quadruple(), pending.Config{
		Timezone:          a.cfg.Tick.Timezone,
		XTimeBack:         a.cfg.Tick.XTimeBack,
		Granularity:       a.cfg.Tick.Granularity,
		MaxPendingRecords: a.cfg.Tick.MaxPendingRecords,
	}, time.Now(), logger)
	if err != nil {
		outcome = "pending_error"
		return fmt.Errorf("tick: pending selection: %w", err)
	}
	a.metrics.RowsAdmitted.Add(float64(len(admissible)))

	if dryRun {
		logger.Info("dry run: admissible pending records would be admitted this tick",
			"keyword", "ADMIT_PENDING_DRY_RUN", "records_found", len(admissible))
	}

	return nil
}

func recordProbeOutcome(a *app, status healthprobe.Status) {
	record := func(system string, healthy bool) {
		outcome := "healthy"
		if !healthy {
			outcome = "unhealthy"
		}
		a.metrics.ProbeOutcome.WithLabelValues(system, outcome).Inc()
	}
	record("source", status.Source)
	record("stage", status.Stage)
	record("target", status.Target)
	record("drive", status.Drive)
}

func decisionTier(d capability.Decision) string {
	switch {
	case d.ExitDag:
		return "exit"
	case d.CanProcessSourceToStage && d.CanProcessStageToTarget:
		return "full"
	case d.CanProcessSourceToStage:
		return "source_to_stage_only"
	case d.CanProcessStageToTarget:
		return "stage_to_target_only"
	default:
		return "none"
	}
}
