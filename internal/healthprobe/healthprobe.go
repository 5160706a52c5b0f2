// Package healthprobe runs the four pre-flight connection checks the
// capability arbiter needs, mirroring connection_health_check.py's
// check_all_connections. The actual source/stage/target/drive
// connectivity tests are out of scope for this core (spec.md §1
// Non-goals) — callers inject one ProbeFunc per system.
package healthprobe

import (
	"context"
	"log/slog"
)

// ProbeConfig carries whatever a ProbeFunc needs to reach its system.
// The core never inspects it; it exists so injected probes can close
// over connection parameters without a separate constructor per probe.
type ProbeConfig struct {
	Name   string
	Params map[string]string
}

// ProbeFunc tests one system's connectivity and reports whether it is
// reachable. A ProbeFunc must not panic; Check recovers regardless so
// one broken probe never aborts the other three.
type ProbeFunc func(ctx context.Context, cfg ProbeConfig) bool

// Status is the fixed source/stage/target/drive health snapshot one
// Check call produces.
type Status struct {
	Source bool
	Stage  bool
	Target bool
	Drive  bool
}

// Prober holds the four injected connectivity checks.
type Prober struct {
	Source ProbeFunc
	Stage  ProbeFunc
	Target ProbeFunc
	Drive  ProbeFunc

	Logger *slog.Logger
}

// Check runs all four probes in fixed source, stage, target, drive
// order (so log output is stable across runs) and returns their
// combined Status. A probe that panics counts as unreachable and is
// logged under "<NAME>_CONNECTION_CRASH" rather than propagating the
// panic. A nil ProbeFunc also counts as unreachable and is not logged.
func (p Prober) Check(ctx context.Context) Status {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("starting connection health check for all pipeline systems",
		"keyword", "HEALTH_CHECK_START")

	status := Status{
		Source: p.run(ctx, "SOURCE", p.Source, logger),
		Stage:  p.run(ctx, "STAGE", p.Stage, logger),
		Target: p.run(ctx, "TARGET", p.Target, logger),
		Drive:  p.run(ctx, "DRIVE", p.Drive, logger),
	}

	logger.Info("connection health check completed",
		"keyword", "HEALTH_CHECK_COMPLETE",
		"source", status.Source,
		"stage", status.Stage,
		"target", status.Target,
		"drive", status.Drive,
	)

	return status
}

func (p Prober) run(ctx context.Context, name string, probe ProbeFunc, logger *slog.Logger) (ok bool) {
	if probe == nil {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn(name+" connectivity probe panicked",
				"keyword", name+"_CONNECTION_CRASH",
				"recovered", r,
			)
			ok = false
		}
	}()

	ok = probe(ctx, ProbeConfig{Name: name})

	logger.Info(name+" connection test",
		"keyword", name+"_CONNECTION_TEST",
		"status", ok,
	)

	return ok
}
