package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/datadrive/reclaimerd/internal/alertdispatch"
	"github.com/datadrive/reclaimerd/internal/config"
	"github.com/datadrive/reclaimerd/internal/drivestore"
	"github.com/datadrive/reclaimerd/internal/healthprobe"
	"github.com/datadrive/reclaimerd/internal/metrics"
	"github.com/datadrive/reclaimerd/pkg/logger"
)

// app bundles the pieces every tick needs, built once per process (or
// once per tick for the one-shot tick command).
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *drivestore.Store
	metrics *metrics.Registry
	prober  healthprobe.Prober
	alerter alertdispatch.Dispatcher
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	store, err := drivestore.Connect(ctx, drivestore.NewPoolConfig(cfg.Drive), log)
	if err != nil {
		return nil, fmt.Errorf("connect drive store: %w", err)
	}

	reg := metrics.NewRegistry("reclaimerd")

	var dispatcher alertdispatch.Dispatcher
	if cfg.Alert.SMTPAddr != "" {
		dispatcher = alertdispatch.NewSMTPDispatcher(cfg.Alert.SMTPAddr, cfg.Alert.From, cfg.Alert.To)
	}

	return &app{
		cfg:     cfg,
		logger:  log,
		store:   store,
		metrics: reg,
		prober:  buildProber(cfg.Probes, store, log),
		alerter: dispatcher,
	}, nil
}

func (a *app) quadruple() drivestore.Quadruple {
	return drivestore.Quadruple{
		PipelineName:   a.cfg.Pipeline.Name,
		SourceName:     a.cfg.Pipeline.SourceName,
		SourceCategory: a.cfg.Pipeline.Category,
		SourceSubType:  a.cfg.Pipeline.SubType,
	}
}

// buildProber wires the four connection checks the capability arbiter
// needs. Source/stage/target are TCP-dial stand-ins against the
// configured addresses (spec.md §1 puts the real connectivity tests
// out of scope); an empty address always reports healthy, so a
// one-sided pipeline need not configure endpoints it never uses. The
// drive probe pings the already-connected store directly.
func buildProber(cfg config.ProbeConfig, store *drivestore.Store, logger *slog.Logger) healthprobe.Prober {
	timeout := 5 * time.Second
	if d, err := time.ParseDuration(cfg.DialTimeout); err == nil && d > 0 {
		timeout = d
	}

	return healthprobe.Prober{
		Source: dialProbe(cfg.SourceAddr, timeout),
		Stage:  dialProbe(cfg.StageAddr, timeout),
		Target: dialProbe(cfg.TargetAddr, timeout),
		Drive: func(ctx context.Context, _ healthprobe.ProbeConfig) bool {
			return store.Ping(ctx) == nil
		},
		Logger: logger,
	}
}

func dialProbe(addr string, timeout time.Duration) healthprobe.ProbeFunc {
	if addr == "" {
		return func(ctx context.Context, _ healthprobe.ProbeConfig) bool { return true }
	}
	return func(ctx context.Context, _ healthprobe.ProbeConfig) bool {
		dialer := net.Dialer{Timeout: timeout}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}
