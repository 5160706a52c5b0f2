package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var runSchedule string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run tick repeatedly on a cron schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.store.Close()

		registry := prometheus.NewRegistry()
		a.metrics.MustRegister(registry)

		if a.cfg.Metrics.Enabled {
			mux := http.NewServeMux()
			mux.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			srv := &http.Server{Addr: fmt.Sprintf(":%d", a.cfg.Metrics.Port), Handler: mux}
			go func() {
				a.logger.Info("serving metrics", "keyword", "METRICS_SERVER_START", "addr", srv.Addr, "path", a.cfg.Metrics.Path)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					a.logger.Error("metrics server failed", "keyword", "METRICS_SERVER_FAILED", "error", err)
				}
			}()
			defer srv.Close()
		}

		scheduler := cron.New()
		_, err = scheduler.AddFunc(runSchedule, func() {
			if err := runOnce(ctx, a, "", false); err != nil {
				a.logger.Error("scheduled tick failed", "keyword", "TICK_FAILED", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("run: invalid --schedule %q: %w", runSchedule, err)
		}

		a.logger.Info("starting scheduled reclaim loop", "keyword", "RUN_START", "schedule", runSchedule)
		scheduler.Start()
		defer scheduler.Stop()

		<-ctx.Done()
		a.logger.Info("shutting down", "keyword", "RUN_STOP")
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runSchedule, "schedule", "@every 1m", "cron schedule (robfig/cron syntax) on which to run a tick")
}
