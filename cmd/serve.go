package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsbot/internal/metrics"
	"newsbot/internal/scheduler"
	"newsbot/internal/server"
)

// newServeCmd creates the 'serve' subcommand: a daemon that runs the
// pipeline on a cron schedule and exposes health/metrics endpoints.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the pipeline on a schedule",
		Long: `Starts a long-lived process that triggers one pipeline run per
cron tick and serves /healthz and /metrics. Triggers that fire while a
run is still in flight are skipped.`,

		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config
	logger := appInstance.Logger
	metrics.Init()

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	sched, err := scheduler.New(cfg.Schedule.Timezone, logger)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = sched.Schedule(cfg.Schedule.Cron, func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("================ pipeline run failed ================",
				zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule pipeline: %w", err)
	}

	sched.Start()
	defer sched.Stop()
	logger.Info("scheduler started",
		zap.String("cron", cfg.Schedule.Cron),
		zap.String("timezone", cfg.Schedule.Timezone))

	return server.New(cfg.Server.Port, logger).Start(ctx)
}
