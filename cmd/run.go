package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsbot/internal/metrics"
)

// newRunCmd creates the 'run' subcommand, which executes one pipeline
// pass and exits.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Executes one fetch-extract-publish pass",
		Long: `Fetches the configured source page, extracts the top stories via
the generative-language service, and publishes them as a thread. Exits
non-zero on any stage-level failure; a thread degraded by individual
post failures still counts as a successful run.`,

		RunE: runRunCommand,
	}
}

func runRunCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger
	metrics.Init()

	p, err := buildPipeline(appInstance.Config, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	if err := p.Run(cmd.Context()); err != nil {
		logger.Error("================ pipeline run failed ================",
			zap.Error(err))
		return err
	}

	logger.Info("Run command finished.")
	return nil
}
