// Package cmd defines and implements the CLI commands for the newsbot executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsbot/internal/artifact"
	"newsbot/internal/clock"
	"newsbot/internal/config"
	"newsbot/internal/extractor"
	"newsbot/internal/fetcher"
	"newsbot/internal/gemini"
	"newsbot/internal/logging"
	"newsbot/internal/pipeline"
	"newsbot/internal/publisher"
	"newsbot/internal/xapi"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App holds the services commands depend on.
type App struct {
	Config config.Config
	Logger *zap.Logger
}

// newApp is the application factory. It's a variable so tests can
// replace it.
var newApp = func() (*App, error) {
	// Credentials may live in a local .env; a missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return &App{Config: cfg, Logger: logger}, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsbot",
		Short: "Turns a news aggregator's front page into a post thread.",
		Long: `newsbot fetches a news aggregator's homepage, asks a
generative-language service to extract the top stories as structured
JSON, and publishes them as a reply-chained thread.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp()
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(*App); ok && appInstance != nil {
				_ = logging.Sync(appInstance.Logger)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus env)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point. A non-zero exit signals an
// unrecovered stage-level error or a startup failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (*App, error) {
	appInstance, ok := ctx.Value(appKey).(*App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// buildPipeline wires the pipeline components from configuration.
func buildPipeline(cfg config.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}
	origin, err := cfg.SourceOrigin()
	if err != nil {
		return nil, err
	}

	clk := clock.NewSystem()

	fetch := fetcher.New(fetcher.Config{
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, logger)

	genClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, logger,
		gemini.WithBaseURL(cfg.Gemini.BaseURL))
	stager := artifact.NewStager(genClient, logger)

	extract := extractor.New(genClient, extractor.Config{
		TopN:             cfg.Gemini.TopN,
		Category:         cfg.Gemini.Category,
		SourceOrigin:     origin,
		ExcludedHashtags: cfg.Gemini.ExcludedHashtags,
	}, logger)

	postClient := xapi.NewClient(xapi.Credentials{
		ConsumerKey:    cfg.Publish.ConsumerKey,
		ConsumerSecret: cfg.Publish.ConsumerSecret,
		AccessToken:    cfg.Publish.AccessToken,
		AccessSecret:   cfg.Publish.AccessSecret,
	}, logger, xapi.WithBaseURL(cfg.Publish.BaseURL))

	pub := publisher.New(postClient, clk, publisher.Config{
		CharacterLimit: cfg.Publish.CharacterLimit,
		PostDelay:      cfg.PostDelay(),
		AbortOnFailure: cfg.Publish.OnFailure == config.OnFailureAbort,
		IntroHashtags:  cfg.Publish.IntroHashtags,
		Attribution:    cfg.Publish.Attribution,
		ThreadPosition: cfg.Publish.ThreadPosition,
	}, logger)

	return pipeline.New(fetch, stager, extract, pub, clk, pipeline.Config{
		SourceURL: cfg.Source.URL,
		SiteLabel: siteLabel(origin),
	}, logger), nil
}

// siteLabel derives a filesystem-friendly label from the source origin,
// e.g. "https://news.ycombinator.com" -> "news.ycombinator.com".
func siteLabel(origin string) string {
	for _, prefix := range []string{"https://", "http://"} {
		if len(origin) > len(prefix) && origin[:len(prefix)] == prefix {
			return origin[len(prefix):]
		}
	}
	return origin
}
