// Package pipeline sequences one end-to-end run: fetch, stage, extract,
// publish, with guaranteed artifact release.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"newsbot/internal/artifact"
	"newsbot/internal/clock"
	"newsbot/internal/extractor"
	"newsbot/internal/metrics"
	"newsbot/internal/publisher"
)

// Fetcher retrieves the source document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Stager uploads and releases the remote artifact.
type Stager interface {
	Stage(ctx context.Context, documentText, displayName string) (artifact.RemoteArtifact, error)
	Release(ctx context.Context, a artifact.RemoteArtifact)
}

// Extractor produces the normalized bundle from a staged artifact.
type Extractor interface {
	Extract(ctx context.Context, a artifact.RemoteArtifact) (extractor.NewsBundle, error)
}

// Publisher emits the thread.
type Publisher interface {
	Publish(ctx context.Context, bundle extractor.NewsBundle) publisher.Result
}

// Config identifies the source for a run.
type Config struct {
	SourceURL string
	SiteLabel string
}

// Pipeline wires the stages together. Execution is strictly sequential
// with at most one outstanding network call at a time.
type Pipeline struct {
	fetcher   Fetcher
	stager    Stager
	extractor Extractor
	publisher Publisher
	clock     clock.Clock
	cfg       Config
	logger    *zap.Logger
}

// New builds a Pipeline.
func New(f Fetcher, s Stager, e Extractor, p Publisher, clk clock.Clock, cfg Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		fetcher:   f,
		stager:    s,
		extractor: e,
		publisher: p,
		clock:     clk,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes one pipeline pass. Stage-level failures (fetch, stage,
// extract) abort the run and propagate; per-post publish failures only
// degrade the thread. The remote artifact is released on every exit path.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline run starting", zap.String("source", p.cfg.SourceURL))

	doc, err := p.fetcher.Fetch(ctx, p.cfg.SourceURL)
	if err != nil {
		metrics.RecordRun(metrics.StatusFailed)
		return fmt.Errorf("fetch source: %w", err)
	}
	metrics.RecordFetchBytes(len(doc))

	displayName := fmt.Sprintf("%s-%s.html", p.cfg.SiteLabel, p.clock.Now().Format("2006-01-02"))
	art, err := p.stager.Stage(ctx, doc, displayName)
	if err != nil {
		metrics.RecordRun(metrics.StatusFailed)
		return fmt.Errorf("stage document: %w", err)
	}
	defer p.stager.Release(ctx, art)

	bundle, err := p.extractor.Extract(ctx, art)
	if err != nil {
		metrics.RecordRun(metrics.StatusFailed)
		return fmt.Errorf("extract news: %w", err)
	}

	res := p.publisher.Publish(ctx, bundle)
	metrics.RecordRun(metrics.StatusOK)
	p.logger.Info("pipeline run finished",
		zap.Int("posts", len(res.PostIDs)),
		zap.Int("attempted", res.Attempted),
		zap.Int("failed", res.Failed))
	return nil
}
