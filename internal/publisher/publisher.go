// Package publisher walks a news bundle and emits a reply-chained thread,
// tolerating individual post failures.
package publisher

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"newsbot/internal/clock"
	"newsbot/internal/extractor"
	"newsbot/internal/metrics"
	"newsbot/internal/xapi"
)

// PostClient is the slice of the platform client the publisher depends on.
type PostClient interface {
	CreatePost(ctx context.Context, text, inReplyTo string) (string, error)
}

// Config controls thread composition and failure policy.
type Config struct {
	// CharacterLimit is the platform's per-post size limit. Oversized
	// posts are warned about and attempted anyway, never truncated.
	CharacterLimit int
	// PostDelay is the fixed pacing delay after each successful post.
	PostDelay time.Duration
	// AbortOnFailure stops the item loop at the first failed post.
	// When false the loop continues past failures (best effort).
	AbortOnFailure bool
	// IntroHashtags is the fixed hashtag block appended to the intro.
	IntroHashtags string
	// Attribution is appended to the outro post.
	Attribution string
	// ThreadPosition appends an "(i/n)" suffix to each item post.
	ThreadPosition bool
}

// Result summarizes a publish pass for logging and tests.
type Result struct {
	PostIDs   []string
	Attempted int
	Failed    int
}

// Publisher emits threads sequentially, one outstanding post at a time.
type Publisher struct {
	client PostClient
	clock  clock.Clock
	cfg    Config
	logger *zap.Logger
}

// New builds a Publisher.
func New(client PostClient, clk clock.Clock, cfg Config, logger *zap.Logger) *Publisher {
	return &Publisher{
		client: client,
		clock:  clk,
		cfg:    cfg,
		logger: logger,
	}
}

// Publish posts the bundle as intro, items in order, then outro. Every
// post replies to the previous successful one. A failed post flags the
// run: the chain head stays on the last success and the outro is never
// published for a degraded thread. Per-post failures do not propagate.
func (p *Publisher) Publish(ctx context.Context, bundle extractor.NewsBundle) Result {
	var res Result
	if len(bundle.Items) == 0 {
		p.logger.Info("no items to publish, skipping thread")
		return res
	}

	var previousPostID string
	hasFailure := false

	introID, ok := p.attempt(ctx, &res, metrics.KindIntro, composeIntro(bundle.Intro, p.cfg.IntroHashtags), "")
	if ok {
		previousPostID = introID
	} else {
		hasFailure = true
		if p.cfg.AbortOnFailure {
			p.logger.Warn("intro failed, aborting thread")
			return res
		}
	}

	total := len(bundle.Items)
	for i, item := range bundle.Items {
		body := composeItem(item, i+1, total, p.cfg.ThreadPosition)
		id, ok := p.attempt(ctx, &res, metrics.KindItem, body, previousPostID)
		if !ok {
			hasFailure = true
			if p.cfg.AbortOnFailure {
				p.logger.Warn("aborting remaining items after post failure",
					zap.Int("published", i))
				break
			}
			continue
		}
		previousPostID = id
	}

	if hasFailure {
		p.logger.Warn("thread degraded by post failures, suppressing outro",
			zap.Int("attempted", res.Attempted),
			zap.Int("failed", res.Failed))
		return res
	}

	if _, ok := p.attempt(ctx, &res, metrics.KindOutro, composeOutro(bundle.Outro, p.cfg.Attribution), previousPostID); !ok {
		p.logger.Warn("outro post failed")
	}

	p.logger.Info("thread published",
		zap.Int("posts", len(res.PostIDs)),
		zap.Int("failed", res.Failed))
	return res
}

// attempt publishes one post and records the outcome. The pacing delay
// runs after every success so consecutive posts never burst.
func (p *Publisher) attempt(ctx context.Context, res *Result, kind, body, inReplyTo string) (string, bool) {
	res.Attempted++
	if over := len([]rune(body)) - p.cfg.CharacterLimit; over > 0 {
		p.logger.Warn("post exceeds character limit, attempting anyway",
			zap.String("kind", kind),
			zap.Int("over_by", over))
	}

	id, err := p.client.CreatePost(ctx, body, inReplyTo)
	if err != nil {
		res.Failed++
		metrics.RecordPost(kind, metrics.StatusFailed)
		fields := []zap.Field{zap.String("kind", kind), zap.Error(err)}
		var apiErr *xapi.APIError
		if errors.As(err, &apiErr) {
			fields = append(fields,
				zap.Int("provider_status", apiErr.StatusCode),
				zap.String("provider_detail", apiErr.Detail))
		}
		p.logger.Error("post failed", fields...)
		return "", false
	}

	res.PostIDs = append(res.PostIDs, id)
	metrics.RecordPost(kind, metrics.StatusOK)
	p.logger.Info("post published",
		zap.String("kind", kind),
		zap.String("id", id),
		zap.String("in_reply_to", inReplyTo))

	if p.cfg.PostDelay > 0 {
		p.clock.Sleep(p.cfg.PostDelay)
	}
	return id, true
}
