// Package fetcher retrieves the source page as text using the Colly collector.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// RetrievalError indicates the source page could not be fetched, either
// because the transport failed or the response status was not 200.
type RetrievalError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retrieve %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("retrieve %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Fetcher executes single-page fetches with a browser-like identity.
type Fetcher struct {
	cfg           Config
	logger        *zap.Logger
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	// The fetch mimics a browser; robots.txt does not apply to it.
	c.IgnoreRobotsTxt = true
	// The daemon fetches the same source URL on every trigger, and
	// clones share the visited-URL store.
	c.AllowURLRevisit = true
	return &Fetcher{
		cfg:           cfg,
		logger:        logger,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET and returns the response body as text.
// Any transport error or non-200 status yields a RetrievalError; there
// are no retries and redirects follow the transport default.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &RetrievalError{URL: url, Err: err}
	}

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	start := time.Now()
	if err := collector.Visit(url); err != nil && fetchErr == nil {
		fetchErr = err
	}
	collector.Wait()

	if fetchErr != nil {
		f.logger.Error("source fetch failed",
			zap.String("url", url),
			zap.Int("status", status),
			zap.Error(fetchErr))
		return "", &RetrievalError{URL: url, StatusCode: status, Err: fetchErr}
	}
	if status != http.StatusOK {
		f.logger.Error("source fetch returned unexpected status",
			zap.String("url", url),
			zap.Int("status", status))
		return "", &RetrievalError{URL: url, StatusCode: status}
	}

	f.logger.Info("source fetched",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))
	return string(body), nil
}
