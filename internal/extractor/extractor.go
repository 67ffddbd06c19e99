// Package extractor turns a staged document into a validated, normalized
// NewsBundle via a schema-constrained generation call.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"newsbot/internal/artifact"
	"newsbot/internal/gemini"
)

// NewsBundle is the root extraction result consumed by the publisher.
type NewsBundle struct {
	Intro string     `json:"intro"`
	Outro string     `json:"outro"`
	Items []NewsItem `json:"news_items"`
}

// NewsItem is a single extracted story.
type NewsItem struct {
	Title            string   `json:"title"`
	ShortDescription string   `json:"short_description"`
	Link             string   `json:"link"`
	Hashtags         []string `json:"hashtags"`
}

// ExtractionError indicates a malformed or schema-violating structured
// response. It always aborts the run.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extract: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Generator is the slice of the generative-language client the extractor
// depends on.
type Generator interface {
	GenerateContent(ctx context.Context, p gemini.GenerateParams) (string, error)
}

// Config parameterizes the extraction instruction and normalization.
type Config struct {
	TopN             int
	Category         string
	SourceOrigin     string
	ExcludedHashtags []string
}

// Extractor sends one extraction request per run and validates the result.
type Extractor struct {
	gen    Generator
	cfg    Config
	logger *zap.Logger
}

// New builds an Extractor.
func New(gen Generator, cfg Config, logger *zap.Logger) *Extractor {
	return &Extractor{gen: gen, cfg: cfg, logger: logger}
}

// Extract asks the model for the top-N stories in the referenced document
// and returns the normalized bundle. The generative call is never retried.
func (e *Extractor) Extract(ctx context.Context, art artifact.RemoteArtifact) (NewsBundle, error) {
	raw, err := e.gen.GenerateContent(ctx, gemini.GenerateParams{
		Prompt: e.buildPrompt(art.DisplayName),
		File: &gemini.File{
			URI:      art.URI,
			MIMEType: art.MIMEType,
		},
		ResponseSchema: responseSchema(),
	})
	if err != nil {
		return NewsBundle{}, &ExtractionError{Reason: "generation request failed", Err: err}
	}

	text := stripCodeFence(strings.TrimSpace(raw))

	var bundle NewsBundle
	if err := json.Unmarshal([]byte(text), &bundle); err != nil {
		e.logger.Error("malformed structured response", zap.String("raw", raw))
		return NewsBundle{}, &ExtractionError{Reason: "malformed structured response", Err: err}
	}

	if bundle.Intro == "" || bundle.Outro == "" || bundle.Items == nil {
		e.logger.Error("unexpected response shape",
			zap.Bool("has_intro", bundle.Intro != ""),
			zap.Bool("has_outro", bundle.Outro != ""),
			zap.Bool("has_items", bundle.Items != nil))
		return NewsBundle{}, &ExtractionError{Reason: "unexpected response shape"}
	}

	for i := range bundle.Items {
		e.warnIfMalformed(i, bundle.Items[i])
		bundle.Items[i] = normalizeItem(bundle.Items[i], e.cfg.SourceOrigin)
	}
	if len(bundle.Items) > e.cfg.TopN {
		bundle.Items = bundle.Items[:e.cfg.TopN]
	}

	e.logger.Info("extraction complete", zap.Int("items", len(bundle.Items)))
	return bundle, nil
}

// warnIfMalformed flags items missing required fields. They are kept and
// published as-is; see DESIGN.md for the policy decision.
func (e *Extractor) warnIfMalformed(index int, item NewsItem) {
	var missing []string
	if item.Title == "" {
		missing = append(missing, "title")
	}
	if item.Link == "" {
		missing = append(missing, "link")
	}
	if len(item.Hashtags) == 0 {
		missing = append(missing, "hashtags")
	}
	if len(missing) > 0 {
		e.logger.Warn("item is missing required fields, publishing as-is",
			zap.Int("index", index),
			zap.Strings("missing", missing))
	}
}

func (e *Extractor) buildPrompt(displayName string) string {
	return fmt.Sprintf(`You are given the HTML document %q, the front page of a news aggregator.

Identify the top %d %s stories on the page. For each story provide:
- "title": the story headline (at most 100 characters)
- "short_description": a one-sentence summary (at most 120 characters)
- "link": the absolute URL of the story
- "hashtags": 1 to 3 specific topic hashtags; never use generic tags such as %s

Also provide:
- "intro": a single engaging line framing today's thread
- "outro": a single call-to-action line closing the thread

Respond with JSON only.`,
		displayName, e.cfg.TopN, e.cfg.Category, strings.Join(e.cfg.ExcludedHashtags, ", "))
}

func responseSchema() *gemini.Schema {
	return &gemini.Schema{
		Type:     "OBJECT",
		Required: []string{"intro", "outro", "news_items"},
		Properties: map[string]*gemini.Schema{
			"intro": {Type: "STRING"},
			"outro": {Type: "STRING"},
			"news_items": {
				Type: "ARRAY",
				Items: &gemini.Schema{
					Type:     "OBJECT",
					Required: []string{"title", "link", "hashtags"},
					Properties: map[string]*gemini.Schema{
						"title":             {Type: "STRING"},
						"short_description": {Type: "STRING"},
						"link":              {Type: "STRING"},
						"hashtags": {
							Type:     "ARRAY",
							MinItems: 1,
							MaxItems: 3,
							Items:    &gemini.Schema{Type: "STRING"},
						},
					},
				},
			},
		},
	}
}
