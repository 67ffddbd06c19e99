// Package xapi is a minimal client for the micro-blog v2 post endpoint.
package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.x.com"

// Credentials holds the OAuth 1.0a user-context secrets.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// APIError carries the provider's error detail for a failed post.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("post rejected (%d %s): %s", e.StatusCode, e.Title, e.Detail)
	}
	return fmt.Sprintf("post rejected: status %d", e.StatusCode)
}

// Client posts to the platform on behalf of a single account.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient replaces the OAuth-signing client, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient builds a Client whose requests are OAuth1-signed with the
// given user-context credentials.
func NewClient(creds Credentials, logger *zap.Logger, opts ...Option) *Client {
	oauthCfg := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := oauthCfg.Client(oauth1.NoContext, token)
	httpClient.Timeout = 30 * time.Second

	c := &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type postRequest struct {
	Text  string     `json:"text"`
	Reply *postReply `json:"reply,omitempty"`
}

type postReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type postResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type errorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

// CreatePost publishes a single post. A non-empty inReplyTo chains it as
// a reply to that post ID. It returns the new post's ID.
func (c *Client) CreatePost(ctx context.Context, text, inReplyTo string) (string, error) {
	body := postRequest{Text: text}
	if inReplyTo != "" {
		body.Reply = &postReply{InReplyToTweetID: inReplyTo}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal post request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send post request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var detail errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil {
			apiErr.Title = detail.Title
			apiErr.Detail = detail.Detail
		}
		return "", apiErr
	}

	var out postResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode post response: %w", err)
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("post response missing id")
	}

	c.logger.Debug("post created",
		zap.String("id", out.Data.ID),
		zap.String("in_reply_to", inReplyTo))
	return out.Data.ID, nil
}
