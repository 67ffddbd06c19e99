// Package config loads and validates newsbot configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Failure policies for the publishing loop.
const (
	OnFailureContinue = "continue"
	OnFailureAbort    = "abort"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SourceConfig identifies the page to scrape and how to fetch it.
type SourceConfig struct {
	URL            string `mapstructure:"url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// GeminiConfig governs the extraction call to the generative-language API.
type GeminiConfig struct {
	APIKey           string   `mapstructure:"api_key"`
	Model            string   `mapstructure:"model"`
	BaseURL          string   `mapstructure:"base_url"`
	TopN             int      `mapstructure:"top_n"`
	Category         string   `mapstructure:"category"`
	ExcludedHashtags []string `mapstructure:"excluded_hashtags"`
}

// PublishConfig holds micro-blog credentials and thread composition policy.
type PublishConfig struct {
	ConsumerKey    string `mapstructure:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret"`
	AccessToken    string `mapstructure:"access_token"`
	AccessSecret   string `mapstructure:"access_secret"`
	BaseURL        string `mapstructure:"base_url"`
	CharacterLimit int    `mapstructure:"character_limit"`
	DelaySeconds   int    `mapstructure:"delay_seconds"`
	OnFailure      string `mapstructure:"on_failure"`
	IntroHashtags  string `mapstructure:"intro_hashtags"`
	Attribution    string `mapstructure:"attribution"`
	ThreadPosition bool   `mapstructure:"thread_position"`
}

// ScheduleConfig controls the daemon trigger.
type ScheduleConfig struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
}

// ServerConfig controls the health/metrics listener in daemon mode.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWSBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Credentials have no defaults and may come only from the
	// environment. AutomaticEnv alone does not surface unregistered
	// keys to Unmarshal, so each one is bound explicitly.
	for _, key := range []string{
		"gemini.api_key",
		"publish.consumer_key",
		"publish.consumer_secret",
		"publish.access_token",
		"publish.access_secret",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.url", "https://news.ycombinator.com/")
	v.SetDefault("source.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("source.timeout_seconds", 15)
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.top_n", 3)
	v.SetDefault("gemini.category", "technology")
	v.SetDefault("gemini.excluded_hashtags", []string{"news", "technology", "tech", "trending"})
	v.SetDefault("publish.base_url", "https://api.x.com")
	v.SetDefault("publish.character_limit", 280)
	v.SetDefault("publish.delay_seconds", 5)
	v.SetDefault("publish.on_failure", OnFailureContinue)
	v.SetDefault("publish.intro_hashtags", "#TechNews #Daily")
	v.SetDefault("publish.attribution", "Curated automatically from the front page.")
	v.SetDefault("publish.thread_position", false)
	v.SetDefault("schedule.cron", "0 8 * * *")
	v.SetDefault("schedule.timezone", "UTC")
	v.SetDefault("server.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url must be set")
	}
	if _, err := c.SourceOrigin(); err != nil {
		return err
	}
	if c.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be > 0")
	}
	if c.Gemini.TopN <= 0 {
		return fmt.Errorf("gemini.top_n must be > 0")
	}
	if c.Publish.CharacterLimit <= 0 {
		return fmt.Errorf("publish.character_limit must be > 0")
	}
	if c.Publish.DelaySeconds < 0 {
		return fmt.Errorf("publish.delay_seconds must be >= 0")
	}
	if c.Publish.OnFailure != OnFailureContinue && c.Publish.OnFailure != OnFailureAbort {
		return fmt.Errorf("publish.on_failure must be %q or %q", OnFailureContinue, OnFailureAbort)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// ValidateCredentials checks the secrets required for a live run. It is
// separate from Validate so config files without secrets still load.
func (c Config) ValidateCredentials() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key must be set (NEWSBOT_GEMINI_API_KEY)")
	}
	missing := []string{}
	if c.Publish.ConsumerKey == "" {
		missing = append(missing, "publish.consumer_key")
	}
	if c.Publish.ConsumerSecret == "" {
		missing = append(missing, "publish.consumer_secret")
	}
	if c.Publish.AccessToken == "" {
		missing = append(missing, "publish.access_token")
	}
	if c.Publish.AccessSecret == "" {
		missing = append(missing, "publish.access_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing publish credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SourceOrigin returns the scheme://host prefix of the source URL, used
// to rewrite relative links in extracted items.
func (c Config) SourceOrigin() (string, error) {
	u, err := url.Parse(c.Source.URL)
	if err != nil {
		return "", fmt.Errorf("parse source.url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("source.url must be absolute: %q", c.Source.URL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// FetchTimeout converts the configured timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// PostDelay converts the configured inter-post pacing into a duration.
func (c Config) PostDelay() time.Duration {
	return time.Duration(c.Publish.DelaySeconds) * time.Second
}
