package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the sgtrakt CLI.
//
// Durations are time.Duration values; the JSON loader accepts them as "3s"
// style strings and the environment loader as anything time.ParseDuration
// understands.
type Config struct {
	// trakt application registration.
	ClientID     string `env:"SGT_CLIENT_ID"`
	ClientSecret string `env:"SGT_CLIENT_SECRET"`

	APIBaseURL  string `env:"SGT_API_BASE_URL"`
	AuthBaseURL string `env:"SGT_AUTH_BASE_URL"`

	// RedirectURI must match the one registered with trakt. CallbackAddr is
	// where the loopback listener accepts it.
	RedirectURI  string `env:"SGT_REDIRECT_URI"`
	CallbackAddr string `env:"SGT_CALLBACK_ADDR"`

	DatabasePath string `env:"SGT_DATABASE_PATH"`

	OnlineCheckInterval time.Duration `env:"SGT_ONLINE_CHECK_INTERVAL"`
	RequestTimeout      time.Duration `env:"SGT_REQUEST_TIMEOUT"`

	// RateLimit is requests per second, RateBurst the bucket size.
	RateLimit float64 `env:"SGT_RATE_LIMIT"`
	RateBurst int     `env:"SGT_RATE_BURST"`

	// TokenRefreshSpec is a cron spec; tokens expiring within
	// TokenRefreshWindow are refreshed when it fires.
	TokenRefreshSpec   string        `env:"SGT_TOKEN_REFRESH_SPEC"`
	TokenRefreshWindow time.Duration `env:"SGT_TOKEN_REFRESH_WINDOW"`

	// PendingTTL bounds how long a blocked check-in waits for cancel or wait.
	PendingTTL time.Duration `env:"SGT_PENDING_TTL"`

	LogLevel  string `env:"SGT_LOG_LEVEL"`
	LogFormat string `env:"SGT_LOG_FORMAT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://api.trakt.tv"
	c.AuthBaseURL = "https://trakt.tv"
	c.RedirectURI = "http://127.0.0.1:8765/callback"
	c.CallbackAddr = "127.0.0.1:8765"
	c.DatabasePath = "data/sgtrakt.db"
	c.OnlineCheckInterval = 30 * time.Second
	c.RequestTimeout = 15 * time.Second
	c.RateLimit = 3
	c.RateBurst = 3
	c.TokenRefreshSpec = "@every 1h"
	c.TokenRefreshWindow = 24 * time.Hour
	c.PendingTTL = 30 * time.Minute
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate rejects values the client cannot run with.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		d    time.Duration
	}{
		{"online check interval", c.OnlineCheckInterval},
		{"request timeout", c.RequestTimeout},
		{"token refresh window", c.TokenRefreshWindow},
		{"pending ttl", c.PendingTTL},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", p.name, p.d)
		}
	}
	if c.RateLimit <= 0 || c.RateBurst < 1 {
		return fmt.Errorf("rate limit must be positive, got %v/s burst %d", c.RateLimit, c.RateBurst)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones. An invalid result panics, like a
// malformed source does.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
