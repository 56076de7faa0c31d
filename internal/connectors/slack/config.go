package slack

import (
	"net/http"
	"time"
)

// Default configuration values.
const (
	// PageSize is the page limit for list calls.
	PageSize = 200

	// DefaultRequestsPerSecond stays under Slack's tier 3 limit of ~50/min.
	DefaultRequestsPerSecond = 0.8

	// DefaultBurst allows short bursts after idle periods.
	DefaultBurst = 3

	// DefaultMaxAttempts bounds tries per API call.
	DefaultMaxAttempts = 5

	// DefaultRetryDelay is the first backoff wait for network failures.
	DefaultRetryDelay = time.Second
)

// Config holds Slack connector settings.
type Config struct {
	// Token is the bot token (xoxb-...).
	Token string

	// APIURL overrides the Web API base URL. Must end with a slash.
	APIURL string

	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client

	// RequestsPerSecond is the sustained call rate.
	RequestsPerSecond float64

	// Burst is the token bucket size.
	Burst int

	// MaxAttempts bounds tries per call on rate limits and network errors.
	MaxAttempts int

	// RetryDelay is the initial backoff wait.
	RetryDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}
