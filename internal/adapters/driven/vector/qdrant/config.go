package qdrant

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultURL        = "http://qdrant:6333"
	DefaultCollection = "slack_messages"
	DefaultTimeout    = 30 * time.Second

	// Upsert retry policy: three attempts, exponential wait from 2s capped at 10s.
	DefaultUpsertAttempts     = 3
	DefaultUpsertInitialDelay = 2 * time.Second
	DefaultUpsertMaxDelay     = 10 * time.Second
)

// Config holds Qdrant connection and retry settings.
type Config struct {
	// URL is the Qdrant REST base URL.
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection is the collection holding message documents.
	Collection string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// UpsertAttempts is the total number of upsert tries.
	UpsertAttempts int

	// UpsertInitialDelay is the wait after the first failed upsert.
	UpsertInitialDelay time.Duration

	// UpsertMaxDelay caps the wait between upsert tries.
	UpsertMaxDelay time.Duration
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UpsertAttempts <= 0 {
		c.UpsertAttempts = DefaultUpsertAttempts
	}
	if c.UpsertInitialDelay <= 0 {
		c.UpsertInitialDelay = DefaultUpsertInitialDelay
	}
	if c.UpsertMaxDelay <= 0 {
		c.UpsertMaxDelay = DefaultUpsertMaxDelay
	}
	return c
}

// ConfigErrorCode classifies configuration problems.
type ConfigErrorCode string

const (
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
)

// ConfigError reports an invalid Qdrant configuration.
type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	switch e.Code {
	case ConfigErrorInvalidURL:
		return fmt.Sprintf("invalid QDRANT_URL=%q; expected absolute URL like %s", e.Value, DefaultURL)
	case ConfigErrorMissingCollection:
		return "QDRANT_COLLECTION is required"
	default:
		return "invalid qdrant config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ValidateConfig validates a Qdrant config after defaults are applied.
func ValidateConfig(cfg Config) error {
	parsed, err := url.Parse(cfg.URL)
	if err != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: cfg.URL, Cause: err}
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	return nil
}
