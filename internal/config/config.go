// Package config loads slack2rag settings from defaults, an optional TOML
// file, an optional .env file and the process environment, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/slack2rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
)

// Embedding providers.
const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"
)

// Cursor state backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// File locations.
const (
	// EnvConfigPath names the environment variable holding a TOML path.
	EnvConfigPath = "SLACK2RAG_CONFIG"

	// DefaultConfigFile is read from the working directory when present.
	DefaultConfigFile = "slack2rag.toml"

	// DotEnvFile is read from the working directory when present.
	DotEnvFile = ".env"

	defaultStateJSON   = "/data/state.json"
	defaultStateSQLite = "/data/state.db"
)

// Config is the fully resolved configuration.
type Config struct {
	Slack     SlackConfig
	Qdrant    QdrantConfig
	Embedding EmbeddingConfig
	Sync      SyncConfig
	Log       LogConfig

	// File is the TOML file that was read, or empty.
	File string
}

// SlackConfig holds Slack API settings.
type SlackConfig struct {
	BotToken string
	// Channels restricts the sync to these names or IDs. Empty means all
	// public channels.
	Channels []string
}

// QdrantConfig holds vector index settings.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider      string
	LocalModel    string
	OllamaURL     string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
}

// SyncConfig holds sync loop settings.
type SyncConfig struct {
	Interval     time.Duration
	RunOnce      bool
	StateBackend string
	// StateFile is the cursor file. Empty selects the backend's default.
	StateFile string
	BatchSize int
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Qdrant: QdrantConfig{
			URL:        "http://qdrant:6333",
			Collection: "slack_messages",
		},
		Embedding: EmbeddingConfig{
			Provider:      ProviderLocal,
			LocalModel:    "all-minilm",
			OllamaURL:     "http://localhost:11434",
			OpenAIModel:   "text-embedding-3-small",
			OpenAIBaseURL: "https://api.openai.com/v1",
		},
		Sync: SyncConfig{
			Interval:     60 * time.Minute,
			StateBackend: BackendJSON,
			BatchSize:    50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// StatePath returns the cursor state location for the configured backend.
func (c *Config) StatePath() string {
	if c.Sync.StateFile != "" {
		return c.Sync.StateFile
	}
	if c.Sync.StateBackend == BackendSQLite {
		return defaultStateSQLite
	}
	return defaultStateJSON
}

// Load resolves configuration. path is an explicit TOML file and must exist
// when given; otherwise SLACK2RAG_CONFIG or ./slack2rag.toml is used.
func Load(path string) (*Config, error) {
	return load(path, DotEnvFile, os.LookupEnv)
}

type lookupFunc func(key string) (string, bool)

func load(path, dotEnvPath string, lookupEnv lookupFunc) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, ok := lookupEnv(EnvConfigPath); ok && p != "" {
			path, explicit = p, true
		} else {
			path = DefaultConfigFile
		}
	}

	store, err := file.NewConfigStore(path)
	switch {
	case err == nil:
		applyStore(cfg, store)
		cfg.File = store.Path()
	case errors.Is(err, domain.ErrConfigNotFound) && !explicit:
	default:
		return nil, err
	}

	dotenv, err := godotenv.Read(dotEnvPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", dotEnvPath, err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyStore(cfg *Config, store driven.ConfigStore) {
	setString := func(dst *string, key string) {
		if v := store.GetString(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.Slack.BotToken, "slack.bot_token")
	if chans := store.GetStringSlice("slack.channels"); len(chans) > 0 {
		cfg.Slack.Channels = cleanList(chans)
	} else if s := store.GetString("slack.channels"); s != "" {
		cfg.Slack.Channels = splitList(s)
	}

	setString(&cfg.Qdrant.URL, "qdrant.url")
	setString(&cfg.Qdrant.APIKey, "qdrant.api_key")
	setString(&cfg.Qdrant.Collection, "qdrant.collection")

	setString(&cfg.Embedding.Provider, "embedding.provider")
	setString(&cfg.Embedding.LocalModel, "embedding.local_model")
	setString(&cfg.Embedding.OllamaURL, "embedding.ollama_url")
	setString(&cfg.Embedding.OpenAIAPIKey, "embedding.openai_api_key")
	setString(&cfg.Embedding.OpenAIModel, "embedding.openai_model")
	setString(&cfg.Embedding.OpenAIBaseURL, "embedding.openai_base_url")

	if n := store.GetInt("sync.interval_minutes"); n != 0 {
		cfg.Sync.Interval = time.Duration(n) * time.Minute
	}
	if _, ok := store.Get("sync.run_once"); ok {
		cfg.Sync.RunOnce = store.GetBool("sync.run_once")
	}
	setString(&cfg.Sync.StateBackend, "sync.state_backend")
	setString(&cfg.Sync.StateFile, "sync.state_file")
	if n := store.GetInt("sync.batch_size"); n != 0 {
		cfg.Sync.BatchSize = n
	}

	setString(&cfg.Log.Level, "log.level")
	setString(&cfg.Log.Format, "log.format")
}

func applyEnv(cfg *Config, lookup lookupFunc) error {
	setString := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	setString(&cfg.Slack.BotToken, "SLACK_BOT_TOKEN")
	if v, ok := lookup("SLACK_CHANNELS"); ok && strings.TrimSpace(v) != "" {
		cfg.Slack.Channels = splitList(v)
	}

	setString(&cfg.Qdrant.URL, "QDRANT_URL")
	setString(&cfg.Qdrant.APIKey, "QDRANT_API_KEY")
	setString(&cfg.Qdrant.Collection, "QDRANT_COLLECTION")

	setString(&cfg.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&cfg.Embedding.LocalModel, "LOCAL_EMBEDDING_MODEL")
	setString(&cfg.Embedding.OllamaURL, "OLLAMA_URL")
	setString(&cfg.Embedding.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.Embedding.OpenAIModel, "OPENAI_EMBEDDING_MODEL")
	setString(&cfg.Embedding.OpenAIBaseURL, "OPENAI_BASE_URL")

	if v, ok := lookup("SYNC_INTERVAL_MINUTES"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: SYNC_INTERVAL_MINUTES=%q is not an integer", domain.ErrInvalidInput, v)
		}
		cfg.Sync.Interval = time.Duration(n) * time.Minute
	}
	if v, ok := lookup("RUN_ONCE"); ok && strings.TrimSpace(v) != "" {
		cfg.Sync.RunOnce = parseBool(v)
	}
	setString(&cfg.Sync.StateBackend, "STATE_BACKEND")
	setString(&cfg.Sync.StateFile, "STATE_FILE")
	if v, ok := lookup("BATCH_SIZE"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: BATCH_SIZE=%q is not an integer", domain.ErrInvalidInput, v)
		}
		cfg.Sync.BatchSize = n
	}

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	return nil
}

// parseBool accepts 1, true and yes in any case.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func splitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks settings needed by every command.
func (c *Config) Validate() error {
	var errs []error

	switch c.Embedding.Provider {
	case ProviderLocal:
	case ProviderOpenAI:
		if c.Embedding.OpenAIAPIKey == "" {
			errs = append(errs, fmt.Errorf("%w: OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai",
				domain.ErrMissingCredential))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: EMBEDDING_PROVIDER=%q must be %q or %q",
			domain.ErrInvalidInput, c.Embedding.Provider, ProviderLocal, ProviderOpenAI))
	}

	switch c.Sync.StateBackend {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("%w: STATE_BACKEND=%q must be %q or %q",
			domain.ErrInvalidInput, c.Sync.StateBackend, BackendJSON, BackendSQLite))
	}

	if c.Qdrant.URL == "" {
		errs = append(errs, fmt.Errorf("%w: QDRANT_URL is required", domain.ErrInvalidInput))
	}
	if c.Qdrant.Collection == "" {
		errs = append(errs, fmt.Errorf("%w: QDRANT_COLLECTION is required", domain.ErrInvalidInput))
	}
	if c.Sync.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: BATCH_SIZE must be positive, got %d", domain.ErrInvalidInput, c.Sync.BatchSize))
	}
	if c.Sync.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%w: SYNC_INTERVAL_MINUTES must be positive", domain.ErrInvalidInput))
	}

	return errors.Join(errs...)
}

// ValidateForSync additionally requires the Slack bot token.
func (c *Config) ValidateForSync() error {
	err := c.Validate()
	if c.Slack.BotToken == "" {
		err = errors.Join(err, fmt.Errorf("%w: SLACK_BOT_TOKEN is required", domain.ErrMissingCredential))
	}
	return err
}
