package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

func envFrom(m map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := load("", filepath.Join(dir, ".env"), envFrom(map[string]string{
		EnvConfigPath: "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://qdrant:6333", cfg.Qdrant.URL)
	assert.Equal(t, "slack_messages", cfg.Qdrant.Collection)
	assert.Equal(t, ProviderLocal, cfg.Embedding.Provider)
	assert.Equal(t, "all-minilm", cfg.Embedding.LocalModel)
	assert.Equal(t, 60*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 50, cfg.Sync.BatchSize)
	assert.False(t, cfg.Sync.RunOnce)
	assert.Equal(t, "/data/state.json", cfg.StatePath())
	assert.Empty(t, cfg.Slack.Channels)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	tomlPath := writeFile(t, dir, "slack2rag.toml", `
[slack]
bot_token = "xoxb-file"
channels = ["general"]

[qdrant]
url = "http://file:6333"
collection = "from_file"

[sync]
batch_size = 10
interval_minutes = 5
`)
	envPath := writeFile(t, dir, ".env", "QDRANT_URL=http://dotenv:6333\nBATCH_SIZE=20\n")

	cfg, err := load(tomlPath, envPath, envFrom(map[string]string{
		"BATCH_SIZE":     "30",
		"SLACK_CHANNELS": "#dev, C123 ,",
	}))
	require.NoError(t, err)

	assert.Equal(t, tomlPath, cfg.File)
	assert.Equal(t, "xoxb-file", cfg.Slack.BotToken)
	assert.Equal(t, "from_file", cfg.Qdrant.Collection)
	assert.Equal(t, "http://dotenv:6333", cfg.Qdrant.URL)
	assert.Equal(t, 30, cfg.Sync.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, []string{"#dev", "C123"}, cfg.Slack.Channels)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	dir := t.TempDir()
	_, err := load(filepath.Join(dir, "missing.toml"), filepath.Join(dir, ".env"), envFrom(nil))
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	dir := t.TempDir()
	tomlPath := writeFile(t, dir, "custom.toml", "[qdrant]\ncollection = \"custom\"\n")

	cfg, err := load("", filepath.Join(dir, ".env"), envFrom(map[string]string{EnvConfigPath: tomlPath}))
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Qdrant.Collection)
}

func TestLoad_RunOnceValues(t *testing.T) {
	for _, v := range []string{"1", "true", "YES"} {
		cfg, err := load("", filepath.Join(t.TempDir(), ".env"), envFrom(map[string]string{"RUN_ONCE": v}))
		require.NoError(t, err)
		assert.True(t, cfg.Sync.RunOnce, v)
	}
	cfg, err := load("", filepath.Join(t.TempDir(), ".env"), envFrom(map[string]string{"RUN_ONCE": "no"}))
	require.NoError(t, err)
	assert.False(t, cfg.Sync.RunOnce)
}

func TestLoad_BadInteger(t *testing.T) {
	_, err := load("", filepath.Join(t.TempDir(), ".env"), envFrom(map[string]string{"BATCH_SIZE": "lots"}))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStatePath_SQLiteDefault(t *testing.T) {
	cfg := Default()
	cfg.Sync.StateBackend = BackendSQLite
	assert.Equal(t, "/data/state.db", cfg.StatePath())

	cfg.Sync.StateFile = "/tmp/cursors.db"
	assert.Equal(t, "/tmp/cursors.db", cfg.StatePath())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"openai without key", func(c *Config) { c.Embedding.Provider = ProviderOpenAI }, domain.ErrMissingCredential},
		{"openai with key", func(c *Config) {
			c.Embedding.Provider = ProviderOpenAI
			c.Embedding.OpenAIAPIKey = "sk-x"
		}, nil},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }, domain.ErrInvalidInput},
		{"unknown backend", func(c *Config) { c.Sync.StateBackend = "redis" }, domain.ErrInvalidInput},
		{"zero batch", func(c *Config) { c.Sync.BatchSize = 0 }, domain.ErrInvalidInput},
		{"negative interval", func(c *Config) { c.Sync.Interval = -time.Minute }, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateForSync_RequiresToken(t *testing.T) {
	cfg := Default()
	require.ErrorIs(t, cfg.ValidateForSync(), domain.ErrMissingCredential)

	cfg.Slack.BotToken = "xoxb-1"
	assert.NoError(t, cfg.ValidateForSync())
}
