package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/custodia-labs/slack2rag/internal/app"
	"github.com/custodia-labs/slack2rag/internal/config"
	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

type mockSearchService struct {
	hits      []domain.SearchHit
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.hits, m.err
}

type mockStatusService struct {
	status *domain.Status
	err    error
}

func (m *mockStatusService) Status(_ context.Context) (*domain.Status, error) {
	return m.status, m.err
}

type mockCycleRunner struct {
	summary  domain.CycleSummary
	err      error
	onceRuns int
	loopRuns int
}

func (m *mockCycleRunner) RunOnce(_ context.Context) (domain.CycleSummary, error) {
	m.onceRuns++
	return m.summary, m.err
}

func (m *mockCycleRunner) Run(_ context.Context) error {
	m.loopRuns++
	return m.err
}

// builderCall records the arguments of the last build.
type builderCall struct {
	cfg   *config.Config
	scope app.Scope
	calls int
}

// setupCLITest swaps the service builder, isolates the environment and
// resets flag variables. It returns the buffer receiving command output.
func setupCLITest(t *testing.T, svcs *app.Services, buildErr error) (*bytes.Buffer, *builderCall) {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		config.EnvConfigPath, "SLACK_BOT_TOKEN", "SLACK_CHANNELS", "RUN_ONCE",
		"SYNC_INTERVAL_MINUTES", "BATCH_SIZE", "LOG_LEVEL", "LOG_FORMAT",
		"EMBEDDING_PROVIDER", "STATE_BACKEND", "QDRANT_COLLECTION",
	} {
		t.Setenv(key, "")
	}

	call := &builderCall{}
	oldBuild := build
	build = func(_ context.Context, c *config.Config, _ *logger.Logger, scope app.Scope) (*app.Services, error) {
		call.cfg = c
		call.scope = scope
		call.calls++
		if buildErr != nil {
			return nil, buildErr
		}
		return svcs, nil
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	t.Cleanup(func() {
		build = oldBuild
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		configPath, logLevel, verbose = "", "", false
		syncOnce, syncInterval, syncChannels, syncBatchSize = false, 0, "", 0
		searchLimit, searchChannel, searchDateFrom, searchDateTo = domain.DefaultSearchLimit, "", "", ""
		searchNoScore, searchJSON = false, false
		statusJSON = false
		mcpPort = 0
		cfg, log = nil, nil
	})
	return buf, call
}
