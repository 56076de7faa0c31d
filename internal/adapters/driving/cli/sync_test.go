package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/slack2rag/internal/app"
	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync", syncCmd.Use)
}

func TestSyncCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"once", "interval", "channels", "batch-size"} {
		assert.NotNil(t, syncCmd.Flags().Lookup(name), name)
	}
}

func TestSyncCmd_RequiresToken(t *testing.T) {
	runner := &mockCycleRunner{}
	_, call := setupCLITest(t, &app.Services{Cycle: runner}, nil)

	rootCmd.SetArgs([]string{"sync", "--once"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Zero(t, call.calls, "services must not be built with an invalid config")
}

func TestSyncCmd_OncePrintsSummary(t *testing.T) {
	runner := &mockCycleRunner{summary: domain.CycleSummary{
		Channels: 3, Documents: 1234, TotalIndexed: 56789, Duration: 1500 * time.Millisecond,
	}}
	buf, call := setupCLITest(t, &app.Services{Cycle: runner}, nil)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")

	rootCmd.SetArgs([]string{"sync", "--once"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, app.ScopeSync, call.scope)
	assert.Equal(t, 1, runner.onceRuns)
	assert.Zero(t, runner.loopRuns)
	assert.Contains(t, buf.String(), "Synced 3 channels in 1.5s: 1234 documents indexed, 0 failed (total in store: 56,789)")
}

func TestSyncCmd_OnceReportsFailures(t *testing.T) {
	runner := &mockCycleRunner{
		summary: domain.CycleSummary{Channels: 2, Failed: 1, TotalIndexed: -1},
		err:     errors.New("C2: boom"),
	}
	buf, _ := setupCLITest(t, &app.Services{Cycle: runner}, nil)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")

	rootCmd.SetArgs([]string{"sync", "--once"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed for 1 of 2 channels")
	assert.Contains(t, buf.String(), "total in store: unknown")
}

func TestSyncCmd_RunOnceFromEnvironment(t *testing.T) {
	runner := &mockCycleRunner{}
	_, _ = setupCLITest(t, &app.Services{Cycle: runner}, nil)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("RUN_ONCE", "true")

	rootCmd.SetArgs([]string{"sync"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, 1, runner.onceRuns)
}

func TestSyncCmd_LoopsByDefault(t *testing.T) {
	runner := &mockCycleRunner{}
	_, _ = setupCLITest(t, &app.Services{Cycle: runner}, nil)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")

	rootCmd.SetArgs([]string{"sync"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, 1, runner.loopRuns)
	assert.Zero(t, runner.onceRuns)
}

func TestSyncCmd_FlagsOverrideConfig(t *testing.T) {
	runner := &mockCycleRunner{}
	_, call := setupCLITest(t, &app.Services{Cycle: runner}, nil)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_CHANNELS", "random")

	rootCmd.SetArgs([]string{
		"sync", "--once", "--interval", "5m", "--batch-size", "16", "--channels", "#general, C123 ,",
	})
	require.NoError(t, rootCmd.Execute())

	require.NotNil(t, call.cfg)
	assert.Equal(t, 5*time.Minute, call.cfg.Sync.Interval)
	assert.Equal(t, 16, call.cfg.Sync.BatchSize)
	assert.Equal(t, []string{"#general", "C123"}, call.cfg.Slack.Channels)
}

func TestSyncCmd_BuildError(t *testing.T) {
	_, _ = setupCLITest(t, nil, domain.ErrVectorIndexUnavailable)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")

	rootCmd.SetArgs([]string{"sync", "--once"})
	err := rootCmd.Execute()

	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}

func TestSplitChannels(t *testing.T) {
	assert.Nil(t, splitChannels(""))
	assert.Nil(t, splitChannels(" , "))
	assert.Equal(t, []string{"a", "b"}, splitChannels("a, b"))
}
