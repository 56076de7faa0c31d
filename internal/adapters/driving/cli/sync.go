package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/slack2rag/internal/app"
	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

var (
	syncOnce      bool
	syncInterval  time.Duration
	syncChannels  string
	syncBatchSize int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index new Slack messages into the vector store",
	Long: `Fetches messages newer than each channel's cursor, groups threads,
embeds them and upserts them into Qdrant.

By default sync runs continuously, sleeping between cycles. With --once (or
RUN_ONCE=true) a single cycle runs and the command exits non-zero if any
channel failed.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncOnce, "once", false, "run a single cycle and exit")
	syncCmd.Flags().DurationVar(&syncInterval, "interval", 0, "pause between cycles (default from SYNC_INTERVAL_MINUTES)")
	syncCmd.Flags().StringVar(&syncChannels, "channels", "", "comma-separated channel names or IDs (default all public)")
	syncCmd.Flags().IntVar(&syncBatchSize, "batch-size", 0, "documents per embedding batch (default from BATCH_SIZE)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncInterval > 0 {
		cfg.Sync.Interval = syncInterval
	}
	if syncBatchSize != 0 {
		cfg.Sync.BatchSize = syncBatchSize
	}
	if channels := splitChannels(syncChannels); len(channels) > 0 {
		cfg.Slack.Channels = channels
	}
	if syncOnce {
		cfg.Sync.RunOnce = true
	}
	if err := cfg.ValidateForSync(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Info("starting slack2rag",
		"version", version,
		"qdrant", cfg.Qdrant.URL,
		"collection", cfg.Qdrant.Collection,
		"embeddings", cfg.Embedding.Provider,
		"channels", channelsLabel(cfg.Slack.Channels),
		"run_once", cfg.Sync.RunOnce,
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svcs, err := build(ctx, cfg, log, app.ScopeSync)
	if err != nil {
		return err
	}
	defer svcs.Close()

	if !cfg.Sync.RunOnce {
		return svcs.Cycle.Run(ctx)
	}

	summary, err := svcs.Cycle.RunOnce(ctx)
	printSummary(cmd, summary)
	if err != nil {
		return fmt.Errorf("sync failed for %d of %d channels: %w", summary.Failed, summary.Channels, err)
	}
	return nil
}

func printSummary(cmd *cobra.Command, s domain.CycleSummary) {
	total := "unknown"
	if s.TotalIndexed >= 0 {
		total = formatCount(s.TotalIndexed)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d channels in %s: %d documents indexed, %d failed (total in store: %s)\n",
		s.Channels, s.Duration.Round(time.Millisecond), s.Documents, s.Failed, total)
}

func splitChannels(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func channelsLabel(channels []string) string {
	if len(channels) == 0 {
		return "all public"
	}
	return strings.Join(channels, ",")
}
