package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driving"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

// Ensure CycleDriver implements the interface.
var _ driving.CycleRunner = (*CycleDriver)(nil)

// DefaultSyncInterval is the pause between cycles in continuous mode.
const DefaultSyncInterval = 60 * time.Minute

// CycleDriver runs sync cycles over the target channels.
type CycleDriver struct {
	source   driven.MessageSource
	syncer   driving.ChannelSyncer
	index    driven.VectorIndex
	channels []string
	interval time.Duration
	log      *logger.Logger

	// after is swapped in tests to avoid real sleeps.
	after func(time.Duration) <-chan time.Time
}

// NewCycleDriver creates a cycle driver. An empty channels allow-list
// targets every accessible public channel.
func NewCycleDriver(
	source driven.MessageSource,
	syncer driving.ChannelSyncer,
	index driven.VectorIndex,
	channels []string,
	interval time.Duration,
	log *logger.Logger,
) *CycleDriver {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &CycleDriver{
		source:   source,
		syncer:   syncer,
		index:    index,
		channels: channels,
		interval: interval,
		log:      log,
		after:    time.After,
	}
}

// RunOnce syncs every target channel sequentially. A failing channel is
// logged and skipped; the remaining channels still run and the failures
// are returned joined alongside the summary.
func (d *CycleDriver) RunOnce(ctx context.Context) (domain.CycleSummary, error) {
	start := time.Now()
	summary := domain.CycleSummary{TotalIndexed: -1}

	channels, err := d.source.ListChannels(ctx, d.channels)
	if err != nil {
		return summary, fmt.Errorf("list channels: %w", err)
	}
	if len(channels) == 0 {
		d.log.Warn("no accessible channels found; invite the bot or check the channel allow-list")
		summary.Duration = time.Since(start)
		return summary, nil
	}

	d.log.Info("starting sync cycle", "channels", len(channels))

	var errs []error
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		summary.Channels++
		n, err := d.syncer.SyncChannel(ctx, ch)
		summary.Documents += n
		if err != nil {
			summary.Failed++
			d.log.Error("channel sync failed", "channel", ch.Name, "channel_id", ch.ID, "error", err)
			errs = append(errs, fmt.Errorf("sync #%s: %w", ch.Name, err))
		}
	}

	if total, err := d.index.Count(ctx); err != nil {
		d.log.Warn("count indexed documents", "error", err)
	} else {
		summary.TotalIndexed = total
	}
	summary.Duration = time.Since(start)

	d.log.Info("sync complete",
		"documents", summary.Documents,
		"total_indexed", summary.TotalIndexed,
		"channels", summary.Channels,
		"failed", summary.Failed,
		"duration", summary.Duration.Round(time.Millisecond).String(),
	)

	return summary, errors.Join(errs...)
}

// Run repeats RunOnce, sleeping the interval between cycles, until ctx
// is cancelled. A failed cycle is logged and never ends the loop.
func (d *CycleDriver) Run(ctx context.Context) error {
	d.log.Info("continuous sync started", "interval", d.interval.String())

	for {
		if _, err := d.RunOnce(ctx); err != nil && ctx.Err() == nil {
			d.log.Error("sync cycle failed", "error", err)
		}

		d.log.Info("sleeping until next cycle", "interval", d.interval.String())
		select {
		case <-ctx.Done():
			d.log.Info("continuous sync stopped")
			return nil
		case <-d.after(d.interval):
		}
	}
}
