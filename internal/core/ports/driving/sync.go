package driving

import (
	"context"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

// ChannelSyncer incrementally indexes a single channel.
type ChannelSyncer interface {
	// SyncChannel indexes messages newer than the channel's cursor and
	// returns the number of documents written.
	SyncChannel(ctx context.Context, channel domain.Channel) (int, error)
}

// CycleRunner drives sync cycles over all target channels.
type CycleRunner interface {
	// RunOnce performs a single cycle. Failed channels do not stop the
	// cycle; their errors are joined into the returned error.
	RunOnce(ctx context.Context) (domain.CycleSummary, error)

	// Run repeats cycles on the configured interval until ctx is done.
	Run(ctx context.Context) error
}
