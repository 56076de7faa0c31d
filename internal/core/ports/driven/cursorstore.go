package driven

import (
	"context"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

// CursorStore persists per-channel sync progress.
type CursorStore interface {
	// Get retrieves the cursor for a channel.
	// Returns domain.ErrNotFound when the channel has never been synced.
	Get(ctx context.Context, channelID string) (*domain.ChannelCursor, error)

	// Set advances the cursor for a channel and persists it before
	// returning. A timestamp older than the stored one is ignored.
	Set(ctx context.Context, channelID, ts string) error

	// List returns every stored cursor ordered by channel ID.
	List(ctx context.Context) ([]domain.ChannelCursor, error)
}
