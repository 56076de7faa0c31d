package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

// MessageSource reads channel history from the chat platform.
// Implementations handle pagination, rate limiting and transient retries;
// callers see a single ordered stream per request.
type MessageSource interface {
	// ListChannels returns the channels to sync. An empty allow-list means
	// every accessible public channel; otherwise entries match by name or ID.
	ListChannels(ctx context.Context, allow []string) ([]domain.Channel, error)

	// ListMessages streams top-level messages newer than oldest (exclusive).
	// An empty oldest streams the full history. Membership-change system
	// messages are excluded. Iteration stops at the first error.
	ListMessages(ctx context.Context, channelID, oldest string) iter.Seq2[domain.Message, error]

	// ListThreadReplies returns the replies of a thread, excluding its root.
	ListThreadReplies(ctx context.Context, channelID, threadTS string) ([]domain.Message, error)
}

// Resolver turns platform markup and user IDs into human-readable text.
// Both operations degrade to their input rather than failing.
type Resolver interface {
	// ResolveText expands mention, channel, link and special markup.
	ResolveText(ctx context.Context, raw string) string

	// UserName returns the display name for a user ID.
	UserName(ctx context.Context, userID string) string
}
