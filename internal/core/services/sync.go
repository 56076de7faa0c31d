package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driving"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

// Ensure ChannelSyncer implements the interface.
var _ driving.ChannelSyncer = (*ChannelSyncer)(nil)

// DefaultBatchSize is the number of documents embedded and upserted per flush.
const DefaultBatchSize = 50

// ChannelSyncer incrementally indexes one channel at a time.
type ChannelSyncer struct {
	source    driven.MessageSource
	builder   *DocumentBuilder
	embedder  driven.Embedder
	index     driven.VectorIndex
	cursors   driven.CursorStore
	batchSize int
	log       *logger.Logger
}

// NewChannelSyncer creates a channel syncer. A non-positive batchSize uses
// DefaultBatchSize.
func NewChannelSyncer(
	source driven.MessageSource,
	builder *DocumentBuilder,
	embedder driven.Embedder,
	index driven.VectorIndex,
	cursors driven.CursorStore,
	batchSize int,
	log *logger.Logger,
) *ChannelSyncer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChannelSyncer{
		source:    source,
		builder:   builder,
		embedder:  embedder,
		index:     index,
		cursors:   cursors,
		batchSize: batchSize,
		log:       log,
	}
}

// SyncChannel indexes every message newer than the channel's cursor.
//
// Documents are flushed in batches and the cursor is written only after
// the final flush, so a stored cursor never points past data that has not
// landed in the index. The cursor advances to the newest message seen even
// when that message produced no documents.
func (s *ChannelSyncer) SyncChannel(ctx context.Context, channel domain.Channel) (int, error) {
	log := s.log.With("channel", channel.Name, "channel_id", channel.ID)

	// 1. Read cursor (absent means full history)
	oldest := ""
	cursor, err := s.cursors.Get(ctx, channel.ID)
	switch {
	case err == nil:
		oldest = cursor.TS
	case !errors.Is(err, domain.ErrNotFound):
		return 0, fmt.Errorf("get cursor: %w", err)
	}

	log.Info("syncing channel", "oldest", oldest)

	// 2. Stream messages, building and batching documents
	latest := oldest
	seen := 0
	indexed := 0
	pending := make([]domain.Document, 0, s.batchSize)

	for msg, err := range s.source.ListMessages(ctx, channel.ID, oldest) {
		if err != nil {
			return indexed, fmt.Errorf("list messages: %w", err)
		}
		seen++
		latest = domain.MaxTS(latest, msg.TS)

		// 3. Fetch replies for thread roots
		var replies []domain.Message
		if msg.Kind() == domain.ThreadRoot {
			replies, err = s.source.ListThreadReplies(ctx, channel.ID, msg.TS)
			if err != nil {
				return indexed, fmt.Errorf("list replies for %s: %w", msg.TS, err)
			}
		}

		// 4. Build documents and flush full batches
		pending = append(pending, s.builder.Build(ctx, msg, replies, channel)...)
		if len(pending) >= s.batchSize {
			if err := s.flush(ctx, pending); err != nil {
				return indexed, err
			}
			indexed += len(pending)
			log.Debug("flushed batch", "documents", len(pending), "indexed", indexed)
			pending = pending[:0]
		}
	}

	if seen == 0 {
		log.Info("no new messages")
		return 0, nil
	}

	// 5. Flush the remainder
	if len(pending) > 0 {
		if err := s.flush(ctx, pending); err != nil {
			return indexed, err
		}
		indexed += len(pending)
	}

	// 6. Advance cursor once everything is durable
	if latest != oldest {
		if err := s.cursors.Set(ctx, channel.ID, latest); err != nil {
			return indexed, fmt.Errorf("set cursor: %w", err)
		}
	}

	log.Info("channel synced", "messages", seen, "documents", indexed, "cursor", latest)
	return indexed, nil
}

// flush embeds all pending documents in one request and upserts them in one write.
func (s *ChannelSyncer) flush(ctx context.Context, docs []domain.Document) error {
	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embed batch: got %d vectors for %d documents", len(vectors), len(docs))
	}

	points := make([]domain.Point, len(docs))
	for i := range docs {
		points[i] = domain.Point{Document: docs[i], Vector: vectors[i]}
	}

	if err := s.index.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}
