package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
	"github.com/custodia-labs/slack2rag/internal/postprocessors/chunker"
)

// DocumentID returns the deterministic ID of a document chunk.
// The same channel, root timestamp and chunk index always produce the
// same ID, which makes re-indexing an overwrite rather than a duplicate.
func DocumentID(channelID, rootTS string, chunkIndex int) string {
	name := fmt.Sprintf("%s:%s:%d", channelID, rootTS, chunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}

// DocumentBuilder turns a thread root and its replies into embeddable documents.
type DocumentBuilder struct {
	resolver driven.Resolver
	chunker  *chunker.Processor
}

// NewDocumentBuilder creates a builder. A nil chunker uses the defaults
// (1500 characters, 200 overlap).
func NewDocumentBuilder(resolver driven.Resolver, c *chunker.Processor) *DocumentBuilder {
	if c == nil {
		c = chunker.New()
	}
	return &DocumentBuilder{resolver: resolver, chunker: c}
}

// Build formats the root and replies as "[name]: text" lines, splits the
// joined text into chunks and returns one document per chunk. Messages
// whose resolved text is blank are skipped; a thread with no content at
// all yields no documents.
func (b *DocumentBuilder) Build(
	ctx context.Context, root domain.Message, replies []domain.Message, channel domain.Channel,
) []domain.Document {
	lines := make([]string, 0, len(replies)+1)
	if line := b.formatLine(ctx, root); line != "" {
		lines = append(lines, line)
	}
	for _, reply := range replies {
		if line := b.formatLine(ctx, reply); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	chunks := b.chunker.Split(strings.Join(lines, "\n"))

	authorID := root.AuthorID()
	base := domain.Document{
		ChannelID:   channel.ID,
		ChannelName: channel.Name,
		TS:          root.TS,
		Date:        domain.DateFromTS(root.TS),
		UserID:      authorID,
		UserName:    b.userName(ctx, root),
		ThreadTS:    root.ThreadRootTS(),
		ReplyCount:  len(replies),
	}

	docs := make([]domain.Document, 0, len(chunks))
	for i, text := range chunks {
		doc := base
		doc.ID = DocumentID(channel.ID, root.TS, i)
		doc.Text = text
		if len(chunks) > 1 {
			doc.Text = fmt.Sprintf("(part %d/%d) %s", i+1, len(chunks), text)
		}
		docs = append(docs, doc)
	}
	return docs
}

func (b *DocumentBuilder) formatLine(ctx context.Context, msg domain.Message) string {
	text := strings.TrimSpace(b.resolver.ResolveText(ctx, msg.Text))
	if text == "" {
		return ""
	}
	return fmt.Sprintf("[%s]: %s", b.userName(ctx, msg), text)
}

func (b *DocumentBuilder) userName(ctx context.Context, msg domain.Message) string {
	if msg.User == "" {
		return domain.UnknownUser
	}
	return b.resolver.UserName(ctx, msg.User)
}
