package domain

// Document is the unit of embedding and storage: one chunk of a
// conversation thread together with the metadata stored beside its vector.
// Documents are never mutated; re-syncing a message re-creates them with
// the same IDs so that upserts overwrite rather than duplicate.
type Document struct {
	// ID is deterministic over (channel ID, root TS, chunk index).
	ID string

	// Text is the embeddable content, prefixed with "(part i/n) " when
	// the thread was split into several chunks.
	Text string

	// ChannelID is the source channel identifier.
	ChannelID string

	// ChannelName is the source channel name.
	ChannelName string

	// TS is the root message timestamp.
	TS string

	// Date is the UTC calendar date of TS (YYYY-MM-DD), or empty when
	// TS cannot be parsed.
	Date string

	// UserID is the author of the root message.
	UserID string

	// UserName is the resolved display name of the root author.
	UserName string

	// ThreadTS is the thread root timestamp; equal to TS for standalone messages.
	ThreadTS string

	// ReplyCount is the number of replies folded into the document.
	ReplyCount int

	// Permalink is an optional link back to the message.
	Permalink string
}

// Payload field names stored alongside each vector.
const (
	FieldText        = "text"
	FieldChannelID   = "channel_id"
	FieldChannelName = "channel_name"
	FieldTS          = "ts"
	FieldDate        = "date"
	FieldUserID      = "user_id"
	FieldUserName    = "user_name"
	FieldThreadTS    = "thread_ts"
	FieldReplyCount  = "reply_count"
	FieldPermalink   = "permalink"
)

// Payload returns the non-vector metadata stored with the document.
func (d Document) Payload() map[string]any {
	return map[string]any{
		FieldText:        d.Text,
		FieldChannelID:   d.ChannelID,
		FieldChannelName: d.ChannelName,
		FieldTS:          d.TS,
		FieldDate:        d.Date,
		FieldUserID:      d.UserID,
		FieldUserName:    d.UserName,
		FieldThreadTS:    d.ThreadTS,
		FieldReplyCount:  d.ReplyCount,
		FieldPermalink:   d.Permalink,
	}
}

// DocumentFromPayload rebuilds a document from stored metadata.
// Missing or mistyped fields are left at their zero value.
func DocumentFromPayload(id string, payload map[string]any) Document {
	str := func(key string) string {
		s, _ := payload[key].(string)
		return s
	}

	doc := Document{
		ID:          id,
		Text:        str(FieldText),
		ChannelID:   str(FieldChannelID),
		ChannelName: str(FieldChannelName),
		TS:          str(FieldTS),
		Date:        str(FieldDate),
		UserID:      str(FieldUserID),
		UserName:    str(FieldUserName),
		ThreadTS:    str(FieldThreadTS),
		Permalink:   str(FieldPermalink),
	}

	// JSON decoding yields float64; in-memory payloads keep int.
	switch n := payload[FieldReplyCount].(type) {
	case int:
		doc.ReplyCount = n
	case int64:
		doc.ReplyCount = int(n)
	case float64:
		doc.ReplyCount = int(n)
	}

	return doc
}

// Point is a document paired with its embedding, ready for upsert.
type Point struct {
	Document Document
	Vector   []float32
}
