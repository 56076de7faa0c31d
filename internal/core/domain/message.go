package domain

// UnknownUser is the placeholder identity for messages without an author.
const UnknownUser = "unknown"

// Channel identifies a chat channel being synchronised.
type Channel struct {
	// ID is the platform channel identifier (e.g. "C0123ABC").
	ID string

	// Name is the human-readable channel name without a leading '#'.
	Name string
}

// ThreadKind describes how a message participates in a conversation thread.
type ThreadKind int

const (
	// Standalone is a message with no replies and no parent thread.
	Standalone ThreadKind = iota

	// ThreadRoot is the first message of a thread that has replies.
	ThreadRoot

	// ThreadReply is a message posted inside another message's thread.
	ThreadReply
)

// String returns the thread kind name.
func (k ThreadKind) String() string {
	switch k {
	case ThreadRoot:
		return "thread_root"
	case ThreadReply:
		return "thread_reply"
	default:
		return "standalone"
	}
}

// Message is a single chat message as returned by a MessageSource.
type Message struct {
	// TS is the platform timestamp, unique within a channel.
	TS string

	// User is the author's user ID. Empty for bot or system messages.
	User string

	// Text is the raw message text, possibly containing markup.
	Text string

	// SubType is the platform message subtype (empty for ordinary messages).
	SubType string

	// ThreadTS is the timestamp of the thread root. Empty when the
	// message is not part of any thread.
	ThreadTS string

	// ReplyCount is the number of replies when the message is a thread root.
	ReplyCount int
}

// Kind returns the message's thread state.
func (m Message) Kind() ThreadKind {
	switch {
	case m.ThreadTS == "":
		return Standalone
	case m.ThreadTS != m.TS:
		return ThreadReply
	case m.ReplyCount > 0:
		return ThreadRoot
	default:
		return Standalone
	}
}

// ThreadRootTS returns the thread marker, or the message's own TS when
// it is not part of a thread.
func (m Message) ThreadRootTS() string {
	if m.ThreadTS != "" {
		return m.ThreadTS
	}
	return m.TS
}

// AuthorID returns the author's user ID, or UnknownUser when absent.
func (m Message) AuthorID() string {
	if m.User == "" {
		return UnknownUser
	}
	return m.User
}
