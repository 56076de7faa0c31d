package slack

import (
	"context"
	"regexp"
	"sync"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

// Ensure Resolver implements the interface.
var _ driven.Resolver = (*Resolver)(nil)

var (
	mentionRE = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|[^>]*)?>`)
	channelRE = regexp.MustCompile(`<#([A-Z0-9]+)\|([^>]*)>`)
	urlRE     = regexp.MustCompile(`<(https?://[^|>]+)(?:\|([^>]*))?>`)
	specialRE = regexp.MustCompile(`<!(here|channel|everyone)(?:\|[^>]*)?>`)
)

// UserLookup fetches a user's display name.
type UserLookup interface {
	LookupUser(ctx context.Context, userID string) (string, error)
}

// Resolver expands Slack markup and caches user names.
type Resolver struct {
	users UserLookup
	log   *logger.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a resolver backed by users.
func NewResolver(users UserLookup, log *logger.Logger) *Resolver {
	return &Resolver{
		users: users,
		log:   log,
		cache: make(map[string]string),
	}
}

// UserName returns the cached display name for userID, looking it up on
// first use. Failed lookups are cached as the ID itself.
func (r *Resolver) UserName(ctx context.Context, userID string) string {
	if userID == "" {
		return domain.UnknownUser
	}

	r.mu.Lock()
	name, ok := r.cache[userID]
	r.mu.Unlock()
	if ok {
		return name
	}

	name, err := r.users.LookupUser(ctx, userID)
	if err != nil || name == "" {
		r.log.Debug("user lookup failed", "user", userID, "error", err)
		name = userID
	}

	r.mu.Lock()
	r.cache[userID] = name
	r.mu.Unlock()
	return name
}

// ResolveText rewrites mrkdwn markup into plain text.
func (r *Resolver) ResolveText(ctx context.Context, raw string) string {
	text := mentionRE.ReplaceAllStringFunc(raw, func(m string) string {
		return "@" + r.UserName(ctx, mentionRE.FindStringSubmatch(m)[1])
	})
	text = channelRE.ReplaceAllString(text, "#$2")
	text = urlRE.ReplaceAllStringFunc(text, func(m string) string {
		parts := urlRE.FindStringSubmatch(m)
		if parts[2] != "" {
			return parts[2] + " (" + parts[1] + ")"
		}
		return parts[1]
	})
	return specialRE.ReplaceAllString(text, "@$1")
}
