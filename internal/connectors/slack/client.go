package slack

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/slack-go/slack"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/core/ports/driven"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.MessageSource = (*Source)(nil)

// noiseSubtypes are membership and channel-settings notices, not content.
var noiseSubtypes = map[string]bool{
	"channel_join":    true,
	"channel_leave":   true,
	"channel_purpose": true,
	"channel_topic":   true,
}

// Source reads channel history through the Slack Web API.
type Source struct {
	api         *slack.Client
	limiter     *RateLimiter
	log         *logger.Logger
	maxAttempts int
	retryDelay  time.Duration
}

// New creates a Source. The bot token is required.
func New(cfg Config, log *logger.Logger) (*Source, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("slack: %w: SLACK_BOT_TOKEN is required", domain.ErrMissingCredential)
	}
	cfg = cfg.withDefaults()

	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, slack.OptionHTTPClient(cfg.HTTPClient))
	}

	return &Source{
		api:         slack.New(cfg.Token, opts...),
		limiter:     NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		log:         log.With("component", "slack"),
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
	}, nil
}

// call runs one rate-limited API call, retrying rate limits and transient
// failures with exponential backoff.
func call[T any](ctx context.Context, s *Source, method string, fn func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryDelay

	return backoff.Retry(ctx, func() (T, error) {
		var zero T
		if err := s.limiter.Wait(ctx); err != nil {
			return zero, backoff.Permanent(err)
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}
		if retryAfter, ok := rateLimited(err); ok {
			s.limiter.RecordRateLimit(retryAfter)
			return zero, fmt.Errorf("%s: %w: %w", method, domain.ErrRateLimited, err)
		}
		if !isTransient(err) {
			return zero, backoff.Permanent(fmt.Errorf("%s: %w", method, err))
		}
		return zero, fmt.Errorf("%s: %w", method, err)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.maxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.log.Warn("slack call failed, retrying", "method", method, "wait", wait.String(), "error", err)
		}),
	)
}

type channelPage struct {
	channels []slack.Channel
	next     string
}

// ListChannels returns public, non-archived channels, narrowed to the
// allow-list when one is given. Allow-list entries match a channel's name
// or ID; a leading '#' is ignored.
func (s *Source) ListChannels(ctx context.Context, allow []string) ([]domain.Channel, error) {
	var all []domain.Channel
	cursor := ""
	for {
		page, err := call(ctx, s, "conversations.list", func() (channelPage, error) {
			chs, next, err := s.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
				Cursor:          cursor,
				ExcludeArchived: true,
				Limit:           PageSize,
				Types:           []string{"public_channel"},
			})
			return channelPage{channels: chs, next: next}, err
		})
		if err != nil {
			return nil, err
		}
		for _, ch := range page.channels {
			all = append(all, domain.Channel{ID: ch.ID, Name: ch.Name})
		}
		if page.next == "" {
			break
		}
		cursor = page.next
	}

	selected := s.filterChannels(all, allow)
	s.log.Info("found channels to index", "count", len(selected))
	return selected, nil
}

func (s *Source) filterChannels(all []domain.Channel, allow []string) []domain.Channel {
	needles := make(map[string]bool, len(allow))
	for _, entry := range allow {
		if entry = strings.TrimPrefix(strings.TrimSpace(entry), "#"); entry != "" {
			needles[entry] = true
		}
	}
	if len(needles) == 0 {
		return all
	}

	found := make(map[string]bool)
	var selected []domain.Channel
	for _, ch := range all {
		if needles[ch.Name] || needles[ch.ID] {
			selected = append(selected, ch)
			found[ch.Name] = true
			found[ch.ID] = true
		}
	}
	for _, entry := range allow {
		entry = strings.TrimPrefix(strings.TrimSpace(entry), "#")
		if entry != "" && !found[entry] {
			s.log.Warn("channel not found or not accessible", "channel", entry)
		}
	}
	return selected
}

// ListMessages streams top-level messages newer than oldest, newest first.
// A bot outside the channel joins it once; if joining fails the stream
// ends empty.
func (s *Source) ListMessages(ctx context.Context, channelID, oldest string) iter.Seq2[domain.Message, error] {
	return func(yield func(domain.Message, error) bool) {
		joined := false
		cursor := ""
		for {
			resp, err := call(ctx, s, "conversations.history", func() (*slack.GetConversationHistoryResponse, error) {
				return s.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
					ChannelID: channelID,
					Cursor:    cursor,
					Limit:     PageSize,
					Oldest:    oldest,
				})
			})
			if err != nil {
				if IsNotInChannel(err) && !joined {
					joined = true
					if err := s.join(ctx, channelID); err == nil {
						continue
					}
					if ctx.Err() != nil {
						yield(domain.Message{}, ctx.Err())
					}
					return
				}
				yield(domain.Message{}, err)
				return
			}

			for _, m := range resp.Messages {
				if noiseSubtypes[m.SubType] {
					continue
				}
				if !yield(toMessage(m), nil) {
					return
				}
			}

			if resp.ResponseMetaData.NextCursor == "" {
				return
			}
			cursor = resp.ResponseMetaData.NextCursor
		}
	}
}

func (s *Source) join(ctx context.Context, channelID string) error {
	_, err := call(ctx, s, "conversations.join", func() (*slack.Channel, error) {
		ch, _, _, err := s.api.JoinConversationContext(ctx, channelID)
		return ch, err
	})
	if err != nil {
		s.log.Warn("could not join channel, add the channels:join scope", "channel", channelID, "error", err)
		return err
	}
	s.log.Info("joined channel", "channel", channelID)
	return nil
}

type replyPage struct {
	messages []slack.Message
	next     string
}

// ListThreadReplies returns a thread's replies in posting order, without
// the root. Slack API errors degrade to no replies with a warning.
func (s *Source) ListThreadReplies(ctx context.Context, channelID, threadTS string) ([]domain.Message, error) {
	var replies []domain.Message
	cursor := ""
	for {
		page, err := call(ctx, s, "conversations.replies", func() (replyPage, error) {
			msgs, _, next, err := s.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
				ChannelID: channelID,
				Timestamp: threadTS,
				Cursor:    cursor,
				Limit:     PageSize,
			})
			return replyPage{messages: msgs, next: next}, err
		})
		if err != nil {
			if apiErrorCode(err) != "" && !isTransient(err) {
				s.log.Warn("could not read thread replies", "channel", channelID, "thread_ts", threadTS, "error", err)
				return nil, nil
			}
			return nil, err
		}

		for _, m := range page.messages {
			if m.Timestamp == threadTS {
				continue
			}
			replies = append(replies, toMessage(m))
		}
		if page.next == "" {
			return replies, nil
		}
		cursor = page.next
	}
}

// LookupUser returns the best display name for a user: profile display
// name, then real name, then handle.
func (s *Source) LookupUser(ctx context.Context, userID string) (string, error) {
	user, err := call(ctx, s, "users.info", func() (*slack.User, error) {
		return s.api.GetUserInfoContext(ctx, userID)
	})
	if err != nil {
		return "", err
	}
	for _, name := range []string{user.Profile.DisplayName, user.Profile.RealName, user.RealName, user.Name} {
		if strings.TrimSpace(name) != "" {
			return name, nil
		}
	}
	return userID, nil
}

func toMessage(m slack.Message) domain.Message {
	return domain.Message{
		TS:         m.Timestamp,
		User:       m.User,
		Text:       m.Text,
		SubType:    m.SubType,
		ThreadTS:   m.ThreadTimestamp,
		ReplyCount: m.ReplyCount,
	}
}
