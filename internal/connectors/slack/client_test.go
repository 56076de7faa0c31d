package slack

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/custodia-labs/slack2rag/internal/core/domain"
	"github.com/custodia-labs/slack2rag/internal/logger"
)

// fakeSlack serves Web API methods from per-method handlers and counts calls.
type fakeSlack struct {
	mu       sync.Mutex
	calls    map[string]int
	handlers map[string]http.HandlerFunc
}

func newFakeSlack() *fakeSlack {
	return &fakeSlack{calls: map[string]int{}, handlers: map[string]http.HandlerFunc{}}
}

func (f *fakeSlack) handle(method string, h http.HandlerFunc) {
	f.handlers[method] = h
}

func (f *fakeSlack) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeSlack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[1:]
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()

	h, ok := f.handlers[method]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_ = r.ParseForm()
	h(w, r)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprint(w, body)
}

func newTestSource(t *testing.T, f *fakeSlack, log *logger.Logger) *Source {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	s, err := New(Config{
		Token:             "xoxb-test",
		APIURL:            srv.URL + "/",
		RequestsPerSecond: 1000,
		Burst:             100,
		MaxAttempts:       3,
		RetryDelay:        time.Millisecond,
	}, log)
	require.NoError(t, err)
	return s
}

func collect(t *testing.T, s *Source, channelID, oldest string) ([]domain.Message, error) {
	t.Helper()
	var msgs []domain.Message
	for m, err := range s.ListMessages(context.Background(), channelID, oldest) {
		if err != nil {
			return msgs, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(Config{}, logger.Nop())
	require.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestListChannels_PaginatesAndFilters(t *testing.T) {
	f := newFakeSlack()
	f.handle("conversations.list", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "public_channel", r.FormValue("types"))
		if r.FormValue("cursor") == "" {
			writeJSON(w, `{"ok":true,"channels":[{"id":"C1","name":"general"},{"id":"C2","name":"random"}],
				"response_metadata":{"next_cursor":"page2"}}`)
			return
		}
		assert.Equal(t, "page2", r.FormValue("cursor"))
		writeJSON(w, `{"ok":true,"channels":[{"id":"C3","name":"dev"}],"response_metadata":{"next_cursor":""}}`)
	})

	core, logs := observer.New(zapcore.WarnLevel)
	s := newTestSource(t, f, logger.FromZap(zap.New(core)))

	all, err := s.ListChannels(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Channel{
		{ID: "C1", Name: "general"},
		{ID: "C2", Name: "random"},
		{ID: "C3", Name: "dev"},
	}, all)

	picked, err := s.ListChannels(context.Background(), []string{"#general", "C3", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Channel{{ID: "C1", Name: "general"}, {ID: "C3", Name: "dev"}}, picked)

	warnings := logs.FilterMessage("channel not found or not accessible").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "missing", warnings[0].ContextMap()["channel"])
}

func TestListMessages_PaginatesAndSkipsNoise(t *testing.T) {
	f := newFakeSlack()
	f.handle("conversations.history", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "C1", r.FormValue("channel"))
		assert.Equal(t, "1700000000.000100", r.FormValue("oldest"))
		if r.FormValue("cursor") == "" {
			writeJSON(w, `{"ok":true,"messages":[
				{"type":"message","ts":"1700000300.000100","user":"U1","text":"root","thread_ts":"1700000300.000100","reply_count":2},
				{"type":"message","subtype":"channel_join","ts":"1700000200.000100","user":"U2","text":"joined"}
			],"has_more":true,"response_metadata":{"next_cursor":"next"}}`)
			return
		}
		writeJSON(w, `{"ok":true,"messages":[
			{"type":"message","subtype":"bot_message","ts":"1700000100.000100","text":"deploy ok"}
		],"has_more":false}`)
	})
	s := newTestSource(t, f, logger.Nop())

	msgs, err := collect(t, s, "C1", "1700000000.000100")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, domain.Message{
		TS: "1700000300.000100", User: "U1", Text: "root",
		ThreadTS: "1700000300.000100", ReplyCount: 2,
	}, msgs[0])
	assert.Equal(t, domain.ThreadRoot, msgs[0].Kind())
	assert.Equal(t, "bot_message", msgs[1].SubType)
	assert.Equal(t, domain.UnknownUser, msgs[1].AuthorID())
	assert.Equal(t, 2, f.count("conversations.history"))
}

func TestListMessages_JoinsWhenNotInChannel(t *testing.T) {
	f := newFakeSlack()
	joined := false
	f.handle("conversations.history", func(w http.ResponseWriter, _ *http.Request) {
		if !joined {
			writeJSON(w, `{"ok":false,"error":"not_in_channel"}`)
			return
		}
		writeJSON(w, `{"ok":true,"messages":[{"type":"message","ts":"1.000001","user":"U1","text":"hello"}]}`)
	})
	f.handle("conversations.join", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "C1", r.FormValue("channel"))
		joined = true
		writeJSON(w, `{"ok":true,"channel":{"id":"C1","name":"general"}}`)
	})
	s := newTestSource(t, f, logger.Nop())

	msgs, err := collect(t, s, "C1", "")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, 1, f.count("conversations.join"))
}

func TestListMessages_SkipsChannelWhenJoinFails(t *testing.T) {
	f := newFakeSlack()
	f.handle("conversations.history", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"ok":false,"error":"not_in_channel"}`)
	})
	f.handle("conversations.join", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"ok":false,"error":"missing_scope"}`)
	})
	core, logs := observer.New(zapcore.WarnLevel)
	s := newTestSource(t, f, logger.FromZap(zap.New(core)))

	msgs, err := collect(t, s, "C1", "")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, 1, f.count("conversations.join"))
	assert.Equal(t, 1, f.count("conversations.history"))
	assert.Equal(t, 1, logs.FilterMessageSnippet("could not join channel").Len())
}

func TestListMessages_RetriesRateLimit(t *testing.T) {
	f := newFakeSlack()
	attempts := 0
	f.handle("conversations.history", func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, `{"ok":true,"messages":[{"type":"message","ts":"1.000001","user":"U1","text":"hello"}]}`)
	})
	s := newTestSource(t, f, logger.Nop())

	msgs, err := collect(t, s, "C1", "")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, 2, attempts)
}

func TestListMessages_APIErrorIsNotRetried(t *testing.T) {
	f := newFakeSlack()
	f.handle("conversations.history", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"ok":false,"error":"channel_not_found"}`)
	})
	s := newTestSource(t, f, logger.Nop())

	_, err := collect(t, s, "C404", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
	assert.Equal(t, 1, f.count("conversations.history"))
}

func TestListMessages_ServerErrorRetriedThenFails(t *testing.T) {
	f := newFakeSlack()
	f.handle("conversations.history", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	s := newTestSource(t, f, logger.Nop())

	_, err := collect(t, s, "C1", "")
	require.Error(t, err)
	assert.Equal(t, 3, f.count("conversations.history"))
}

func TestListThreadReplies_ExcludesRoot(t *testing.T) {
	f := newFakeSlack()
	f.handle("conversations.replies", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.000100", r.FormValue("ts"))
		if r.FormValue("cursor") == "" {
			writeJSON(w, `{"ok":true,"messages":[
				{"type":"message","ts":"1.000100","user":"U1","text":"root","thread_ts":"1.000100","reply_count":2},
				{"type":"message","ts":"1.000200","user":"U2","text":"first","thread_ts":"1.000100"}
			],"has_more":true,"response_metadata":{"next_cursor":"more"}}`)
			return
		}
		writeJSON(w, `{"ok":true,"messages":[
			{"type":"message","ts":"1.000100","user":"U1","text":"root","thread_ts":"1.000100","reply_count":2},
			{"type":"message","ts":"1.000300","user":"U1","text":"second","thread_ts":"1.000100"}
		],"has_more":false}`)
	})
	s := newTestSource(t, f, logger.Nop())

	replies, err := s.ListThreadReplies(context.Background(), "C1", "1.000100")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "first", replies[0].Text)
	assert.Equal(t, "second", replies[1].Text)
	assert.Equal(t, domain.ThreadReply, replies[0].Kind())
}

func TestListThreadReplies_APIErrorDegrades(t *testing.T) {
	f := newFakeSlack()
	f.handle("conversations.replies", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"ok":false,"error":"thread_not_found"}`)
	})
	s := newTestSource(t, f, logger.Nop())

	replies, err := s.ListThreadReplies(context.Background(), "C1", "1.000100")
	require.NoError(t, err)
	assert.Empty(t, replies)
}

func TestLookupUser_PrefersDisplayName(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "display name",
			body: `{"ok":true,"user":{"id":"U1","name":"ahandle","real_name":"Alice H","profile":{"display_name":"alice","real_name":"Alice H"}}}`,
			want: "alice",
		},
		{
			name: "real name",
			body: `{"ok":true,"user":{"id":"U1","name":"ahandle","profile":{"display_name":"","real_name":"Alice H"}}}`,
			want: "Alice H",
		},
		{
			name: "handle",
			body: `{"ok":true,"user":{"id":"U1","name":"ahandle","profile":{}}}`,
			want: "ahandle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeSlack()
			f.handle("users.info", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "U1", r.FormValue("user"))
				writeJSON(w, tt.body)
			})
			s := newTestSource(t, f, logger.Nop())

			name, err := s.LookupUser(context.Background(), "U1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, name)
		})
	}
}
