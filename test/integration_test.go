//go:build integration

package test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/timelineai/internal/generator"
	"github.com/user/timelineai/internal/intent"
	"github.com/user/timelineai/internal/reducer"
	"github.com/user/timelineai/internal/server"
	"github.com/user/timelineai/internal/stream"
	"github.com/user/timelineai/internal/timeline/timelinetest"
	"github.com/user/timelineai/pkg/llm/llmtest"
)

type imageByQuery struct{}

func (imageByQuery) Lookup(ctx context.Context, query string) (string, error) {
	return fmt.Sprintf("https://img.example/%d.jpg", len(query)), nil
}

func newStack(t *testing.T, decision intent.Decision, timelineLLM, chatLLM *llmtest.Provider) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	classifier := intent.New(llmtest.Reply(fmt.Sprintf(`{"intent":%q,"entity":%q}`, decision.Kind, decision.Entity)), time.Second)
	retry := &generator.RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond}
	orch := stream.NewOrchestrator(
		classifier,
		generator.New(timelineLLM, generator.WithRetryPolicy(retry)),
		generator.NewAnswerer(chatLLM, nil),
		stream.WithEnricher(imageByQuery{}),
	)

	ts := httptest.NewServer(server.New(orch, server.Options{}))
	t.Cleanup(ts.Close)
	return ts
}

// runSession submits query through a client session and returns the first
// finished state.
func runSession(t *testing.T, url, query string) reducer.State {
	t.Helper()
	finished := make(chan reducer.State, 1)
	session := reducer.NewSession(reducer.NewStreamClient(url), func(st reducer.State) {
		if st.Connection == reducer.Done || st.Connection == reducer.Errored {
			select {
			case finished <- st:
			default:
			}
		}
	}, reducer.WithDebounce(0))
	defer session.Close()

	session.Submit(query)
	select {
	case st := <-finished:
		return st
	case <-time.After(10 * time.Second):
		t.Fatal("stream did not finish")
		return reducer.State{}
	}
}

func TestEndToEndTimeline(t *testing.T) {
	ts := newStack(t,
		intent.Decision{Kind: intent.Timeline, Entity: "Nokia"},
		llmtest.Reply(string(timelinetest.NokiaJSON())),
		llmtest.Reply("unused"),
	)

	st := runSession(t, ts.URL, "Nokia history")

	require.Equal(t, reducer.Done, st.Connection)
	assert.Equal(t, "Nokia", st.Topic)
	assert.Equal(t, reducer.ModeTimeline, st.Mode)
	assert.False(t, st.Loading)

	want := timelinetest.Nokia().Events
	require.Len(t, st.Events, len(want))
	for i, ev := range st.Events {
		assert.Equal(t, want[i].ID, ev.ID)
		assert.NotEmpty(t, ev.ImageURL, "event %s should be enriched", ev.ID)
	}
}

func TestEndToEndChat(t *testing.T) {
	ts := newStack(t, intent.Decision{Kind: intent.Chat}, llmtest.Reply("unused"), llmtest.Reply("Hello! Name a company."))

	st := runSession(t, ts.URL, "hello there")

	require.Equal(t, reducer.Done, st.Connection)
	assert.Equal(t, reducer.ModeChat, st.Mode)
	assert.Equal(t, "Hello! Name a company.", st.ChatText)
	assert.Empty(t, st.Events)
}

func TestEndToEndGenerationFailure(t *testing.T) {
	bad := llmtest.Reply(`{"entity":"Nokia","events":[{"id":"x"}]}`)
	ts := newStack(t, intent.Decision{Kind: intent.Timeline, Entity: "Nokia"}, bad, llmtest.Reply("unused"))

	st := runSession(t, ts.URL, "Nokia history")

	assert.Equal(t, reducer.Errored, st.Connection)
	assert.Equal(t, stream.MsgGenerationErr, st.Err)
	assert.Empty(t, st.Events)
	assert.Equal(t, 2, bad.Calls())
}

func TestEndToEndHealth(t *testing.T) {
	ts := newStack(t, intent.Decision{Kind: intent.Chat}, llmtest.Reply("unused"), llmtest.Reply("unused"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, reducer.NewStreamClient(ts.URL).Ping(ctx))
}
