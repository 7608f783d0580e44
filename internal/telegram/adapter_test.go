package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/timelineai/internal/intent"
	"github.com/user/timelineai/internal/stream"
	"github.com/user/timelineai/internal/timeline/timelinetest"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		if f.err != nil {
			return tgbotapi.Message{}, f.err
		}
		f.texts = append(f.texts, m.Text)
	}
	return tgbotapi.Message{}, nil
}

type fullLimiter struct{}

func (fullLimiter) TryAcquire() (func(), bool) { return nil, false }

func textMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: 42},
		From: &tgbotapi.User{ID: 7},
	}
}

func commandMessage(cmd string) *tgbotapi.Message {
	m := textMessage("/" + cmd)
	m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd) + 1}}
	return m
}

func TestSplitMessage(t *testing.T) {
	short := "Hello world"
	parts := splitMessage(short)
	require.Len(t, parts, 1)
	assert.Equal(t, short, parts[0])
}

func TestSplitMessageLong(t *testing.T) {
	long := strings.Repeat("a", 5000)
	parts := splitMessage(long)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], maxTelegramMessage)
	assert.Equal(t, long, strings.Join(parts, ""))
}

func TestSplitMessagePrefersLineBreaks(t *testing.T) {
	text := strings.Repeat("b", 3000) + "\n" + strings.Repeat("c", 3000)
	parts := splitMessage(text)
	require.Len(t, parts, 2)
	assert.Equal(t, strings.Repeat("b", 3000)+"\n", parts[0])
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestSplitMessageKeepsRunes(t *testing.T) {
	text := strings.Repeat("é", 3000)
	parts := splitMessage(text)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p))
		assert.LessOrEqual(t, len(p), maxTelegramMessage)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestBuildSourceKey(t *testing.T) {
	assert.Equal(t, "telegram:12345:67890", string(buildSourceKey(&tgbotapi.User{ID: 12345}, 67890)))
	assert.Equal(t, "telegram:unknown:1", string(buildSourceKey(nil, 1)))
}

func TestHandleMessageTimeline(t *testing.T) {
	sender := &fakeSender{}
	resp := timelinetest.Nokia()
	var got string
	a := newAdapter(sender, func(ctx context.Context, query string) (*stream.Result, error) {
		got = query
		return &stream.Result{Mode: intent.Timeline, Entity: resp.Entity, Events: resp.Events}, nil
	}, nil)

	a.handleMessage(context.Background(), textMessage("nokia history"))

	assert.Equal(t, "nokia history", got)
	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "Timeline: Nokia")
}

func TestHandleMessageFailure(t *testing.T) {
	sender := &fakeSender{}
	a := newAdapter(sender, func(ctx context.Context, query string) (*stream.Result, error) {
		return &stream.Result{Error: stream.MsgGenerationErr}, errors.New("generation failed")
	}, nil)

	a.handleMessage(context.Background(), textMessage("nokia"))

	require.Len(t, sender.texts, 1)
	assert.Equal(t, stream.MsgGenerationErr, sender.texts[0])
}

func TestHandleMessageBusy(t *testing.T) {
	sender := &fakeSender{}
	called := false
	a := newAdapter(sender, func(ctx context.Context, query string) (*stream.Result, error) {
		called = true
		return &stream.Result{}, nil
	}, fullLimiter{})

	a.handleMessage(context.Background(), textMessage("nokia"))

	assert.False(t, called)
	require.Len(t, sender.texts, 1)
	assert.Equal(t, stream.MsgBusy, sender.texts[0])
}

func TestHandleCommand(t *testing.T) {
	sender := &fakeSender{}
	a := newAdapter(sender, nil, nil)

	a.handleMessage(context.Background(), commandMessage("start"))
	a.handleMessage(context.Background(), commandMessage("bogus"))

	require.Len(t, sender.texts, 2)
	assert.Equal(t, welcome, sender.texts[0])
	assert.Contains(t, sender.texts[1], "Unknown command")
}
