package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/timelineai/pkg/llm/llmtest"
)

func TestAnswer(t *testing.T) {
	provider := llmtest.Reply("  I'm doing well! Try asking for the history of Nokia.  ")
	a := NewAnswerer(provider, nil)

	answer, err := a.Answer(context.Background(), "how are you?")
	require.NoError(t, err)
	assert.Equal(t, "I'm doing well! Try asking for the history of Nokia.", answer)

	req := provider.Requests()[0]
	assert.Nil(t, req.Schema)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "how are you?", req.Messages[1].Content)
}

func TestAnswerFailure(t *testing.T) {
	provider := llmtest.Fail(errors.New("connection refused"))
	a := NewAnswerer(provider, nil)
	a.retry = fastRetry()

	_, err := a.Answer(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, IsFailure(err))
	assert.Equal(t, 2, provider.Calls())
}

func TestAnswerEmptyReply(t *testing.T) {
	a := NewAnswerer(llmtest.Reply("   "), nil)
	a.retry = fastRetry()

	_, err := a.Answer(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, errEmptyAnswer)
}

func TestAnswerEmptyQuery(t *testing.T) {
	provider := llmtest.Reply("hi")
	_, err := NewAnswerer(provider, nil).Answer(context.Background(), " ")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, provider.Calls())
}
