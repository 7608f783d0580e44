package generator

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/user/timelineai/pkg/llm"
)

// Answerer replies to conversational queries in plain text.
type Answerer struct {
	provider llm.Provider
	prompts  *Prompts
	retry    *RetryPolicy
}

// NewAnswerer creates an Answerer. A nil prompts uses the embedded set.
func NewAnswerer(provider llm.Provider, prompts *Prompts) *Answerer {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	return &Answerer{provider: provider, prompts: prompts, retry: DefaultRetryPolicy()}
}

var errEmptyAnswer = errors.New("empty answer")

// Answer returns a short reply to query. Failures are *GenerationFailure.
func (a *Answerer) Answer(ctx context.Context, query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", &ValidationError{Field: "query", Message: "required"}
	}
	prompt, err := render(a.prompts.chatUser, promptData{Query: q})
	if err != nil {
		return "", &GenerationFailure{Err: err}
	}
	req := &llm.Request{
		Messages:  []llm.Message{llm.System(a.prompts.Chat.System), llm.User(prompt)},
		MaxTokens: 1024,
	}

	var answer string
	attempts, err := a.retry.Execute(ctx, func(attempt int) error {
		resp, err := a.provider.Complete(ctx, req)
		if err != nil {
			slog.Warn("chat answer failed", "attempt", attempt, "error", err)
			return err
		}
		answer = strings.TrimSpace(resp.Content)
		if answer == "" {
			return errEmptyAnswer
		}
		return nil
	})
	if err != nil {
		return "", &GenerationFailure{Attempts: attempts, Err: err}
	}
	return answer, nil
}
