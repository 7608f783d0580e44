// Package generator produces validated timelines and conversational answers
// from a generation backend.
package generator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/user/timelineai/internal/timeline"
	"github.com/user/timelineai/pkg/llm"
)

const (
	DefaultMaxQueryChars   = 500
	DefaultReferenceTokens = 1500
	defaultMaxTokens       = 8192
)

// Request is one timeline generation request.
type Request struct {
	Query string
	// Entity is the classifier's subject, used when the backend leaves
	// the response entity blank.
	Entity string
}

// Generator turns a query into a validated timeline.
type Generator struct {
	provider        llm.Provider
	prompts         *Prompts
	budget          *Budget
	refs            ReferenceFetcher
	retry           *RetryPolicy
	maxQueryChars   int
	referenceTokens int
	maxTokens       int
}

// Option configures a Generator.
type Option func(*Generator)

// WithPrompts replaces the embedded prompt set.
func WithPrompts(p *Prompts) Option { return func(g *Generator) { g.prompts = p } }

// WithBudget sets the tokenizer used to trim reference material.
func WithBudget(b *Budget) Option { return func(g *Generator) { g.budget = b } }

// WithReferences enables fetching URLs found in queries.
func WithReferences(f ReferenceFetcher) Option { return func(g *Generator) { g.refs = f } }

// WithRetryPolicy overrides the default one-retry policy.
func WithRetryPolicy(p *RetryPolicy) Option { return func(g *Generator) { g.retry = p } }

// WithMaxQueryChars caps accepted query length in characters.
func WithMaxQueryChars(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxQueryChars = n
		}
	}
}

// WithReferenceTokens caps reference material appended to the prompt.
func WithReferenceTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.referenceTokens = n
		}
	}
}

// WithMaxTokens caps the backend's response length.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// New creates a Generator backed by provider.
func New(provider llm.Provider, opts ...Option) *Generator {
	g := &Generator{
		provider:        provider,
		prompts:         DefaultPrompts(),
		retry:           DefaultRetryPolicy(),
		maxQueryChars:   DefaultMaxQueryChars,
		referenceTokens: DefaultReferenceTokens,
		maxTokens:       defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckQuery trims query and rejects it when empty or too long.
func (g *Generator) CheckQuery(query string) (string, error) {
	return CheckQuery(query, g.maxQueryChars)
}

// CheckQuery trims query and rejects it when empty or longer than max
// characters.
func CheckQuery(query string, max int) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", &ValidationError{Field: "query", Message: "required"}
	}
	if max > 0 && utf8.RuneCountInString(q) > max {
		return "", &ValidationError{Field: "query", Message: "too long"}
	}
	return q, nil
}

// Generate asks the backend for a timeline and validates it. The whole call
// is retried per the retry policy; a payload is accepted or rejected as a
// unit. Failures after validation of the query are *GenerationFailure.
func (g *Generator) Generate(ctx context.Context, req Request) (*timeline.Response, error) {
	q, err := g.CheckQuery(req.Query)
	if err != nil {
		return nil, err
	}
	entity := strings.TrimSpace(req.Entity)

	prompt, err := render(g.prompts.timelineUser, promptData{
		Query:     q,
		Entity:    entity,
		Reference: g.reference(ctx, q),
	})
	if err != nil {
		return nil, &GenerationFailure{Err: err}
	}
	llmReq := &llm.Request{
		Messages:  []llm.Message{llm.System(g.prompts.Timeline.System), llm.User(prompt)},
		Schema:    &llm.Schema{Name: "timeline", Description: "A timeline of events", JSON: timeline.JSONSchema()},
		MaxTokens: g.maxTokens,
	}

	var result *timeline.Response
	attempts, err := g.retry.Execute(ctx, func(attempt int) error {
		resp, err := g.provider.Complete(ctx, llmReq)
		if err != nil {
			slog.Warn("timeline generation failed", "attempt", attempt, "error", err)
			return err
		}
		parsed, err := timeline.Validate(extractJSON(resp.Content))
		if err != nil {
			slog.Warn("timeline rejected", "attempt", attempt, "error", err)
			return err
		}
		result = parsed
		slog.Debug("timeline generated",
			"attempt", attempt,
			"events", len(parsed.Events),
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
		)
		return nil
	})
	if err != nil {
		return nil, &GenerationFailure{Attempts: attempts, Err: err}
	}

	if result.Entity == "" {
		result.Entity = entity
	}
	if result.Entity == "" {
		result.Entity = q
	}
	return result, nil
}

// reference fetches and trims the first URL in q. Any failure yields "".
func (g *Generator) reference(ctx context.Context, q string) string {
	if g.refs == nil {
		return ""
	}
	url := FindURL(q)
	if url == "" {
		return ""
	}
	md, err := g.refs.Fetch(ctx, url)
	if err != nil {
		slog.Warn("reference fetch failed", "url", url, "error", err)
		return ""
	}
	md, truncated := g.budget.Truncate(md, g.referenceTokens)
	slog.Info("reference loaded", "url", url, "tokens", g.budget.Count(md), "truncated", truncated)
	if truncated {
		md += "\n\n[Content truncated]"
	}
	return md
}

// extractJSON strips a markdown code fence some backends wrap structured
// output in.
func extractJSON(content string) []byte {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}

// IsFailure reports whether err is a generation failure, as opposed to a
// rejected query or cancellation.
func IsFailure(err error) bool {
	var gf *GenerationFailure
	return errors.As(err, &gf)
}
