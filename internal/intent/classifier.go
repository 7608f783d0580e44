// Package intent decides whether a query should produce a timeline or a
// conversational answer.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/user/timelineai/pkg/llm"
)

// Kind is the outcome of classification.
type Kind string

const (
	Timeline Kind = "timeline"
	Chat     Kind = "chat"
)

// Decision is what the classifier concluded about a query.
type Decision struct {
	Kind Kind `json:"intent"`
	// Entity is the canonical subject when the classifier could tell.
	Entity string `json:"entity,omitempty"`
	// Fallback is set when the decision came from the failure branch.
	Fallback bool `json:"-"`
}

// fallback is the decision used whenever classification cannot complete.
// It deliberately favours the richer timeline experience.
func fallback(reason string, err error) Decision {
	slog.Warn("intent classification failed, defaulting to timeline", "reason", reason, "error", err)
	return Decision{Kind: Timeline, Fallback: true}
}

// Classifier combines a keyword heuristic with an optional model call for
// queries the heuristic cannot settle.
type Classifier struct {
	provider llm.Provider
	timeout  time.Duration
}

// New returns a Classifier. provider may be nil, in which case ambiguous
// queries resolve to Timeline.
func New(provider llm.Provider, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Classifier{provider: provider, timeout: timeout}
}

// Classify never fails; errors resolve through the timeline fallback.
func (c *Classifier) Classify(ctx context.Context, query string) Decision {
	q := strings.TrimSpace(query)
	if q == "" {
		return fallback("empty query", nil)
	}

	if kind, ok := Heuristic(q); ok {
		return Decision{Kind: kind}
	}
	if c.provider == nil {
		return Decision{Kind: Timeline}
	}

	d, err := c.ask(ctx, q)
	if err != nil {
		return fallback("model call", err)
	}
	return d
}

const classifierPrompt = `You route queries for a service that draws timelines of companies, people, countries, technologies and events.
Answer "timeline" when the user wants the history, evolution, rise, fall, milestones or future of a subject.
Answer "chat" for greetings, small talk, questions about you, or anything that is not about a subject's history or future.
When the answer is "timeline", also give the subject's canonical name as "entity"; otherwise give an empty string.`

const decisionSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["intent", "entity"],
  "properties": {
    "intent": {"type": "string", "enum": ["timeline", "chat"]},
    "entity": {"type": "string"}
  }
}`

func (c *Classifier) ask(ctx context.Context, q string) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	zero := float32(0)
	resp, err := c.provider.Complete(ctx, &llm.Request{
		Messages:    []llm.Message{llm.System(classifierPrompt), llm.User(q)},
		Schema:      &llm.Schema{Name: "intent", JSON: json.RawMessage(decisionSchema)},
		MaxTokens:   100,
		Temperature: &zero,
	})
	if err != nil {
		return Decision{}, fmt.Errorf("classify: %w", err)
	}

	var d Decision
	if err := json.Unmarshal([]byte(resp.Content), &d); err != nil {
		return Decision{}, fmt.Errorf("parse decision: %w", err)
	}
	switch d.Kind {
	case Timeline:
		d.Entity = strings.TrimSpace(d.Entity)
	case Chat:
		d.Entity = ""
	default:
		return Decision{}, fmt.Errorf("unknown intent %q", d.Kind)
	}
	return d, nil
}

var (
	smallTalk = regexp.MustCompile(`^(hi|hello|hey|yo|hiya|howdy|thanks|thank you|thx|ok|okay|cool|bye|goodbye|good (morning|afternoon|evening|night))\b`)
	aboutBot  = regexp.MustCompile(`\b(how are you|who are you|what are you|what can you do|your name|are you (a )?(bot|ai|human))\b`)

	timelineCue = regexp.MustCompile(`\b(history|histories|timeline|evolution|evolve[ds]?|rise|fall|grow|grew|growth|journey|origins?|founded|became|become|story|milestones?|decline|future|predict(ion|ions)?|will .+ look like|by (19|20|21)\d\d|since (1[5-9]|20)\d\d|(19|20|21)\d\d)\b`)
)

// Heuristic settles queries with obvious cues. ok is false when the query
// needs a closer look.
func Heuristic(query string) (kind Kind, ok bool) {
	q := strings.ToLower(strings.TrimSpace(query))

	if timelineCue.MatchString(q) {
		return Timeline, true
	}
	if aboutBot.MatchString(q) {
		return Chat, true
	}
	if smallTalk.MatchString(q) && len(strings.Fields(q)) <= 6 {
		return Chat, true
	}
	return "", false
}
