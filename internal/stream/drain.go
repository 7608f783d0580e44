package stream

import (
	"context"

	"github.com/user/timelineai/internal/intent"
	"github.com/user/timelineai/internal/timeline"
)

// Result is a whole run collected into one value, for consumers that do
// not stream.
type Result struct {
	Mode   intent.Kind      `json:"mode"`
	Entity string           `json:"entity,omitempty"`
	Events []timeline.Event `json:"events,omitempty"`
	Answer string           `json:"answer,omitempty"`
	// Error is the user-facing failure text, if the run failed.
	Error string `json:"error,omitempty"`
}

// Timeline returns the collected events as a timeline response.
func (r *Result) Timeline() *timeline.Response {
	return &timeline.Response{Entity: r.Entity, Events: r.Events}
}

// collector folds a run's messages into a Result.
type collector struct {
	result Result
}

func (c *collector) Send(m Message) error {
	m.Accept(c)
	return nil
}

func (c *collector) VisitStart(Start)     {}
func (c *collector) VisitImage(Image)     {}
func (c *collector) VisitDone(Done)       {}
func (c *collector) VisitUnknown(Unknown) {}

func (c *collector) VisitIntent(m Intent) { c.result.Mode = m.Intent }

func (c *collector) VisitTimeline(m TimelineStart) { c.result.Entity = m.Entity }

func (c *collector) VisitEvent(m EventMessage) {
	c.result.Events = append(c.result.Events, m.Event)
}

func (c *collector) VisitChat(m Chat) { c.result.Answer = m.Message }

func (c *collector) VisitError(m Error) { c.result.Error = m.Message }

// Drain runs query through o and returns everything it produced. The error
// is the one Run returned; Result.Error carries the matching user-facing
// text.
func Drain(ctx context.Context, o *Orchestrator, query string) (*Result, error) {
	c := &collector{}
	err := o.Run(ctx, query, c)
	return &c.result, err
}
