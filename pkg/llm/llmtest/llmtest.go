// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/user/timelineai/pkg/llm"
)

// Result is one scripted reply.
type Result struct {
	Content string
	Err     error
}

// Provider replays scripted results in order, repeating the last one once
// the script runs out. It records every request it receives.
type Provider struct {
	mu       sync.Mutex
	script   []Result
	requests []*llm.Request

	// Block, when set, makes Complete wait for ctx to be done or the
	// channel to close before replying.
	Block chan struct{}
}

// Script returns a Provider replaying results.
func Script(results ...Result) *Provider {
	return &Provider{script: results}
}

// Reply returns a Provider that always answers content.
func Reply(content string) *Provider {
	return Script(Result{Content: content})
}

// Fail returns a Provider that always fails with err.
func Fail(err error) *Provider {
	return Script(Result{Err: err})
}

func (p *Provider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	n := len(p.requests)
	p.requests = append(p.requests, req)
	block := p.Block
	var r Result
	if len(p.script) > 0 {
		r = p.script[min(n, len(p.script)-1)]
	}
	p.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-block:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &llm.Response{
		Content:      r.Content,
		FinishReason: "stop",
		Usage:        llm.Usage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
	}, nil
}

// Calls returns how many requests the provider has received.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns the received requests in order.
func (p *Provider) Requests() []*llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*llm.Request(nil), p.requests...)
}
