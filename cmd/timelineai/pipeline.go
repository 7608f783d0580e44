package main

import (
	"fmt"
	"log/slog"

	"github.com/user/timelineai/internal/config"
	"github.com/user/timelineai/internal/enrich"
	"github.com/user/timelineai/internal/generator"
	"github.com/user/timelineai/internal/intent"
	"github.com/user/timelineai/internal/stream"
	"github.com/user/timelineai/pkg/llm"
	"github.com/user/timelineai/pkg/llm/openai"
)

// buildOrchestrator wires the generation pipeline from cfg.
func buildOrchestrator(cfg *config.Config) (*stream.Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// LLM provider
	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	prompts, err := generator.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	budget, err := generator.NewBudget(cfg.LLM.Model)
	if err != nil {
		slog.Warn("tokenizer unavailable, estimating reference size", "error", err)
	}

	gen := generator.New(provider,
		generator.WithPrompts(prompts),
		generator.WithBudget(budget),
		generator.WithReferences(generator.NewWebReference()),
		generator.WithMaxQueryChars(cfg.LLM.MaxQueryChars),
		generator.WithReferenceTokens(cfg.LLM.ReferenceTokens),
		generator.WithMaxTokens(cfg.LLM.MaxTokens),
	)

	opts := []stream.Option{
		stream.WithTimeout(cfg.RequestTimeout()),
		stream.WithPrefetch(cfg.Brave.Prefetch),
	}
	if cfg.Brave.APIKey != "" {
		opts = append(opts, stream.WithEnricher(enrich.NewBrave(cfg.Brave.APIKey, cfg.Brave.RequestsPerSecond)))
	} else {
		slog.Warn("image enrichment disabled (no brave api key)")
	}

	return stream.NewOrchestrator(
		intent.New(provider, cfg.ClassifierTimeout()),
		gen,
		generator.NewAnswerer(provider, prompts),
		opts...,
	), nil
}
