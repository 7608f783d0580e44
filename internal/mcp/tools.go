package mcp

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/user/timelineai/internal/generator"
	"github.com/user/timelineai/internal/intent"
	"github.com/user/timelineai/internal/stream"
	"github.com/user/timelineai/internal/timeline"
)

type GenerateTimelineInput struct {
	Query string `json:"query" jsonschema:"a company, person, product or question"`
}

type GenerateTimelineOutput struct {
	Mode   intent.Kind      `json:"mode"`
	Entity string           `json:"entity,omitempty"`
	Events []timeline.Event `json:"events,omitempty"`
	Answer string           `json:"answer,omitempty"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "generate_timeline",
		Description: "Build a timeline of historical events and predictions for a subject, or answer a conversational question",
	}, s.handleGenerateTimeline)
}

func (s *Server) handleGenerateTimeline(ctx context.Context, req *sdk.CallToolRequest, input GenerateTimelineInput) (*sdk.CallToolResult, GenerateTimelineOutput, error) {
	result, err := stream.Drain(ctx, s.orchestrator, input.Query)
	if err != nil {
		var validErr *generator.ValidationError
		if errors.As(err, &validErr) {
			return nil, GenerateTimelineOutput{}, fmt.Errorf("query %s", validErr.Message)
		}
		if result.Error != "" {
			return nil, GenerateTimelineOutput{}, errors.New(result.Error)
		}
		return nil, GenerateTimelineOutput{}, err
	}

	return nil, GenerateTimelineOutput{
		Mode:   result.Mode,
		Entity: result.Entity,
		Events: result.Events,
		Answer: result.Answer,
	}, nil
}
