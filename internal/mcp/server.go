// Package mcp serves the timeline pipeline as an MCP tool.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/user/timelineai/internal/stream"
)

type Server struct {
	orchestrator *stream.Orchestrator
	mcp          *sdk.Server
}

func NewServer(o *stream.Orchestrator, version string) *Server {
	s := &Server{
		orchestrator: o,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "timelineai",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
