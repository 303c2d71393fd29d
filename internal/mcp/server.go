// ABOUTME: MCP server initialization and configuration for curate.
// ABOUTME: Sets up server with playbook tools for AI agent access.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/curate/internal/dedup"
	"github.com/2389-research/curate/internal/embeddings"
	"github.com/2389-research/curate/internal/storage"
)

// Server wraps the MCP server with playbook storage and the dedup engine.
type Server struct {
	mcp    *gomcp.Server
	store  storage.PlaybookStore
	engine *dedup.Engine
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithEngine replaces the default dedup engine.
func WithEngine(e *dedup.Engine) ServerOption {
	return func(s *Server) {
		s.engine = e
	}
}

// NewServer creates an MCP server for the given playbook store. A nil
// provider disables semantic deduplication.
func NewServer(store storage.PlaybookStore, provider embeddings.Provider, opts ...ServerOption) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("playbook store is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "curate",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:   mcpServer,
		store: store,
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = dedup.New(provider)
	}

	s.registerPlaybookTools()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
