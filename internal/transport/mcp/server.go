package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/service/memory"
	"github.com/sandevgo/recall/pkg/log"
)

// Server exposes the memory engine to bots over MCP. Every write, read,
// profile and session operation is one tool.
type Server struct {
	mem        *memory.Service
	profiles   *memory.Profiles
	sessions   core.SessionRepository
	listenAddr string

	mcpServer *server.MCPServer
	sseServer *server.SSEServer
}

func NewServer(
	mem *memory.Service,
	profiles *memory.Profiles,
	sessions core.SessionRepository,
	listenAddr string,
) *Server {
	s := &Server{
		mem:        mem,
		profiles:   profiles,
		sessions:   sessions,
		listenAddr: listenAddr,
	}

	s.mcpServer = server.NewMCPServer(
		core.RecallName,
		core.RecallVersion,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// Start serves MCP over SSE when a listen address is configured, otherwise
// over stdio.
func (s *Server) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	if s.listenAddr != "" {
		logger.Info().Str("addr", s.listenAddr).Msg("starting MCP server (sse)")
		s.sseServer = server.NewSSEServer(s.mcpServer)
		if err := s.sseServer.Start(s.listenAddr); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	logger.Info().Msg("starting MCP server (stdio)")
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.sseServer != nil {
		return s.sseServer.Shutdown(ctx)
	}
	return nil
}
