// Package mcpserver exposes the engine's public API (§6) as an MCP
// stdio server, grounded on the teacher's internal/mcp/server.go:
// a thin struct owning the engine and the mark3labs/mcp-go server,
// serving on stdio with graceful shutdown on SIGINT/SIGTERM.
package mcpserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/codewell/rre/engine"
)

// Server manages the MCP server lifecycle over a single engine.
type Server struct {
	eng *engine.Engine
	mcp *server.MCPServer
}

// New creates an MCP server exposing query/warm_index/rebuild_index
// tools (§6) over eng, rooted at root.
func New(eng *engine.Engine, root string) *Server {
	mcpServer := server.NewMCPServer(
		"rre-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddQueryTool(mcpServer, eng)
	AddWarmIndexTool(mcpServer, eng, root)
	AddRebuildIndexTool(mcpServer, eng)

	return &Server{eng: eng, mcp: mcpServer}
}

// Serve starts the MCP server on stdio and blocks until shutdown
// (interrupt signal, server error, or ctx cancellation).
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintln(os.Stderr, "rre-mcp: serving on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("mcp server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		fmt.Fprintln(os.Stderr, "rre-mcp: shutdown signal received")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the underlying engine's resources.
func (s *Server) Close() {
	s.eng.Shutdown()
}
