// Package mcp exposes extraction as a tool over the Model Context Protocol,
// served on stdio.
package mcp

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
)

// extractorCacheSize bounds how many compiled queries one server keeps warm.
const extractorCacheSize = 128

// Server manages the MCP server lifecycle.
type Server struct {
	mcp   *server.MCPServer
	cache *ExtractorCache
}

// NewServer creates an MCP server with the treegrep_extract tool registered.
func NewServer(version string) (*Server, error) {
	cache, err := NewExtractorCache(extractorCacheSize)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		"treegrep",
		version,
		server.WithToolCapabilities(true),
	)
	AddExtractTool(mcpServer, cache)

	return &Server{mcp: mcpServer, cache: cache}, nil
}

// Serve runs the server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer s.cache.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ServeStdio(s.mcp)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received %v, shutting down", sig)
		return nil
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
