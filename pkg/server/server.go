// Package server provides the MCP server implementation for the Zurich open data integration.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/schulamt-zurich/zurichmcp/pkg/config"
	"github.com/schulamt-zurich/zurichmcp/pkg/tools"
	"github.com/schulamt-zurich/zurichmcp/pkg/tools/prompts"
	"github.com/schulamt-zurich/zurichmcp/pkg/version"
	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

const (
	// ServerName is the name of the MCP server
	ServerName = "zurich-opendata-mcp"

	// shutdownTimeout bounds the graceful shutdown of the SSE listener.
	shutdownTimeout = 10 * time.Second
)

// Instructions describe the server to the assistant.
const Instructions = "MCP Server für Open Data der Stadt Zürich. " +
	"Bietet Zugriff auf 900+ Datensätze via CKAN API (data.stadt-zuerich.ch), " +
	"Geodaten via WFS Geoportal (Schulanlagen, Quartiere, Spielplätze etc.), " +
	"Parlamentsinformationen des Gemeinderats (Paris API), " +
	"Tourismusdaten (Attraktionen, Restaurants, Hotels via Zürich Tourismus), " +
	"SPARQL Linked Data (Statistiken der Stadt Zürich), " +
	"und Echtzeit-Parkplatzdaten (ParkenDD). " +
	"Alle Datensätze unter CC0-Lizenz frei nutzbar. " +
	"Kategorien: Bildung, Bevölkerung, Mobilität, Umwelt, Finanzen, u.v.m."

// Server encapsulates the MCP server with the Zurich open data tools.
type Server struct {
	srv    *server.MCPServer
	cfg    *config.Config
	logger *slog.Logger
}

// NewServer creates a new Zurich open data MCP server with all tools, resources and prompts registered.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("initializing Zurich open data MCP server",
		"name", ServerName,
		"version", version.BuildVersion,
		"transport", cfg.Server.Transport)

	srv := server.NewMCPServer(
		ServerName,
		version.BuildVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithInstructions(Instructions),
		server.WithToolHandlerMiddleware(requestLogging(logger)),
		server.WithRecovery(),
	)

	client := zurich.NewClient(cfg.ClientOptions(logger.With("component", "zurich")))

	// Create tool registry and register all tools and resources
	registry := tools.NewRegistry(logger.With("component", "tools"), client)
	registry.RegisterTools(srv)
	registry.RegisterResources(srv)
	prompts.RegisterPrompts(srv)

	return &Server{srv: srv, cfg: cfg, logger: logger}, nil
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.srv
}

// Run serves the configured transport until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Server.Transport {
	case config.TransportSSE:
		return s.ServeSSE(ctx)
	default:
		return s.ServeStdio(ctx, os.Stdin, os.Stdout)
	}
}

// ServeStdio serves JSON-RPC over the given reader and writer. It returns nil
// when the input ends or ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("serving MCP over stdio")
	stdio := server.NewStdioServer(s.srv)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// ServeSSE serves the SSE transport on the configured address and shuts it down
// gracefully once ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context) error {
	addr := s.cfg.Server.Addr()
	sse := server.NewSSEServer(s.srv, server.WithBaseURL(s.cfg.Server.PublicURL()))
	s.logger.Info("serving MCP over SSE", "addr", addr, "base_url", s.cfg.Server.PublicURL())

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("sse transport: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down SSE server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("sse shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("sse transport: %w", err)
	}
	return nil
}
