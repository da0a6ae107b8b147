package service

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"fathom-mcp/internal/mcp/domain"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Fathom MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over HTTP/SSE for browser or remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport    TransportKind
	HTTPAddr     string // HTTP server address (e.g., "localhost:8080"). Defaults to localhost:8080 for HTTP transport.
	AllowedHosts []string
	AuthToken    string
	TLSConfig    *tls.Config
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
}

// New creates a configured MCP server with all tool handlers bound to the
// given upstream client.
func New(client domain.Client) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("upstream client is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	registerMeetingTools(mcpServer, client)
	registerTeamTools(mcpServer, client)
	registerWebhookTools(mcpServer, client)

	return &Server{mcpServer: mcpServer}, nil
}

// Run is the service entrypoint for MCP and blocks until context cancellation.
// It is intentionally transport-agnostic so startup can choose stdio for local
// tools and HTTP for browser/remote integrations.
func Run(ctx context.Context, client domain.Client, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportHTTP
	}

	server, err := New(client)
	if err != nil {
		return err
	}

	switch cfg.Transport {
	case TransportStdio:
		return server.serveWithTransport(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return server.serveHTTP(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// serveHTTP serves the MCP server over the session-managing HTTP transport.
// It keeps HTTP session/stateful transport concerns isolated from the same
// MCP domain handlers used by stdio.
func (s *Server) serveHTTP(ctx context.Context, cfg Config) error {
	transport := NewHTTPTransportWithServer(cfg.HTTPAddr, s.mcpServer)
	transport.applyConfig(cfg)
	return transport.Start(ctx)
}

// serveWithTransport starts the MCP server using the provided transport.
// Context cancellation is a normal exit, not an error.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
