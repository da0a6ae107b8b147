package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"fathom-mcp/internal/mcp/domain"
)

var listenTCP = net.Listen
var newTLSListener = tls.NewListener

const (
	// defaultChannelBufferSize is the buffer size for request and notification
	// channels. Some buffering smooths bursts before blocking.
	defaultChannelBufferSize = 10

	// defaultRequestTimeout is the maximum time to wait for a JSON-RPC
	// response. It sits above the longest tool-handler budget so a
	// transcript-heavy batch call finishes on the POST instead of being cut
	// off here.
	defaultRequestTimeout = domain.BatchCallTimeout + 30*time.Second

	// defaultShutdownTimeout is the maximum time to wait for graceful HTTP
	// server shutdown. It exceeds defaultRequestTimeout so in-flight requests
	// can finish.
	defaultShutdownTimeout = defaultRequestTimeout + 5*time.Second

	// sessionCleanupInterval is how often the cleanup goroutine runs to remove
	// expired sessions.
	sessionCleanupInterval = 5 * time.Minute

	// sessionExpirationTime is how long a session can be inactive before being
	// cleaned up.
	sessionExpirationTime = 1 * time.Hour

	// sseHeartbeatInterval is how often to update lastUsed for active SSE
	// connections.
	sseHeartbeatInterval = 30 * time.Second

	// defaultSessionReadyTimeout bounds how long we wait for a session
	// connection to become ready before request handling continues.
	defaultSessionReadyTimeout = 100 * time.Millisecond
)

// HTTPTransport implements mcp.Transport for HTTP-based MCP communication.
// It serves two wire protocols from one session table: the stateful streamable
// protocol on /mcp and the legacy SSE protocol on /sse plus /messages. The
// implementation is intentionally explicit about session lifecycle and cleanup
// so long-lived clients cannot leak resources even when the upstream API stops
// responding.
type HTTPTransport struct {
	addr         string
	allowedHosts map[string]struct{}
	server       *mcp.Server
	sessions     map[string]*httpSession
	sessionsMu   sync.RWMutex
	httpServer   *http.Server
	serverCtx    context.Context
	serverCancel context.CancelFunc
	serverOnceMu sync.Mutex
	serverOnce   map[string]*sync.Once
	apiToken     string
	tlsConfig    *tls.Config

	serverReadyTimeout time.Duration
	readyAfter         func(time.Duration) <-chan time.Time
}

func (t *HTTPTransport) applyConfig(cfg Config) {
	if t == nil {
		return
	}
	t.allowedHosts = parseAllowedHosts(cfg.AllowedHosts)
	t.apiToken = strings.TrimSpace(cfg.AuthToken)
	t.tlsConfig = cfg.TLSConfig
}

// sessionKind identifies which wire protocol a session was created through.
// A session stays bound to its protocol for its whole lifetime.
type sessionKind int

const (
	sessionKindStreamable sessionKind = iota
	sessionKindLegacy
)

func (k sessionKind) String() string {
	switch k {
	case sessionKindStreamable:
		return "streamable"
	case sessionKindLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// httpSession maintains state for a single MCP session in memory.
// It tracks liveness and the active connection so cleanup and SSE delivery
// can be scoped to one client session.
type httpSession struct {
	id        string
	kind      sessionKind
	conn      *httpConnection
	createdAt time.Time
	lastUsed  time.Time
}

// NewHTTPTransport creates a new HTTP transport that will serve MCP over HTTP.
// It defaults to localhost-only binding to keep the default footprint
// constrained to local development unless explicit host configuration broadens
// access.
func NewHTTPTransport(addr string) *HTTPTransport {
	if addr == "" {
		addr = "localhost:8080"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &HTTPTransport{
		addr:               addr,
		allowedHosts:       map[string]struct{}{},
		sessions:           make(map[string]*httpSession),
		serverCtx:          ctx,
		serverCancel:       cancel,
		serverOnce:         make(map[string]*sync.Once),
		serverReadyTimeout: defaultSessionReadyTimeout,
		readyAfter:         time.After,
	}
}

// NewHTTPTransportWithServer creates a new HTTP transport with a reference to
// the MCP server. Callers use this to inject a preconfigured MCP runtime,
// which keeps tests and process lifecycle simpler.
func NewHTTPTransportWithServer(addr string, server *mcp.Server) *HTTPTransport {
	transport := NewHTTPTransport(addr)
	transport.server = server
	return transport
}

// Start starts the HTTP server and blocks until context cancellation or a
// listener error. The same server instance multiplexes both wire protocols
// while sharing host validation, auth, and session lifecycle enforcement.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.serverCtx, t.serverCancel = context.WithCancel(ctx)

	go t.cleanupSessions(ctx)

	mux := http.NewServeMux()

	// /mcp carries the streamable protocol: POST for messages, GET for the
	// push stream, DELETE for explicit session teardown.
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			t.handleMessages(w, r)
		case http.MethodGet:
			t.handleStream(w, r)
		case http.MethodDelete:
			t.handleDelete(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// /sse and /messages carry the legacy protocol.
	mux.HandleFunc("/sse", t.handleLegacySSE)
	mux.HandleFunc("/messages", t.handleLegacyMessages)

	// GET /mcp/health - Health check endpoint
	mux.HandleFunc("/mcp/health", t.handleHealth)

	t.httpServer = &http.Server{
		Addr:    t.addr,
		Handler: mux,
	}

	log.Printf("Starting MCP HTTP server on %s", t.addr)

	errChan := make(chan error, 1)
	go func() {
		listener, err := listenTCP("tcp", t.addr)
		if err != nil {
			errChan <- err
			return
		}

		serverListener := listener
		if t.tlsConfig != nil {
			serverListener = newTLSListener(listener, t.tlsConfig)
		}

		if err := t.httpServer.Serve(serverListener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("Shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := t.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		t.closeAllSessions()
		if t.serverCancel != nil {
			t.serverCancel()
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}

// closeAllSessions closes every live session connection. Close errors are
// logged, not returned: shutdown must make progress past a wedged session.
func (t *HTTPTransport) closeAllSessions() {
	t.sessionsMu.Lock()
	defer t.sessionsMu.Unlock()

	for id, session := range t.sessions {
		if err := session.conn.Close(); err != nil {
			log.Printf("Failed to close session %s during shutdown: %v", id, err)
		}
		delete(t.sessions, id)
	}
	t.serverOnceMu.Lock()
	t.serverOnce = make(map[string]*sync.Once)
	t.serverOnceMu.Unlock()
}
