package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Connect implements mcp.Transport.Connect.
// For HTTP transport, this creates a new streamable session and connection
// that will be used by the MCP server's Run method.
func (t *HTTPTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	session := t.createSession(sessionKindStreamable)
	return session.conn, nil
}

// createSession registers a fresh session bound to one wire protocol.
// Each call creates a fresh session so one client identity can be tracked
// across multiple request/notification streams without cross-session
// contamination.
func (t *HTTPTransport) createSession(kind sessionKind) *httpSession {
	sessionID := uuid.NewString()

	conn := &httpConnection{
		sessionID:   sessionID,
		reqChan:     make(chan jsonrpc.Message, defaultChannelBufferSize),
		notifyChan:  make(chan jsonrpc.Message, defaultChannelBufferSize),
		closed:      make(chan struct{}),
		ready:       make(chan struct{}, 1), // Buffered so signal doesn't block
		pendingReqs: make(map[jsonrpc.ID]chan jsonrpc.Message),
	}

	session := &httpSession{
		id:        sessionID,
		kind:      kind,
		conn:      conn,
		createdAt: time.Now(),
		lastUsed:  time.Now(),
	}

	t.sessionsMu.Lock()
	t.sessions[sessionID] = session
	t.sessionsMu.Unlock()

	return session
}

// lookupSession returns the live session for an ID, if any.
func (t *HTTPTransport) lookupSession(sessionID string) (*httpSession, bool) {
	if sessionID == "" {
		return nil, false
	}
	t.sessionsMu.RLock()
	session, exists := t.sessions[sessionID]
	t.sessionsMu.RUnlock()
	if !exists || session == nil {
		return nil, false
	}
	return session, true
}

// removeSession closes and forgets a session. A removed ID stays invalid for
// the rest of the process lifetime; IDs are never reused.
func (t *HTTPTransport) removeSession(sessionID string) {
	t.sessionsMu.Lock()
	session, exists := t.sessions[sessionID]
	if exists {
		delete(t.sessions, sessionID)
	}
	t.sessionsMu.Unlock()

	t.serverOnceMu.Lock()
	delete(t.serverOnce, sessionID)
	t.serverOnceMu.Unlock()

	if exists && session != nil {
		session.conn.Close()
	}
}

// touchSession refreshes the liveness timestamp for a session.
func (t *HTTPTransport) touchSession(sessionID string) {
	t.sessionsMu.Lock()
	if session, ok := t.sessions[sessionID]; ok && session != nil {
		session.lastUsed = time.Now()
	}
	t.sessionsMu.Unlock()
}

func (t *HTTPTransport) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sessionsMu.Lock()
			expirationTime := time.Now().Add(-sessionExpirationTime)

			for id, session := range t.sessions {
				if session.lastUsed.Before(expirationTime) {
					session.conn.Close()
					delete(t.sessions, id)
					t.serverOnceMu.Lock()
					delete(t.serverOnce, id)
					t.serverOnceMu.Unlock()
				}
			}
			t.sessionsMu.Unlock()
		}
	}
}

func (t *HTTPTransport) ensureServerRunning(session *httpSession) {
	if t.server == nil {
		return
	}

	// Get or create sync.Once for this session so server.Connect runs once
	t.serverOnceMu.Lock()
	once, exists := t.serverOnce[session.id]
	if !exists {
		once = &sync.Once{}
		t.serverOnce[session.id] = once
	}
	t.serverOnceMu.Unlock()

	// Single-use transport that hands Server.Connect this session's connection
	transport := &sessionTransport{conn: session.conn}

	once.Do(func() {
		go func() {
			// Bind the MCP server to this session's connection using the
			// long-lived server context. The server reads from reqChan and
			// writes responses and notifications back through the connection.
			serverSession, err := t.server.Connect(t.serverCtx, transport, nil)
			if err != nil {
				log.Printf("Failed to connect MCP server session %s: %v", session.id, err)
				return
			}
			// Block until the client disconnects or the context is cancelled
			_ = serverSession.Wait()
		}()
	})

	// Wait briefly for the connection to be ready (Server.Connect has started
	// reading). If readiness hasn't happened yet it will happen when the first
	// message is sent and Read() is called, so a short timeout is safe.
	select {
	case <-session.conn.ready:
	case <-t.readyAfterOrDefault()(t.serverReadyTimeoutOrDefault()):
	case <-t.serverCtx.Done():
		return
	}
}

func (t *HTTPTransport) readyAfterOrDefault() func(time.Duration) <-chan time.Time {
	if t == nil || t.readyAfter == nil {
		return time.After
	}
	return t.readyAfter
}

func (t *HTTPTransport) serverReadyTimeoutOrDefault() time.Duration {
	if t == nil || t.serverReadyTimeout <= 0 {
		return defaultSessionReadyTimeout
	}
	return t.serverReadyTimeout
}

// sessionTransport is a transport that returns a specific connection.
// This allows binding the MCP server to a pre-existing connection.
type sessionTransport struct {
	conn mcp.Connection
}

// Connect implements mcp.Transport.Connect.
// It returns the pre-configured connection for this session.
func (st *sessionTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	return st.conn, nil
}
