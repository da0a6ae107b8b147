package service

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// handleStream handles GET /mcp for the streamable protocol's push stream.
// The stream carries server-initiated notifications; request/response pairs
// stay on the POST path.
func (t *HTTPTransport) handleStream(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !t.authorizeRequest(w, r) {
		return
	}

	sessionID := strings.TrimSpace(r.Header.Get("Mcp-Session-Id"))
	session, exists := t.lookupSession(sessionID)
	if !exists {
		http.Error(w, "Invalid or missing session ID", http.StatusBadRequest)
		return
	}
	if session.kind != sessionKindStreamable {
		writeSessionError(w, "Session belongs to the legacy transport")
		return
	}

	t.streamEvents(w, r, session, nil)
}

// handleLegacySSE handles GET /sse for the legacy protocol.
// Each GET creates a fresh legacy session and opens its event stream. The
// first event is the endpoint event naming the message-post URL for this
// session; every subsequent event carries a JSON-RPC message.
func (t *HTTPTransport) handleLegacySSE(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !t.authorizeRequest(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := t.createSession(sessionKindLegacy)
	t.ensureServerRunning(session)

	endpoint := "/messages?session=" + url.QueryEscape(session.id)
	t.streamEvents(w, r, session, func(w http.ResponseWriter, flush func()) {
		fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", endpoint)
		flush()
	})

	// The stream is the legacy session's lifeline: once the client drops it
	// there is no way to deliver responses, so the session goes with it.
	t.removeSession(session.id)
}

// streamEvents writes the session's outbound messages to an SSE stream until
// the client disconnects or the session closes.
func (t *HTTPTransport) streamEvents(w http.ResponseWriter, r *http.Request, session *httpSession, prelude func(http.ResponseWriter, func())) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flush := func() {
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
	flush()

	if prelude != nil {
		prelude(w, flush)
	}

	ctx := r.Context()
	t.touchSession(session.id)

	// Periodic touch keeps long-lived streams out of the cleanup sweep
	ticker := time.NewTicker(sseHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-session.conn.closed:
			return
		case <-ticker.C:
			t.touchSession(session.id)
		case msg := <-session.conn.notifyChan:
			t.touchSession(session.id)

			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Failed to marshal SSE message: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flush()
		}
	}
}
