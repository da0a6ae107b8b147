package service

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// handleMessages handles POST /mcp for the streamable protocol.
// It is the write path for all streamable request/notification traffic and
// performs per-session validation before routing into the MCP runtime. Only
// an initialize request may create a session; every other method must present
// a live session ID.
func (t *HTTPTransport) handleMessages(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !t.authorizeRequest(w, r) {
		return
	}

	msg, ok := t.decodeMessage(w, r)
	if !ok {
		return
	}

	isInitialize := false
	if req, reqOK := msg.(*jsonrpc.Request); reqOK {
		isInitialize = req.Method == "initialize"
	}

	sessionID := strings.TrimSpace(r.Header.Get("Mcp-Session-Id"))
	session, exists := t.lookupSession(sessionID)
	if exists && session.kind != sessionKindStreamable {
		writeSessionError(w, "Session belongs to the legacy transport")
		return
	}
	if !exists {
		if sessionID != "" || !isInitialize {
			// Unknown, expired, or deleted IDs are never resurrected, and a
			// session can only ever start with initialize.
			writeSessionError(w, "Invalid or missing session ID")
			return
		}
		session = t.createSession(sessionKindStreamable)
		w.Header().Set("Mcp-Session-Id", session.id)
	}

	t.touchSession(session.id)
	t.ensureServerRunning(session)

	switch v := msg.(type) {
	case *jsonrpc.Request:
		if v.ID == (jsonrpc.ID{}) {
			// Notification: fire and forget
			if !t.enqueueMessage(w, r, session, msg) {
				return
			}
			w.WriteHeader(http.StatusAccepted)
			return
		}
		t.dispatchRequest(w, r, session, v)
	case *jsonrpc.Response:
		http.Error(w, "Invalid message type: response", http.StatusBadRequest)
	default:
		http.Error(w, "Invalid message type", http.StatusBadRequest)
	}
}

// handleDelete handles DELETE /mcp for explicit streamable session teardown.
// The deleted ID is invalid from then on.
func (t *HTTPTransport) handleDelete(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Invalid or missing session ID", http.StatusNotFound)
		return
	}
	if session.kind != sessionKindStreamable {
		writeSessionError(w, "Session belongs to the legacy transport")
		return
	}

	t.removeSession(session.id)
	w.WriteHeader(http.StatusNoContent)
}

// handleLegacyMessages handles POST /messages for the legacy protocol.
// The session is addressed by query parameter, the body is accepted with 202,
// and any response travels back over the session's event stream rather than
// this POST's body.
func (t *HTTPTransport) handleLegacyMessages(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !t.authorizeRequest(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	session, exists := t.lookupSession(sessionID)
	if !exists {
		writeSessionError(w, "Invalid or missing session ID")
		return
	}
	if session.kind != sessionKindLegacy {
		writeSessionError(w, "Session belongs to the streamable transport")
		return
	}

	msg, ok := t.decodeMessage(w, r)
	if !ok {
		return
	}

	if _, isResp := msg.(*jsonrpc.Response); isResp {
		http.Error(w, "Invalid message type: response", http.StatusBadRequest)
		return
	}

	t.touchSession(session.id)
	t.ensureServerRunning(session)

	// No pending-request registration here: with nothing waiting on the ID,
	// the connection routes the response to notifyChan and the event stream
	// delivers it.
	if !t.enqueueMessage(w, r, session, msg) {
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// decodeMessage reads and decodes one JSON-RPC message from the request body.
func (t *HTTPTransport) decodeMessage(w http.ResponseWriter, r *http.Request) (jsonrpc.Message, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Failed to read request body: %v", err)
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return nil, false
	}
	defer r.Body.Close()

	msg, err := jsonrpc.DecodeMessage(body)
	if err != nil {
		log.Printf("Invalid JSON-RPC message: %v", err)
		http.Error(w, "Invalid JSON-RPC message", http.StatusBadRequest)
		return nil, false
	}
	return msg, true
}

// enqueueMessage pushes a message onto the session's request channel.
// A session closed between lookup and enqueue is reported rather than raced:
// the channel itself stays open, so the worst outcome is a dropped message.
func (t *HTTPTransport) enqueueMessage(w http.ResponseWriter, r *http.Request, session *httpSession, msg jsonrpc.Message) bool {
	select {
	case <-session.conn.closed:
		writeSessionError(w, "Session is closed")
		return false
	default:
	}

	select {
	case session.conn.reqChan <- msg:
		return true
	case <-session.conn.closed:
		writeSessionError(w, "Session is closed")
		return false
	case <-r.Context().Done():
		http.Error(w, "Request cancelled", http.StatusRequestTimeout)
		return false
	}
}

// dispatchRequest sends a request into the MCP runtime and writes the matching
// response back on this POST. The pending-request entry is keyed by JSON-RPC
// ID so concurrent requests on one session cannot steal each other's replies.
func (t *HTTPTransport) dispatchRequest(w http.ResponseWriter, r *http.Request, session *httpSession, req *jsonrpc.Request) {
	respChan := make(chan jsonrpc.Message, 1)
	session.conn.pendingMu.Lock()
	if session.conn.pendingReqs == nil {
		session.conn.pendingMu.Unlock()
		writeSessionError(w, "Session is closed")
		return
	}
	session.conn.pendingReqs[req.ID] = respChan
	session.conn.pendingMu.Unlock()

	clearPending := func() {
		session.conn.pendingMu.Lock()
		if session.conn.pendingReqs != nil {
			delete(session.conn.pendingReqs, req.ID)
		}
		session.conn.pendingMu.Unlock()
	}

	select {
	case session.conn.reqChan <- jsonrpc.Message(req):
	case <-session.conn.closed:
		clearPending()
		writeSessionError(w, "Session is closed")
		return
	case <-r.Context().Done():
		clearPending()
		http.Error(w, "Request cancelled", http.StatusRequestTimeout)
		return
	}

	select {
	case resp := <-respChan:
		clearPending()
		data, err := jsonrpc.EncodeMessage(resp)
		if err != nil {
			log.Printf("Failed to encode response: %v", err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			log.Printf("Failed to write response: %v", err)
		}
	case <-session.conn.closed:
		clearPending()
		writeSessionError(w, "Session is closed")
	case <-r.Context().Done():
		clearPending()
		http.Error(w, "Request cancelled", http.StatusRequestTimeout)
	case <-time.After(defaultRequestTimeout):
		clearPending()
		http.Error(w, "Request timeout", http.StatusRequestTimeout)
	}
}

func writeSessionError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    -32000,
			"message": message,
		},
		"id": nil,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		_, _ = w.Write([]byte("{\"jsonrpc\":\"2.0\",\"error\":{\"code\":-32000,\"message\":\"Session error\"},\"id\":null}"))
		return
	}
	_, _ = w.Write(data)
}
