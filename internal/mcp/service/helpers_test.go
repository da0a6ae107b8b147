package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fathom-mcp/internal/fathom"
	"fathom-mcp/internal/mcp/domain"
)

// fakeUpstream implements domain.Client with empty results so transport tests
// can exercise the full MCP runtime without network access.
type fakeUpstream struct{}

func (fakeUpstream) ListMeetings(context.Context, fathom.MeetingFilters) (*fathom.MeetingsPage, error) {
	return &fathom.MeetingsPage{}, nil
}

func (fakeUpstream) GetTranscript(context.Context, string) (string, error) { return "", nil }

func (fakeUpstream) ListTeams(context.Context, string) (*fathom.TeamsPage, error) {
	return &fathom.TeamsPage{}, nil
}

func (fakeUpstream) ListTeamMembers(context.Context, string, string) (*fathom.TeamMembersPage, error) {
	return &fathom.TeamMembersPage{}, nil
}

func (fakeUpstream) CreateWebhook(context.Context, fathom.WebhookConfig) (*fathom.Webhook, error) {
	return &fathom.Webhook{ID: "wh-test", Secret: "s"}, nil
}

func (fakeUpstream) DeleteWebhook(context.Context, string) error { return nil }

var _ domain.Client = fakeUpstream{}

// newTestTransport builds an HTTP transport bound to a real MCP server with
// fake upstream data.
func newTestTransport(t *testing.T) *HTTPTransport {
	t.Helper()
	server, err := New(fakeUpstream{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	transport := NewHTTPTransportWithServer("localhost:8080", server.mcpServer)
	t.Cleanup(func() {
		transport.closeAllSessions()
		if transport.serverCancel != nil {
			transport.serverCancel()
		}
	})
	return transport
}

func setLocalhostHeaders(req *http.Request) {
	req.Host = "localhost:8080"
}

const initializeBody = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test-client","version":"0.0.1"}}}`

// postMCP posts one JSON-RPC body to the streamable endpoint.
func postMCP(transport *HTTPTransport, sessionID, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	setLocalhostHeaders(req)
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	transport.handleMessages(w, req)
	return w
}

// initializeSession runs the initialize handshake and returns the session ID.
func initializeSession(t *testing.T, transport *HTTPTransport) string {
	t.Helper()
	w := postMCP(transport, "", initializeBody)
	if w.Code != http.StatusOK {
		t.Fatalf("initialize returned %d: %s", w.Code, w.Body.String())
	}
	sessionID := w.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize response is missing Mcp-Session-Id")
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal initialize response: %v", err)
	}
	if _, ok := resp["result"]; !ok {
		t.Fatalf("initialize response has no result: %v", resp)
	}
	return sessionID
}

func TestIsLoopbackHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"127.0.0.1", true},
		{"::1", true},
		{" localhost ", true},
		{"example.com", false},
		{"127.0.0.2", false},
		{"", false},
		{"local", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := isLoopbackHost(tt.host); got != tt.want {
				t.Errorf("isLoopbackHost(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOk bool
	}{
		{"localhost:8080", "localhost", true},
		{"example.com:443", "example.com", true},
		{"[::1]:8080", "::1", true},
		{"[::1]", "::1", true},
		{"::1", "::1", true},
		{"example.com", "example.com", true},
		{"", "", false},
		{"  ", "", false},
		{"[::1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := normalizeHost(tt.input)
			if ok != tt.wantOk {
				t.Errorf("normalizeHost(%q) ok = %v, want %v", tt.input, ok, tt.wantOk)
			}
			if got != tt.want {
				t.Errorf("normalizeHost(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateLocalRequest(t *testing.T) {
	t.Run("nil request", func(t *testing.T) {
		transport := NewHTTPTransport("localhost:8080")
		if err := transport.validateLocalRequest(nil); err == nil {
			t.Fatal("expected error for nil request")
		}
	})

	t.Run("valid localhost no origin", func(t *testing.T) {
		transport := NewHTTPTransport("localhost:8080")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "localhost:8080"
		if err := transport.validateLocalRequest(req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("valid localhost with origin", func(t *testing.T) {
		transport := NewHTTPTransport("localhost:8080")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "localhost:8080"
		req.Header.Set("Origin", "http://localhost:8080")
		if err := transport.validateLocalRequest(req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("invalid host", func(t *testing.T) {
		transport := NewHTTPTransport("localhost:8080")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "evil.com"
		if err := transport.validateLocalRequest(req); err == nil {
			t.Fatal("expected error for invalid host")
		}
	})

	t.Run("invalid origin", func(t *testing.T) {
		transport := NewHTTPTransport("localhost:8080")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "localhost:8080"
		req.Header.Set("Origin", "http://evil.com")
		if err := transport.validateLocalRequest(req); err == nil {
			t.Fatal("expected error for invalid origin")
		}
	})

	t.Run("configured host allowed", func(t *testing.T) {
		transport := NewHTTPTransport("localhost:8080")
		transport.applyConfig(Config{AllowedHosts: []string{"Example.com"}})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "example.com:443"
		if err := transport.validateLocalRequest(req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestAuthorizeRequest(t *testing.T) {
	t.Run("no token configured", func(t *testing.T) {
		transport := NewHTTPTransport("localhost:8080")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		if !transport.authorizeRequest(w, req) {
			t.Error("expected authorized when no token is configured")
		}
	})

	t.Run("missing bearer token", func(t *testing.T) {
		transport := NewHTTPTransport("localhost:8080")
		transport.applyConfig(Config{AuthToken: "secret"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		if transport.authorizeRequest(w, req) {
			t.Error("expected unauthorized without bearer token")
		}
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		transport := NewHTTPTransport("localhost:8080")
		transport.applyConfig(Config{AuthToken: "secret"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		if transport.authorizeRequest(w, req) {
			t.Error("expected unauthorized for wrong token")
		}
	})

	t.Run("correct token", func(t *testing.T) {
		transport := NewHTTPTransport("localhost:8080")
		transport.applyConfig(Config{AuthToken: "secret"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer secret")
		if !transport.authorizeRequest(w, req) {
			t.Error("expected authorized with correct token")
		}
	})
}

func TestWriteSessionError(t *testing.T) {
	w := httptest.NewRecorder()
	writeSessionError(w, "test error")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["jsonrpc"] != "2.0" {
		t.Errorf("expected jsonrpc 2.0, got %v", body["jsonrpc"])
	}
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatal("expected error object in response")
	}
	if errObj["message"] != "test error" {
		t.Errorf("expected message %q, got %v", "test error", errObj["message"])
	}
}

func TestHandleHealth(t *testing.T) {
	transport := NewHTTPTransport("localhost:8080")

	t.Run("returns service identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/mcp/health", nil)
		setLocalhostHeaders(req)
		transport.handleHealth(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var payload healthPayload
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if payload.Status != "ok" || payload.Name != serverName || payload.Version != serverVersion {
			t.Errorf("unexpected payload: %+v", payload)
		}
	})

	t.Run("rejects POST", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mcp/health", nil)
		setLocalhostHeaders(req)
		transport.handleHealth(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", w.Code)
		}
	})
}
