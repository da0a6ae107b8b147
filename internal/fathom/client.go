package fathom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// defaultBaseURL is the Fathom external API root.
	defaultBaseURL = "https://api.fathom.ai/external/v1"

	// defaultHTTPTimeout caps a single upstream request.
	defaultHTTPTimeout = 30 * time.Second
)

// Client issues calls against the Fathom API. It holds one set of credentials
// and one connection pool shared by all callers; it keeps no other state and
// is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client against the production Fathom API.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a custom API root.
// Callers use this for local stubs and tests.
// Outbound calls carry OTel spans and trace context whenever a TracerProvider
// is registered; without one the instrumentation is a no-op.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   defaultHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ListMeetings returns one page of meetings matching the filters.
// The include-transcript hint callers may hold is never forwarded upstream;
// the listing endpoint does not support inline transcript expansion, so
// transcripts are fetched separately via GetTranscript.
func (c *Client) ListMeetings(ctx context.Context, filters MeetingFilters) (*MeetingsPage, error) {
	query := url.Values{}
	for _, email := range filters.CalendarInvitees {
		query.Add("calendar_invitees[]", email)
	}
	for _, domain := range filters.InviteeDomains {
		query.Add("calendar_invitees_domains[]", domain)
	}
	for _, email := range filters.RecordedBy {
		query.Add("recorded_by[]", email)
	}
	for _, team := range filters.Teams {
		query.Add("teams[]", team)
	}
	if filters.CreatedAfter != "" {
		query.Set("created_after", filters.CreatedAfter)
	}
	if filters.CreatedBefore != "" {
		query.Set("created_before", filters.CreatedBefore)
	}
	if filters.MeetingType != "" && filters.MeetingType != "all" {
		query.Set("meeting_type", filters.MeetingType)
	}
	if filters.Cursor != "" {
		query.Set("cursor", filters.Cursor)
	}

	var page MeetingsPage
	if err := c.get(ctx, "/meetings", query, &page); err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return &page, nil
}

// transcriptPayload is the remote transcript representation.
type transcriptPayload struct {
	Items []TranscriptSegment `json:"items"`
}

// GetTranscript fetches a meeting transcript by recording ID and flattens it
// to one searchable text blob of "[timestamp] speaker: text" lines in source
// order. A remote not-found means the meeting is still processing and resolves
// to an empty string, not an error.
func (c *Client) GetTranscript(ctx context.Context, recordingID string) (string, error) {
	path := "/recordings/" + url.PathEscape(recordingID) + "/transcript"

	var payload transcriptPayload
	err := c.get(ctx, path, nil, &payload)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("get transcript %s: %w", recordingID, err)
	}

	var b strings.Builder
	for i, segment := range payload.Items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s: %s", segment.Timestamp, segment.Speaker.DisplayName, segment.Text)
	}
	return b.String(), nil
}

// ListTeams returns one page of teams.
func (c *Client) ListTeams(ctx context.Context, cursor string) (*TeamsPage, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var page TeamsPage
	if err := c.get(ctx, "/teams", query, &page); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return &page, nil
}

// ListTeamMembers returns one page of members for a team.
func (c *Client) ListTeamMembers(ctx context.Context, teamID, cursor string) (*TeamMembersPage, error) {
	query := url.Values{}
	query.Set("team_id", teamID)
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var page TeamMembersPage
	if err := c.get(ctx, "/team_members", query, &page); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return &page, nil
}

// CreateWebhook registers a webhook and returns its descriptor. The secret in
// the response is shown exactly once by the API; this client does not keep it.
func (c *Client) CreateWebhook(ctx context.Context, cfg WebhookConfig) (*Webhook, error) {
	var webhook Webhook
	if err := c.do(ctx, http.MethodPost, "/webhooks", nil, cfg, &webhook); err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}
	return &webhook, nil
}

// DeleteWebhook removes a webhook by ID. Deleting an unknown ID is an
// upstream-message error, not a crash.
func (c *Client) DeleteWebhook(ctx context.Context, webhookID string) error {
	path := "/webhooks/" + url.PathEscape(webhookID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete webhook %s: %w", webhookID, err)
	}
	return nil
}

// get issues a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// do issues one upstream request. Non-2xx responses are routed through the
// error taxonomy in errors.go; callers never see raw status codes.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call fathom: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
