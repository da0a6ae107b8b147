package domain

import (
	"context"

	"fathom-mcp/internal/fathom"
)

// Client is the subset of the Fathom API that tool handlers depend on.
// Handlers accept this interface so tests can substitute fakes.
type Client interface {
	ListMeetings(ctx context.Context, filters fathom.MeetingFilters) (*fathom.MeetingsPage, error)
	GetTranscript(ctx context.Context, recordingID string) (string, error)
	ListTeams(ctx context.Context, cursor string) (*fathom.TeamsPage, error)
	ListTeamMembers(ctx context.Context, teamID, cursor string) (*fathom.TeamMembersPage, error)
	CreateWebhook(ctx context.Context, cfg fathom.WebhookConfig) (*fathom.Webhook, error)
	DeleteWebhook(ctx context.Context, webhookID string) error
}

var _ Client = (*fathom.Client)(nil)
