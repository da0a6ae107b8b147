package domain

import (
	"context"
	"fmt"
	"sync"

	"fathom-mcp/internal/fathom"
)

// fakeClient implements Client for handler tests.
type fakeClient struct {
	mu sync.Mutex

	meetings *fathom.MeetingsPage
	listErr  error

	transcripts     map[string]string
	transcriptErrs  map[string]error
	transcriptCalls []string

	teams      *fathom.TeamsPage
	teamsErr   error
	members    *fathom.TeamMembersPage
	membersErr error

	webhook    *fathom.Webhook
	createErr  error
	deleteErr  error
	deletedIDs []string

	lastFilters fathom.MeetingFilters
}

func (f *fakeClient) ListMeetings(_ context.Context, filters fathom.MeetingFilters) (*fathom.MeetingsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilters = filters
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.meetings == nil {
		return &fathom.MeetingsPage{}, nil
	}
	return f.meetings, nil
}

func (f *fakeClient) GetTranscript(_ context.Context, recordingID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcriptCalls = append(f.transcriptCalls, recordingID)
	if err, ok := f.transcriptErrs[recordingID]; ok {
		return "", err
	}
	return f.transcripts[recordingID], nil
}

func (f *fakeClient) ListTeams(_ context.Context, _ string) (*fathom.TeamsPage, error) {
	if f.teamsErr != nil {
		return nil, f.teamsErr
	}
	if f.teams == nil {
		return &fathom.TeamsPage{}, nil
	}
	return f.teams, nil
}

func (f *fakeClient) ListTeamMembers(_ context.Context, teamID, _ string) (*fathom.TeamMembersPage, error) {
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	if f.members == nil {
		return &fathom.TeamMembersPage{}, nil
	}
	return f.members, nil
}

func (f *fakeClient) CreateWebhook(_ context.Context, cfg fathom.WebhookConfig) (*fathom.Webhook, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.webhook != nil {
		return f.webhook, nil
	}
	return &fathom.Webhook{
		ID:                 "wh-test",
		DestinationURL:     cfg.DestinationURL,
		IncludeTranscript:  cfg.IncludeTranscript,
		IncludeSummary:     cfg.IncludeSummary,
		IncludeActionItems: cfg.IncludeActionItems,
		Secret:             "test-secret",
	}, nil
}

func (f *fakeClient) DeleteWebhook(_ context.Context, webhookID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.deletedIDs {
		if id == webhookID {
			return &fathom.Error{Kind: fathom.KindUpstreamMessage, StatusCode: 404, Message: "webhook not found"}
		}
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, webhookID)
	return nil
}

func (f *fakeClient) transcriptCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transcriptCalls)
}

var _ Client = (*fakeClient)(nil)

// meetingFixture builds a minimal meeting with a recording ID derived from n.
func meetingFixture(n int, title string) fathom.Meeting {
	return fathom.Meeting{
		Title:              title,
		RecordingID:        fmt.Sprintf("rec-%d", n),
		ScheduledStartTime: "2026-08-10T10:00:00Z",
		ShareURL:           fmt.Sprintf("https://share.test/%d", n),
	}
}
