package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"fathom-mcp/internal/fathom"
)

// defaultListLimit is how many meetings list_meetings shows when the caller
// does not pass a limit. The limit applies client-side after the upstream
// fetch; it never changes what the upstream call returns.
const defaultListLimit = 50

// ListMeetingsInput represents the MCP tool input for listing meetings.
type ListMeetingsInput struct {
	AttendeeEmails    []string `json:"attendee_emails,omitempty" jsonschema:"filter to meetings attended by these email addresses"`
	AttendeeDomains   []string `json:"attendee_domains,omitempty" jsonschema:"filter to meetings with attendees from these email domains"`
	CreatedAfter      string   `json:"created_after,omitempty" jsonschema:"ISO-8601 timestamp lower bound on meeting creation"`
	CreatedBefore     string   `json:"created_before,omitempty" jsonschema:"ISO-8601 timestamp upper bound on meeting creation"`
	MeetingType       string   `json:"meeting_type,omitempty" jsonschema:"meeting type: all, internal, or external"`
	OwnerEmails       []string `json:"owner_emails,omitempty" jsonschema:"filter to meetings recorded by these email addresses"`
	TeamNames         []string `json:"team_names,omitempty" jsonschema:"filter to meetings recorded by members of these teams"`
	IncludeTranscript bool     `json:"include_transcript,omitempty" jsonschema:"include transcript text for each shown meeting (default false)"`
	Limit             int      `json:"limit,omitempty" jsonschema:"maximum number of meetings to show (default 50)"`
}

// MeetingSummary is the projected view of one meeting in tool results.
type MeetingSummary struct {
	Title       string   `json:"title" jsonschema:"meeting title"`
	Date        string   `json:"date" jsonschema:"scheduled start time, or creation time when unscheduled"`
	URL         string   `json:"url" jsonschema:"share URL, or the direct URL when no share link exists"`
	RecordingID string   `json:"recording_id,omitempty" jsonschema:"recording identifier used for transcript fetches"`
	Attendees   []string `json:"attendees,omitempty" jsonschema:"attendee email addresses"`
	Owner       string   `json:"owner,omitempty" jsonschema:"email of the user who recorded the meeting"`
	Summary     string   `json:"summary,omitempty" jsonschema:"meeting summary"`
	ActionItems []string `json:"action_items,omitempty" jsonschema:"captured action items"`
	Transcript  string   `json:"transcript,omitempty" jsonschema:"transcript text, present only when requested"`
}

// ListMeetingsResult represents the MCP tool output for listing meetings.
type ListMeetingsResult struct {
	TotalReturned int              `json:"total_returned" jsonschema:"number of meetings returned by the upstream call"`
	Shown         int              `json:"shown" jsonschema:"number of meetings shown after applying the limit"`
	HasMore       bool             `json:"has_more" jsonschema:"whether more pages exist upstream"`
	Meetings      []MeetingSummary `json:"meetings" jsonschema:"projected meetings"`
}

// ListMeetingsTool defines the MCP tool schema for listing meetings.
func ListMeetingsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_meetings",
		Description: "Lists recorded meetings with optional filters for attendees, domains, creation dates, meeting type, owners, and teams",
	}
}

// ListMeetingsHandler executes a meeting listing request.
func ListMeetingsHandler(client Client) mcp.ToolHandlerFor[ListMeetingsInput, ListMeetingsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListMeetingsInput) (*mcp.CallToolResult, ListMeetingsResult, error) {
		if err := validateMeetingType(input.MeetingType); err != nil {
			return nil, ListMeetingsResult{}, err
		}
		if err := validateTimestamp("created_after", input.CreatedAfter); err != nil {
			return nil, ListMeetingsResult{}, err
		}
		if err := validateTimestamp("created_before", input.CreatedBefore); err != nil {
			return nil, ListMeetingsResult{}, err
		}

		limit := input.Limit
		if limit <= 0 {
			limit = defaultListLimit
		}

		runCtx, cancel := context.WithTimeout(ctx, BatchCallTimeout)
		defer cancel()

		page, err := client.ListMeetings(runCtx, fathom.MeetingFilters{
			CalendarInvitees: input.AttendeeEmails,
			InviteeDomains:   input.AttendeeDomains,
			CreatedAfter:     input.CreatedAfter,
			CreatedBefore:    input.CreatedBefore,
			MeetingType:      input.MeetingType,
			RecordedBy:       input.OwnerEmails,
			Teams:            input.TeamNames,
		})
		if err != nil {
			return nil, ListMeetingsResult{}, err
		}

		shown := page.Items
		if len(shown) > limit {
			shown = shown[:limit]
		}

		transcripts := make([]string, len(shown))
		if input.IncludeTranscript {
			transcripts, err = fetchTranscripts(runCtx, client, shown)
			if err != nil {
				return nil, ListMeetingsResult{}, fmt.Errorf("fetch transcripts: %w", err)
			}
		}

		result := ListMeetingsResult{
			TotalReturned: len(page.Items),
			Shown:         len(shown),
			HasMore:       page.NextCursor != "",
			Meetings:      make([]MeetingSummary, 0, len(shown)),
		}
		for i, meeting := range shown {
			summary := projectMeeting(meeting)
			if input.IncludeTranscript {
				summary.Transcript = transcripts[i]
			}
			result.Meetings = append(result.Meetings, summary)
		}
		return nil, result, nil
	}
}

// projectMeeting maps an upstream meeting onto the tool-facing view, applying
// the fallback chain for title, date, and URL.
func projectMeeting(meeting fathom.Meeting) MeetingSummary {
	summary := MeetingSummary{
		Title:       resolveTitle(meeting),
		Date:        resolveDate(meeting),
		URL:         resolveURL(meeting),
		RecordingID: meeting.RecordingID,
		Summary:     meeting.Summary,
	}
	for _, invitee := range meeting.CalendarInvitees {
		summary.Attendees = append(summary.Attendees, invitee.Email)
	}
	if meeting.RecordedBy != nil {
		summary.Owner = meeting.RecordedBy.Email
	}
	for _, item := range meeting.ActionItems {
		summary.ActionItems = append(summary.ActionItems, item.Description)
	}
	return summary
}

// resolveTitle prefers the primary title, then the calendar meeting title.
func resolveTitle(meeting fathom.Meeting) string {
	if meeting.Title != "" {
		return meeting.Title
	}
	return meeting.MeetingTitle
}

// resolveDate prefers the scheduled start time, then the creation time.
func resolveDate(meeting fathom.Meeting) string {
	if meeting.ScheduledStartTime != "" {
		return meeting.ScheduledStartTime
	}
	return meeting.CreatedAt
}

// resolveURL prefers the share URL, then the direct URL.
func resolveURL(meeting fathom.Meeting) string {
	if meeting.ShareURL != "" {
		return meeting.ShareURL
	}
	return meeting.URL
}

// validateMeetingType rejects values outside the closed enumeration.
func validateMeetingType(meetingType string) error {
	switch meetingType {
	case "", "all", "internal", "external":
		return nil
	default:
		return fmt.Errorf("meeting_type must be one of all, internal, or external; got %q", meetingType)
	}
}

// validateTimestamp rejects malformed ISO-8601 bounds before any upstream call.
func validateTimestamp(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return fmt.Errorf("%s must be an ISO-8601 timestamp: %v", field, err)
	}
	return nil
}
