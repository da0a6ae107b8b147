package fathom

// Invitee is a calendar attendee on a meeting.
type Invitee struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	IsExternal bool   `json:"is_external"`
}

// Recorder identifies the Fathom user who recorded a meeting.
type Recorder struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Team  string `json:"team,omitempty"`
}

// ActionItem is a single follow-up captured from a meeting.
type ActionItem struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Assignee    string `json:"assignee,omitempty"`
}

// Meeting is one recorded meeting as returned by the listing endpoint.
// RecordingID is the only stable key for fetching the transcript
// independently of the listing call; a meeting without one cannot have its
// transcript backfilled.
type Meeting struct {
	Title              string       `json:"title"`
	MeetingTitle       string       `json:"meeting_title"`
	CreatedAt          string       `json:"created_at"`
	ScheduledStartTime string       `json:"scheduled_start_time"`
	ScheduledEndTime   string       `json:"scheduled_end_time"`
	URL                string       `json:"url"`
	ShareURL           string       `json:"share_url"`
	RecordingID        string       `json:"recording_id"`
	MeetingType        string       `json:"meeting_type"`
	CalendarInvitees   []Invitee    `json:"calendar_invitees"`
	RecordedBy         *Recorder    `json:"recorded_by"`
	Summary            string       `json:"summary"`
	ActionItems        []ActionItem `json:"action_items"`
}

// MeetingsPage is one page of meetings plus the opaque cursor for the next.
type MeetingsPage struct {
	Items      []Meeting `json:"items"`
	NextCursor string    `json:"next_cursor"`
}

// MeetingFilters narrows a meeting listing. List-valued filters serialize as
// repeated-key array parameters; scalars as plain key/value pairs.
type MeetingFilters struct {
	CalendarInvitees []string
	InviteeDomains   []string
	CreatedAfter     string
	CreatedBefore    string
	MeetingType      string // all, internal, or external; "all" is not forwarded
	RecordedBy       []string
	Teams            []string
	Cursor           string
}

// TranscriptSegment is one utterance in a meeting transcript.
type TranscriptSegment struct {
	Speaker   Speaker `json:"speaker"`
	Timestamp string  `json:"timestamp"`
	Text      string  `json:"text"`
}

// Speaker identifies who spoke a transcript segment.
type Speaker struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"matched_calendar_invitee_email,omitempty"`
}

// Team is a Fathom team record.
type Team struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// TeamsPage is one page of teams plus the cursor for the next.
type TeamsPage struct {
	Items      []Team `json:"items"`
	NextCursor string `json:"next_cursor"`
}

// TeamMember is a member of a Fathom team.
type TeamMember struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// TeamMembersPage is one page of team members plus the cursor for the next.
type TeamMembersPage struct {
	Items      []TeamMember `json:"items"`
	NextCursor string       `json:"next_cursor"`
}

// WebhookConfig describes a webhook to create.
type WebhookConfig struct {
	DestinationURL     string `json:"destination_url"`
	IncludeTranscript  bool   `json:"include_transcript"`
	IncludeSummary     bool   `json:"include_summary"`
	IncludeActionItems bool   `json:"include_action_items"`
}

// Webhook is a created webhook descriptor. Secret is returned exactly once by
// the API on creation and is never persisted by this client.
type Webhook struct {
	ID                 string `json:"id"`
	DestinationURL     string `json:"destination_url"`
	IncludeTranscript  bool   `json:"include_transcript"`
	IncludeSummary     bool   `json:"include_summary"`
	IncludeActionItems bool   `json:"include_action_items"`
	Secret             string `json:"secret"`
	CreatedAt          string `json:"created_at"`
}
