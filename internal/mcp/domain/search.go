package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"fathom-mcp/internal/fathom"
)

const (
	// searchWindowDays is the trailing window a search covers.
	searchWindowDays = 30

	// transcriptFetchCap bounds how many transcripts a single search fetches.
	// The cap is also the fan-out bound: at most this many fetches run at once.
	transcriptFetchCap = 10

	// foundInTranscript and foundInTitleSummary report which field category
	// produced a match so callers can explain relevance.
	foundInTranscript   = "found in transcript"
	foundInTitleSummary = "found in title/summary"
)

// SearchMeetingsInput represents the MCP tool input for searching meetings.
type SearchMeetingsInput struct {
	SearchTerm        string `json:"search_term" jsonschema:"text to match against titles, summaries, action items, and transcripts (required)"`
	IncludeTranscript *bool  `json:"include_transcript,omitempty" jsonschema:"search transcript text as well (default true)"`
}

// SearchMatch is one matching meeting in search results.
type SearchMatch struct {
	Title       string `json:"title" jsonschema:"meeting title"`
	Date        string `json:"date" jsonschema:"scheduled start time, or creation time when unscheduled"`
	URL         string `json:"url" jsonschema:"share URL, or the direct URL when no share link exists"`
	RecordingID string `json:"recording_id,omitempty" jsonschema:"recording identifier"`
	Summary     string `json:"summary,omitempty" jsonschema:"meeting summary"`
	FoundIn     string `json:"found_in,omitempty" jsonschema:"which field category matched, when transcript search is active"`
}

// SearchMeetingsResult represents the MCP tool output for searching meetings.
type SearchMeetingsResult struct {
	SearchTerm string        `json:"search_term" jsonschema:"the term that was searched"`
	Searched   int           `json:"meetings_searched" jsonschema:"number of meetings examined"`
	Matches    []SearchMatch `json:"matches" jsonschema:"meetings that matched"`
}

// SearchMeetingsTool defines the MCP tool schema for full-text meeting search.
func SearchMeetingsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_meetings",
		Description: "Searches meetings from the last 30 days by title, summary, action items, and optionally transcript text",
	}
}

// SearchMeetingsHandler executes a meeting search request.
//
// When transcript search is requested the handler fans out concurrent
// transcript fetches for up to transcriptFetchCap of the most recently listed
// meetings that carry a recording identifier, reassembles results in listing
// order, and only then filters. Authorization and rate-limit failures abort
// the whole batch; any other per-meeting failure degrades that meeting to an
// empty transcript.
func SearchMeetingsHandler(client Client) mcp.ToolHandlerFor[SearchMeetingsInput, SearchMeetingsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchMeetingsInput) (*mcp.CallToolResult, SearchMeetingsResult, error) {
		term := strings.ToLower(strings.TrimSpace(input.SearchTerm))
		if term == "" {
			return nil, SearchMeetingsResult{}, fmt.Errorf("search_term is required")
		}

		includeTranscript := true
		if input.IncludeTranscript != nil {
			includeTranscript = *input.IncludeTranscript
		}

		runCtx, cancel := context.WithTimeout(ctx, BatchCallTimeout)
		defer cancel()

		createdAfter := time.Now().UTC().AddDate(0, 0, -searchWindowDays).Format(time.RFC3339)
		page, err := client.ListMeetings(runCtx, fathom.MeetingFilters{CreatedAfter: createdAfter})
		if err != nil {
			return nil, SearchMeetingsResult{}, err
		}

		result := SearchMeetingsResult{SearchTerm: input.SearchTerm}

		if !includeTranscript {
			result.Searched = len(page.Items)
			for _, meeting := range page.Items {
				if matched, _ := matchMeeting(meeting, term, ""); matched {
					result.Matches = append(result.Matches, searchMatch(meeting, ""))
				}
			}
			return nil, result, nil
		}

		candidates := transcriptCandidates(page.Items)
		transcripts, err := fetchTranscripts(runCtx, client, candidates)
		if err != nil {
			return nil, SearchMeetingsResult{}, fmt.Errorf("fetch transcripts: %w", err)
		}

		result.Searched = len(candidates)
		for i, meeting := range candidates {
			matched, foundIn := matchMeeting(meeting, term, transcripts[i])
			if matched {
				result.Matches = append(result.Matches, searchMatch(meeting, foundIn))
			}
		}
		return nil, result, nil
	}
}

// transcriptCandidates takes up to transcriptFetchCap of the most recently
// listed meetings that carry a recording identifier, preserving listing order.
func transcriptCandidates(meetings []fathom.Meeting) []fathom.Meeting {
	candidates := make([]fathom.Meeting, 0, transcriptFetchCap)
	for _, meeting := range meetings {
		if meeting.RecordingID == "" {
			continue
		}
		candidates = append(candidates, meeting)
		if len(candidates) == transcriptFetchCap {
			break
		}
	}
	return candidates
}

// fetchTranscripts fetches transcripts for the given meetings concurrently and
// returns them indexed in the same order as the input, not completion order.
// The first fatal failure (rate limit or credential) cancels the remaining
// in-flight fetches and fails the batch; non-fatal failures leave that entry
// empty and the batch continues. Meetings without a recording identifier are
// skipped and stay empty.
func fetchTranscripts(ctx context.Context, client Client, meetings []fathom.Meeting) ([]string, error) {
	transcripts := make([]string, len(meetings))

	g, gctx := errgroup.WithContext(ctx)
	for i, meeting := range meetings {
		if meeting.RecordingID == "" {
			continue
		}
		g.Go(func() error {
			text, err := client.GetTranscript(gctx, meeting.RecordingID)
			if err != nil {
				if fathom.IsFatalForBatch(err) {
					return err
				}
				return nil
			}
			transcripts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return transcripts, nil
}

// matchMeeting reports whether the lowercase term is a substring of the
// meeting's titles, summary, any action item, or the transcript text, and
// which field category matched. Title/summary fields win over the transcript
// when both match.
func matchMeeting(meeting fathom.Meeting, term, transcript string) (bool, string) {
	if containsFold(meeting.Title, term) ||
		containsFold(meeting.MeetingTitle, term) ||
		containsFold(meeting.Summary, term) {
		return true, foundInTitleSummary
	}
	for _, item := range meeting.ActionItems {
		if containsFold(item.Description, term) {
			return true, foundInTitleSummary
		}
	}
	if transcript != "" && strings.Contains(strings.ToLower(transcript), term) {
		return true, foundInTranscript
	}
	return false, ""
}

// containsFold reports whether the already-lowercased term is a substring of s.
func containsFold(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}

// searchMatch projects a meeting into a search result entry.
func searchMatch(meeting fathom.Meeting, foundIn string) SearchMatch {
	return SearchMatch{
		Title:       resolveTitle(meeting),
		Date:        resolveDate(meeting),
		URL:         resolveURL(meeting),
		RecordingID: meeting.RecordingID,
		Summary:     meeting.Summary,
		FoundIn:     foundIn,
	}
}
