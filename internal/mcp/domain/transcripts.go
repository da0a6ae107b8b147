package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// transcriptPendingMessage explains an absent transcript. Absence means the
// meeting is still processing upstream; it is a valid state, not an error.
const transcriptPendingMessage = "No transcript is available for this recording yet. " +
	"The meeting may still be processing; try again in a few minutes."

// summarizeInstruction is prepended to the transcript when the caller asks
// for a summary, so the consuming assistant summarizes instead of echoing.
const summarizeInstruction = "Summarize the following meeting transcript. " +
	"Highlight key decisions, open questions, and action items.\n\n"

// GetMeetingTranscriptInput represents the MCP tool input for fetching one transcript.
type GetMeetingTranscriptInput struct {
	RecordingID string `json:"recording_id" jsonschema:"recording identifier from a meeting listing (required)"`
	Summarize   bool   `json:"summarize,omitempty" jsonschema:"wrap the transcript in a summarization instruction (default false)"`
}

// GetMeetingTranscriptResult represents the MCP tool output for one transcript.
type GetMeetingTranscriptResult struct {
	RecordingID string `json:"recording_id" jsonschema:"recording identifier"`
	Transcript  string `json:"transcript,omitempty" jsonschema:"flattened transcript text"`
	Message     string `json:"message,omitempty" jsonschema:"explanation when no transcript exists yet"`
}

// GetMeetingTranscriptTool defines the MCP tool schema for fetching a transcript.
func GetMeetingTranscriptTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_meeting_transcript",
		Description: "Fetches the transcript for a recording by its recording identifier, optionally wrapped in a summarization instruction",
	}
}

// GetMeetingTranscriptHandler executes a transcript fetch request.
func GetMeetingTranscriptHandler(client Client) mcp.ToolHandlerFor[GetMeetingTranscriptInput, GetMeetingTranscriptResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetMeetingTranscriptInput) (*mcp.CallToolResult, GetMeetingTranscriptResult, error) {
		if input.RecordingID == "" {
			return nil, GetMeetingTranscriptResult{}, fmt.Errorf("recording_id is required")
		}

		runCtx, cancel := context.WithTimeout(ctx, apiCallTimeout)
		defer cancel()

		text, err := client.GetTranscript(runCtx, input.RecordingID)
		if err != nil {
			return nil, GetMeetingTranscriptResult{}, err
		}

		result := GetMeetingTranscriptResult{RecordingID: input.RecordingID}
		if text == "" {
			result.Message = transcriptPendingMessage
			return nil, result, nil
		}

		if input.Summarize {
			text = summarizeInstruction + text
		}
		result.Transcript = text
		return nil, result, nil
	}
}
