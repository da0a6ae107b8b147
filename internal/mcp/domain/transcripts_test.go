package domain

import (
	"context"
	"strings"
	"testing"
)

func TestGetMeetingTranscriptRequiresRecordingID(t *testing.T) {
	handler := GetMeetingTranscriptHandler(&fakeClient{})
	if _, _, err := handler(context.Background(), nil, GetMeetingTranscriptInput{}); err == nil {
		t.Fatal("expected error for missing recording_id")
	}
}

func TestGetMeetingTranscript(t *testing.T) {
	client := &fakeClient{transcripts: map[string]string{
		"rec-1": "[00:00:05] Ana: Hello everyone",
	}}
	handler := GetMeetingTranscriptHandler(client)

	t.Run("returns transcript text", func(t *testing.T) {
		_, result, err := handler(context.Background(), nil, GetMeetingTranscriptInput{RecordingID: "rec-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Transcript != "[00:00:05] Ana: Hello everyone" {
			t.Errorf("transcript = %q", result.Transcript)
		}
		if result.Message != "" {
			t.Errorf("expected no message, got %q", result.Message)
		}
	})

	t.Run("pending transcript explains itself", func(t *testing.T) {
		_, result, err := handler(context.Background(), nil, GetMeetingTranscriptInput{RecordingID: "rec-missing"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Transcript != "" {
			t.Errorf("expected empty transcript, got %q", result.Transcript)
		}
		if result.Message != transcriptPendingMessage {
			t.Errorf("message = %q, want pending explanation", result.Message)
		}
	})

	t.Run("summarize prepends instruction", func(t *testing.T) {
		_, result, err := handler(context.Background(), nil, GetMeetingTranscriptInput{RecordingID: "rec-1", Summarize: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(result.Transcript, summarizeInstruction) {
			t.Errorf("transcript does not start with summarize instruction: %q", result.Transcript)
		}
		if !strings.HasSuffix(result.Transcript, "Hello everyone") {
			t.Errorf("transcript body missing: %q", result.Transcript)
		}
	})

	t.Run("summarize on pending transcript keeps message", func(t *testing.T) {
		_, result, err := handler(context.Background(), nil, GetMeetingTranscriptInput{RecordingID: "rec-missing", Summarize: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Transcript != "" {
			t.Errorf("expected no transcript, got %q", result.Transcript)
		}
		if result.Message != transcriptPendingMessage {
			t.Errorf("message = %q, want pending explanation", result.Message)
		}
	})
}
