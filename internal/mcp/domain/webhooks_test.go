package domain

import (
	"context"
	"testing"

	"fathom-mcp/internal/fathom"
)

func TestCreateWebhookValidation(t *testing.T) {
	handler := CreateWebhookHandler(&fakeClient{})

	tests := []struct {
		name string
		url  string
	}{
		{"missing url", ""},
		{"relative url", "/hooks"},
		{"no scheme", "example.com/hook"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := handler(context.Background(), nil, CreateWebhookInput{URL: tt.url}); err == nil {
				t.Fatalf("expected error for url %q", tt.url)
			}
		})
	}
}

func TestCreateWebhookDefaults(t *testing.T) {
	var gotCfg fathom.WebhookConfig
	client := &fakeClient{webhook: &fathom.Webhook{ID: "wh-1", DestinationURL: "https://example.com/hook", Secret: "s3cret"}}
	handler := CreateWebhookHandler(clientCaptureWebhook{client, &gotCfg})

	_, result, err := handler(context.Background(), nil, CreateWebhookInput{URL: "https://example.com/hook"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotCfg.IncludeTranscript {
		t.Error("include_transcript should default to false")
	}
	if !gotCfg.IncludeSummary {
		t.Error("include_summary should default to true")
	}
	if !gotCfg.IncludeActionItems {
		t.Error("include_action_items should default to true")
	}
	if result.Secret != "s3cret" {
		t.Errorf("secret = %q", result.Secret)
	}
	if result.Note != webhookSecretNote {
		t.Errorf("note = %q, want one-time secret warning", result.Note)
	}
}

func TestCreateWebhookExplicitFlags(t *testing.T) {
	var gotCfg fathom.WebhookConfig
	handler := CreateWebhookHandler(clientCaptureWebhook{&fakeClient{}, &gotCfg})

	_, _, err := handler(context.Background(), nil, CreateWebhookInput{
		URL:                "https://example.com/hook",
		IncludeTranscript:  true,
		IncludeSummary:     boolPtr(false),
		IncludeActionItems: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotCfg.IncludeTranscript || gotCfg.IncludeSummary || gotCfg.IncludeActionItems {
		t.Errorf("unexpected config: %+v", gotCfg)
	}
}

func TestDeleteWebhook(t *testing.T) {
	t.Run("requires webhook_id", func(t *testing.T) {
		handler := DeleteWebhookHandler(&fakeClient{})
		if _, _, err := handler(context.Background(), nil, DeleteWebhookInput{}); err == nil {
			t.Fatal("expected error for missing webhook_id")
		}
	})

	t.Run("create then delete round trip", func(t *testing.T) {
		client := &fakeClient{}
		create := CreateWebhookHandler(client)
		del := DeleteWebhookHandler(client)

		_, created, err := create(context.Background(), nil, CreateWebhookInput{URL: "https://example.com/hook"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		_, deleted, err := del(context.Background(), nil, DeleteWebhookInput{WebhookID: created.ID})
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		if !deleted.Deleted || deleted.ID != created.ID {
			t.Errorf("unexpected delete result: %+v", deleted)
		}

		// Second delete of the same ID surfaces the upstream error
		if _, _, err := del(context.Background(), nil, DeleteWebhookInput{WebhookID: created.ID}); err == nil {
			t.Fatal("expected error deleting an already deleted webhook")
		}
	})
}

// clientCaptureWebhook wraps a fakeClient to record the webhook config sent upstream.
type clientCaptureWebhook struct {
	*fakeClient
	cfg *fathom.WebhookConfig
}

func (c clientCaptureWebhook) CreateWebhook(ctx context.Context, cfg fathom.WebhookConfig) (*fathom.Webhook, error) {
	*c.cfg = cfg
	return c.fakeClient.CreateWebhook(ctx, cfg)
}
