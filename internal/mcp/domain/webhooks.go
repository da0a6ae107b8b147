package domain

import (
	"context"
	"fmt"
	"net/url"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"fathom-mcp/internal/fathom"
)

// webhookSecretNote warns callers that the secret cannot be retrieved again.
const webhookSecretNote = "Store this secret now. It is shown only once and cannot be retrieved again."

// CreateWebhookInput represents the MCP tool input for creating a webhook.
type CreateWebhookInput struct {
	URL                string `json:"url" jsonschema:"destination URL that will receive webhook deliveries (required)"`
	IncludeTranscript  bool   `json:"include_transcript,omitempty" jsonschema:"include transcript text in deliveries (default false)"`
	IncludeSummary     *bool  `json:"include_summary,omitempty" jsonschema:"include the meeting summary in deliveries (default true)"`
	IncludeActionItems *bool  `json:"include_action_items,omitempty" jsonschema:"include action items in deliveries (default true)"`
}

// CreateWebhookResult represents the MCP tool output for creating a webhook.
type CreateWebhookResult struct {
	ID             string `json:"id" jsonschema:"webhook identifier"`
	DestinationURL string `json:"destination_url" jsonschema:"destination URL"`
	Secret         string `json:"secret" jsonschema:"one-time signing secret"`
	Note           string `json:"note" jsonschema:"reminder that the secret is shown only once"`
}

// CreateWebhookTool defines the MCP tool schema for creating a webhook.
func CreateWebhookTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_webhook",
		Description: "Creates a webhook that delivers new meeting content to a destination URL; the response includes a one-time signing secret",
	}
}

// CreateWebhookHandler executes a webhook creation request.
func CreateWebhookHandler(client Client) mcp.ToolHandlerFor[CreateWebhookInput, CreateWebhookResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CreateWebhookInput) (*mcp.CallToolResult, CreateWebhookResult, error) {
		if input.URL == "" {
			return nil, CreateWebhookResult{}, fmt.Errorf("url is required")
		}
		parsed, err := url.Parse(input.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, CreateWebhookResult{}, fmt.Errorf("url must be an absolute URL")
		}

		includeSummary := true
		if input.IncludeSummary != nil {
			includeSummary = *input.IncludeSummary
		}
		includeActionItems := true
		if input.IncludeActionItems != nil {
			includeActionItems = *input.IncludeActionItems
		}

		runCtx, cancel := context.WithTimeout(ctx, apiCallTimeout)
		defer cancel()

		webhook, err := client.CreateWebhook(runCtx, fathom.WebhookConfig{
			DestinationURL:     input.URL,
			IncludeTranscript:  input.IncludeTranscript,
			IncludeSummary:     includeSummary,
			IncludeActionItems: includeActionItems,
		})
		if err != nil {
			return nil, CreateWebhookResult{}, err
		}
		if webhook == nil {
			return nil, CreateWebhookResult{}, fmt.Errorf("webhook create response is missing")
		}

		return nil, CreateWebhookResult{
			ID:             webhook.ID,
			DestinationURL: webhook.DestinationURL,
			Secret:         webhook.Secret,
			Note:           webhookSecretNote,
		}, nil
	}
}

// DeleteWebhookInput represents the MCP tool input for deleting a webhook.
type DeleteWebhookInput struct {
	WebhookID string `json:"webhook_id" jsonschema:"webhook identifier returned at creation (required)"`
}

// DeleteWebhookResult represents the MCP tool output for deleting a webhook.
type DeleteWebhookResult struct {
	ID      string `json:"id" jsonschema:"webhook identifier"`
	Deleted bool   `json:"deleted" jsonschema:"whether the webhook was deleted"`
}

// DeleteWebhookTool defines the MCP tool schema for deleting a webhook.
func DeleteWebhookTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_webhook",
		Description: "Deletes a webhook by its identifier",
	}
}

// DeleteWebhookHandler executes a webhook deletion request.
func DeleteWebhookHandler(client Client) mcp.ToolHandlerFor[DeleteWebhookInput, DeleteWebhookResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DeleteWebhookInput) (*mcp.CallToolResult, DeleteWebhookResult, error) {
		if input.WebhookID == "" {
			return nil, DeleteWebhookResult{}, fmt.Errorf("webhook_id is required")
		}

		runCtx, cancel := context.WithTimeout(ctx, apiCallTimeout)
		defer cancel()

		if err := client.DeleteWebhook(runCtx, input.WebhookID); err != nil {
			return nil, DeleteWebhookResult{}, err
		}
		return nil, DeleteWebhookResult{ID: input.WebhookID, Deleted: true}, nil
	}
}
