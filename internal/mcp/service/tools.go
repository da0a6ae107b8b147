package service

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"fathom-mcp/internal/mcp/domain"
)

// registerMeetingTools registers meeting listing, search, and transcript tools.
func registerMeetingTools(server *mcp.Server, client domain.Client) {
	mcp.AddTool(server, domain.ListMeetingsTool(), domain.ListMeetingsHandler(client))
	mcp.AddTool(server, domain.SearchMeetingsTool(), domain.SearchMeetingsHandler(client))
	mcp.AddTool(server, domain.GetMeetingTranscriptTool(), domain.GetMeetingTranscriptHandler(client))
}

// registerTeamTools registers team and team membership tools.
func registerTeamTools(server *mcp.Server, client domain.Client) {
	mcp.AddTool(server, domain.ListTeamsTool(), domain.ListTeamsHandler(client))
	mcp.AddTool(server, domain.ListTeamMembersTool(), domain.ListTeamMembersHandler(client))
}

// registerWebhookTools registers webhook lifecycle tools.
func registerWebhookTools(server *mcp.Server, client domain.Client) {
	mcp.AddTool(server, domain.CreateWebhookTool(), domain.CreateWebhookHandler(client))
	mcp.AddTool(server, domain.DeleteWebhookTool(), domain.DeleteWebhookHandler(client))
}
