package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListTeamsInput represents the MCP tool input for listing teams.
type ListTeamsInput struct{}

// TeamEntry is one team in a listing result.
type TeamEntry struct {
	Name      string `json:"name" jsonschema:"team name"`
	CreatedAt string `json:"created_at,omitempty" jsonschema:"RFC3339 creation timestamp"`
}

// ListTeamsResult represents the MCP tool output for listing teams.
type ListTeamsResult struct {
	Teams   []TeamEntry `json:"teams" jsonschema:"teams in the workspace"`
	HasMore bool        `json:"has_more" jsonschema:"whether more pages exist upstream"`
}

// ListTeamsTool defines the MCP tool schema for listing teams.
func ListTeamsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_teams",
		Description: "Lists the teams in the Fathom workspace",
	}
}

// ListTeamsHandler executes a team listing request.
func ListTeamsHandler(client Client) mcp.ToolHandlerFor[ListTeamsInput, ListTeamsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListTeamsInput) (*mcp.CallToolResult, ListTeamsResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, apiCallTimeout)
		defer cancel()

		page, err := client.ListTeams(runCtx, "")
		if err != nil {
			return nil, ListTeamsResult{}, err
		}

		result := ListTeamsResult{
			Teams:   make([]TeamEntry, 0, len(page.Items)),
			HasMore: page.NextCursor != "",
		}
		for _, team := range page.Items {
			result.Teams = append(result.Teams, TeamEntry{Name: team.Name, CreatedAt: team.CreatedAt})
		}
		return nil, result, nil
	}
}

// ListTeamMembersInput represents the MCP tool input for listing team members.
type ListTeamMembersInput struct {
	TeamID string `json:"team_id" jsonschema:"team identifier or name (required)"`
}

// TeamMemberEntry is one member in a listing result.
type TeamMemberEntry struct {
	Name  string `json:"name" jsonschema:"member name"`
	Email string `json:"email" jsonschema:"member email address"`
}

// ListTeamMembersResult represents the MCP tool output for listing team members.
type ListTeamMembersResult struct {
	TeamID  string            `json:"team_id" jsonschema:"team identifier"`
	Members []TeamMemberEntry `json:"members" jsonschema:"members of the team"`
	HasMore bool              `json:"has_more" jsonschema:"whether more pages exist upstream"`
}

// ListTeamMembersTool defines the MCP tool schema for listing team members.
func ListTeamMembersTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_team_members",
		Description: "Lists the members of a Fathom team",
	}
}

// ListTeamMembersHandler executes a team member listing request.
func ListTeamMembersHandler(client Client) mcp.ToolHandlerFor[ListTeamMembersInput, ListTeamMembersResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListTeamMembersInput) (*mcp.CallToolResult, ListTeamMembersResult, error) {
		if input.TeamID == "" {
			return nil, ListTeamMembersResult{}, fmt.Errorf("team_id is required")
		}

		runCtx, cancel := context.WithTimeout(ctx, apiCallTimeout)
		defer cancel()

		page, err := client.ListTeamMembers(runCtx, input.TeamID, "")
		if err != nil {
			return nil, ListTeamMembersResult{}, err
		}

		result := ListTeamMembersResult{
			TeamID:  input.TeamID,
			Members: make([]TeamMemberEntry, 0, len(page.Items)),
			HasMore: page.NextCursor != "",
		}
		for _, member := range page.Items {
			result.Members = append(result.Members, TeamMemberEntry{Name: member.Name, Email: member.Email})
		}
		return nil, result, nil
	}
}
