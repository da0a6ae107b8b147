// Package domain translates MCP tool operations into Fathom API calls.
//
// The package is intentionally explicit about that mapping:
// - validate tool arguments beyond what the schema can express,
// - route calls to the Fathom client,
// - and surface structured outputs that MCP clients can render.
//
// This keeps MCP behavior auditable from protocol message -> upstream call ->
// projected result.
package domain
