package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/mark3labs/mcp-go/mcp"
)

// SchemaTool handles the flow_schema MCP tool.
type SchemaTool struct{}

// NewSchemaTool creates a SchemaTool.
func NewSchemaTool() *SchemaTool {
	return &SchemaTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *SchemaTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_schema",
		mcp.WithDescription(
			"Return the JSON Schema of a flow document. Read it once before writing "+
				"a new flow by hand.",
		),
	)
}

// Handle processes the flow_schema tool call.
func (t *SchemaTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := flow.Schema()
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
