package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/editor"
	"github.com/mark3labs/mcp-go/mcp"
)

// DeleteTool handles the flow_delete MCP tool.
type DeleteTool struct {
	editor *editor.Editor
}

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(e *editor.Editor) *DeleteTool {
	return &DeleteTool{editor: e}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_delete",
		mcp.WithDescription(
			"Delete a flow document file. Its revision history, if enabled, is kept.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
	)
}

// Handle processes the flow_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	if err := t.editor.DeleteFlow(flowID); err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{"deleted": flowID})
}
