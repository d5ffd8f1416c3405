package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/editor"
	"github.com/mark3labs/mcp-go/mcp"
)

// DeleteNodeTool handles the flow_delete_node MCP tool.
type DeleteNodeTool struct {
	editor *editor.Editor
}

// NewDeleteNodeTool creates a DeleteNodeTool.
func NewDeleteNodeTool(e *editor.Editor) *DeleteNodeTool {
	return &DeleteNodeTool{editor: e}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteNodeTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_delete_node",
		mcp.WithDescription(
			"Delete a node. Its id is removed from every phase that lists it and every edge "+
				"starting or ending at it is removed too.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Id of the node to delete.")),
	)
}

// Handle processes the flow_delete_node tool call.
func (t *DeleteNodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	nodeID, err := requireString(req, "node_id")
	if err != nil {
		return toolError(err)
	}

	res, err := t.editor.DeleteNode(flowID, nodeID)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(res)
}
