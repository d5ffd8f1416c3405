package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/editor"
	"github.com/mark3labs/mcp-go/mcp"
)

// UpdateNodeTool handles the flow_update_node MCP tool.
type UpdateNodeTool struct {
	editor *editor.Editor
}

// NewUpdateNodeTool creates an UpdateNodeTool.
func NewUpdateNodeTool(e *editor.Editor) *UpdateNodeTool {
	return &UpdateNodeTool{editor: e}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateNodeTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_update_node",
		mcp.WithDescription(
			"Deep-merge changes into one node. Nested objects (such as data) are merged key by key; "+
				"arrays and scalar values REPLACE the old value, so to append to an array send the "+
				"whole new array. The node id cannot change. Changing 'phase' also moves the node "+
				"between the phases' node lists.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Id of the node to update.")),
		mcp.WithObject("updates", mcp.Required(),
			mcp.Description("Partial node, e.g. {\"label\": \"Charge card\", \"data\": {\"method\": \"POST\"}}."),
		),
	)
}

// Handle processes the flow_update_node tool call.
func (t *UpdateNodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	nodeID, err := requireString(req, "node_id")
	if err != nil {
		return toolError(err)
	}
	updates, err := requireObject(req, "updates")
	if err != nil {
		return toolError(err)
	}

	node, err := t.editor.UpdateNode(flowID, nodeID, updates)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{"updated": nodeID, "node": node})
}
