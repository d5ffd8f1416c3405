package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/editor"
	"github.com/mark3labs/mcp-go/mcp"
)

// AddNodeTool handles the flow_add_node MCP tool.
type AddNodeTool struct {
	editor *editor.Editor
}

// NewAddNodeTool creates an AddNodeTool.
func NewAddNodeTool(e *editor.Editor) *AddNodeTool {
	return &AddNodeTool{editor: e}
}

// Definition returns the MCP tool definition for registration.
func (t *AddNodeTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_add_node",
		mcp.WithDescription(
			"Add a node to a flow. The node needs id, type, label and a data object. "+
				"Types: input, output, validation, transform, query, logic, command, event, external, condition; "+
				"other types are kept as-is. With phase_id the node is also listed in that phase, "+
				"right after after_node_id when given, otherwise at the end.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithObject("node", mcp.Required(),
			mcp.Description("The node, e.g. {\"id\": \"charge\", \"type\": \"external\", \"label\": \"Charge card\", "+
				"\"data\": {\"service\": \"payments\"}}."),
		),
		mcp.WithString("phase_id", mcp.Description("Phase to list the node in.")),
		mcp.WithString("after_node_id", mcp.Description("Existing node in phase_id to insert after. Requires phase_id.")),
	)
}

// Handle processes the flow_add_node tool call.
func (t *AddNodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	node, err := requireObject(req, "node")
	if err != nil {
		return toolError(err)
	}

	added, err := t.editor.AddNode(flowID, node, req.GetString("phase_id", ""), req.GetString("after_node_id", ""))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{"added": added.ID, "node": added})
}
