package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/editor"
	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateTool handles the flow_create MCP tool.
type CreateTool struct {
	editor *editor.Editor
}

// NewCreateTool creates a CreateTool.
func NewCreateTool(e *editor.Editor) *CreateTool {
	return &CreateTool{editor: e}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_create",
		mcp.WithDescription(
			"Create a new, empty flow document with the given name and summary. "+
				"Fails if a flow with this id already exists. Add phases and nodes afterwards "+
				"with flow_add_phase and flow_add_node.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithString("name", mcp.Required(), mcp.Description("Human-readable flow name, e.g. 'Checkout'.")),
		mcp.WithString("input", mcp.Required(), mcp.Description("What enters the flow, e.g. 'Cart and payment details'.")),
		mcp.WithString("output", mcp.Required(), mcp.Description("What the flow produces, e.g. 'Confirmed order'.")),
		mcp.WithString("purpose", mcp.Required(), mcp.Description("Why the flow exists, in one sentence.")),
	)
}

// Handle processes the flow_create tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	name, err := requireString(req, "name")
	if err != nil {
		return toolError(err)
	}
	summary := flow.Summary{
		Input:   req.GetString("input", ""),
		Output:  req.GetString("output", ""),
		Purpose: req.GetString("purpose", ""),
	}

	f, err := t.editor.CreateFlow(flowID, name, summary)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{"created": f.ID, "flow": f})
}
