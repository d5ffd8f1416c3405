package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/editor"
	"github.com/mark3labs/mcp-go/mcp"
)

// UpdateMetadataTool handles the flow_update_metadata MCP tool.
type UpdateMetadataTool struct {
	editor *editor.Editor
}

// NewUpdateMetadataTool creates an UpdateMetadataTool.
func NewUpdateMetadataTool(e *editor.Editor) *UpdateMetadataTool {
	return &UpdateMetadataTool{editor: e}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateMetadataTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_update_metadata",
		mcp.WithDescription(
			"Update a flow's metadata and record what changed. Top-level keys in updates replace "+
				"the old values; updatedAt is set to now. A non-empty changelog appends an entry "+
				"dated today (with the current git commit when available). Call this after "+
				"every meaningful edit session.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithObject("updates", mcp.Description("Metadata fields to set, e.g. {\"author\": \"team-checkout\", \"tags\": [\"payments\"]}.")),
		mcp.WithString("changelog", mcp.Description("One-line description of the change, appended to metadata.changelog.")),
	)
}

// Handle processes the flow_update_metadata tool call.
func (t *UpdateMetadataTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	updates, _, err := objectArg(req, "updates")
	if err != nil {
		return toolError(err)
	}
	changelog := req.GetString("changelog", "")
	if len(updates) == 0 && changelog == "" {
		return mcp.NewToolResultError("provide 'updates', 'changelog' or both"), nil
	}

	md, err := t.editor.UpdateMetadata(flowID, updates, changelog)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{"updated": flowID, "metadata": md})
}
