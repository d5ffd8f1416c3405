package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/editor"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- flow_update_phase ---

// UpdatePhaseTool handles the flow_update_phase MCP tool.
type UpdatePhaseTool struct {
	editor *editor.Editor
}

// NewUpdatePhaseTool creates an UpdatePhaseTool.
func NewUpdatePhaseTool(e *editor.Editor) *UpdatePhaseTool {
	return &UpdatePhaseTool{editor: e}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdatePhaseTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_update_phase",
		mcp.WithDescription(
			"Update a phase. This is a SHALLOW merge: each top-level key you send replaces the old "+
				"value entirely (sending 'nodes' replaces the whole ordered node list). The phase id cannot change.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithString("phase_id", mcp.Required(), mcp.Description("Id of the phase to update.")),
		mcp.WithObject("updates", mcp.Required(),
			mcp.Description("Partial phase, e.g. {\"name\": \"Fulfilment\", \"async\": true}."),
		),
	)
}

// Handle processes the flow_update_phase tool call.
func (t *UpdatePhaseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	phaseID, err := requireString(req, "phase_id")
	if err != nil {
		return toolError(err)
	}
	updates, err := requireObject(req, "updates")
	if err != nil {
		return toolError(err)
	}

	phase, err := t.editor.UpdatePhase(flowID, phaseID, updates)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{"updated": phaseID, "phase": phase})
}

// --- flow_add_phase ---

// AddPhaseTool handles the flow_add_phase MCP tool.
type AddPhaseTool struct {
	editor *editor.Editor
}

// NewAddPhaseTool creates an AddPhaseTool.
func NewAddPhaseTool(e *editor.Editor) *AddPhaseTool {
	return &AddPhaseTool{editor: e}
}

// Definition returns the MCP tool definition for registration.
func (t *AddPhaseTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_add_phase",
		mcp.WithDescription(
			"Add a phase to a flow, after after_phase_id when given, otherwise at the end. "+
				"The phase needs id, name and description; nodes defaults to an empty list.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithObject("phase", mcp.Required(),
			mcp.Description("The phase, e.g. {\"id\": \"review\", \"name\": \"Review\", \"description\": \"Manual approval\", \"nodes\": []}."),
		),
		mcp.WithString("after_phase_id", mcp.Description("Existing phase to insert after.")),
	)
}

// Handle processes the flow_add_phase tool call.
func (t *AddPhaseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	phase, err := requireObject(req, "phase")
	if err != nil {
		return toolError(err)
	}

	added, err := t.editor.AddPhase(flowID, phase, req.GetString("after_phase_id", ""))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{"added": added.ID, "phase": added})
}

// --- flow_delete_phase ---

// DeletePhaseTool handles the flow_delete_phase MCP tool.
type DeletePhaseTool struct {
	editor *editor.Editor
}

// NewDeletePhaseTool creates a DeletePhaseTool.
func NewDeletePhaseTool(e *editor.Editor) *DeletePhaseTool {
	return &DeletePhaseTool{editor: e}
}

// Definition returns the MCP tool definition for registration.
func (t *DeletePhaseTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_delete_phase",
		mcp.WithDescription(
			"Delete a phase. Its nodes stay in the flow with their 'phase' field cleared; "+
				"delete them with flow_delete_node if they should go too.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithString("phase_id", mcp.Required(), mcp.Description("Id of the phase to delete.")),
	)
}

// Handle processes the flow_delete_phase tool call.
func (t *DeletePhaseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	phaseID, err := requireString(req, "phase_id")
	if err != nil {
		return toolError(err)
	}

	removed, err := t.editor.DeletePhase(flowID, phaseID)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{"deleted": phaseID, "orphaned_nodes": removed.Nodes})
}
