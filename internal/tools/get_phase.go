package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/HendryAvila/flowdoc/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// GetPhaseTool handles the flow_get_phase MCP tool.
type GetPhaseTool struct {
	store store.Store
}

// NewGetPhaseTool creates a GetPhaseTool.
func NewGetPhaseTool(s store.Store) *GetPhaseTool {
	return &GetPhaseTool{store: s}
}

// Definition returns the MCP tool definition for registration.
func (t *GetPhaseTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_get_phase",
		mcp.WithDescription(
			"Return one phase of a flow. With include_nodes (default true) the node "+
				"objects it lists are returned as well, in phase order.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithString("phase_id", mcp.Required(), mcp.Description("Id of the phase to return.")),
		mcp.WithBoolean("include_nodes", mcp.Description("Also return the listed node objects. Default: true")),
	)
}

type phaseResult struct {
	Phase *flow.Phase `json:"phase"`
	Nodes []flow.Node `json:"nodes,omitempty"`
}

// Handle processes the flow_get_phase tool call.
func (t *GetPhaseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	phaseID, err := requireString(req, "phase_id")
	if err != nil {
		return toolError(err)
	}

	f, err := t.store.Load(flowID)
	if err != nil {
		return toolError(err)
	}
	phase, _, err := f.FindPhase(phaseID)
	if err != nil {
		return toolError(err)
	}

	res := phaseResult{Phase: phase}
	if req.GetBool("include_nodes", true) {
		res.Nodes = f.PhaseNodes(phase)
	}
	return jsonResult(res)
}
