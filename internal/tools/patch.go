package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/editor"
	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/mark3labs/mcp-go/mcp"
)

// PatchTool handles the flow_patch MCP tool.
type PatchTool struct {
	editor *editor.Editor
}

// NewPatchTool creates a PatchTool.
func NewPatchTool(e *editor.Editor) *PatchTool {
	return &PatchTool{editor: e}
}

// Definition returns the MCP tool definition for registration.
func (t *PatchTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_patch",
		mcp.WithDescription(
			"Apply a JSON Patch (RFC 6902) to a flow as one transaction. Operations: add, remove, "+
				"replace, move, copy, test; paths are JSON Pointers such as '/nodes/0/label' or "+
				"'/phases/1/nodes/-' (append). If any operation fails, or the result does not pass "+
				"validation, nothing is written and the error names the failing operation index "+
				"or lists the violations. Use dry_run to preview.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithArray("operations", mcp.Required(),
			mcp.Description("Ordered operations, e.g. [{\"op\": \"test\", \"path\": \"/name\", \"value\": \"Checkout\"}, "+
				"{\"op\": \"replace\", \"path\": \"/name\", \"value\": \"Checkout v2\"}]."),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithBoolean("dry_run", mcp.Description("Validate and return the patched document without writing it. Default: false")),
	)
}

// Handle processes the flow_patch tool call.
func (t *PatchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	raw, ok := valueArg(req, "operations")
	if !ok {
		return toolError(flow.Malformedf("'operations' is required"))
	}
	ops, err := editor.ParseOperations(raw)
	if err != nil {
		return toolError(err)
	}

	dryRun := req.GetBool("dry_run", false)
	f, err := t.editor.PatchFlow(flowID, ops, dryRun)
	if err != nil {
		return toolError(err)
	}
	if dryRun {
		return jsonResult(map[string]any{"dry_run": true, "applied": len(ops), "flow": f})
	}
	return jsonResult(map[string]any{"patched": flowID, "applied": len(ops)})
}
