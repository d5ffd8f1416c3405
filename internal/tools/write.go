package tools

import (
	"context"
	"encoding/json"

	"github.com/HendryAvila/flowdoc/internal/editor"
	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/mark3labs/mcp-go/mcp"
)

// WriteTool handles the flow_write MCP tool.
type WriteTool struct {
	editor *editor.Editor
}

// NewWriteTool creates a WriteTool.
func NewWriteTool(e *editor.Editor) *WriteTool {
	return &WriteTool{editor: e}
}

// Definition returns the MCP tool definition for registration.
func (t *WriteTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_write",
		mcp.WithDescription(
			"Write a whole flow document, creating or replacing it. The content must pass "+
				"validation; otherwise nothing is written and the violations are returned. "+
				"Prefer the targeted tools or flow_patch for edits to an existing flow.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithObject("content", mcp.Required(), mcp.Description("The complete document (object or JSON string).")),
	)
}

// Handle processes the flow_write tool call.
func (t *WriteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}

	var data []byte
	switch content := req.GetArguments()["content"].(type) {
	case nil:
		return toolError(flow.Malformedf("'content' is required"))
	case string:
		data = []byte(content)
	default:
		if data, err = json.Marshal(content); err != nil {
			return toolError(&flow.MalformedError{Msg: "encoding content", Err: err})
		}
	}

	f, err := t.editor.WriteFlow(flowID, data)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{
		"written": flowID,
		"phases":  len(f.Phases),
		"nodes":   len(f.Nodes),
	})
}
