package tools

import (
	"context"
	"encoding/json"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/HendryAvila/flowdoc/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ValidateTool handles the flow_validate MCP tool.
type ValidateTool struct {
	store store.Store
}

// NewValidateTool creates a ValidateTool.
func NewValidateTool(s store.Store) *ValidateTool {
	return &ValidateTool{store: s}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_validate",
		mcp.WithDescription(
			"Lint a flow document and return every violation with its path "+
				"(e.g. 'phases[1].nodes[0]'). Pass flow_id to check a stored document, or content "+
				"to check a candidate before writing it. An invalid document is a normal result, "+
				"not a tool error.",
		),
		mcp.WithString("flow_id", mcp.Description(flowIDDescription+" Ignored when content is given.")),
		mcp.WithObject("content", mcp.Description("Candidate document (object or JSON string) to validate instead of a stored one.")),
		mcp.WithBoolean("strict", mcp.Description("Require version to equal the current format tag. Default: true")),
	)
}

// Handle processes the flow_validate tool call.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := flow.ValidateOptions{Strict: req.GetBool("strict", true)}

	if content, ok := req.GetArguments()["content"]; ok && content != nil {
		if s, isString := content.(string); isString {
			return jsonResult(flow.ValidateBytes([]byte(s), opts))
		}
		// Round-trip so numbers and nesting match what a decoder would see.
		data, err := json.Marshal(content)
		if err != nil {
			return toolError(&flow.MalformedError{Msg: "encoding content", Err: err})
		}
		return jsonResult(flow.ValidateBytes(data, opts))
	}

	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return mcp.NewToolResultError("either 'flow_id' or 'content' is required"), nil
	}
	raw, err := t.store.LoadRaw(flowID)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(flow.ValidateBytes(raw, opts))
}
