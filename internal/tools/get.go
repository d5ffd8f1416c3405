package tools

import (
	"context"
	"encoding/json"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/HendryAvila/flowdoc/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

// flowIDDescription is shared by every tool taking a flow_id.
const flowIDDescription = "Flow identifier: the bare name ('checkout'), the name with suffix ('checkout.cf') " +
	"or the file name ('checkout.cf.json')."

// GetTool handles the flow_get MCP tool.
type GetTool struct {
	store store.Store
}

// NewGetTool creates a GetTool.
func NewGetTool(s store.Store) *GetTool {
	return &GetTool{store: s}
}

// Definition returns the MCP tool definition for registration.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_get",
		mcp.WithDescription(
			"Return a whole flow document exactly as stored. "+
				"Use format='yaml' for a more compact rendering when reading large flows.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default, byte-exact) or 'yaml'."),
			mcp.Enum("json", "yaml"),
		),
	)
}

// Handle processes the flow_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	format := req.GetString("format", "json")

	raw, err := t.store.LoadRaw(flowID)
	if err != nil {
		return toolError(err)
	}

	switch format {
	case "json":
		return mcp.NewToolResultText(string(raw)), nil
	case "yaml":
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return toolError(&flow.MalformedError{Msg: "stored flow is not valid JSON", Err: err})
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return toolError(&flow.MalformedError{Msg: "rendering yaml", Err: err})
		}
		return mcp.NewToolResultText(string(out)), nil
	default:
		return mcp.NewToolResultError("'format' must be 'json' or 'yaml'"), nil
	}
}
