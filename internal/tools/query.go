package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/HendryAvila/flowdoc/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/oliveagle/jsonpath"
)

// QueryTool handles the flow_query MCP tool.
type QueryTool struct {
	store store.Store
}

// NewQueryTool creates a QueryTool.
func NewQueryTool(s store.Store) *QueryTool {
	return &QueryTool{store: s}
}

// Definition returns the MCP tool definition for registration.
func (t *QueryTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_query",
		mcp.WithDescription(
			"Evaluate a JSONPath expression against a flow document and return the match. "+
				"Useful to read a slice of a large flow without fetching all of it. "+
				"Examples: '$.nodes[*].id', '$.phases[0].nodes', '$.nodes[2].data', '$.summary.purpose'.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithString("path", mcp.Required(), mcp.Description("JSONPath expression, starting with '$'.")),
	)
}

// Handle processes the flow_query tool call.
func (t *QueryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	path, err := requireString(req, "path")
	if err != nil {
		return toolError(err)
	}
	if !strings.HasPrefix(path, "$") {
		return mcp.NewToolResultError("'path' must be a JSONPath expression starting with '$'"), nil
	}

	raw, err := t.store.LoadRaw(flowID)
	if err != nil {
		return toolError(err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return toolError(&flow.MalformedError{Msg: "stored flow is not valid JSON", Err: err})
	}

	match, err := lookup(doc, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query %q: %v", path, err)), nil
	}
	return jsonResult(map[string]any{"path": path, "result": match})
}

// lookup runs the JSONPath evaluator, which panics on some malformed
// expressions instead of returning an error.
func lookup(doc any, path string) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid expression: %v", r)
		}
	}()
	return jsonpath.JsonPathLookup(doc, path)
}
