package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/HendryAvila/flowdoc/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// GetNodeTool handles the flow_get_node MCP tool.
type GetNodeTool struct {
	store store.Store
}

// NewGetNodeTool creates a GetNodeTool.
func NewGetNodeTool(s store.Store) *GetNodeTool {
	return &GetNodeTool{store: s}
}

// Definition returns the MCP tool definition for registration.
func (t *GetNodeTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_get_node",
		mcp.WithDescription(
			"Return one node of a flow, together with the id of the phase that lists it "+
				"and the edges that start or end at it.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Id of the node to return.")),
	)
}

type nodeResult struct {
	Node     *flow.Node  `json:"node"`
	ListedIn string      `json:"listed_in,omitempty"`
	Incoming []flow.Edge `json:"incoming"`
	Outgoing []flow.Edge `json:"outgoing"`
}

// Handle processes the flow_get_node tool call.
func (t *GetNodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	nodeID, err := requireString(req, "node_id")
	if err != nil {
		return toolError(err)
	}

	f, err := t.store.Load(flowID)
	if err != nil {
		return toolError(err)
	}
	node, _, err := f.FindNode(nodeID)
	if err != nil {
		return toolError(err)
	}

	res := nodeResult{Node: node, Incoming: []flow.Edge{}, Outgoing: []flow.Edge{}}
	if p, err := f.PhaseOfNode(nodeID); err == nil {
		res.ListedIn = p.ID
	}
	for _, e := range f.Edges {
		if e.To == nodeID {
			res.Incoming = append(res.Incoming, e)
		}
		if e.From == nodeID {
			res.Outgoing = append(res.Outgoing, e)
		}
	}
	return jsonResult(res)
}
