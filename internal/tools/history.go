package tools

import (
	"context"

	"github.com/HendryAvila/flowdoc/internal/revisions"
	"github.com/HendryAvila/flowdoc/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// RevisionLog is the read side of the revision history.
type RevisionLog interface {
	List(flowID string, limit int) ([]revisions.Revision, error)
	Get(id string) (*revisions.Revision, error)
}

// --- flow_history ---

// HistoryTool handles the flow_history MCP tool.
type HistoryTool struct {
	log RevisionLog
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(log RevisionLog) *HistoryTool {
	return &HistoryTool{log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_history",
		mcp.WithDescription(
			"List recorded revisions of a flow, newest first: revision id, operation, summary, "+
				"content hash and time. Fetch a revision's full content with flow_revision.",
		),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description(flowIDDescription)),
		mcp.WithNumber("limit", mcp.Description("Maximum revisions to return. Default: 20")),
	)
}

// Handle processes the flow_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := requireString(req, "flow_id")
	if err != nil {
		return toolError(err)
	}
	if _, err := store.FileName(flowID); err != nil {
		return toolError(err)
	}
	limit := int(req.GetFloat("limit", 20))

	revs, err := t.log.List(store.DocName(flowID), limit)
	if err != nil {
		return toolError(err)
	}
	if revs == nil {
		revs = []revisions.Revision{}
	}
	return jsonResult(map[string]any{"flow": store.DocName(flowID), "revisions": revs})
}

// --- flow_revision ---

// RevisionTool handles the flow_revision MCP tool.
type RevisionTool struct {
	log RevisionLog
}

// NewRevisionTool creates a RevisionTool.
func NewRevisionTool(log RevisionLog) *RevisionTool {
	return &RevisionTool{log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *RevisionTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_revision",
		mcp.WithDescription(
			"Return one recorded revision including the full document content as it was written. "+
				"To restore it, pass the content to flow_write.",
		),
		mcp.WithString("revision_id", mcp.Required(), mcp.Description("Revision id from flow_history.")),
	)
}

// Handle processes the flow_revision tool call.
func (t *RevisionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "revision_id")
	if err != nil {
		return toolError(err)
	}
	rev, err := t.log.Get(id)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(rev)
}
