package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/HendryAvila/flowdoc/internal/gitinfo"
	"github.com/HendryAvila/flowdoc/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// GitSource reports the checkout state of the project. Optional: a nil
// source simply omits git details from listings.
type GitSource interface {
	Info() (gitinfo.Info, bool)
}

// ListTool handles the flow_list MCP tool.
type ListTool struct {
	store store.Store
	git   GitSource
}

// NewListTool creates a ListTool.
func NewListTool(s store.Store, git GitSource) *ListTool {
	return &ListTool{store: s, git: git}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("flow_list",
		mcp.WithDescription(
			"List every flow document in the flows directory with its name, "+
				"phase and node counts and whether it currently passes validation. "+
				"Also reports the git branch and commit of the project when available.",
		),
	)
}

type listEntry struct {
	ID         string `json:"id"`
	File       string `json:"file"`
	Name       string `json:"name,omitempty"`
	Phases     int    `json:"phases"`
	Nodes      int    `json:"nodes"`
	Valid      bool   `json:"valid"`
	Violations int    `json:"violations"`
	Modified   string `json:"modified"`
}

type listResult struct {
	Git   *gitinfo.Info `json:"git,omitempty"`
	Count int           `json:"count"`
	Flows []listEntry   `json:"flows"`
}

// Handle processes the flow_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := t.store.List()
	if err != nil {
		return toolError(err)
	}

	res := listResult{Flows: make([]listEntry, 0, len(entries))}
	if t.git != nil {
		if info, ok := t.git.Info(); ok {
			res.Git = &info
		}
	}

	for _, e := range entries {
		item := listEntry{ID: e.ID, File: e.File, Modified: e.Modified.Format(time.RFC3339)}
		raw, err := t.store.LoadRaw(e.ID)
		if err != nil {
			return toolError(err)
		}
		summarize(raw, &item)
		res.Flows = append(res.Flows, item)
	}
	res.Count = len(res.Flows)
	return jsonResult(res)
}

// summarize fills the descriptive fields of item from raw document bytes.
// Unparseable documents are listed as invalid rather than skipped.
func summarize(raw []byte, item *listEntry) {
	result := flow.ValidateBytes(raw, flow.ValidateOptions{Strict: true})
	item.Valid = result.Valid
	item.Violations = len(result.Violations)

	var doc struct {
		Name   string            `json:"name"`
		Phases []json.RawMessage `json:"phases"`
		Nodes  []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return
	}
	item.Name = doc.Name
	item.Phases = len(doc.Phases)
	item.Nodes = len(doc.Nodes)
}
