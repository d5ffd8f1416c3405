// Package prompts implements MCP prompt handlers for documenting flows.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// DocumentPrompt handles the flow-document MCP prompt.
// It guides the AI to trace a code path and record it as a flow document.
type DocumentPrompt struct{}

// NewDocumentPrompt creates a DocumentPrompt.
func NewDocumentPrompt() *DocumentPrompt {
	return &DocumentPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *DocumentPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("flow-document",
		mcp.WithPromptDescription(
			"Document a code path as a flow: trace it from its entry point, "+
				"split it into phases and record every step as a typed node.",
		),
		mcp.WithArgument("flow_id",
			mcp.ArgumentDescription("Name of the flow document to create or extend, e.g. 'checkout'"),
		),
		mcp.WithArgument("entry_point",
			mcp.ArgumentDescription("Where the flow starts, e.g. 'POST /checkout' or 'billing/charge.go:Charge'"),
		),
	)
}

// Handle processes the flow-document prompt request.
func (p *DocumentPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	flowID := "my-flow"
	entry := ""
	if args := req.Params.Arguments; args != nil {
		if v := strings.TrimSpace(args["flow_id"]); v != "" {
			flowID = v
		}
		entry = strings.TrimSpace(args["entry_point"])
	}

	start := "Ask me where the flow starts (a route, a command, a message handler)."
	if entry != "" {
		start = fmt.Sprintf("The flow starts at `%s`.", entry)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Document flow: %s", flowID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to document the '%s' flow. %s\n\n"+
						"Please:\n"+
						"1. Run `flow_list` to see whether '%s' already exists. If it does, read it with `flow_get` and extend it instead of starting over\n"+
						"2. Otherwise run `flow_schema` once, then `flow_create` with a name and a summary (input, output, purpose)\n"+
						"3. Read the code from the entry point and group the steps into phases; add each with `flow_add_phase`\n"+
						"4. Add one node per step with `flow_add_node`, choosing the closest type "+
						"(input, validation, transform, query, logic, command, event, external, condition, output) "+
						"and filling `ref` with file, function and line\n"+
						"5. Fix mistakes with `flow_update_node` or `flow_patch`, never by rewriting the whole document\n"+
						"6. Run `flow_validate` and fix every violation\n"+
						"7. Finish with `flow_update_metadata` and a one-line changelog",
					flowID, start, flowID,
				)),
			},
		},
	}, nil
}
