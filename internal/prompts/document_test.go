package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if len(res.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(res.Messages))
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T", res.Messages[0].Content)
	}
	return tc.Text
}

func TestDocumentPrompt_WithArguments(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"flow_id": "checkout", "entry_point": "POST /checkout"}

	res, err := NewDocumentPrompt().Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, res)
	if !strings.Contains(text, "'checkout' flow") || !strings.Contains(text, "`POST /checkout`") {
		t.Errorf("prompt text missing arguments:\n%s", text)
	}
	if res.Description != "Document flow: checkout" {
		t.Errorf("description = %q", res.Description)
	}
}

func TestDocumentPrompt_Defaults(t *testing.T) {
	res, err := NewDocumentPrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := promptText(t, res); !strings.Contains(text, "my-flow") || !strings.Contains(text, "Ask me where") {
		t.Errorf("default prompt text:\n%s", text)
	}
}
