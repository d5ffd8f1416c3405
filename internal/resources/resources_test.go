package resources

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/HendryAvila/flowdoc/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

func newHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "flow", "testdata", "checkout.cf.json"))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "checkout.cf.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	return NewHandler(store.NewFileStore(dir)), string(data)
}

func readReq(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func text(t *testing.T, contents []mcp.ResourceContents) mcp.TextResourceContents {
	t.Helper()
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] = %T", contents[0])
	}
	return tc
}

func TestHandleSchema(t *testing.T) {
	h, _ := newHandler(t)
	contents, err := h.HandleSchema(context.Background(), readReq(flow.SchemaID))
	if err != nil {
		t.Fatalf("HandleSchema: %v", err)
	}
	tc := text(t, contents)
	if tc.MIMEType != "application/json" || !strings.Contains(tc.Text, flow.SchemaID) {
		t.Errorf("unexpected schema contents: %s", tc.MIMEType)
	}
}

func TestHandleIndex(t *testing.T) {
	h, _ := newHandler(t)
	contents, err := h.HandleIndex(context.Background(), readReq(IndexURI))
	if err != nil {
		t.Fatalf("HandleIndex: %v", err)
	}
	var entries []store.Entry
	if err := json.Unmarshal([]byte(text(t, contents).Text), &entries); err != nil {
		t.Fatalf("decoding index: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "checkout" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestHandleFlow(t *testing.T) {
	h, raw := newHandler(t)

	contents, err := h.HandleFlow(context.Background(), readReq(FlowURIPrefix+"checkout"))
	if err != nil {
		t.Fatalf("HandleFlow: %v", err)
	}
	if got := text(t, contents).Text; got != raw {
		t.Error("flow resource should return the stored bytes")
	}

	contents, err = h.HandleFlow(context.Background(), readReq(FlowURIPrefix+"missing"))
	if err != nil {
		t.Fatalf("HandleFlow missing: %v", err)
	}
	if tc := text(t, contents); tc.MIMEType != "text/plain" || !strings.HasPrefix(tc.Text, "Error:") {
		t.Errorf("missing flow contents = %+v", tc)
	}
}
