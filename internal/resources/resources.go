// Package resources implements MCP resource handlers for flow documents.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (flowdoc://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/HendryAvila/flowdoc/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// IndexURI lists the stored flows.
	IndexURI = "flowdoc://flows"
	// FlowURIPrefix addresses one stored flow: flowdoc://flows/<id>.
	FlowURIPrefix = IndexURI + "/"
)

// Handler manages flow resource endpoints.
type Handler struct {
	store store.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(s store.Store) *Handler {
	return &Handler{store: s}
}

// SchemaResource returns the MCP resource definition for the document schema.
func (h *Handler) SchemaResource() mcp.Resource {
	return mcp.NewResource(
		flow.SchemaID,
		"Flow Document Schema",
		mcp.WithResourceDescription("JSON Schema describing a flow document"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSchema returns the generated JSON Schema.
func (h *Handler) HandleSchema(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := flow.Schema()
	if err != nil {
		return nil, fmt.Errorf("generating schema: %w", err)
	}
	return jsonContents(req.Params.URI, data), nil
}

// IndexResource returns the MCP resource definition for the flow index.
func (h *Handler) IndexResource() mcp.Resource {
	return mcp.NewResource(
		IndexURI,
		"Flow Documents",
		mcp.WithResourceDescription("Every stored flow document with its file name and modification time"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleIndex returns the stored flow entries as JSON.
func (h *Handler) HandleIndex(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries, err := h.store.List()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling index: %w", err)
	}
	return jsonContents(req.Params.URI, data), nil
}

// FlowTemplate returns the MCP resource template addressing one flow.
func (h *Handler) FlowTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		FlowURIPrefix+"{id}",
		"Flow Document",
		mcp.WithTemplateDescription("A stored flow document, exactly as written on disk"),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// HandleFlow returns the raw bytes of the flow named by the URI.
func (h *Handler) HandleFlow(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, FlowURIPrefix)
	if id == uri || id == "" {
		return errorResource(uri, "expected "+FlowURIPrefix+"<id>"), nil
	}

	raw, err := h.store.LoadRaw(id)
	if err != nil {
		if errors.Is(err, flow.ErrIO) {
			return nil, err
		}
		return errorResource(uri, err.Error()), nil
	}
	return jsonContents(uri, raw), nil
}

func jsonContents(uri string, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
