// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on abstractions.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/flowdoc/internal/config"
	"github.com/HendryAvila/flowdoc/internal/editor"
	"github.com/HendryAvila/flowdoc/internal/gitinfo"
	"github.com/HendryAvila/flowdoc/internal/prompts"
	"github.com/HendryAvila/flowdoc/internal/resources"
	"github.com/HendryAvila/flowdoc/internal/revisions"
	"github.com/HendryAvila/flowdoc/internal/store"
	"github.com/HendryAvila/flowdoc/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the server name announced to MCP clients.
const Name = "flowdoc"

// tool is the registration surface shared by every tool handler.
type tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Deps are the concrete dependencies resolved from configuration.
type Deps struct {
	Store   *store.FileStore
	Editor  *editor.Editor
	Git     *gitinfo.Reader
	History *revisions.Store // nil when history is disabled or unavailable
}

// Open resolves the shared dependencies for cfg. The revision history is
// optional: if its database cannot be opened the editor keeps working
// without it and a warning is logged.
//
// The returned cleanup function closes the history database and must be
// called on shutdown (typically via defer). It is always non-nil.
func Open(cfg config.Config, log *zap.Logger) (*Deps, func()) {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Deps{
		Store: store.NewFileStore(cfg.FlowsDir),
		Git:   gitinfo.NewReader(cfg.ProjectRoot, cfg.GitCacheTTL),
	}
	d.Editor = editor.New(d.Store, log.Named("editor"))
	d.Editor.SetCommitSource(d.Git)

	cleanup := noop
	if !cfg.HistoryEnabled {
		return d, cleanup
	}
	hist, err := revisions.New(revisions.Config{DataDir: cfg.DataDir, MaxPerFlow: cfg.HistoryMax})
	if err != nil {
		log.Warn("revision history disabled", zap.Error(err))
		return d, cleanup
	}
	d.History = hist
	d.Editor.SetRecorder(hist)
	cleanup = func() {
		if err := hist.Close(); err != nil {
			log.Warn("closing revision history", zap.Error(err))
		}
	}
	return d, cleanup
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
func New(cfg config.Config, log *zap.Logger) (*server.MCPServer, func(), error) {
	if cfg.FlowsDir == "" {
		return nil, noop, fmt.Errorf("flows directory is not configured")
	}
	if log == nil {
		log = zap.NewNop()
	}
	deps, cleanup := Open(cfg, log)

	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	for _, t := range buildTools(deps) {
		s.AddTool(t.Definition(), t.Handle)
	}

	// --- Register prompts ---

	documentPrompt := prompts.NewDocumentPrompt()
	s.AddPrompt(documentPrompt.Definition(), documentPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(deps.Store)
	s.AddResource(resourceHandler.SchemaResource(), resourceHandler.HandleSchema)
	s.AddResource(resourceHandler.IndexResource(), resourceHandler.HandleIndex)
	s.AddResourceTemplate(resourceHandler.FlowTemplate(), resourceHandler.HandleFlow)

	log.Info("server ready",
		zap.String("version", Version),
		zap.String("flows_dir", cfg.FlowsDir),
		zap.Bool("history", deps.History != nil),
	)
	return s, cleanup, nil
}

// buildTools returns every tool to register, in listing order. History
// tools are only offered when the revision store is available.
func buildTools(d *Deps) []tool {
	list := []tool{
		// Read
		tools.NewListTool(d.Store, d.Git),
		tools.NewGetTool(d.Store),
		tools.NewGetNodeTool(d.Store),
		tools.NewGetPhaseTool(d.Store),
		tools.NewQueryTool(d.Store),
		tools.NewValidateTool(d.Store),
		tools.NewSchemaTool(),

		// Whole-document writes
		tools.NewCreateTool(d.Editor),
		tools.NewWriteTool(d.Editor),
		tools.NewDeleteTool(d.Editor),

		// Targeted edits
		tools.NewUpdateNodeTool(d.Editor),
		tools.NewAddNodeTool(d.Editor),
		tools.NewDeleteNodeTool(d.Editor),
		tools.NewUpdatePhaseTool(d.Editor),
		tools.NewAddPhaseTool(d.Editor),
		tools.NewDeletePhaseTool(d.Editor),
		tools.NewUpdateMetadataTool(d.Editor),
		tools.NewPatchTool(d.Editor),
	}
	if d.History != nil {
		list = append(list,
			tools.NewHistoryTool(d.History),
			tools.NewRevisionTool(d.History),
		)
	}
	return list
}

// noop is a no-op cleanup function used as the default when history
// is disabled or failed to open.
func noop() {}

func serverInstructions() string {
	return `You have access to flowdoc, an MCP server for flow documents.

A flow document (<name>.cf.json in the flows directory) describes one code
path: a summary (input, output, purpose), ordered phases, and typed nodes
(input, output, validation, transform, query, logic, command, event,
external, condition) that point back to the source through "ref".

## READING

- flow_list: every flow with counts and validity. Start here.
- flow_get: a whole document (json, or yaml for a compact view).
- flow_get_node / flow_get_phase: one node or phase with its context.
- flow_query: a JSONPath slice, e.g. $.phases[0].nodes.
- flow_schema: the document JSON Schema.

## EDITING

Prefer the smallest tool that does the job. Never rewrite a whole document
to change one node.

- flow_update_node: DEEP merge. Nested objects merge; arrays and scalars
  replace. To append to an array, send the full new array.
- flow_update_phase: SHALLOW merge. Sending "nodes" replaces the ordered list.
- flow_add_node / flow_add_phase: positional inserts (after_node_id,
  after_phase_id).
- flow_delete_node: also removes the id from phases and drops its edges.
- flow_delete_phase: keeps the phase's nodes.
- flow_patch: RFC 6902 JSON Patch, all-or-nothing. A "test" op guards
  against concurrent edits. dry_run previews the result.
- flow_write / flow_create / flow_delete: whole documents.

flow_write and flow_patch refuse to write a document that fails validation.
The targeted tools trust their input, so run flow_validate after a batch of
edits and finish with flow_update_metadata and a changelog line.

## HISTORY

When enabled, every write is recorded. flow_history lists revisions and
flow_revision returns one; pass its content to flow_write to restore it.`
}
