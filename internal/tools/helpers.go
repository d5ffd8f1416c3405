// Package tools implements the MCP tool handlers for flow documents.
//
// Each tool is a struct that receives its dependencies in the constructor
// and exposes Definition (for registration) and Handle (the mcp-go
// handler signature).
//
// Design principles:
// - SRP: each file = one tool (or one tightly related pair)
// - DIP: tools depend on the editor and small interfaces, not on storage details
// - Domain failures become tool error results the agent can read and act
//   on; storage failures surface as Go errors
package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/HendryAvila/flowdoc/internal/flow"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolError maps err onto the MCP result contract: not-found, conflict,
// malformed input and validation failures become tool error results with
// a readable message; everything else (I/O) is returned as a Go error.
func toolError(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, flow.ErrNotFound),
		errors.Is(err, flow.ErrConflict),
		errors.Is(err, flow.ErrMalformed),
		errors.Is(err, flow.ErrValidation):
		return mcp.NewToolResultError(err.Error()), nil
	default:
		return nil, err
	}
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// requireString returns the named string argument or a Malformed error.
func requireString(req mcp.CallToolRequest, name string) (string, error) {
	v := req.GetString(name, "")
	if v == "" {
		return "", flow.Malformedf("'%s' is required", name)
	}
	return v, nil
}

// valueArg returns the raw named argument. Agents sometimes send objects and
// arrays JSON-encoded as strings; a string that parses as a JSON object or
// array is decoded, anything else is returned unchanged.
func valueArg(req mcp.CallToolRequest, name string) (any, bool) {
	v, ok := req.GetArguments()[name]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			switch decoded.(type) {
			case map[string]any, []any:
				return decoded, true
			}
		}
	}
	return v, true
}

// objectArg returns the named argument as a JSON object. Missing is
// reported through ok=false; a present non-object is Malformed.
func objectArg(req mcp.CallToolRequest, name string) (obj map[string]any, ok bool, err error) {
	v, present := valueArg(req, name)
	if !present {
		return nil, false, nil
	}
	m, isObject := v.(map[string]any)
	if !isObject {
		return nil, true, flow.Malformedf("'%s' must be a JSON object", name)
	}
	return m, true, nil
}

// requireObject is objectArg for mandatory arguments.
func requireObject(req mcp.CallToolRequest, name string) (map[string]any, error) {
	m, ok, err := objectArg(req, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, flow.Malformedf("'%s' is required", name)
	}
	return m, nil
}
