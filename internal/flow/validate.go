package flow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Violation is one broken rule, located by a dot/bracket path into the
// document (e.g. "phases[1].nodes[0]").
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Result is the outcome of a validation run. Valid is true iff Violations
// is empty.
type Result struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

// Err returns a *ValidationError for an invalid result, nil otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Violations: r.Violations}
}

// ValidateOptions tunes the linter.
type ValidateOptions struct {
	// Strict requires version to equal FormatVersion. When false only its
	// presence is checked.
	Strict bool
}

// Validate lints candidate strictly. See ValidateWith.
func Validate(candidate any) Result {
	return ValidateWith(candidate, ValidateOptions{Strict: true})
}

// ValidateBytes parses raw JSON and lints it. A parse failure is reported
// as a single violation at path "$".
func ValidateBytes(data []byte, opts ValidateOptions) Result {
	var candidate any
	if err := json.Unmarshal(data, &candidate); err != nil {
		return Result{
			Violations: []Violation{{Path: "$", Message: fmt.Sprintf("invalid JSON: %v", err)}},
		}
	}
	return ValidateWith(candidate, opts)
}

// ValidateFlow lints a typed document by way of its encoded form.
func ValidateFlow(f *Flow) Result {
	m, err := ToMap(f)
	if err != nil {
		return Result{
			Violations: []Violation{{Path: "$", Message: fmt.Sprintf("encoding document: %v", err)}},
		}
	}
	return Validate(m)
}

// ValidateWith checks candidate, a decoded JSON value of unknown shape,
// against the format rules. Every rule runs; wrong types are reported as
// violations, never as panics. Rules run in this order:
//
//  1. root: version, id, name
//  2. summary: input, output, purpose
//  3. phases: id (unique), name, description, nodes array
//  4. nodes: id (unique), type, label, data object
//  5. every phase.nodes entry references an existing node
func ValidateWith(candidate any, opts ValidateOptions) Result {
	v := &validator{opts: opts}
	v.run(candidate)
	if v.violations == nil {
		v.violations = []Violation{}
	}
	return Result{Valid: len(v.violations) == 0, Violations: v.violations}
}

type validator struct {
	opts       ValidateOptions
	violations []Violation
}

func (v *validator) add(path, format string, args ...any) {
	v.violations = append(v.violations, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) run(candidate any) {
	root, ok := candidate.(map[string]any)
	if !ok {
		v.add("", "document must be an object, got %s", typeName(candidate))
		return
	}

	v.checkRoot(root)
	v.checkSummary(root)
	phases := v.checkPhases(root)
	nodeIDs := v.checkNodes(root)
	v.checkReferences(phases, nodeIDs)
}

func (v *validator) checkRoot(root map[string]any) {
	version, present := root["version"]
	switch {
	case !present:
		v.add("version", "required")
	case v.opts.Strict && version != FormatVersion:
		v.add("version", "must be %q, got %s", FormatVersion, describe(version))
	case !v.opts.Strict:
		if _, ok := version.(string); !ok {
			v.add("version", "must be a string, got %s", typeName(version))
		}
	}

	v.requireString(root, "id", "id")
	v.requireString(root, "name", "name")
}

func (v *validator) checkSummary(root map[string]any) {
	raw, present := root["summary"]
	if !present {
		v.add("summary", "required")
		return
	}
	summary, ok := raw.(map[string]any)
	if !ok {
		v.add("summary", "must be an object, got %s", typeName(raw))
		return
	}
	for _, key := range []string{"input", "output", "purpose"} {
		v.requireNonEmpty(summary, key, "summary."+key)
	}
}

// phaseRefs is what the reference pass needs from a phase.
type phaseRefs struct {
	index int
	refs  []any
}

func (v *validator) checkPhases(root map[string]any) []phaseRefs {
	raw, present := root["phases"]
	if !present {
		v.add("phases", "required")
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		v.add("phases", "must be an array, got %s", typeName(raw))
		return nil
	}

	var out []phaseRefs
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		path := fmt.Sprintf("phases[%d]", i)
		phase, ok := item.(map[string]any)
		if !ok {
			v.add(path, "must be an object, got %s", typeName(item))
			continue
		}

		if id, ok := v.requireString(phase, "id", path+".id"); ok {
			if seen[id] {
				v.add(path+".id", "duplicate phase id %q", id)
			}
			seen[id] = true
		}
		v.requireString(phase, "name", path+".name")
		v.requireString(phase, "description", path+".description")

		nodes, present := phase["nodes"]
		if !present {
			v.add(path+".nodes", "required")
			continue
		}
		refs, ok := nodes.([]any)
		if !ok {
			v.add(path+".nodes", "must be an array, got %s", typeName(nodes))
			continue
		}
		out = append(out, phaseRefs{index: i, refs: refs})
	}
	return out
}

func (v *validator) checkNodes(root map[string]any) map[string]bool {
	ids := make(map[string]bool)

	raw, present := root["nodes"]
	if !present {
		v.add("nodes", "required")
		return ids
	}
	list, ok := raw.([]any)
	if !ok {
		v.add("nodes", "must be an array, got %s", typeName(raw))
		return ids
	}

	for i, item := range list {
		path := fmt.Sprintf("nodes[%d]", i)
		node, ok := item.(map[string]any)
		if !ok {
			v.add(path, "must be an object, got %s", typeName(item))
			continue
		}

		if id, ok := v.requireString(node, "id", path+".id"); ok {
			if ids[id] {
				v.add(path+".id", "duplicate node id %q", id)
			}
			ids[id] = true
		}
		v.requireString(node, "type", path+".type")
		v.requireString(node, "label", path+".label")

		data, present := node["data"]
		if !present {
			v.add(path+".data", "required")
		} else if _, ok := data.(map[string]any); !ok {
			v.add(path+".data", "must be an object, got %s", typeName(data))
		}
	}
	return ids
}

func (v *validator) checkReferences(phases []phaseRefs, nodeIDs map[string]bool) {
	for _, p := range phases {
		for j, ref := range p.refs {
			path := fmt.Sprintf("phases[%d].nodes[%d]", p.index, j)
			id, ok := ref.(string)
			if !ok {
				v.add(path, "node reference must be a string, got %s", typeName(ref))
				continue
			}
			if !nodeIDs[id] {
				v.add(path, "references unknown node %q", id)
			}
		}
	}
}

// requireString checks obj[key] is present and a string.
func (v *validator) requireString(obj map[string]any, key, path string) (string, bool) {
	raw, present := obj[key]
	if !present {
		v.add(path, "required")
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		v.add(path, "must be a string, got %s", typeName(raw))
		return "", false
	}
	return s, true
}

// requireNonEmpty is requireString that also rejects blank strings.
func (v *validator) requireNonEmpty(obj map[string]any, key, path string) {
	s, ok := v.requireString(obj, key, path)
	if ok && strings.TrimSpace(s) == "" {
		v.add(path, "must not be empty")
	}
}

// typeName names the JSON type of a decoded value.
func typeName(x any) string {
	switch x.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", x)
	}
}

func describe(x any) string {
	if s, ok := x.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return typeName(x)
}
