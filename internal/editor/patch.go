package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/HendryAvila/flowdoc/internal/flow"
)

// Patch operation names (RFC 6902).
const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
	OpMove    = "move"
	OpCopy    = "copy"
	OpTest    = "test"
)

// Operation is one step of an ordered patch.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`

	// HasValue distinguishes an explicit "value": null from a missing value.
	HasValue bool `json:"-"`
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	type plain Operation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*o = Operation(p)
	_, o.HasValue = keys["value"]
	return nil
}

// ParseOperations decodes a patch from a generic JSON value (as handed
// over by the tool transport) or from raw JSON bytes.
func ParseOperations(v any) ([]Operation, error) {
	var data []byte
	switch t := v.(type) {
	case nil:
		return nil, flow.Malformedf("patch operations are required")
	case []byte:
		data = t
	case string:
		data = []byte(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, &flow.MalformedError{Msg: "encoding patch operations", Err: err}
		}
		data = b
	}
	var ops []Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, &flow.MalformedError{Msg: "patch must be an array of operations", Err: err}
	}
	return ops, nil
}

// ApplyPatch applies ops in order to a working copy of doc and returns the
// patched copy. doc itself is never modified.
//
// The call is all-or-nothing. Every operation is first checked for shape
// (known op, parseable pointers, value present where required); then the
// operations run in order against the copy, and the first one that cannot
// apply (missing target, failed test, move into own child) aborts the call
// with a *flow.PatchError naming its index. Finally the patched copy is
// revalidated; any violation aborts the call with a *flow.ValidationError.
func ApplyPatch(doc any, ops []Operation) (any, error) {
	if len(ops) == 0 {
		return nil, flow.Malformedf("patch contains no operations")
	}

	compiled := make([]compiledOp, len(ops))
	for i, op := range ops {
		c, err := compile(op)
		if err != nil {
			return nil, &flow.PatchError{Index: i, Op: op.Op, Path: op.Path, Reason: err.Error()}
		}
		compiled[i] = c
	}

	work := flow.DeepCopy(doc)
	for i, c := range compiled {
		next, err := c.apply(work)
		if err != nil {
			return nil, &flow.PatchError{Index: i, Op: c.op.Op, Path: c.op.Path, Reason: err.Error()}
		}
		work = next
	}

	if res := flow.Validate(work); !res.Valid {
		return nil, res.Err()
	}
	return work, nil
}

type compiledOp struct {
	op   Operation
	path Pointer
	from Pointer
}

func compile(op Operation) (compiledOp, error) {
	c := compiledOp{op: op}
	switch op.Op {
	case OpAdd, OpReplace, OpTest:
		if !op.HasValue {
			return c, fmt.Errorf("%q requires a value", op.Op)
		}
	case OpMove, OpCopy:
		from, err := ParsePointer(op.From)
		if err != nil {
			return c, fmt.Errorf("from: %w", err)
		}
		c.from = from
	case OpRemove:
	case "":
		return c, errors.New("missing op")
	default:
		return c, fmt.Errorf("unknown op %q (want add, remove, replace, move, copy or test)", op.Op)
	}

	path, err := ParsePointer(op.Path)
	if err != nil {
		return c, err
	}
	c.path = path

	if op.Op == OpMove && c.from.IsPrefixOf(c.path) {
		return c, errors.New("cannot move a value into one of its own children")
	}
	if op.Op == OpRemove && len(path) == 0 {
		return c, errors.New("cannot remove the document root")
	}
	return c, nil
}

func (c compiledOp) apply(doc any) (any, error) {
	switch c.op.Op {
	case OpAdd:
		return addAt(doc, c.path, flow.DeepCopy(c.op.Value))
	case OpRemove:
		return update(doc, c.path, removeLeaf)
	case OpReplace:
		if len(c.path) == 0 {
			return flow.DeepCopy(c.op.Value), nil
		}
		return update(doc, c.path, replaceLeaf(flow.DeepCopy(c.op.Value)))
	case OpMove:
		if len(c.from) == len(c.path) && c.from.String() == c.path.String() {
			if _, err := get(doc, c.from); err != nil {
				return nil, fmt.Errorf("from: %w", err)
			}
			return doc, nil
		}
		v, err := get(doc, c.from)
		if err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
		if len(c.from) == 0 {
			return nil, errors.New("cannot move the document root")
		}
		doc, err = update(doc, c.from, removeLeaf)
		if err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
		return addAt(doc, c.path, v)
	case OpCopy:
		v, err := get(doc, c.from)
		if err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
		return addAt(doc, c.path, flow.DeepCopy(v))
	case OpTest:
		v, err := get(doc, c.path)
		if err != nil {
			return nil, err
		}
		if !jsonEqual(v, c.op.Value) {
			return nil, fmt.Errorf("test failed: current value %s does not equal expected %s", render(v), render(c.op.Value))
		}
		return doc, nil
	}
	return nil, fmt.Errorf("unknown op %q", c.op.Op)
}

func addAt(doc any, p Pointer, value any) (any, error) {
	if len(p) == 0 {
		return value, nil
	}
	return update(doc, p, addLeaf(value))
}

// jsonEqual compares two decoded JSON values. Numbers compare by value
// regardless of their Go representation.
func jsonEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !jsonEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !jsonEqual(xv, yv) {
				return false
			}
		}
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

func render(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	const limit = 120
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
