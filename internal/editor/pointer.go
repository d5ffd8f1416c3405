package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Pointer is a parsed JSON Pointer (RFC 6901). The empty pointer addresses
// the whole document.
type Pointer []string

// ParsePointer splits and unescapes a JSON Pointer string.
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("pointer %q must start with '/'", s)
	}
	parts := strings.Split(s[1:], "/")
	for i, p := range parts {
		if strings.Contains(strings.ReplaceAll(strings.ReplaceAll(p, "~0", ""), "~1", ""), "~") {
			return nil, fmt.Errorf("pointer %q has an invalid escape in %q", s, p)
		}
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
	}
	return Pointer(parts), nil
}

// String re-escapes the pointer.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range p {
		b.WriteByte('/')
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(tok, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// IsPrefixOf reports whether q lies strictly below p.
func (p Pointer) IsPrefixOf(q Pointer) bool {
	if len(p) >= len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

var errNotFound = errors.New("path does not exist")

// arrayIndex parses tok as an index into an array of length n. When
// forInsert is true the index may equal n and "-" means n.
func arrayIndex(tok string, n int, forInsert bool) (int, error) {
	if tok == "-" {
		if forInsert {
			return n, nil
		}
		return 0, fmt.Errorf("'-' addresses past the end of the array: %w", errNotFound)
	}
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, fmt.Errorf("invalid array index %q", tok)
	}
	idx, err := strconv.Atoi(tok)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid array index %q", tok)
	}
	limit := n - 1
	if forInsert {
		limit = n
	}
	if idx > limit {
		return 0, fmt.Errorf("index %d out of range (length %d): %w", idx, n, errNotFound)
	}
	return idx, nil
}

// get returns the value p addresses in doc.
func get(doc any, p Pointer) (any, error) {
	cur := doc
	for _, tok := range p {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[tok]
			if !ok {
				return nil, fmt.Errorf("key %q: %w", tok, errNotFound)
			}
			cur = v
		case []any:
			idx, err := arrayIndex(tok, len(c), false)
			if err != nil {
				return nil, err
			}
			cur = c[idx]
		default:
			return nil, fmt.Errorf("cannot descend into %s at %q: %w", kindOf(cur), tok, errNotFound)
		}
	}
	return cur, nil
}

// leafFunc edits the container that holds the last pointer token and
// returns the (possibly reallocated) container.
type leafFunc func(container any, tok string) (any, error)

// update walks to the parent of p's last token, applies leaf there, and
// writes reallocated containers back up the path. p must not be empty.
func update(doc any, p Pointer, leaf leafFunc) (any, error) {
	if len(p) == 1 {
		return leaf(doc, p[0])
	}
	tok := p[0]
	switch c := doc.(type) {
	case map[string]any:
		child, ok := c[tok]
		if !ok {
			return nil, fmt.Errorf("key %q: %w", tok, errNotFound)
		}
		nc, err := update(child, p[1:], leaf)
		if err != nil {
			return nil, err
		}
		c[tok] = nc
		return c, nil
	case []any:
		idx, err := arrayIndex(tok, len(c), false)
		if err != nil {
			return nil, err
		}
		nc, err := update(c[idx], p[1:], leaf)
		if err != nil {
			return nil, err
		}
		c[idx] = nc
		return c, nil
	default:
		return nil, fmt.Errorf("cannot descend into %s at %q: %w", kindOf(doc), tok, errNotFound)
	}
}

func addLeaf(value any) leafFunc {
	return func(container any, tok string) (any, error) {
		switch c := container.(type) {
		case map[string]any:
			c[tok] = value
			return c, nil
		case []any:
			idx, err := arrayIndex(tok, len(c), true)
			if err != nil {
				return nil, err
			}
			c = append(c, nil)
			copy(c[idx+1:], c[idx:])
			c[idx] = value
			return c, nil
		default:
			return nil, fmt.Errorf("cannot add a member to %s", kindOf(container))
		}
	}
}

func removeLeaf(container any, tok string) (any, error) {
	switch c := container.(type) {
	case map[string]any:
		if _, ok := c[tok]; !ok {
			return nil, fmt.Errorf("key %q: %w", tok, errNotFound)
		}
		delete(c, tok)
		return c, nil
	case []any:
		idx, err := arrayIndex(tok, len(c), false)
		if err != nil {
			return nil, err
		}
		return append(c[:idx], c[idx+1:]...), nil
	default:
		return nil, fmt.Errorf("cannot remove a member of %s", kindOf(container))
	}
}

func replaceLeaf(value any) leafFunc {
	return func(container any, tok string) (any, error) {
		switch c := container.(type) {
		case map[string]any:
			if _, ok := c[tok]; !ok {
				return nil, fmt.Errorf("key %q: %w", tok, errNotFound)
			}
			c[tok] = value
			return c, nil
		case []any:
			idx, err := arrayIndex(tok, len(c), false)
			if err != nil {
				return nil, err
			}
			c[idx] = value
			return c, nil
		default:
			return nil, fmt.Errorf("cannot replace a member of %s", kindOf(container))
		}
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
