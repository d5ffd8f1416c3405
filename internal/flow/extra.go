package flow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Documents are written by agents and may carry keys this package does not
// model, or modelled keys in a shape the typed field cannot hold. The
// helpers below keep both alive across a decode/encode cycle:
//
//   - unknown keys land in an Extra map
//   - a known key whose value does not fit its field (a string where a
//     number is documented) is kept verbatim in Extra and the field stays zero
//   - a known key the typed encoding would drop (an explicit false or "" on
//     an omitempty field) is kept in Extra too
//
// On encode, Extra entries fill in keys the typed encoding omits or left
// at their zero value; every other Extra key is appended, sorted.

var knownKeyCache sync.Map // reflect.Type -> map[string]bool

// knownKeys returns the JSON names of the exported, non-skipped fields of t,
// descending into anonymous embedded structs.
func knownKeys(t reflect.Type) map[string]bool {
	if cached, ok := knownKeyCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	keys := make(map[string]bool)
	collectKeys(t, keys)
	knownKeyCache.Store(t, keys)
	return keys
}

func collectKeys(t reflect.Type, keys map[string]bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" {
			collectKeys(f.Type, keys)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[name] = true
	}
}

// unmarshalWithExtra decodes the JSON object data into the struct pointer v
// and returns everything v cannot represent exactly. Returns nil when there
// is nothing to keep.
//
// Only leaf type mismatches are tolerated; errors raised by nested decoders
// (such as node data that is not an object) are returned unchanged.
func unmarshalWithExtra(data []byte, v any) (map[string]any, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	known := knownKeys(reflect.TypeOf(v))

	extra := make(map[string]any)
	keep := func(k string, val json.RawMessage) error {
		var decoded any
		if err := json.Unmarshal(val, &decoded); err != nil {
			return err
		}
		extra[k] = decoded
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		if !isTypeMismatch(err) {
			return nil, err
		}
		// Decode field by field from a clean value so a bad field cannot
		// leave partial state behind.
		rv := reflect.ValueOf(v).Elem()
		rv.Set(reflect.Zero(rv.Type()))
		for k, val := range raw {
			if !known[k] {
				continue
			}
			single, err := json.Marshal(map[string]json.RawMessage{k: val})
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(single, v); err != nil {
				if !isTypeMismatch(err) {
					return nil, err
				}
				if err := keep(k, val); err != nil {
					return nil, err
				}
			}
		}
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var emitted map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &emitted); err != nil {
		return nil, err
	}

	for k, val := range raw {
		if _, kept := extra[k]; kept {
			continue
		}
		if known[k] {
			if _, ok := emitted[k]; ok {
				continue
			}
		}
		if err := keep(k, val); err != nil {
			return nil, err
		}
	}
	if len(extra) == 0 {
		return nil, nil
	}
	return extra, nil
}

func isTypeMismatch(err error) bool {
	var ute *json.UnmarshalTypeError
	return errors.As(err, &ute)
}

// marshalWithExtra encodes v and merges extra into the result. An extra key
// replaces a typed key only when the typed value is absent or zero, so a
// field set in code wins over a stale kept value.
func marshalWithExtra(v any, extra map[string]any) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return base, nil
	}

	entries, err := objectEntries(base)
	if err != nil {
		return nil, err
	}
	used := make(map[string]bool, len(extra))
	for i, e := range entries {
		val, ok := extra[e.key]
		if !ok {
			continue
		}
		used[e.key] = true
		if !isZeroJSON(e.value) {
			continue
		}
		if entries[i].value, err = json.Marshal(val); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(extra))
	for k := range extra {
		if !used[k] {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	for _, k := range names {
		val, err := json.Marshal(extra[k])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: k, value: val})
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(e.key)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(e.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type entry struct {
	key   string
	value json.RawMessage
}

// objectEntries splits an encoded JSON object into its members, in order.
func objectEntries(data []byte) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("expected a JSON object")
	}
	var entries []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: key, value: val})
	}
	return entries, nil
}

func isZeroJSON(v json.RawMessage) bool {
	switch string(bytes.TrimSpace(v)) {
	case `""`, `0`, `false`, `null`, `[]`, `{}`:
		return true
	}
	return false
}
