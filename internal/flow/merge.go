package flow

// DeepMerge combines patch into base and returns the result. Neither input
// is modified.
//
// For every key in patch: when both the patch value and the base value are
// objects, they are merged recursively; otherwise the patch value replaces
// the base value wholesale. Arrays are always replaced, never concatenated
// or merged element-wise, so a caller that wants to append must resubmit
// the whole array.
//
// The top-level "id" always keeps base's value: identity cannot change
// through a merge.
func DeepMerge(base, patch map[string]any) map[string]any {
	merged := deepMerge(base, patch)
	restoreID(merged, base)
	return merged
}

func deepMerge(base, patch map[string]any) map[string]any {
	out := DeepCopyMap(base)
	if out == nil {
		out = make(map[string]any, len(patch))
	}
	for k, pv := range patch {
		pm, patchIsObject := pv.(map[string]any)
		bm, baseIsObject := out[k].(map[string]any)
		if patchIsObject && baseIsObject {
			out[k] = deepMerge(bm, pm)
			continue
		}
		out[k] = DeepCopy(pv)
	}
	return out
}

// ShallowMerge replaces base's top-level keys with patch's. Nested objects
// are not merged. "id" keeps base's value.
func ShallowMerge(base, patch map[string]any) map[string]any {
	out := DeepCopyMap(base)
	if out == nil {
		out = make(map[string]any, len(patch))
	}
	for k, pv := range patch {
		out[k] = DeepCopy(pv)
	}
	restoreID(out, base)
	return out
}

func restoreID(merged, base map[string]any) {
	if id, ok := base["id"]; ok {
		merged["id"] = id
	} else {
		delete(merged, "id")
	}
}

// DeepCopy clones a decoded JSON value.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return DeepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = DeepCopy(e)
		}
		return out
	default:
		return t
	}
}

// DeepCopyMap clones a decoded JSON object. nil stays nil.
func DeepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = DeepCopy(v)
	}
	return out
}
