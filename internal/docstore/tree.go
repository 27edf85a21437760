package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Documents are trees of plain JSON values: map[string]any, []any, float64, string,
// bool and nil.

// normalize converts an arbitrary Go value into its plain JSON form.
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, float64, string, bool:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[k] = cloneValue(c)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = cloneValue(c)
		}
		return out
	}
	return v
}

func cloneDoc(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	return cloneValue(doc).(map[string]any)
}

// lookup returns the value at rel below root.
func lookup(root any, rel []string) (any, bool) {
	v := root
	for _, seg := range rel {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		if v, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return v, v != nil
}

// assign writes v at rel below root, creating missing intermediate objects. Writing
// through an existing non-object value is an error.
func assign(root map[string]any, rel []string, v any) error {
	m := root
	for i, seg := range rel[:len(rel)-1] {
		next, ok := m[seg]
		if !ok || next == nil {
			child := map[string]any{}
			m[seg] = child
			m = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s is not an object", ErrConflict, strings.Join(rel[:i+1], "/"))
		}
		m = child
	}
	m[rel[len(rel)-1]] = v
	return nil
}

// remove deletes the value at rel below root. Missing paths are not an error.
func remove(root map[string]any, rel []string) {
	m := root
	for _, seg := range rel[:len(rel)-1] {
		child, ok := m[seg].(map[string]any)
		if !ok {
			return
		}
		m = child
	}
	delete(m, rel[len(rel)-1])
}
