package vesyncConfig

import (
	"encoding/json"
	"fmt"
)

// MissingFieldError reports a required key that is absent or has the wrong
// type inside an otherwise well formed container. An empty Field means the
// entry at Path is itself not an object.
type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("entry at %s is not an object", e.Path)
	}
	return fmt.Sprintf("missing field %q at %s", e.Field, e.Path)
}

func asObject(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok
}

func asList(v any) ([]any, bool) {
	list, ok := v.([]any)
	return list, ok
}

// lookup follows keys through nested objects and returns nil as soon as one
// level is missing or not an object.
func lookup(obj map[string]any, keys ...string) any {
	var cur any = obj
	for _, k := range keys {
		m, ok := asObject(cur)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

func requireString(obj map[string]any, path string, field string) (string, error) {
	s, ok := obj[field].(string)
	if !ok {
		return "", &MissingFieldError{Path: path, Field: field}
	}
	return s, nil
}

func requireList(obj map[string]any, path string, field string) ([]any, error) {
	list, ok := asList(obj[field])
	if !ok {
		return nil, &MissingFieldError{Path: path, Field: field}
	}
	return list, nil
}

func optionalString(obj map[string]any, field string) string {
	s, _ := obj[field].(string)
	return s
}

// isSuccessCode accepts the numeric encodings a decoded "code" may arrive in.
func isSuccessCode(v any) bool {
	switch c := v.(type) {
	case float64:
		return c == 0
	case int:
		return c == 0
	case int64:
		return c == 0
	case json.Number:
		n, err := c.Int64()
		return err == nil && n == 0
	}
	return false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}
