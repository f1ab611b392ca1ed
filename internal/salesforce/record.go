package salesforce

import (
	"fmt"
	"strings"
)

// Record is one row returned by a query or search call. Fields keep the
// JSON shape; relationship fields are nested objects.
type Record map[string]any

// Value walks a dotted field path such as "EntityDefinition.QualifiedApiName".
func (r Record) Value(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// String returns the field at path as text, or "" when absent or null.
func (r Record) String(path string) string {
	v, ok := r.Value(path)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}

// ID returns the record Id.
func (r Record) ID() string {
	return r.String("Id")
}

// Type returns the sObject type from the attributes block.
func (r Record) Type() string {
	return r.String("attributes.type")
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	default:
		return nil, false
	}
}
