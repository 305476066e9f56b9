package trip

import (
	"strconv"
	"strings"
)

// LookupRef resolves a reference against the context. References may
// be literal booleans, numbers, or nil (returned as-is), the string
// constants "true"/"false"/"null", numeric strings, quoted string
// literals, or context paths with dotted nesting. Unresolvable refs
// return nil.
func LookupRef(ec EvalContext, ref any) any {
	switch v := ref.(type) {
	case bool, nil:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	case string:
		if n, err := strconv.ParseFloat(v, 64); err == nil && v != "" {
			return n
		}
		switch v {
		case "true":
			return true
		case "false":
			return false
		case "null":
			return nil
		}
		if len(v) >= 2 {
			if (v[0] == '"' && v[len(v)-1] == '"') ||
				(v[0] == '\'' && v[len(v)-1] == '\'') {
				return v[1 : len(v)-1]
			}
		}
		return Get(ec, v)
	default:
		return nil
	}
}

// Get resolves a possibly-dotted path against the context. A key that
// exists literally at the top level wins over path traversal, so flat
// contexts with dotted keys still resolve.
func Get(ec EvalContext, path string) any {
	if v, ok := ec[path]; ok {
		return v
	}
	parts := strings.Split(path, ".")
	var cur any = map[string]any(ec)
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

// Truthy reports whether a looked-up value counts as true: false, nil,
// zero, and "" are false, everything else is true.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}

// Number coerces a value to float64. Non-numeric values coerce to 0,
// so comparisons treat missing or malformed values as zero.
func Number(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			return n
		}
		return 0
	default:
		return 0
	}
}
