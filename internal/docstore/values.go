package docstore

import (
	"encoding/json"
	"strings"
	"time"
)

// TimeLayout is the fixed-width UTC layout used when a backend has no
// native timestamp type. Fixed width keeps lexical and chronological order
// identical.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// EncodeTime formats t with TimeLayout.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Time converts a stored value into a time. It accepts native times and
// the string encodings produced by JSON backends.
func Time(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		if ts, err := time.Parse(TimeLayout, t); err == nil {
			return ts, true
		}
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// String returns v as a string, or "" when v is not a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Float returns v as a float64 for any numeric representation.
func Float(v any) float64 {
	f, _ := toFloat(v)
	return f
}

// Int returns v as an int for any numeric representation.
func Int(v any) int {
	f, _ := toFloat(v)
	return int(f)
}

// Bool returns v as a bool, or def when the field is absent or not a bool.
func Bool(v any, def bool) bool {
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Map returns v as a nested document, or nil.
func Map(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// typeRank orders values of different kinds: null, bool, number, time, string.
func typeRank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := v.(bool); ok {
		return 1
	}
	if _, ok := toFloat(v); ok {
		return 2
	}
	if _, ok := v.(time.Time); ok {
		return 3
	}
	if _, ok := v.(string); ok {
		return 4
	}
	return 5
}

// compareValues returns -1, 0, or 1.
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 1:
		ab, bb := a.(bool), b.(bool)
		if ab == bb {
			return 0
		}
		if !ab {
			return -1
		}
		return 1
	case 2:
		af, _ := toFloat(a)
		bf, _ := toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case 3:
		return a.(time.Time).Compare(b.(time.Time))
	case 4:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

func equalValues(a, b any) bool {
	if typeRank(a) == 5 || typeRank(b) == 5 {
		return false
	}
	return compareValues(a, b) == 0
}

// encodeForJSON rewrites times into TimeLayout strings, recursively, so
// JSON backends preserve ordering.
func encodeForJSON(v any) any {
	switch t := v.(type) {
	case time.Time:
		return EncodeTime(t)
	case *time.Time:
		if t == nil {
			return nil
		}
		return EncodeTime(*t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = encodeForJSON(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = encodeForJSON(val)
		}
		return out
	}
	return v
}

// cloneValue deep-copies maps and slices.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	}
	return v
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}
