package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// stringify returns the string form used by eq comparisons and notEmpty.
// Nil becomes the empty string; objects and arrays become compact JSON.
func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case json.Number:
		return v.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// valueSet holds the scalar members of an exclude.values list.
// Composite values never compare equal to anything.
type valueSet map[any]struct{}

func newValueSet(values []any) valueSet {
	set := make(valueSet, len(values))
	for _, v := range values {
		if k, ok := scalarKey(v); ok {
			set[k] = struct{}{}
		}
	}
	return set
}

func (s valueSet) has(v any) bool {
	k, ok := scalarKey(v)
	if !ok {
		return false
	}
	_, found := s[k]
	return found
}

// scalarKey normalizes a scalar to a comparable map key. All numeric types
// map to float64 so that 1 and 1.0 are the same member.
func scalarKey(v any) (any, bool) {
	switch v := v.(type) {
	case nil, string, bool, float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return string(v), true
	}
	return nil, false
}
