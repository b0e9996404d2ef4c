package grid

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IsNull reports whether a cell value counts as null/missing
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case *string:
		return t == nil
	case *float64:
		return t == nil
	}
	return false
}

// ValueString renders a cell value as its canonical string form.
// Nil renders as the empty string; floats drop a trailing ".0" so that
// 2023.0 and 2023 produce the same key material.
func ValueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return ValueString(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ValueNumber attempts to interpret a cell value as a float64.
// Strings are not coerced: numeric comparisons require both operands to
// actually be numbers.
func ValueNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case uint32:
		return float64(t), true
	}
	return 0, false
}

// ParseNumber parses a string as a float64, trimming surrounding whitespace.
// Used by loaders and sort comparisons, not by filter numeric operators.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val, true
	}
	return 0, false
}

// CompareValues orders two non-null cell values: numerically when both are
// numbers, by timestamp when both are times, case-insensitively as strings
// otherwise. Returns -1, 0 or 1.
func CompareValues(a, b any) int {
	if an, ok := ValueNumber(a); ok {
		if bn, ok := ValueNumber(b); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	as := strings.ToLower(ValueString(a))
	bs := strings.ToLower(ValueString(b))
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

// NormalizeValue produces the string form used for merge-range equality:
// trimmed and lowercased. Null values have no normal form and never merge.
func NormalizeValue(v any) (string, bool) {
	if IsNull(v) {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(ValueString(v))), true
}
