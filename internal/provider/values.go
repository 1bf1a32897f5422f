package provider

import (
	"strconv"
	"strings"
)

// ExtractValue normalizes a loosely typed JSON value to a float64. Sleeper
// sends some numeric attributes as numbers and others as strings.
//
// Returns ok=false when the value is absent or not numeric.
func ExtractValue(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		return ParseFloat(v)
	default:
		return 0, false
	}
}

// ParseFloat parses a CSV cell. Empty cells and NA markers are absent.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NA") || strings.EqualFold(s, "NaN") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseInt parses an integer CSV cell, accepting "12.0" as 12.
func ParseInt(s string) (int, bool) {
	f, ok := ParseFloat(s)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// FloatPtr and IntPtr return nil for absent values so they bind as SQL NULL.
func FloatPtr(s string) *float64 {
	if f, ok := ParseFloat(s); ok {
		return &f
	}
	return nil
}

func IntPtr(s string) *int {
	if n, ok := ParseInt(s); ok {
		return &n
	}
	return nil
}
