package utils

import "strings"

// ToStringSlice converts a decoded JSON or YAML value to a string slice.
// A single string becomes a one element slice; non-string items are skipped.
func ToStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		stringSlice := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				stringSlice = append(stringSlice, s)
			}
		}
		return stringSlice
	case string:
		return []string{t}
	}
	return nil
}

// SplitList splits a comma separated list, trimming blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
