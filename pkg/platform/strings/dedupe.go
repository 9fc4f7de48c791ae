// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimUpper is like DedupeAndTrim but also uppercases each element.
// Used for tag sets such as origin options, which are stored uppercase.
//
// Example:
//
//	DedupeAndTrimUpper([]string{" authorized", "INFO", "Authorized"})
//	// Returns: []string{"AUTHORIZED", "INFO"}
func DedupeAndTrimUpper(values []string) []string {
	return dedupe(values, func(s string) string {
		return strings.ToUpper(strings.TrimSpace(s))
	})
}

// ContainsAny reports whether any element of values is in set.
func ContainsAny(values []string, set ...string) bool {
	for _, v := range values {
		for _, s := range set {
			if v == s {
				return true
			}
		}
	}
	return false
}

func dedupe(values []string, norm func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		n := norm(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			result = append(result, n)
		}
	}

	return result
}
