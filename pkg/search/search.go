// Package search provides a stateless free-text filter for materialized lists.
package search

import "strings"

// Filter returns the items whose key contains query, compared
// case-insensitively. An empty query returns the input unchanged. The
// filter is stable: surviving items keep their relative order.
func Filter[T any](items []T, query string, keyOf func(T) string) []T {
	if query == "" {
		return items
	}

	needle := strings.ToLower(query)
	var matched []T
	for _, item := range items {
		if strings.Contains(strings.ToLower(keyOf(item)), needle) {
			matched = append(matched, item)
		}
	}
	return matched
}
