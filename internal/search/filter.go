// Package search filters locally held collections by text.
package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter keeps the items for which any field contains query, ignoring case.
// A blank query keeps everything. Order is preserved and items is never
// modified.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	q := strings.TrimSpace(query)
	out := make([]T, 0, len(items))
	if q == "" {
		return append(out, items...)
	}
	fold := cases.Fold()
	needle := fold.String(q)
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(fold.String(f), needle) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}
