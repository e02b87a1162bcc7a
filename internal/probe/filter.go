package probe

import "strings"

// FilterModels returns the identifiers whose lowercase form contains the
// lowercase pattern, preserving listing order. An empty pattern matches
// everything.
func FilterModels(models []string, pattern string) []string {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return models
	}
	matched := make([]string, 0, len(models))
	for _, m := range models {
		if strings.Contains(strings.ToLower(m), pattern) {
			matched = append(matched, m)
		}
	}
	return matched
}
