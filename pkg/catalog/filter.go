package catalog

import (
	"strings"
)

// Matcher reports whether an application name is selected by a filter pattern.
// Matching is case-insensitive:
//
//	""        every application
//	"mc*"     names starting with "mc"
//	"*craft"  names containing "craft"
//	"*craft*" names containing "craft"
//	"mc1"     exactly "mc1"
type Matcher func(name string) bool

// NewMatcher compiles pattern into a Matcher
func NewMatcher(pattern string) Matcher {
	pattern = strings.ToLower(strings.TrimSpace(pattern))

	switch {
	case pattern == "" || pattern == "*":
		return func(string) bool { return true }
	case strings.HasPrefix(pattern, "*"):
		keyword := strings.Trim(pattern, "*")
		return func(name string) bool {
			return strings.Contains(strings.ToLower(name), keyword)
		}
	case strings.HasSuffix(pattern, "*"):
		prefix := strings.TrimSuffix(pattern, "*")
		return func(name string) bool {
			return strings.HasPrefix(strings.ToLower(name), prefix)
		}
	default:
		return func(name string) bool {
			return strings.ToLower(name) == pattern
		}
	}
}

// FilterNames returns the names of apps selected by pattern, in catalog order,
// without blanks or duplicates
func FilterNames(apps []App, pattern string) []string {
	match := NewMatcher(pattern)
	seen := make(map[string]bool)

	names := make([]string, 0)
	for _, app := range apps {
		if app.Name == "" || seen[app.Name] || !match(app.Name) {
			continue
		}
		seen[app.Name] = true
		names = append(names, app.Name)
	}
	return names
}
