package subdomains

import "strings"

var targetPrefixes = []string{"www.", "https://", "http://"}

// NormalizeTarget strips a leading "www." and scheme (each at most once, in
// either order) and a trailing "/". Case is preserved.
func NormalizeTarget(s string) string {
	s = strings.TrimSpace(s)
	stripped := make(map[string]bool, len(targetPrefixes))
	for again := true; again; {
		again = false
		for _, prefix := range targetPrefixes {
			if !stripped[prefix] && strings.HasPrefix(s, prefix) {
				s = s[len(prefix):]
				stripped[prefix] = true
				again = true
			}
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(s, "/"))
}
