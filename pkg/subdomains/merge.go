package subdomains

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Merge unions every successful result. Failed sources are skipped.
func Merge(results []Result) Set {
	all := make(Set)
	for _, res := range results {
		if !res.OK() {
			continue
		}
		for name := range res.Subdomains {
			all.Add(name)
		}
	}
	return all
}

// IsSubdomainOf reports whether name is a usable subdomain of target: no
// wildcard, no leading dot, and a "."+target suffix. The bare target itself
// does not qualify.
func IsSubdomainOf(name, target string) bool {
	return !strings.Contains(name, "*") &&
		!strings.HasPrefix(name, ".") &&
		strings.HasSuffix(name, "."+target)
}

// Filter keeps the names of all that belong to target, sorted.
func Filter(all Set, target string) []string {
	kept := lo.Filter(lo.Keys(all), func(name string, _ int) bool {
		return IsSubdomainOf(name, target)
	})
	sort.Strings(kept)
	return kept
}
