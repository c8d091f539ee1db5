package subdomains

import (
	"context"
	"errors"
)

// ErrNoCredential marks a source skipped because its API key is not configured.
var ErrNoCredential = errors.New("no credential configured")

// Set is an unordered collection of unique names. Two names are the same
// only if they are byte-equal.
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Add(v string) {
	s[v] = struct{}{}
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Result is what one source contributed to a run. A failed source has a
// non-nil Err and a nil Subdomains; a source that answered with nothing has
// an empty, non-nil Subdomains.
type Result struct {
	Source     string
	Subdomains Set
	Err        error
}

func (r Result) OK() bool {
	return r.Err == nil && r.Subdomains != nil
}

// Source is an interface that all passive discovery sources must implement.
// Run never fails the caller: every error ends up in Result.Err.
type Source interface {
	Run(ctx context.Context, domain string) Result
	Name() string
}
