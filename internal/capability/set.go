// Package capability models capabilities as an explicit set type and
// expands requested capability sets into safe closures honoring declared
// prerequisite relationships.
package capability

import "sort"

// Baseline is the capability every non-empty resolved set must contain.
const Baseline = "read"

// ManageOptions is the administrative capability gating every management endpoint.
const ManageOptions = "manage_options"

// Set is a set of capability identifiers. A capability is either present
// (granted) or absent (denied); there is no present-but-false state.
type Set map[string]struct{}

// NewSet builds a Set from the given capability names.
func NewSet(caps ...string) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		if c == "" {
			continue
		}
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether the capability is present.
func (s Set) Has(cap string) bool {
	_, ok := s[cap]
	return ok
}

// Add inserts a capability.
func (s Set) Add(cap string) {
	if cap != "" {
		s[cap] = struct{}{}
	}
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same members.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if !other.Has(c) {
			return false
		}
	}
	return true
}
