// Package scopes defines the closed scope vocabulary for the cleaning API
// and the canonical in-memory representation of a scope grant.
package scopes

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Scope is a single permission string from the closed vocabulary.
type Scope string

const (
	RoomsRead  Scope = "rooms:read"
	RoomsWrite Scope = "rooms:write"
	ZonesRead  Scope = "zones:read"
	ZonesWrite Scope = "zones:write"
	StatsRead  Scope = "stats:read"
	UserRead   Scope = "user:read"
	UserWrite  Scope = "user:write"

	// Admin implies every other scope.
	Admin Scope = "admin"
)

var all = map[Scope]struct{}{
	RoomsRead:  {},
	RoomsWrite: {},
	ZonesRead:  {},
	ZonesWrite: {},
	StatsRead:  {},
	UserRead:   {},
	UserWrite:  {},
	Admin:      {},
}

// All returns every scope in the vocabulary.
func All() []Scope {
	s := make([]Scope, 0, len(all))
	for scope := range all {
		s = append(s, scope)
	}
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s
}

// Valid reports whether s belongs to the vocabulary.
func Valid(s Scope) bool {
	_, ok := all[s]
	return ok
}

// Default is the grant set used when a password-grant or registration request
// names no scopes. Everything except admin.
func Default() Set {
	set := NewSet(RoomsRead, RoomsWrite, ZonesRead, ZonesWrite, StatsRead, UserRead, UserWrite)
	return set
}

// Set is the canonical representation of a scope grant. It is built once at a
// parse boundary and serialized only at wire or storage boundaries.
type Set map[Scope]struct{}

// NewSet builds a Set from known-good scopes.
func NewSet(scopes ...Scope) Set {
	set := make(Set, len(scopes))
	for _, s := range scopes {
		set[s] = struct{}{}
	}
	return set
}

// Parse builds a Set from the space-separated wire format. Any scope outside
// the vocabulary is a hard error. An empty string yields an empty set.
func Parse(raw string) (Set, error) {
	set := make(Set)
	for _, field := range strings.Fields(raw) {
		scope := Scope(field)
		if !Valid(scope) {
			return nil, fmt.Errorf("unknown scope %q", field)
		}
		set[scope] = struct{}{}
	}
	return set, nil
}

// ParseSlice builds a Set from the storage format.
func ParseSlice(raw []string) (Set, error) {
	return Parse(strings.Join(raw, " "))
}

// Contains reports whether the set grants scope. A set holding admin grants
// every scope.
func (s Set) Contains(scope Scope) bool {
	if _, ok := s[scope]; ok {
		return true
	}
	_, ok := s[Admin]
	return ok
}

// IsSubsetOf reports whether every scope in s is granted by allowed.
func (s Set) IsSubsetOf(allowed Set) bool {
	for scope := range s {
		if !allowed.Contains(scope) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the set grants nothing.
func (s Set) IsEmpty() bool {
	return len(s) == 0
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for scope := range s {
		c[scope] = struct{}{}
	}
	return c
}

// Slice returns the storage serialization: a sorted string slice.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for scope := range s {
		out = append(out, string(scope))
	}
	sort.Strings(out)
	return out
}

// String returns the wire serialization: sorted, space separated.
func (s Set) String() string {
	return strings.Join(s.Slice(), " ")
}

// MarshalJSON serializes the set as its sorted slice form.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON parses the slice form, strictly.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set, err := ParseSlice(raw)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
