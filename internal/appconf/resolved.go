// SPDX-License-Identifier: MPL-2.0

package appconf

import (
	"maps"
	"slices"
	"strings"
)

// Resolved is the flat configuration produced by Resolve. It is immutable:
// every accessor returns copies, so a Resolved can be shared freely between
// goroutines and handed to extensions without risk of mutation.
type Resolved struct {
	values map[string]string
}

// NewResolved copies values into a Resolved. Mostly useful in tests.
func NewResolved(values map[string]string) Resolved {
	return Resolved{values: maps.Clone(values)}
}

// Get returns the value for key.
func (r Resolved) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// GetOr returns the value for key, or def when the key is absent.
func (r Resolved) GetOr(key, def string) string {
	if v, ok := r.values[key]; ok {
		return v
	}
	return def
}

// Keys returns every key in sorted order.
func (r Resolved) Keys() []string {
	return slices.Sorted(maps.Keys(r.values))
}

// Len returns the number of entries.
func (r Resolved) Len() int {
	return len(r.values)
}

// Prefixed returns the entries whose key starts with prefix, with the prefix
// stripped, keyed by the remainder.
func (r Resolved) Prefixed(prefix string) map[string]string {
	out := make(map[string]string)
	for k, v := range r.values {
		if rest, ok := strings.CutPrefix(k, prefix); ok && rest != "" {
			out[rest] = v
		}
	}
	return out
}

// Map returns a copy of the entries.
func (r Resolved) Map() map[string]string {
	return maps.Clone(r.values)
}

// Equal reports whether both configurations hold exactly the same entries.
func (r Resolved) Equal(other Resolved) bool {
	return maps.Equal(r.values, other.values)
}
