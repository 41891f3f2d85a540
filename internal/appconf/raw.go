// SPDX-License-Identifier: MPL-2.0

package appconf

import (
	"github.com/appvisor/appvisor/internal/issue"
	"github.com/appvisor/appvisor/internal/vfs"

	"github.com/magiconair/properties"
)

type (
	// Entry is one key/value pair of the raw source.
	Entry struct {
		Key   string
		Value string
	}

	// Raw is the configuration source in declaration order, before scoping
	// and interpolation.
	Raw struct {
		// Source is the path the entries were read from.
		Source  string
		entries []Entry
	}
)

// NewRaw builds a Raw from entries in the given order. Later duplicates
// overwrite earlier values but keep the first position.
func NewRaw(source string, entries ...Entry) *Raw {
	r := &Raw{Source: source}
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Key]; ok {
			r.entries[i].Value = e.Value
			continue
		}
		index[e.Key] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r
}

// Entries returns a copy of the raw entries in declaration order.
func (r *Raw) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Load reads the configuration source at path. The source uses Java
// properties syntax; ${...} expansion is left to Resolve. Any read or parse
// failure is fatal: nothing else can start without the configuration.
func Load(fsys *vfs.FS, path string) (*Raw, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, issue.NewBuilder(issue.KindFatal).
			WithIssue(issue.ConfigUnreadableId).
			WithOperation("read configuration").
			WithResource(path).
			WithSuggestion("Check that conf/application.conf exists under the application root").
			Wrap(err).
			Err()
	}

	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadBytes(data)
	if err != nil {
		return nil, issue.NewBuilder(issue.KindFatal).
			WithIssue(issue.ConfigUnreadableId).
			WithOperation("parse configuration").
			WithResource(path).
			WithSuggestion("Check the properties syntax (key=value, one entry per line)").
			Wrap(err).
			Err()
	}

	entries := make([]Entry, 0, props.Len())
	for _, key := range props.Keys() {
		value, _ := props.Get(key)
		entries = append(entries, Entry{Key: key, Value: value})
	}
	return NewRaw(path, entries...), nil
}
