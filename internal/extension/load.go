// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/appvisor/appvisor/internal/issue"
	"github.com/appvisor/appvisor/internal/vfs"
)

type (
	// Set is an ordered extension list under construction. It is not safe
	// for concurrent use; the lifecycle lock guards it.
	Set struct {
		items []Descriptor
	}

	// onLoadHost tags extensions registered during an OnLoad call with the
	// name of the extension being loaded.
	onLoadHost struct {
		Host
		parent string
	}

	manifestLine struct {
		file string
		line int
		text string
	}
)

// Add appends d.
func (s *Set) Add(d Descriptor) { s.items = append(s.items, d) }

// Len returns the number of extensions.
func (s *Set) Len() int { return len(s.items) }

// Items returns a copy of the current list.
func (s *Set) Items() []Descriptor { return slices.Clone(s.items) }

// Sort orders the list by ascending index. Equal indices keep their order.
func (s *Set) Sort() { SortDescriptors(s.items) }

func (h onLoadHost) AddExtension(d Descriptor) {
	if d.Parent == "" {
		d.Parent = h.parent
	}
	h.Host.AddExtension(d)
}

// SortDescriptors sorts ds by ascending index, keeping discovery order on ties.
func SortDescriptors(ds []Descriptor) {
	slices.SortStableFunc(ds, func(a, b Descriptor) int { return cmp.Compare(a.Index, b.Index) })
}

// Load reads every plugin manifest visible from ec, instantiates the listed
// extensions into set, sorts it and calls OnLoad on each loaded extension.
// OnLoad iterates over a copy, so an extension may add others through the
// host; those are merged into the order afterwards without an OnLoad call.
//
// Bad manifest lines and unknown names are logged and skipped.
func Load(ctx context.Context, ec *Context, set *Set, h Host, logger *slog.Logger) {
	for _, ml := range readManifests(ec.fs, ec.Resources(PluginManifest), logger) {
		index, name, err := parsePluginLine(ml.text)
		if err != nil {
			logger.Error("cannot load extension", "manifest", ml.file, "line", ml.line, "error", err)
			continue
		}
		ext, scope, err := ec.Instantiate(name)
		if err != nil {
			logger.Error("cannot load extension", "manifest", ml.file, "line", ml.line, "error", err)
			continue
		}
		set.Add(Descriptor{Index: index, Name: name, Scope: scope, Generation: ec.generation, Instance: ext})
		logger.Debug("extension loaded", "name", name, "index", index, "scope", scope)
	}

	set.Sort()
	for _, d := range set.Items() {
		d.Instance.OnLoad(ctx, onLoadHost{Host: h, parent: d.Name})
	}
	set.Sort()
}

// Migrate rebuilds the application-scoped extensions of previous against ec:
// each one listed in a manifest is re-instantiated from the catalog, keeps
// its index and receives OnLoad. Host-scoped extensions are carried over
// unchanged.
//
// Extensions registered during the OnLoad of a re-instantiated extension
// are dropped, since the new OnLoad registers them again. Other registered
// extensions are carried over and never instantiated from the catalog.
func Migrate(ctx context.Context, previous []Descriptor, ec *Context, h Host) ([]Descriptor, error) {
	reloaded := make(map[string]bool)
	for _, d := range previous {
		if d.Scope == ScopeApplication && d.Parent == "" {
			reloaded[d.Name] = true
		}
	}

	next := make([]Descriptor, 0, len(previous))
	for _, d := range previous {
		if d.Parent != "" {
			if !reloaded[d.Parent] {
				next = append(next, d)
			}
			continue
		}
		if d.Scope == ScopeHost {
			next = append(next, d)
			continue
		}
		ext, scope, err := ec.Instantiate(d.Name)
		if err != nil {
			return nil, issue.NewBuilder(issue.KindUnexpected).
				WithIssue(issue.ExtensionLoadFailedId).
				WithOperation("migrate extension").
				WithResource(d.Name).
				Wrap(err).
				Err()
		}
		nd := Descriptor{Index: d.Index, Name: d.Name, Scope: scope, Generation: ec.generation, Instance: ext}
		ext.OnLoad(ctx, onLoadHost{Host: h, parent: d.Name})
		next = append(next, nd)
	}
	SortDescriptors(next)
	return next, nil
}

// RunStatic forces every static initializer listed in the static manifests
// under roots. Each initializer runs at most once per process; failures are
// logged and the rest still run.
func RunStatic(fsys *vfs.FS, roots []string, catalog *Catalog, logger *slog.Logger) {
	ec := NewContext(0, catalog, fsys, roots)
	for _, ml := range readManifests(fsys, ec.Resources(StaticManifest), logger) {
		if err := catalog.initStatic(ml.text); err != nil {
			logger.Warn("cannot init static", "name", ml.text, "manifest", ml.file, "line", ml.line, "error", err)
		}
	}
}

// readManifests returns the meaningful lines of each file, in file order.
// Blank lines and lines starting with '#' are dropped.
func readManifests(fsys *vfs.FS, files []string, logger *slog.Logger) []manifestLine {
	var lines []manifestLine
	for _, file := range files {
		data, err := fsys.ReadFile(file)
		if err != nil {
			logger.Error("cannot read manifest", "manifest", file, "error", err)
			continue
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		n := 0
		for sc.Scan() {
			n++
			text := strings.TrimSpace(sc.Text())
			if text == "" || strings.HasPrefix(text, "#") {
				continue
			}
			lines = append(lines, manifestLine{file: file, line: n, text: text})
		}
		if err := sc.Err(); err != nil {
			logger.Error("cannot read manifest", "manifest", file, "error", err)
		}
	}
	return lines
}

func parsePluginLine(text string) (int, string, error) {
	rawIndex, name, ok := strings.Cut(text, ":")
	if !ok {
		return 0, "", fmt.Errorf("malformed entry %q, want <index>:<name>", text)
	}
	index, err := strconv.Atoi(strings.TrimSpace(rawIndex))
	if err != nil {
		return 0, "", fmt.Errorf("malformed index in %q: %w", text, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, "", fmt.Errorf("missing name in %q", text)
	}
	return index, name, nil
}
