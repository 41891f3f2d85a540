// SPDX-License-Identifier: MPL-2.0

// Package router keeps the application route table in sync with the route
// files of the current layout.
//
// A route line has three whitespace-separated fields: method, path and
// action. A line whose action is "module:<name>" mounts that module's route
// file under the given path prefix.
package router

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/appvisor/appvisor/internal/issue"
	"github.com/appvisor/appvisor/internal/module"
	"github.com/appvisor/appvisor/internal/vfs"
)

const modulePrefix = "module:"

type (
	// Route is one parsed route entry.
	Route struct {
		Method string
		Path   string
		Action string
		Source string
		Line   int
	}

	// Table is the route table plus the modification-time watermark of the
	// route files it was parsed from.
	Table struct {
		fs     *vfs.FS
		logger *slog.Logger

		mu        sync.Mutex
		watermark time.Time
		routes    []Route
	}
)

// New creates an empty table reading from fsys.
func New(fsys *vfs.FS, logger *slog.Logger) *Table {
	return &Table{fs: fsys, logger: logger}
}

// ReparseIfNeeded re-reads the route files when any of them is newer than the
// watermark. On a parse error the previous table and watermark are kept.
func (t *Table) ReparseIfNeeded(_ context.Context, layout module.Layout) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	newest := t.fs.ModTime(layout.Routes())
	for _, f := range layout.ModuleRoutes() {
		if mt := t.fs.ModTime(f); mt.After(newest) {
			newest = mt
		}
	}
	if !t.watermark.IsZero() && !newest.After(t.watermark) {
		return nil
	}

	routes, err := t.parse(layout.Routes(), "", layout.ModuleRoutes(), nil)
	if err != nil {
		return err
	}
	t.routes = routes
	t.watermark = newest
	if t.watermark.IsZero() {
		// No route file at all; keep the watermark non-zero so the empty
		// table is not reparsed on every check.
		t.watermark = time.Unix(0, 1)
	}
	t.logger.Debug("routes parsed", "count", len(routes))
	return nil
}

// ResetWatermark forces the next ReparseIfNeeded to parse.
func (t *Table) ResetWatermark() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watermark = time.Time{}
}

// Watermark returns the modification time of the route files last parsed.
func (t *Table) Watermark() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.watermark
}

// Routes returns a copy of the current table.
func (t *Table) Routes() []Route {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.routes)
}

// Match returns the first route for method and path. A "*" method matches
// any method.
func (t *Table) Match(method, p string) (Route, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.routes {
		if (r.Method == "*" || strings.EqualFold(r.Method, method)) && r.Path == p {
			return r, true
		}
	}
	return Route{}, false
}

func (t *Table) parse(file, prefix string, modules map[string]string, mounting []string) ([]Route, error) {
	if !t.fs.Exists(file) {
		t.logger.Debug("no route file", "path", file)
		return nil, nil
	}
	data, err := t.fs.ReadFile(file)
	if err != nil {
		return nil, issue.Unexpected(err, "read routes")
	}

	var routes []Route
	sc := bufio.NewScanner(bytes.NewReader(data))
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 || !strings.HasPrefix(fields[1], "/") {
			return nil, invalidRoute(file, n, fmt.Errorf("want <method> </path> <action>, got %q", line))
		}

		if name, ok := strings.CutPrefix(fields[2], modulePrefix); ok {
			moduleFile, known := modules[name]
			if !known {
				return nil, invalidRoute(file, n, fmt.Errorf("module %q has no routes", name))
			}
			if slices.Contains(mounting, name) {
				return nil, invalidRoute(file, n, fmt.Errorf("module %q mounts itself", name))
			}
			nested, err := t.parse(moduleFile, join(prefix, fields[1]), modules, append(slices.Clone(mounting), name))
			if err != nil {
				return nil, err
			}
			routes = append(routes, nested...)
			continue
		}

		routes = append(routes, Route{
			Method: strings.ToUpper(fields[0]),
			Path:   join(prefix, fields[1]),
			Action: fields[2],
			Source: file,
			Line:   n,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, issue.Unexpected(err, "read routes")
	}
	return routes, nil
}

func join(prefix, p string) string {
	if prefix == "" {
		return p
	}
	return path.Join(prefix, p)
}

func invalidRoute(file string, line int, err error) error {
	return issue.NewBuilder(issue.KindStructured).
		WithIssue(issue.RoutesInvalidId).
		WithOperation("parse routes").
		WithResource(fmt.Sprintf("%s:%d", file, line)).
		Wrap(err).
		Err()
}
