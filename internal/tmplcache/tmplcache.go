// SPDX-License-Identifier: MPL-2.0

// Package tmplcache parses and caches the templates found under the
// layout's template paths.
package tmplcache

import (
	"context"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"text/template"

	"github.com/appvisor/appvisor/internal/issue"
	"github.com/appvisor/appvisor/internal/module"
	"github.com/appvisor/appvisor/internal/vfs"
)

// Patterns select template files under each template path.
var Patterns = []string{"**/*.tmpl", "**/*.html", "**/*.txt"}

// Cache holds compiled templates keyed by their slash-separated path
// relative to the template root that provided them. Earlier template paths
// shadow later ones, so the application overrides modules and modules
// override the framework.
type Cache struct {
	fs     *vfs.FS
	logger *slog.Logger

	mu        sync.Mutex
	templates map[string]*template.Template
}

// New creates an empty cache reading from fsys.
func New(fsys *vfs.FS, logger *slog.Logger) *Cache {
	return &Cache{fs: fsys, logger: logger, templates: make(map[string]*template.Template)}
}

// MaterializeAll parses every template of the layout into the cache.
func (c *Cache) MaterializeAll(ctx context.Context, layout module.Layout) error {
	compiled := make(map[string]*template.Template)
	for _, root := range layout.TemplatePaths() {
		files, err := c.fs.Glob(root, Patterns...)
		if err != nil {
			return issue.Unexpected(err, "scan template paths")
		}
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := filepath.Rel(root, f)
			if err != nil {
				return issue.Unexpected(err, "scan template paths")
			}
			name := filepath.ToSlash(rel)
			if _, shadowed := compiled[name]; shadowed {
				continue
			}
			t, err := c.parse(name, f)
			if err != nil {
				return err
			}
			compiled[name] = t
		}
	}

	c.mu.Lock()
	c.templates = compiled
	c.mu.Unlock()
	c.logger.Debug("templates compiled", "count", len(compiled))
	return nil
}

// Load returns the named template, parsing and caching it on first use.
func (c *Cache) Load(layout module.Layout, name string) (*template.Template, error) {
	c.mu.Lock()
	t, ok := c.templates[name]
	c.mu.Unlock()
	if ok {
		return t, nil
	}

	path, found := c.fs.Resolve(layout.TemplatePaths(), filepath.FromSlash(name))
	if !found {
		return nil, issue.NewBuilder(issue.KindStructured).
			WithIssue(issue.TemplateFailedId).
			WithOperation("load template").
			WithResource(name).
			Wrap(vfs.ErrNotFound).
			Err()
	}
	t, err := c.parse(name, path)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.templates[name] = t
	c.mu.Unlock()
	return t, nil
}

// ClearCache drops every compiled template.
func (c *Cache) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.templates)
}

// Names returns the cached template names, sorted.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.templates))
}

func (c *Cache) parse(name, path string) (*template.Template, error) {
	data, err := c.fs.ReadFile(path)
	if err != nil {
		return nil, issue.Unexpected(err, "read template")
	}
	t, err := template.New(name).Option("missingkey=error").Parse(string(data))
	if err != nil {
		return nil, issue.NewBuilder(issue.KindStructured).
			WithIssue(issue.TemplateFailedId).
			WithOperation("compile template").
			WithResource(path).
			Wrap(err).
			Err()
	}
	return t, nil
}
