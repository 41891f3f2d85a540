// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/appvisor/appvisor/internal/vfs"
)

const (
	// PluginManifest lists "<index>:<name>" extension entries.
	PluginManifest = "conf/appvisor.plugins"
	// StaticManifest lists one static initializer name per line.
	StaticManifest = "conf/appvisor.static"
)

// Context is one execution context: the set of loaded application code
// from which application-scoped extensions are instantiated. In DEV mode a
// new Context with a higher generation replaces the previous one on every
// start.
type Context struct {
	generation int
	catalog    *Catalog
	fs         *vfs.FS
	roots      []string
}

// NewContext creates an execution context. Resources are searched in roots,
// in order; the framework root is expected first.
func NewContext(generation int, catalog *Catalog, fsys *vfs.FS, roots []string) *Context {
	return &Context{
		generation: generation,
		catalog:    catalog,
		fs:         fsys,
		roots:      slices.Clone(roots),
	}
}

// Generation returns the context's generation number.
func (c *Context) Generation() int { return c.generation }

// Roots returns the resource search roots.
func (c *Context) Roots() []string { return slices.Clone(c.roots) }

// Catalog returns the catalog the context instantiates from.
func (c *Context) Catalog() *Catalog { return c.catalog }

// Resources returns every existing file named name under the context roots.
// A root listed twice yields its file once.
func (c *Context) Resources(name string) []string {
	var found []string
	for _, root := range c.roots {
		p := filepath.Join(root, filepath.FromSlash(name))
		if slices.Contains(found, p) || !c.fs.Exists(p) || c.fs.IsDir(p) {
			continue
		}
		found = append(found, p)
	}
	return found
}

// Instantiate creates a fresh instance of the named extension.
func (c *Context) Instantiate(name string) (Extension, Scope, error) {
	f, ok := c.catalog.Lookup(name)
	if !ok {
		return nil, 0, fmt.Errorf("extension %q is not registered", name)
	}
	ext := f.New()
	if ext == nil {
		return nil, 0, fmt.Errorf("extension %q factory returned nil", name)
	}
	return ext, f.Scope, nil
}
