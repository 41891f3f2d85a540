// SPDX-License-Identifier: MPL-2.0

// Package compiler materializes application code units. A code unit is an
// HCL file under one of the source paths; its top-level attributes are
// evaluated to cty values.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/appvisor/appvisor/internal/issue"
	"github.com/appvisor/appvisor/internal/module"
	"github.com/appvisor/appvisor/internal/vfs"
)

// UnitPattern selects code unit files under each source path.
const UnitPattern = "**/*.hcl"

type (
	// Unit is one compiled code unit.
	Unit struct {
		// Name is the slash-separated path relative to its source root,
		// without extension.
		Name       string
		Path       string
		Attributes map[string]cty.Value
	}

	// Error carries the diagnostics of a unit that failed to compile.
	Error struct {
		Path        string
		Diagnostics hcl.Diagnostics
	}

	// Compiler compiles every unit of the current layout and remembers the
	// modification times it saw so later change checks are cheap.
	Compiler struct {
		fs     *vfs.FS
		logger *slog.Logger

		mu       sync.Mutex
		units    map[string]*Unit
		snapshot map[string]time.Time
	}
)

func (e *Error) Error() string {
	return e.Diagnostics.Error()
}

// New creates a compiler reading from fsys.
func New(fsys *vfs.FS, logger *slog.Logger) *Compiler {
	return &Compiler{fs: fsys, logger: logger}
}

// MaterializeAll compiles every unit under the layout's source paths. The
// first failing unit aborts with a structured compilation failure. When two
// source paths define a unit with the same name, the first one wins.
func (c *Compiler) MaterializeAll(ctx context.Context, layout module.Layout) error {
	files, err := c.scan(layout)
	if err != nil {
		return issue.Unexpected(err, "scan source paths")
	}

	parser := hclparse.NewParser()
	units := make(map[string]*Unit)
	snapshot := make(map[string]time.Time, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		snapshot[f.path] = c.fs.ModTime(f.path)
		if _, dup := units[f.name]; dup {
			continue
		}
		u, err := c.compile(parser, f)
		if err != nil {
			return err
		}
		units[f.name] = u
	}

	c.mu.Lock()
	c.units = units
	c.snapshot = snapshot
	c.mu.Unlock()

	c.logger.Debug("code units compiled", "count", len(units))
	return nil
}

// HasSourceChanged reports whether any unit was added, removed or modified
// since the last MaterializeAll. It is false before the first compilation.
func (c *Compiler) HasSourceChanged(_ context.Context, layout module.Layout) bool {
	c.mu.Lock()
	snapshot := c.snapshot
	c.mu.Unlock()
	if snapshot == nil {
		return false
	}

	files, err := c.scan(layout)
	if err != nil {
		c.logger.Warn("cannot scan source paths", "error", err)
		return true
	}
	if len(files) != len(snapshot) {
		return true
	}
	for _, f := range files {
		seen, ok := snapshot[f.path]
		if !ok || !c.fs.ModTime(f.path).Equal(seen) {
			return true
		}
	}
	return false
}

// Units returns the compiled units sorted by name.
func (c *Compiler) Units() []Unit {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Unit, 0, len(c.units))
	for _, name := range slices.Sorted(maps.Keys(c.units)) {
		out = append(out, *c.units[name])
	}
	return out
}

// Unit returns the compiled unit with the given name.
func (c *Compiler) Unit(name string) (Unit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.units[name]
	if !ok {
		return Unit{}, false
	}
	return *u, true
}

type sourceFile struct {
	name string
	path string
}

func (c *Compiler) scan(layout module.Layout) ([]sourceFile, error) {
	var files []sourceFile
	for _, root := range layout.SourcePaths() {
		paths, err := c.fs.Glob(root, UnitPattern)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return nil, fmt.Errorf("relativize %s: %w", p, err)
			}
			name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
			files = append(files, sourceFile{name: name, path: p})
		}
	}
	return files, nil
}

func (c *Compiler) compile(parser *hclparse.Parser, f sourceFile) (*Unit, error) {
	data, err := c.fs.ReadFile(f.path)
	if err != nil {
		return nil, issue.Unexpected(err, "read code unit")
	}

	file, diags := parser.ParseHCL(data, f.path)
	if diags.HasErrors() {
		return nil, compilationFailure(f.path, diags)
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, compilationFailure(f.path, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"unit": cty.ObjectVal(map[string]cty.Value{
				"name": cty.StringVal(f.name),
				"path": cty.StringVal(f.path),
			}),
		},
	}
	values := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, compilationFailure(f.path, diags)
		}
		values[name] = v
	}
	return &Unit{Name: f.name, Path: f.path, Attributes: values}, nil
}

func compilationFailure(path string, diags hcl.Diagnostics) error {
	return issue.NewBuilder(issue.KindStructured).
		WithIssue(issue.CompilationFailedId).
		WithOperation("compile code unit").
		WithResource(path).
		WithSuggestion("Fix the reported error; the application reloads on the next change check").
		Wrap(&Error{Path: path, Diagnostics: diags}).
		Err()
}
