// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/appvisor/appvisor/internal/extension"
	"github.com/appvisor/appvisor/internal/logging"
	"github.com/appvisor/appvisor/internal/module"
	"github.com/appvisor/appvisor/internal/testutil"
	"github.com/appvisor/appvisor/internal/vfs"
)

const (
	appRoot  = "/app"
	fwRoot   = "/fw"
	confPath = appRoot + "/" + ConfFile
)

type (
	journal struct {
		events []string
	}

	fakeCompiler struct {
		j            *journal
		errs         []error
		changed      bool
		materialized int
	}

	fakeRouter struct {
		j      *journal
		err    error
		resets int
	}

	fakeTemplates struct {
		j       *journal
		err     error
		clears  int
		compile int
	}

	fakeCache struct {
		j *journal
	}

	// spy records every hook it receives.
	spy struct {
		name      string
		j         *journal
		startErr  error
		detectErr []error
		panicOn   string
		onLoad    func(extension.Host)
		onStop    func(extension.Host)
		onStart   func(extension.Host)
		onAfter   func(extension.Host)
	}

	fixture struct {
		fs        *vfs.FS
		clock     *testutil.FakeClock
		exits     []int
		env       map[string]string
		journal   *journal
		compiler  *fakeCompiler
		router    *fakeRouter
		templates *fakeTemplates
		cache     *fakeCache
		catalog   *extension.Catalog
		spies     map[string]*spy
		rt        *Runtime
	}
)

func (j *journal) add(format string, args ...any) {
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (c *fakeCompiler) MaterializeAll(context.Context, module.Layout) error {
	c.materialized++
	c.j.add("compile")
	if len(c.errs) == 0 {
		return nil
	}
	err := c.errs[0]
	c.errs = c.errs[1:]
	return err
}

func (c *fakeCompiler) HasSourceChanged(context.Context, module.Layout) bool {
	changed := c.changed
	c.changed = false
	return changed
}

func (r *fakeRouter) ReparseIfNeeded(context.Context, module.Layout) error {
	r.j.add("routes")
	return r.err
}

func (r *fakeRouter) ResetWatermark() {
	r.resets++
	r.j.add("routes-reset")
}

func (t *fakeTemplates) MaterializeAll(context.Context, module.Layout) error {
	t.compile++
	t.j.add("templates")
	return t.err
}

func (t *fakeTemplates) ClearCache() {
	t.clears++
	t.j.add("templates-clear")
}

func (c *fakeCache) Reset()    { c.j.add("cache-reset") }
func (c *fakeCache) Shutdown() { c.j.add("cache-shutdown") }

func (p *spy) OnConfigurationRead(context.Context, extension.Host) {
	p.j.add("%s.conf", p.name)
}

func (p *spy) OnLoad(_ context.Context, h extension.Host) {
	p.j.add("%s.load", p.name)
	if p.onLoad != nil {
		p.onLoad(h)
	}
}

func (p *spy) OnApplicationStart(_ context.Context, h extension.Host) error {
	p.j.add("%s.start", p.name)
	if p.panicOn == "start" {
		panic("spy exploded")
	}
	if p.onStart != nil {
		p.onStart(h)
	}
	return p.startErr
}

func (p *spy) AfterApplicationStart(_ context.Context, h extension.Host) {
	p.j.add("%s.after", p.name)
	if p.onAfter != nil {
		p.onAfter(h)
	}
}

func (p *spy) OnApplicationStop(_ context.Context, h extension.Host) {
	p.j.add("%s.stop", p.name)
	if p.onStop != nil {
		p.onStop(h)
	}
}

func (p *spy) DetectChange(context.Context, extension.Host) error {
	p.j.add("%s.detect", p.name)
	if len(p.detectErr) == 0 {
		return nil
	}
	err := p.detectErr[0]
	p.detectErr = p.detectErr[1:]
	return err
}

// newFixture writes a framework install and an application with conf as
// its configuration. plugins is the application's plugin manifest. Spies
// named "a".."c" are application-scoped and "h" is host-scoped.
func newFixture(t *testing.T, conf, plugins string) *fixture {
	t.Helper()

	j := &journal{}
	f := &fixture{
		fs:        vfs.MemFS(),
		clock:     testutil.NewFakeClock(time.Now().Add(time.Hour)),
		env:       map[string]string{},
		journal:   j,
		compiler:  &fakeCompiler{j: j},
		router:    &fakeRouter{j: j},
		templates: &fakeTemplates{j: j},
		cache:     &fakeCache{j: j},
		catalog:   extension.NewCatalog(),
		spies:     map[string]*spy{},
	}

	f.write(t, fwRoot+"/"+VersionFile, "1.4.2\n")
	if conf != "" {
		f.write(t, confPath, conf)
	}
	if plugins != "" {
		f.write(t, appRoot+"/"+extension.PluginManifest, plugins)
	}

	for _, name := range []string{"a", "b", "c", "h"} {
		scope := extension.ScopeApplication
		if name == "h" {
			scope = extension.ScopeHost
		}
		f.catalog.Register(name, scope, func() extension.Extension {
			p := &spy{name: name, j: j}
			if tmpl, ok := f.spies[name]; ok {
				p.startErr = tmpl.startErr
				p.panicOn = tmpl.panicOn
				p.onLoad = tmpl.onLoad
				p.onStop = tmpl.onStop
				p.onStart = tmpl.onStart
				p.onAfter = tmpl.onAfter
				p.detectErr = tmpl.detectErr
			}
			return p
		})
	}

	f.rt = New(
		WithFS(f.fs),
		WithLogger(logging.Discard()),
		WithClock(f.clock),
		WithExit(func(code int) { f.exits = append(f.exits, code) }),
		WithEnv(func(k string) (string, bool) { v, ok := f.env[k]; return v, ok }),
		WithFrameworkPath(fwRoot),
		WithCatalog(f.catalog),
		WithCompiler(f.compiler),
		WithRouter(f.router),
		WithTemplates(f.templates),
		WithObjectCache(f.cache),
	)
	return f
}

// configure sets the hooks of the spies named name created from now on.
func (f *fixture) configure(name string, p *spy) {
	f.spies[name] = p
}

func (f *fixture) write(t *testing.T, path, content string) {
	t.Helper()
	if err := f.fs.WriteFile(path, []byte(content)); err != nil {
		t.Fatalf("WriteFile(%q) error = %v", path, err)
	}
}

func (f *fixture) touchConf(t *testing.T, mtime time.Time) {
	t.Helper()
	if err := f.fs.Chtimes(confPath, mtime); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
}

func (f *fixture) init(t *testing.T) {
	t.Helper()
	if err := f.rt.Init(t.Context(), appRoot, ""); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
}

func (f *fixture) reset() {
	f.journal.events = nil
}
