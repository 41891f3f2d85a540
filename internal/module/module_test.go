// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/appvisor/appvisor/internal/appconf"
	"github.com/appvisor/appvisor/internal/issue"
	"github.com/appvisor/appvisor/internal/vfs"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func touch(t *testing.T, fsys *vfs.FS, path string) {
	t.Helper()
	if err := fsys.WriteFile(path, []byte("x")); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// newFixture builds /app plus two modules, /mods/auth (full layout) and
// /mods/bare (no contributions).
func newFixture(t *testing.T) *vfs.FS {
	t.Helper()
	fsys := vfs.MemFS()
	touch(t, fsys, "/app/conf/application.conf")
	touch(t, fsys, "/mods/auth/app/controllers.hcl")
	touch(t, fsys, "/mods/auth/app/views/login.html")
	touch(t, fsys, "/mods/auth/conf/routes")
	if err := fsys.MkdirAll("/mods/bare"); err != nil {
		t.Fatal(err)
	}
	if err := fsys.MkdirAll("/opt/appvisor/modules/test-runner/app"); err != nil {
		t.Fatal(err)
	}
	return fsys
}

func TestNewRegistry_BaseLayout(t *testing.T) {
	t.Parallel()

	fsys := newFixture(t)

	r := NewRegistry(fsys, "/app", "/opt/appvisor", "", discard())
	if got := r.Roots(); !slices.Equal(got, []string{"/app"}) {
		t.Errorf("Roots() = %v", got)
	}
	if got := r.SourcePaths(); !slices.Equal(got, []string{filepath.Join("/app", "app")}) {
		t.Errorf("SourcePaths() = %v", got)
	}
	wantTemplates := []string{filepath.Join("/app", "app/views"), filepath.Join("/opt/appvisor", "templates")}
	if got := r.TemplatePaths(); !slices.Equal(got, wantTemplates) {
		t.Errorf("TemplatePaths() = %v, want %v", got, wantTemplates)
	}
	if r.Routes() != filepath.Join("/app", "conf/routes") {
		t.Errorf("Routes() = %q", r.Routes())
	}

	testReg := NewRegistry(fsys, "/app", "/opt/appvisor", TestIdentity, discard())
	if got := testReg.SourcePaths(); len(got) != 2 || got[1] != filepath.Join("/app", "test") {
		t.Errorf("test identity SourcePaths() = %v", got)
	}
}

func TestAddModule_Contributions(t *testing.T) {
	t.Parallel()

	fsys := newFixture(t)
	r := NewRegistry(fsys, "/app", "", "", discard())

	if err := r.AddModule("auth", "/mods/auth"); err != nil {
		t.Fatalf("AddModule(auth) error: %v", err)
	}
	if err := r.AddModule("bare", "/mods/bare"); err != nil {
		t.Fatalf("AddModule(bare) error: %v", err)
	}

	if got := r.Roots(); !slices.Equal(got, []string{"/app", "/mods/auth", "/mods/bare"}) {
		t.Errorf("Roots() = %v", got)
	}
	if got := r.SourcePaths(); !slices.Contains(got, filepath.Join("/mods/auth", "app")) || slices.Contains(got, filepath.Join("/mods/bare", "app")) {
		t.Errorf("SourcePaths() = %v", got)
	}
	if got := r.TemplatePaths(); !slices.Contains(got, filepath.Join("/mods/auth", "app/views")) {
		t.Errorf("TemplatePaths() = %v", got)
	}
	routes := r.ModuleRoutes()
	if routes["auth"] != filepath.Join("/mods/auth", "conf/routes") || len(routes) != 1 {
		t.Errorf("ModuleRoutes() = %v", routes)
	}

	mods := r.Modules()
	if len(mods) != 2 || mods[1].SourceRoot != "" || mods[1].RouteFile != "" {
		t.Errorf("Modules() = %+v", mods)
	}
}

func TestLoadModules_MissingPathIsSkipped(t *testing.T) {
	t.Parallel()

	fsys := newFixture(t)
	r := NewRegistry(fsys, "/app", "", "", discard())

	conf := appconf.NewResolved(map[string]string{
		"module.ghost": "/nowhere/ghost",
		"module.auth":  "/mods/auth",
	})
	skipped := r.LoadModules("", conf)

	if len(skipped) != 1 {
		t.Fatalf("expected one skipped module, got %v", skipped)
	}
	if !errors.Is(skipped[0], ErrModuleNotFound) || !issue.IsStructured(skipped[0]) {
		t.Errorf("unexpected skip error: %v", skipped[0])
	}
	if slices.Contains(r.Roots(), "/nowhere/ghost") {
		t.Error("missing module must not appear in search roots")
	}
	if !slices.Contains(r.Roots(), "/mods/auth") {
		t.Error("valid module should still load")
	}
}

func TestLoadModules_DiscoveryOrder(t *testing.T) {
	t.Parallel()

	fsys := newFixture(t)
	touch(t, fsys, "/app/modules/local/app/unit.hcl")
	r := NewRegistry(fsys, "/app", "/opt/appvisor", TestIdentity, discard())

	env := strings.Join([]string{"/mods/bare", "", "/mods/auth"}, string(os.PathListSeparator))
	conf := appconf.NewResolved(map[string]string{
		"module.zeta":  "modules/local",
		"module.alpha": "/mods/auth",
	})
	if skipped := r.LoadModules(env, conf); len(skipped) != 0 {
		t.Fatalf("unexpected skipped modules: %v", skipped)
	}

	var names []string
	for _, d := range r.Modules() {
		names = append(names, d.Name)
	}
	want := []string{"bare", "auth", "alpha", "zeta", TestRunner}
	if !slices.Equal(names, want) {
		t.Errorf("module order = %v, want %v", names, want)
	}

	roots := r.Roots()
	if roots[0] != "/app" || roots[len(roots)-1] != filepath.Join("/opt/appvisor", "modules", TestRunner) {
		t.Errorf("Roots() = %v", roots)
	}
	if !slices.Contains(roots, filepath.Join("/app", "modules/local")) {
		t.Errorf("relative module path not resolved against the app root: %v", roots)
	}
}

func TestLoadModules_Deterministic(t *testing.T) {
	t.Parallel()

	fsys := newFixture(t)
	conf := appconf.NewResolved(map[string]string{
		"module.b": "/mods/bare",
		"module.a": "/mods/auth",
	})

	first := NewRegistry(fsys, "/app", "", "", discard())
	first.LoadModules("", conf)
	second := NewRegistry(fsys, "/app", "", "", discard())
	second.LoadModules("", conf)

	if !slices.Equal(first.Roots(), second.Roots()) {
		t.Errorf("roots differ: %v vs %v", first.Roots(), second.Roots())
	}
}

func TestLookup_FirstRegisteredRootWins(t *testing.T) {
	t.Parallel()

	fsys := newFixture(t)
	touch(t, fsys, "/app/public/logo.png")
	touch(t, fsys, "/mods/auth/public/logo.png")
	touch(t, fsys, "/mods/auth/public/lock.png")
	touch(t, fsys, "/mods/zeta/public/lock.png")
	touch(t, fsys, "/mods/zeta/public/key.png")

	r := NewRegistry(fsys, "/app", "", "", discard())
	for _, name := range []string{"auth", "zeta"} {
		if err := r.AddModule(name, "/mods/"+name); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		rel  string
		want string
	}{
		{"public/logo.png", filepath.Join("/app", "public/logo.png")},
		{"public/lock.png", filepath.Join("/mods/auth", "public/lock.png")},
		{"public/key.png", filepath.Join("/mods/zeta", "public/key.png")},
	}
	for _, tt := range tests {
		if got, _ := r.Lookup(tt.rel); got != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

func TestAddModule_Manifest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		manifest    string
		wantVersion string
		wantDesc    string
	}{
		{name: "valid", manifest: "name = \"auth\"\nversion = \"1.2.0\"\ndescription = \"Login pages\"\n", wantVersion: "v1.2.0", wantDesc: "Login pages"},
		{name: "bad version", manifest: "version = \"one\"\n", wantVersion: ""},
		{name: "broken toml", manifest: "version = \n", wantVersion: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fsys := newFixture(t)
			if err := fsys.WriteFile("/mods/auth/conf/module.toml", []byte(tt.manifest)); err != nil {
				t.Fatal(err)
			}
			r := NewRegistry(fsys, "/app", "", "", discard())
			if err := r.AddModule("auth", "/mods/auth"); err != nil {
				t.Fatalf("AddModule() error: %v", err)
			}
			d := r.Modules()[0]
			if d.Version != tt.wantVersion || d.Description != tt.wantDesc {
				t.Errorf("descriptor = %+v", d)
			}
		})
	}
}
