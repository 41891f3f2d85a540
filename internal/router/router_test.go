// SPDX-License-Identifier: MPL-2.0

package router

import (
	"log/slog"
	"testing"
	"time"

	"github.com/appvisor/appvisor/internal/issue"
	"github.com/appvisor/appvisor/internal/module"
	"github.com/appvisor/appvisor/internal/vfs"
)

func setup(t *testing.T, files map[string]string, modules ...string) (*vfs.FS, *module.Registry, *Table) {
	t.Helper()

	fsys := vfs.MemFS()
	for p, content := range files {
		if err := fsys.WriteFile(p, []byte(content)); err != nil {
			t.Fatalf("WriteFile(%q) error = %v", p, err)
		}
	}
	logger := slog.New(slog.DiscardHandler)
	reg := module.NewRegistry(fsys, "/app", "", "", logger)
	for _, name := range modules {
		if err := reg.AddModule(name, "/mods/"+name); err != nil {
			t.Fatalf("AddModule(%q) error = %v", name, err)
		}
	}
	return fsys, reg, New(fsys, logger)
}

func TestReparseIfNeeded(t *testing.T) {
	t.Parallel()

	_, reg, table := setup(t, map[string]string{
		"/app/conf/routes":        "# home\nGET / Application.index\n\n*  /admin  module:admin\npost /login Auth.login\n",
		"/mods/admin/conf/routes": "GET / Admin.index\nGET /users Admin.users\n",
	}, "admin")

	if err := table.ReparseIfNeeded(t.Context(), reg); err != nil {
		t.Fatalf("ReparseIfNeeded() error = %v", err)
	}

	routes := table.Routes()
	want := []struct{ method, path, action string }{
		{"GET", "/", "Application.index"},
		{"GET", "/admin", "Admin.index"},
		{"GET", "/admin/users", "Admin.users"},
		{"POST", "/login", "Auth.login"},
	}
	if len(routes) != len(want) {
		t.Fatalf("len(Routes()) = %d, want %d: %+v", len(routes), len(want), routes)
	}
	for i, w := range want {
		r := routes[i]
		if r.Method != w.method || r.Path != w.path || r.Action != w.action {
			t.Errorf("Routes()[%d] = %s %s %s, want %s %s %s", i, r.Method, r.Path, r.Action, w.method, w.path, w.action)
		}
	}

	if r, ok := table.Match("post", "/login"); !ok || r.Action != "Auth.login" {
		t.Errorf("Match(post, /login) = %+v, %v", r, ok)
	}
	if _, ok := table.Match("GET", "/missing"); ok {
		t.Error("Match(GET, /missing) found a route")
	}
}

func TestReparseIfNeeded_Watermark(t *testing.T) {
	t.Parallel()

	fsys, reg, table := setup(t, map[string]string{
		"/app/conf/routes": "GET / A.index\n",
	})
	if err := table.ReparseIfNeeded(t.Context(), reg); err != nil {
		t.Fatalf("ReparseIfNeeded() error = %v", err)
	}
	mark := table.Watermark()
	if mark.IsZero() {
		t.Fatal("Watermark() is zero after a parse")
	}

	// Same modtime: the new content is not seen.
	if err := fsys.WriteFile("/app/conf/routes", []byte("GET / B.index\n")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := fsys.Chtimes("/app/conf/routes", mark); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	if err := table.ReparseIfNeeded(t.Context(), reg); err != nil {
		t.Fatalf("ReparseIfNeeded() error = %v", err)
	}
	if got := table.Routes()[0].Action; got != "A.index" {
		t.Errorf("action = %q, want stale %q", got, "A.index")
	}

	table.ResetWatermark()
	if !table.Watermark().IsZero() {
		t.Error("Watermark() not zero after ResetWatermark()")
	}
	if err := table.ReparseIfNeeded(t.Context(), reg); err != nil {
		t.Fatalf("ReparseIfNeeded() error = %v", err)
	}
	if got := table.Routes()[0].Action; got != "B.index" {
		t.Errorf("action = %q, want %q", got, "B.index")
	}

	if err := fsys.WriteFile("/app/conf/routes", []byte("GET / C.index\n")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := fsys.Chtimes("/app/conf/routes", mark.Add(time.Minute)); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	if err := table.ReparseIfNeeded(t.Context(), reg); err != nil {
		t.Fatalf("ReparseIfNeeded() error = %v", err)
	}
	if got := table.Routes()[0].Action; got != "C.index" {
		t.Errorf("action = %q, want %q", got, "C.index")
	}
}

func TestReparseIfNeeded_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		routes string
	}{
		{"too few fields", "GET /\n"},
		{"relative path", "GET home A.index\n"},
		{"unknown module", "* /x module:nope\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, reg, table := setup(t, map[string]string{"/app/conf/routes": tt.routes})
			err := table.ReparseIfNeeded(t.Context(), reg)
			if !issue.IsStructured(err) {
				t.Errorf("ReparseIfNeeded() error = %v, want structured failure", err)
			}
			if !table.Watermark().IsZero() {
				t.Error("Watermark() moved after a failed parse")
			}
		})
	}
}

func TestReparseIfNeeded_NoRouteFile(t *testing.T) {
	t.Parallel()

	_, reg, table := setup(t, nil)
	if err := table.ReparseIfNeeded(t.Context(), reg); err != nil {
		t.Fatalf("ReparseIfNeeded() error = %v", err)
	}
	if n := len(table.Routes()); n != 0 {
		t.Errorf("len(Routes()) = %d, want 0", n)
	}
}
