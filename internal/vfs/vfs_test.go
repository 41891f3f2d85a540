// SPDX-License-Identifier: MPL-2.0

package vfs

import (
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func mustWrite(t *testing.T, f *FS, path, content string) {
	t.Helper()
	if err := f.WriteFile(path, []byte(content)); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestResolve_FirstRootWins(t *testing.T) {
	t.Parallel()

	f := MemFS()
	mustWrite(t, f, "/app/public/style.css", "app")
	mustWrite(t, f, "/mod/public/style.css", "module")
	mustWrite(t, f, "/mod/public/only.css", "module")

	roots := []string{"/app", "/mod"}

	got, ok := f.Resolve(roots, "public/style.css")
	if !ok || got != filepath.Join("/app", "public/style.css") {
		t.Errorf("Resolve(style.css) = %q, %v", got, ok)
	}

	got, ok = f.Resolve(roots, "public/only.css")
	if !ok || got != filepath.Join("/mod", "public/only.css") {
		t.Errorf("Resolve(only.css) = %q, %v", got, ok)
	}

	if _, ok := f.Resolve(roots, "missing.txt"); ok {
		t.Error("Resolve(missing.txt) should report not found")
	}
}

func TestGlob(t *testing.T) {
	t.Parallel()

	f := MemFS()
	mustWrite(t, f, "/app/main.hcl", "")
	mustWrite(t, f, "/app/nested/deep/unit.hcl", "")
	mustWrite(t, f, "/app/readme.md", "")

	got, err := f.Glob("/app", "**/*.hcl")
	if err != nil {
		t.Fatalf("Glob() error: %v", err)
	}
	want := []string{
		filepath.Join("/app", "main.hcl"),
		filepath.Join("/app", "nested/deep/unit.hcl"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("Glob() = %v, want %v", got, want)
	}

	none, err := f.Glob("/nowhere", "**/*")
	if err != nil || len(none) != 0 {
		t.Errorf("Glob(missing root) = %v, %v", none, err)
	}

	if _, err := f.Glob("/app", "[unterminated"); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestModTimeAndIsDir(t *testing.T) {
	t.Parallel()

	f := MemFS()
	mustWrite(t, f, "/app/conf/application.conf", "a=1")

	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := f.Chtimes("/app/conf/application.conf", stamp); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if got := f.ModTime("/app/conf/application.conf"); !got.Equal(stamp) {
		t.Errorf("ModTime() = %v, want %v", got, stamp)
	}
	if !f.ModTime("/missing").IsZero() {
		t.Error("ModTime of a missing file should be zero")
	}
	if !f.IsDir("/app/conf") || f.IsDir("/app/conf/application.conf") {
		t.Error("IsDir misreports directories")
	}
}
