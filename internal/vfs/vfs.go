// SPDX-License-Identifier: MPL-2.0

// Package vfs is the file abstraction every lifecycle component reads source
// trees through. It wraps an afero.Fs so tests can run against memory-backed
// trees while production uses the host filesystem.
package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// ErrNotFound reports a relative path missing from every search root.
var ErrNotFound = errors.New("not found in any search root")

// FS reads files for the runtime and its collaborators.
type FS struct {
	fs afero.Fs
}

// New wraps an afero filesystem.
func New(fsys afero.Fs) *FS {
	return &FS{fs: fsys}
}

// OsFS returns an FS over the host filesystem.
func OsFS() *FS {
	return New(afero.NewOsFs())
}

// MemFS returns an FS over an empty in-memory filesystem.
func MemFS() *FS {
	return New(afero.NewMemMapFs())
}

// Afero exposes the underlying filesystem for callers that need afero helpers.
func (f *FS) Afero() afero.Fs {
	return f.fs
}

// Exists reports whether path exists (file or directory).
func (f *FS) Exists(path string) bool {
	_, err := f.fs.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func (f *FS) IsDir(path string) bool {
	ok, err := afero.IsDir(f.fs, path)
	return err == nil && ok
}

// ModTime returns the modification time of path, or the zero time if it
// cannot be stat'ed.
func (f *FS) ModTime(path string) time.Time {
	info, err := f.fs.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// ReadFile reads the whole file at path.
func (f *FS) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// WriteFile writes data to path, creating parent directories.
func (f *FS) WriteFile(path string, data []byte) error {
	if err := f.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}
	return afero.WriteFile(f.fs, path, data, 0o644)
}

// MkdirAll creates path and any missing parents.
func (f *FS) MkdirAll(path string) error {
	return f.fs.MkdirAll(path, 0o755)
}

// Chtimes sets the access and modification times of path.
func (f *FS) Chtimes(path string, mtime time.Time) error {
	return f.fs.Chtimes(path, mtime, mtime)
}

// Resolve searches roots front-to-back for rel and returns the first match.
func (f *FS) Resolve(roots []string, rel string) (string, bool) {
	for _, root := range roots {
		candidate := filepath.Join(root, rel)
		if f.Exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// Glob walks root and returns every regular file whose slash-separated path
// relative to root matches one of patterns. A missing root yields no matches.
// Results are sorted for deterministic iteration.
func (f *FS) Glob(root string, patterns ...string) ([]string, error) {
	if !f.IsDir(root) {
		return nil, nil
	}
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid pattern %q", pat)
		}
	}

	var matches []string
	err := afero.Walk(f.fs, root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		rel = filepath.ToSlash(rel)
		for _, pat := range patterns {
			if ok, _ := doublestar.Match(pat, rel); ok {
				matches = append(matches, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(matches)
	return matches, nil
}
