// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"github.com/appvisor/appvisor/internal/extension"
	"github.com/appvisor/appvisor/internal/logging"
	"github.com/appvisor/appvisor/internal/testutil"
	"github.com/appvisor/appvisor/internal/vfs"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithFS sets the filesystem every component reads through. Default: host filesystem.
func WithFS(fsys *vfs.FS) Option {
	return func(r *Runtime) { r.fs = fsys }
}

// WithLogger sets the logger. Its verbosity follows application.log.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runtime) { r.log = l }
}

// WithClock sets the clock used for start timestamps.
func WithClock(c testutil.Clock) Option {
	return func(r *Runtime) { r.clock = c }
}

// WithExit sets the function called on fatal failures. Default: os.Exit.
func WithExit(exit func(code int)) Option {
	return func(r *Runtime) { r.exit = exit }
}

// WithEnv sets the environment lookup used for interpolation variables,
// the modules list and the framework home. Default: os.LookupEnv.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(r *Runtime) { r.env = lookup }
}

// WithExecutable sets how the running binary is located when the framework
// path has to be guessed. Default: os.Executable.
func WithExecutable(fn func() (string, error)) Option {
	return func(r *Runtime) { r.executable = fn }
}

// WithFrameworkPath pins the framework install directory.
func WithFrameworkPath(path string) Option {
	return func(r *Runtime) { r.frameworkOpt = path }
}

// WithModulesEnv names the environment variable listing module directories.
// Default: DefaultModulesEnv.
func WithModulesEnv(name string) Option {
	return func(r *Runtime) { r.modulesEnv = name }
}

// WithCatalog sets the extension catalog. Default: an empty catalog.
func WithCatalog(c *extension.Catalog) Option {
	return func(r *Runtime) { r.catalog = c }
}

// WithCompiler sets the code compiler collaborator.
func WithCompiler(c Compiler) Option {
	return func(r *Runtime) { r.compiler = c }
}

// WithRouter sets the route table collaborator.
func WithRouter(rt Router) Option {
	return func(r *Runtime) { r.router = rt }
}

// WithTemplates sets the template cache collaborator.
func WithTemplates(t Templates) Option {
	return func(r *Runtime) { r.templates = t }
}

// WithObjectCache sets the shared object cache collaborator.
func WithObjectCache(c ObjectCache) Option {
	return func(r *Runtime) { r.cache = c }
}
