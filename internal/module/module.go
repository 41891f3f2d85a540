// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/appvisor/appvisor/internal/appconf"
	"github.com/appvisor/appvisor/internal/issue"
	"github.com/appvisor/appvisor/internal/vfs"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"
)

// Conventional locations inside an application or module root.
const (
	SourceDir    = "app"
	TestDir      = "test"
	TemplateDir  = "app/views"
	RouteFile    = "conf/routes"
	ManifestFile = "conf/module.toml"

	// TestIdentity is the process identity that loads test sources and the
	// built-in test-runner module.
	TestIdentity = "test"
	// TestRunner is the built-in module added for TestIdentity.
	TestRunner = "test-runner"
)

// ErrModuleNotFound is wrapped by AddModule when the module path is missing or
// not a directory.
var ErrModuleNotFound = errors.New("module path does not exist")

type (
	// Layout is the read-only view collaborators use to find sources.
	Layout interface {
		Roots() []string
		SourcePaths() []string
		TemplatePaths() []string
		Routes() string
		ModuleRoutes() map[string]string
	}

	// Descriptor describes one loaded module.
	Descriptor struct {
		Name string
		// Root is the absolute module directory.
		Root string
		// SourceRoot, TemplateRoot and RouteFile are empty when the module
		// does not contribute them.
		SourceRoot   string
		TemplateRoot string
		RouteFile    string
		// Version and Description come from conf/module.toml when present.
		Version     string
		Description string
	}

	// manifest is the optional conf/module.toml.
	manifest struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
	}

	// Registry accumulates modules and search roots for one process
	// generation. It is rebuilt on init and only appended to afterwards.
	Registry struct {
		fs            *vfs.FS
		logger        *slog.Logger
		appRoot       string
		frameworkPath string
		identity      string

		roots         []string
		sourcePaths   []string
		templatePaths []string
		routes        string
		moduleRoutes  map[string]string
		modules       []Descriptor
	}
)

// NewRegistry creates the base layout for the application at appRoot:
// the application root as first search root, app/ (and test/ for the test
// identity) as source paths, app/views plus the framework templates as
// template paths, and conf/routes as main route file.
func NewRegistry(fsys *vfs.FS, appRoot, frameworkPath, identity string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		fs:            fsys,
		logger:        logger,
		appRoot:       appRoot,
		frameworkPath: frameworkPath,
		identity:      identity,
		roots:         []string{appRoot},
		sourcePaths:   []string{filepath.Join(appRoot, SourceDir)},
		templatePaths: []string{filepath.Join(appRoot, TemplateDir)},
		routes:        filepath.Join(appRoot, RouteFile),
		moduleRoutes:  make(map[string]string),
	}
	if identity == TestIdentity {
		r.sourcePaths = append(r.sourcePaths, filepath.Join(appRoot, TestDir))
	}
	if frameworkPath != "" {
		r.templatePaths = append(r.templatePaths, filepath.Join(frameworkPath, "templates"))
	}
	return r
}

// LoadModules discovers modules from envValue (a host list-separator
// delimited set of directories, typically $MODULES) and from every
// module.<name> key of conf, then adds the built-in test runner for the test
// identity. Modules that cannot be added are logged and skipped; their errors
// are returned for reporting but never stop the other modules from loading.
func (r *Registry) LoadModules(envValue string, conf appconf.Resolved) []error {
	var skipped []error

	for _, m := range filepath.SplitList(envValue) {
		if strings.TrimSpace(m) == "" {
			continue
		}
		path := filepath.Clean(m)
		if err := r.AddModule(filepath.Base(path), path); err != nil {
			skipped = append(skipped, err)
		}
	}

	declared := conf.Prefixed(appconf.PrefixModule)
	for _, name := range slices.Sorted(maps.Keys(declared)) {
		path := declared[name]
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.appRoot, path)
		}
		if err := r.AddModule(name, path); err != nil {
			skipped = append(skipped, err)
		}
	}

	if r.identity == TestIdentity && r.frameworkPath != "" {
		if err := r.AddModule(TestRunner, filepath.Join(r.frameworkPath, "modules", TestRunner)); err != nil {
			skipped = append(skipped, err)
		}
	}
	return skipped
}

// AddModule registers the module rooted at path under name. A missing or
// non-directory path is reported (and logged) without touching the registry.
func (r *Registry) AddModule(name, path string) error {
	if !r.fs.IsDir(path) {
		r.logger.Error("module will not be loaded because its path does not exist", "module", name, "path", path)
		return issue.NewBuilder(issue.KindStructured).
			WithIssue(issue.ModuleNotFoundId).
			WithOperation("load module " + name).
			WithResource(path).
			Wrap(ErrModuleNotFound).
			Err()
	}

	d := Descriptor{Name: name, Root: path}
	if src := filepath.Join(path, SourceDir); r.fs.Exists(src) {
		d.SourceRoot = src
		r.sourcePaths = append(r.sourcePaths, src)
	}
	if views := filepath.Join(path, TemplateDir); r.fs.Exists(views) {
		d.TemplateRoot = views
		r.templatePaths = append(r.templatePaths, views)
	}
	if routes := filepath.Join(path, RouteFile); r.fs.Exists(routes) {
		d.RouteFile = routes
		r.moduleRoutes[name] = routes
	}
	r.readManifest(&d)

	r.modules = append(r.modules, d)
	r.roots = append(r.roots, path)
	r.logger.Info("module is available", "module", name, "path", path)
	return nil
}

// readManifest fills Version and Description from conf/module.toml. A
// broken manifest only costs the metadata.
func (r *Registry) readManifest(d *Descriptor) {
	path := filepath.Join(d.Root, ManifestFile)
	if !r.fs.Exists(path) {
		return
	}
	data, err := r.fs.ReadFile(path)
	if err != nil {
		r.logger.Warn("cannot read module manifest", "module", d.Name, "path", path, "error", err)
		return
	}
	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		r.logger.Warn("invalid module manifest", "module", d.Name, "path", path, "error", err)
		return
	}
	if m.Version != "" {
		v := "v" + strings.TrimPrefix(m.Version, "v")
		if !semver.IsValid(v) {
			r.logger.Warn("module version is not semantic, ignoring it", "module", d.Name, "version", m.Version)
		} else {
			d.Version = semver.Canonical(v)
		}
	}
	if m.Name != "" && m.Name != d.Name {
		r.logger.Debug("module declares a different name", "module", d.Name, "declared", m.Name)
	}
	d.Description = m.Description
}

// Roots returns the search roots: application root first, then modules in
// registration order.
func (r *Registry) Roots() []string { return slices.Clone(r.roots) }

// SourcePaths returns every directory holding code units.
func (r *Registry) SourcePaths() []string { return slices.Clone(r.sourcePaths) }

// TemplatePaths returns every directory holding templates.
func (r *Registry) TemplatePaths() []string { return slices.Clone(r.templatePaths) }

// Routes returns the main route file.
func (r *Registry) Routes() string { return r.routes }

// ModuleRoutes returns the route files contributed by modules, keyed by module name.
func (r *Registry) ModuleRoutes() map[string]string { return maps.Clone(r.moduleRoutes) }

// Modules returns the loaded modules in registration order.
func (r *Registry) Modules() []Descriptor { return slices.Clone(r.modules) }

// Lookup searches every root front-to-back for rel.
func (r *Registry) Lookup(rel string) (string, bool) {
	return r.fs.Resolve(r.roots, rel)
}

// String renders a one-line summary for logs.
func (d Descriptor) String() string {
	if d.Version != "" {
		return fmt.Sprintf("%s@%s (%s)", d.Name, d.Version, d.Root)
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.Root)
}
