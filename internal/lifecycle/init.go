// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/appvisor/appvisor/internal/appconf"
	"github.com/appvisor/appvisor/internal/extension"
	"github.com/appvisor/appvisor/internal/issue"
	"github.com/appvisor/appvisor/internal/module"
)

// Init prepares the application rooted at root for the given framework
// identity. It runs once per Runtime.
//
// In PROD mode Init precompiles every code unit and template and then
// starts the application; a precompilation failure exits the process with
// status 255. In DEV mode the application is left un-started until the
// first Start or DetectChanges.
//
// An unreadable configuration or an undiscoverable framework install exits
// the process with status 1.
func (r *Runtime) Init(ctx context.Context, root, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State() != StateUninitialized {
		return issue.Unexpected(ErrAlreadyInitialized, "initialize runtime")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return issue.Unexpected(err, "resolve application root")
	}
	r.root = abs
	r.identity = identity
	r.confPath = filepath.Join(abs, filepath.FromSlash(ConfFile))

	fw, version, err := r.discoverFramework()
	if err != nil {
		return r.fatal(err, 1)
	}
	r.frameworkPath = fw
	r.version = version

	extension.RunStatic(r.fs, []string{fw, abs}, r.catalog, r.Logger())

	r.vars = appconf.NewSystemVars(r.env)
	r.vars.Set(VarFrameworkPath, fw)
	r.vars.Set(VarApplicationPath, abs)
	r.log.Info("starting application", "path", abs, "version", version)

	if err := r.readConfiguration(ctx); err != nil {
		return err
	}
	conf := r.Configuration()
	mode, err := appconf.ModeOf(conf)
	if err != nil {
		return issue.NewBuilder(issue.KindStructured).
			WithIssue(issue.InvalidConfigurationId).
			WithOperation("read application mode").
			WithResource(r.confPath).
			Wrap(err).
			Err()
	}
	r.mode = mode
	r.setUpLogging(conf)

	r.modules = module.NewRegistry(r.fs, abs, fw, identity, r.Logger())
	modulesValue, _ := r.env(r.modulesEnv)
	r.modules.LoadModules(modulesValue, conf)

	r.execCtx = extension.NewContext(1, r.catalog, r.fs, r.contextRoots())
	r.working = &extension.Set{}
	extension.Load(ctx, r.execCtx, r.working, r, r.Logger())
	r.setExtensions(r.working.Items())
	r.working = nil

	r.setStatus(StateInitialized, r.StartedAt())

	if r.mode == appconf.ModeProd {
		if err := r.precompile(ctx); err != nil {
			return err
		}
		if err := r.start(ctx); err != nil {
			return err
		}
	} else {
		r.log.Warn("running in DEV mode, the application starts on the first request")
	}

	r.log.Info("application is ready", "name", r.ApplicationName(), "mode", r.mode)
	return nil
}

// discoverFramework locates the framework install directory: the pinned
// option, else $APPVISOR_HOME, else the grandparent of the running binary
// (bin/appvisor). The first candidate found decides; it must hold a VERSION
// file.
func (r *Runtime) discoverFramework() (string, string, error) {
	path := r.frameworkOpt
	if path == "" {
		path, _ = r.env(FrameworkHomeEnv)
	}
	if path == "" {
		exe, err := r.executable()
		if err != nil {
			return "", "", frameworkNotFound("", err)
		}
		path = filepath.Dir(filepath.Dir(exe))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", frameworkNotFound(path, err)
	}
	versionPath := filepath.Join(abs, VersionFile)
	if !r.fs.Exists(versionPath) {
		return "", "", frameworkNotFound(abs, fmt.Errorf("%s is missing", VersionFile))
	}
	data, err := r.fs.ReadFile(versionPath)
	if err != nil {
		return "", "", frameworkNotFound(abs, err)
	}
	return abs, strings.TrimSpace(string(data)), nil
}

func frameworkNotFound(path string, cause error) error {
	return issue.NewBuilder(issue.KindFatal).
		WithIssue(issue.FrameworkNotFoundId).
		WithOperation("locate framework").
		WithResource(path).
		WithSuggestion("Set " + FrameworkHomeEnv + " to the framework install directory").
		Wrap(cause).
		Err()
}

// readConfiguration loads, resolves and validates the configuration file,
// publishes it and notifies every extension.
func (r *Runtime) readConfiguration(ctx context.Context) error {
	raw, err := appconf.Load(r.fs, r.confPath)
	if err != nil {
		return r.fatal(err, 1)
	}
	resolved := appconf.Resolve(raw, r.identity, r.vars, r.Logger())
	if err := appconf.Validate(resolved, r.confPath); err != nil {
		return err
	}
	r.conf.Store(&resolved)

	for _, d := range r.Extensions() {
		d.Instance.OnConfigurationRead(ctx, r)
	}
	return nil
}

func (r *Runtime) setUpLogging(conf appconf.Resolved) {
	level := conf.GetOr(appconf.KeyLog, "INFO")
	if err := r.log.SetUp(level); err != nil {
		r.log.Warn("unknown log level, keeping the current one", "level", level, "error", err)
	}
}

// contextRoots lists where execution context resources are searched:
// the framework first, then every search root.
func (r *Runtime) contextRoots() []string {
	return append([]string{r.frameworkPath}, r.modules.Roots()...)
}

// fatal logs err, asks the process to exit with code and returns err as a
// fatal failure for callers whose exit function returns.
func (r *Runtime) fatal(err error, code int) error {
	var f *issue.Failure
	if !errors.As(err, &f) || f.Kind != issue.KindFatal {
		err = issue.Fatal(err, "initialize runtime")
	}
	r.log.Error("fatal error, the runtime cannot continue", "error", err)
	r.exit(code)
	return err
}
