// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/appvisor/appvisor/internal/compiler"
	"github.com/appvisor/appvisor/internal/config"
	"github.com/appvisor/appvisor/internal/extension"
	"github.com/appvisor/appvisor/internal/extension/builtin"
	"github.com/appvisor/appvisor/internal/lifecycle"
	"github.com/appvisor/appvisor/internal/logging"
	"github.com/appvisor/appvisor/internal/objcache"
	"github.com/appvisor/appvisor/internal/router"
	"github.com/appvisor/appvisor/internal/testutil"
	"github.com/appvisor/appvisor/internal/tmplcache"
	"github.com/appvisor/appvisor/internal/vfs"
)

type (
	// App is the composition root of the CLI. Command handlers receive it and
	// build one Runtime per invocation through newServices.
	App struct {
		Config config.Provider
		FS     *vfs.FS
		Env    func(string) (string, bool)
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies are the injection points of NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config config.Provider
		FS     *vfs.FS
		Env    func(string) (string, bool)
		Stdout io.Writer
		Stderr io.Writer
	}

	// services is one wired Runtime together with its concrete collaborators.
	services struct {
		settings  config.Settings
		source    string
		logger    *logging.Logger
		runtime   *lifecycle.Runtime
		compiler  *compiler.Compiler
		routes    *router.Table
		templates *tmplcache.Cache
		cache     *objcache.Cache

		// exitCode is the status the runtime asked to exit with.
		exitCode int
	}
)

// NewApp creates an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	if deps.FS == nil {
		deps.FS = vfs.OsFS()
	}
	if deps.Env == nil {
		deps.Env = os.LookupEnv
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider(deps.FS, deps.Env)
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &App{
		Config: deps.Config,
		FS:     deps.FS,
		Env:    deps.Env,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadSettings reads appvisor.cue for the application at root.
func (a *App) loadSettings(ctx context.Context, flags *rootFlagValues, root string) (config.Settings, string, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath, Root: root})
}

// newServices loads the settings for root and wires a fresh Runtime.
func (a *App) newServices(ctx context.Context, flags *rootFlagValues, root string) (*services, error) {
	settings, source, err := a.loadSettings(ctx, flags, root)
	if err != nil {
		return nil, err
	}

	floor := ""
	if flags.verbose {
		floor = "DEBUG"
	}
	logger := logging.New(a.stderr, logging.Options{
		Format:     settings.LogFormat,
		Timestamps: settings.LogTimestamps,
		Floor:      floor,
	})

	catalog := extension.NewCatalog()
	builtin.Register(catalog)

	s := &services{
		settings:  settings,
		source:    source,
		logger:    logger,
		compiler:  compiler.New(a.FS, logger.Logger),
		routes:    router.New(a.FS, logger.Logger),
		templates: tmplcache.New(a.FS, logger.Logger),
		cache:     objcache.New(settings.CacheSize, testutil.RealClock{}),
	}

	opts := []lifecycle.Option{
		lifecycle.WithFS(a.FS),
		lifecycle.WithLogger(logger),
		lifecycle.WithEnv(a.Env),
		lifecycle.WithCatalog(catalog),
		lifecycle.WithCompiler(s.compiler),
		lifecycle.WithRouter(s.routes),
		lifecycle.WithTemplates(s.templates),
		lifecycle.WithObjectCache(s.cache),
		lifecycle.WithExit(func(code int) { s.exitCode = code }),
	}
	if settings.FrameworkPath != "" {
		opts = append(opts, lifecycle.WithFrameworkPath(settings.FrameworkPath))
	}
	if settings.ModulesEnv != "" {
		opts = append(opts, lifecycle.WithModulesEnv(settings.ModulesEnv))
	}
	s.runtime = lifecycle.New(opts...)
	return s, nil
}

// identity picks the framework id: the --id flag, else the settings file.
func (s *services) identity(flags *rootFlagValues) string {
	if flags.id != "" {
		return flags.id
	}
	return s.settings.ID
}

// fail renders err and converts it into an ExitError carrying the status
// the runtime requested, or 1.
func (a *App) fail(cmd *cobra.Command, s *services, err error, verbose bool) error {
	renderError(a.stderr, err, verbose)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	code := 1
	if s != nil && s.exitCode != 0 {
		code = s.exitCode
	}
	if code < 0 {
		code &= 0xff
	}
	return &ExitError{Code: code}
}

// rootArg returns the application root positional argument, defaulting to
// the working directory.
func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
