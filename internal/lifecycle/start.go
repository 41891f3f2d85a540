// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/appvisor/appvisor/internal/appconf"
	"github.com/appvisor/appvisor/internal/extension"
	"github.com/appvisor/appvisor/internal/issue"
)

// Start (re)starts the application. A running application is stopped first,
// so Start is always a full reload. In DEV mode a new execution context is
// created and application-scoped extensions are rebuilt against it.
//
// Structured failures are returned unchanged; any other error is wrapped as
// an unexpected failure. Either way the application is left not started.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireInit("start application"); err != nil {
		return err
	}
	return r.start(ctx)
}

// Stop marks the application as not started, then runs every extension's
// OnApplicationStop, shuts the object cache down and resets the route
// watermark.
func (r *Runtime) Stop(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stop(ctx)
}

func (r *Runtime) requireInit(op string) error {
	state := r.State()
	switch {
	case state == StateUninitialized:
		return issue.Unexpected(ErrNotInitialized, op)
	case state.IsTerminal():
		return issue.Unexpected(fmt.Errorf("%w: %s", ErrTerminalState, state), op)
	default:
		return nil
	}
}

// start is Start without the lock.
func (r *Runtime) start(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		err = issue.Classify(err, "start application")
	}()

	if r.Started() {
		r.log.Info("reloading")
		r.stop(ctx)
	}

	if r.mode == appconf.ModeDev {
		if err := r.rebuildContext(ctx); err != nil {
			return err
		}
	}

	if err := r.readConfiguration(ctx); err != nil {
		return err
	}
	conf := r.Configuration()

	d := &derived{
		tmpDir: r.tmpDir(conf),
		langs:  appconf.Langs(conf),
		secret: strings.TrimSpace(conf.GetOr(appconf.KeySecret, "")),
	}
	r.setUpLogging(conf)
	if d.secret == "" {
		r.log.Warn("no secret key defined, sessions will not be encrypted")
	}
	r.derived.Store(d)

	r.cache.Reset()
	r.templates.ClearCache()

	if err := r.compiler.MaterializeAll(ctx, r.modules); err != nil {
		return err
	}
	if err := r.router.ReparseIfNeeded(ctx, r.modules); err != nil {
		return err
	}

	exts := r.Extensions()
	for _, e := range exts {
		if err := e.Instance.OnApplicationStart(ctx, r); err != nil {
			return err
		}
	}

	r.setStatus(StateStarted, r.clock.Now())

	for _, e := range exts {
		e.Instance.AfterApplicationStart(ctx, r)
	}
	return nil
}

// rebuildContext replaces the execution context and migrates the extension
// list onto it.
func (r *Runtime) rebuildContext(ctx context.Context) error {
	ec := extension.NewContext(r.execCtx.Generation()+1, r.catalog, r.fs, r.contextRoots())

	r.working = &extension.Set{}
	defer func() { r.working = nil }()

	migrated, err := extension.Migrate(ctx, r.Extensions(), ec, r)
	if err != nil {
		return err
	}
	migrated = append(migrated, r.working.Items()...)
	extension.SortDescriptors(migrated)

	r.execCtx = ec
	r.setExtensions(migrated)
	r.log.Debug("execution context rebuilt", "generation", ec.Generation(), "extensions", len(migrated))
	return nil
}

// tmpDir resolves application.tmp and creates the directory. It returns ""
// when temp features are disabled or the directory cannot be created.
func (r *Runtime) tmpDir(conf appconf.Resolved) string {
	tmp := conf.GetOr(appconf.KeyTmp, appconf.TmpDefault)
	if tmp == appconf.TmpNone {
		r.log.Debug("no tmp folder will be used", "reason", appconf.KeyTmp+" is set to none")
		return ""
	}
	dir := tmp
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.root, dir)
	}
	if err := r.fs.MkdirAll(dir); err != nil {
		r.log.Warn("no tmp folder will be used", "path", dir, "error", err)
		return ""
	}
	return dir
}

// stop is Stop without the lock.
func (r *Runtime) stop(ctx context.Context) {
	if r.State() == StateStarted {
		r.setStatus(StateStopped, r.StartedAt())
	}
	for _, e := range r.Extensions() {
		e.Instance.OnApplicationStop(ctx, r)
	}
	r.cache.Shutdown()
	r.router.ResetWatermark()
}

// precompile materializes every code unit and template ahead of the first
// start. On failure the process is asked to exit with status -1.
func (r *Runtime) precompile(ctx context.Context) error {
	r.log.Info("precompiling")

	t0 := r.clock.Now()
	err := r.compiler.MaterializeAll(ctx, r.modules)
	if err == nil {
		r.log.Debug("code units precompiled", "elapsed", r.clock.Since(t0).Round(time.Millisecond))
		t0 = r.clock.Now()
		err = r.templates.MaterializeAll(ctx, r.modules)
	}
	if err == nil {
		r.log.Debug("templates precompiled", "elapsed", r.clock.Since(t0).Round(time.Millisecond))
		return nil
	}

	r.log.Error("cannot start in PROD mode with errors", "error", err)
	r.setStatus(StateFailedProdStart, time.Time{})
	r.exit(-1)
	return issue.NewBuilder(issue.KindFatal).
		WithIssue(issue.PrecompileFailedId).
		WithOperation("precompile application").
		Wrap(err).
		Err()
}
