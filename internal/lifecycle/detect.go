// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/appvisor/appvisor/internal/appconf"
	"github.com/appvisor/appvisor/internal/issue"
)

// DetectChanges brings a DEV application up to date with its sources. It is
// a no-op in PROD mode.
//
// A code change or a configuration file newer than the last start triggers
// a full Start. Otherwise the routes are refreshed and every extension gets
// DetectChange. Classified failures (compilation errors, failed starts) are
// returned for the caller to render; any other error, including finding the
// application not started, is answered with a full Start instead.
func (r *Runtime) DetectChanges(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireInit("detect changes"); err != nil {
		return err
	}
	if r.mode == appconf.ModeProd {
		return nil
	}

	err := r.detectChanges(ctx)
	if err == nil {
		return nil
	}
	var f *issue.Failure
	if errors.As(err, &f) {
		return err
	}
	r.log.Debug("change detection failed, reloading", "error", err)
	return r.start(ctx)
}

func (r *Runtime) detectChanges(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during change detection: %v", p)
		}
	}()

	if r.compiler.HasSourceChanged(ctx, r.modules) {
		r.log.Info("code changed")
		return r.start(ctx)
	}
	if err := r.router.ReparseIfNeeded(ctx, r.modules); err != nil {
		return err
	}
	if r.fs.ModTime(r.confPath).After(r.StartedAt()) {
		return r.start(ctx)
	}
	for _, e := range r.Extensions() {
		if err := e.Instance.DetectChange(ctx, r); err != nil {
			return err
		}
	}
	if !r.Started() {
		return ErrNotStarted
	}
	return nil
}
