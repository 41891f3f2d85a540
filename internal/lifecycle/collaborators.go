// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"

	"github.com/appvisor/appvisor/internal/module"
)

type (
	// Compiler materializes the application's code units.
	Compiler interface {
		// MaterializeAll compiles every unit now. Compilation problems are
		// returned as structured failures.
		MaterializeAll(ctx context.Context, layout module.Layout) error
		// HasSourceChanged reports whether a unit changed since the last
		// MaterializeAll.
		HasSourceChanged(ctx context.Context, layout module.Layout) bool
	}

	// Router owns the route table.
	Router interface {
		// ReparseIfNeeded re-reads the route files when they changed.
		ReparseIfNeeded(ctx context.Context, layout module.Layout) error
		// ResetWatermark forces the next ReparseIfNeeded to parse.
		ResetWatermark()
	}

	// Templates owns compiled templates.
	Templates interface {
		MaterializeAll(ctx context.Context, layout module.Layout) error
		ClearCache()
	}

	// ObjectCache is the shared application cache.
	ObjectCache interface {
		Reset()
		Shutdown()
	}

	nopCompiler  struct{}
	nopRouter    struct{}
	nopTemplates struct{}
	nopCache     struct{}
)

func (nopCompiler) MaterializeAll(context.Context, module.Layout) error  { return nil }
func (nopCompiler) HasSourceChanged(context.Context, module.Layout) bool { return false }
func (nopRouter) ReparseIfNeeded(context.Context, module.Layout) error   { return nil }
func (nopRouter) ResetWatermark()                                        {}
func (nopTemplates) MaterializeAll(context.Context, module.Layout) error { return nil }
func (nopTemplates) ClearCache()                                         {}
func (nopCache) Reset()                                                  {}
func (nopCache) Shutdown()                                               {}
