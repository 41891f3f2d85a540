// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"log/slog"

	"github.com/appvisor/appvisor/internal/appconf"
)

const (
	// ScopeHost extensions survive execution context rebuilds.
	ScopeHost Scope = iota
	// ScopeApplication extensions are recreated with every new context.
	ScopeApplication
)

type (
	// Scope tells whether an extension belongs to the host process or to the
	// reloadable application code.
	Scope int

	// Host is the view of the runtime handed to extension hooks. Hooks run
	// inside lifecycle transitions, so Host methods must not be retained and
	// called from other goroutines.
	Host interface {
		Identity() string
		Mode() appconf.Mode
		Configuration() appconf.Resolved
		Started() bool
		Logger() *slog.Logger
		// AddExtension appends d to the extension list being built. Only
		// meaningful from OnLoad; the new extension does not receive OnLoad.
		AddExtension(d Descriptor)
	}

	// Extension receives lifecycle notifications, always in index order.
	Extension interface {
		// OnConfigurationRead runs after every configuration resolution.
		// The configuration is read-only.
		OnConfigurationRead(ctx context.Context, h Host)
		// OnLoad runs once per instance, right after instantiation.
		OnLoad(ctx context.Context, h Host)
		// OnApplicationStart runs during start; an error aborts the start.
		OnApplicationStart(ctx context.Context, h Host) error
		// AfterApplicationStart runs once the application is marked started.
		AfterApplicationStart(ctx context.Context, h Host)
		// OnApplicationStop runs during stop, after the application is
		// already marked as not started.
		OnApplicationStop(ctx context.Context, h Host)
		// DetectChange lets the extension react to a change check in DEV mode.
		DetectChange(ctx context.Context, h Host) error
	}

	// Base implements every hook as a no-op. Embed it and override what you need.
	Base struct{}

	// Descriptor is a loaded extension with its ordering index.
	Descriptor struct {
		Index int
		Name  string
		Scope Scope
		// Generation is the execution context generation that created Instance.
		Generation int
		// Parent names the extension whose OnLoad registered this one. It is
		// empty for extensions listed in a manifest.
		Parent   string
		Instance Extension
	}
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeHost:
		return "host"
	case ScopeApplication:
		return "application"
	default:
		return "unknown"
	}
}

func (Base) OnConfigurationRead(context.Context, Host)      {}
func (Base) OnLoad(context.Context, Host)                   {}
func (Base) OnApplicationStart(context.Context, Host) error { return nil }
func (Base) AfterApplicationStart(context.Context, Host)    {}
func (Base) OnApplicationStop(context.Context, Host)        {}
func (Base) DetectChange(context.Context, Host) error       { return nil }
