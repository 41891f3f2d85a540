// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"crypto/sha256"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/appvisor/appvisor/internal/appconf"
	"github.com/appvisor/appvisor/internal/extension"
	"github.com/appvisor/appvisor/internal/logging"
	"github.com/appvisor/appvisor/internal/module"
	"github.com/appvisor/appvisor/internal/testutil"
	"github.com/appvisor/appvisor/internal/vfs"
)

const (
	// ConfFile is the main configuration file, relative to the application root.
	ConfFile = "conf/application.conf"

	// DefaultModulesEnv lists module directories separated by the host list separator.
	DefaultModulesEnv = "MODULES"

	// FrameworkHomeEnv points at the framework install directory.
	FrameworkHomeEnv = "APPVISOR_HOME"

	// VersionFile holds the framework version, relative to the framework path.
	VersionFile = "VERSION"

	// VarFrameworkPath and VarApplicationPath are interpolation variables
	// available to the configuration.
	VarFrameworkPath   = "appvisor.path"
	VarApplicationPath = "application.path"

	sessionKeyInfo = "appvisor session"
)

type (
	// Runtime is the single owned runtime state of the hosted application.
	Runtime struct {
		fs           *vfs.FS
		log          *logging.Logger
		clock        testutil.Clock
		exit         func(int)
		env          func(string) (string, bool)
		executable   func() (string, error)
		frameworkOpt string
		modulesEnv   string
		catalog      *extension.Catalog
		compiler     Compiler
		router       Router
		templates    Templates
		cache        ObjectCache

		// mu serializes Init, Start, Stop and DetectChanges.
		mu sync.Mutex

		// Fixed by Init.
		root          string
		identity      string
		confPath      string
		frameworkPath string
		version       string
		mode          appconf.Mode
		vars          *appconf.SystemVars
		modules       *module.Registry

		// Guarded by mu.
		execCtx *extension.Context
		working *extension.Set

		conf       atomic.Pointer[appconf.Resolved]
		extensions atomic.Pointer[[]extension.Descriptor]
		status     atomic.Pointer[status]
		derived    atomic.Pointer[derived]
	}

	status struct {
		state     State
		startedAt time.Time
	}

	// derived holds the values recomputed from configuration on every start.
	derived struct {
		tmpDir string
		langs  []string
		secret string
	}
)

// New creates an uninitialized Runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		exit:       os.Exit,
		env:        os.LookupEnv,
		executable: os.Executable,
		modulesEnv: DefaultModulesEnv,
		compiler:   nopCompiler{},
		router:     nopRouter{},
		templates:  nopTemplates{},
		cache:      nopCache{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fs == nil {
		r.fs = vfs.OsFS()
	}
	if r.log == nil {
		r.log = logging.New(os.Stderr, logging.Options{})
	}
	if r.clock == nil {
		r.clock = testutil.RealClock{}
	}
	if r.catalog == nil {
		r.catalog = extension.NewCatalog()
	}

	empty := appconf.NewResolved(nil)
	r.conf.Store(&empty)
	r.extensions.Store(&[]extension.Descriptor{})
	r.status.Store(&status{state: StateUninitialized})
	r.derived.Store(&derived{langs: []string{}})
	return r
}

// --- State ---

// State returns the current lifecycle state.
func (r *Runtime) State() State { return r.status.Load().state }

// Started reports whether the application is serving.
func (r *Runtime) Started() bool { return r.State() == StateStarted }

// StartedAt returns when the last successful start completed.
func (r *Runtime) StartedAt() time.Time { return r.status.Load().startedAt }

func (r *Runtime) setStatus(state State, startedAt time.Time) {
	r.status.Store(&status{state: state, startedAt: startedAt})
}

// --- Configuration ---

// Configuration returns the resolved configuration of the last resolution.
func (r *Runtime) Configuration() appconf.Resolved { return *r.conf.Load() }

// Mode returns the run mode fixed by Init.
func (r *Runtime) Mode() appconf.Mode { return r.mode }

// Identity returns the framework identity the configuration is scoped by.
func (r *Runtime) Identity() string { return r.identity }

// ApplicationName returns application.name.
func (r *Runtime) ApplicationName() string {
	return r.Configuration().GetOr(appconf.KeyName, "")
}

// Langs returns the supported locales computed by the last start.
func (r *Runtime) Langs() []string { return slices.Clone(r.derived.Load().langs) }

// TmpDir returns the temp directory, or "" when temp features are disabled.
func (r *Runtime) TmpDir() string { return r.derived.Load().tmpDir }

// SecretKey returns application.secret as read by the last start.
func (r *Runtime) SecretKey() string { return r.derived.Load().secret }

// SessionKey derives a 32-byte session encryption key from the secret.
// It returns nil when no secret is configured.
func (r *Runtime) SessionKey() []byte {
	secret := r.SecretKey()
	if secret == "" {
		return nil
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(sessionKeyInfo)), key); err != nil {
		return nil
	}
	return key
}

// --- Layout ---

// ApplicationPath returns the application root.
func (r *Runtime) ApplicationPath() string { return r.root }

// FrameworkPath returns the framework install directory.
func (r *Runtime) FrameworkPath() string { return r.frameworkPath }

// Version returns the framework version.
func (r *Runtime) Version() string { return r.version }

// File returns the path of rel under the application root.
func (r *Runtime) File(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(rel))
}

// Lookup searches every search root for rel.
func (r *Runtime) Lookup(rel string) (string, bool) {
	return r.fs.Resolve(r.Roots(), filepath.FromSlash(rel))
}

// Layout returns the module registry, or nil before Init.
func (r *Runtime) Layout() module.Layout {
	if r.modules == nil {
		return nil
	}
	return r.modules
}

// Roots returns the search roots, application root first.
func (r *Runtime) Roots() []string {
	if r.modules == nil {
		return nil
	}
	return r.modules.Roots()
}

// Modules returns the loaded modules in registration order.
func (r *Runtime) Modules() []module.Descriptor {
	if r.modules == nil {
		return nil
	}
	return r.modules.Modules()
}

// --- Extensions ---

// Extensions returns the current extension list in invocation order.
func (r *Runtime) Extensions() []extension.Descriptor {
	return slices.Clone(*r.extensions.Load())
}

func (r *Runtime) setExtensions(ds []extension.Descriptor) {
	r.extensions.Store(&ds)
}

// AddExtension registers d while an extension hook runs inside a lifecycle
// transition. Outside of one it is ignored.
func (r *Runtime) AddExtension(d extension.Descriptor) {
	if r.working == nil {
		r.log.Warn("extension registered outside a lifecycle transition, ignoring it", "name", d.Name)
		return
	}
	r.working.Add(d)
}

// Logger returns the runtime logger.
func (r *Runtime) Logger() *slog.Logger { return r.log.Logger }
