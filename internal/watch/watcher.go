// SPDX-License-Identifier: MPL-2.0

// Package watch turns filesystem events under the application's search roots
// into debounced change checks.
//
// Events within the debounce window are coalesced so the callback fires once
// with every changed file. While a callback runs, new events accumulate and
// fire after it returns.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce applies when Config.Debounce is not positive.
const defaultDebounce = 300 * time.Millisecond

// defaultIgnores are excluded under every root on top of Config.Ignore.
var defaultIgnores = []string{
	"**/.git/**",
	"**/.hg/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.#*",
	"**/.DS_Store",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Change is one modified file.
	Change struct {
		// Root is the watched root containing the file.
		Root string
		// Path is slash-separated and relative to Root.
		Path string
	}

	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are the directories to watch recursively. Missing roots are
		// skipped.
		Roots []string

		// Patterns select, relative to each root, which files trigger the
		// callback. Empty means every non-ignored file.
		Patterns []string

		// Ignore are extra patterns merged with the built-in ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before the
		// callback fires.
		Debounce time.Duration

		// OnChange receives the changes of one debounce window, sorted.
		// Its error is logged; the watcher keeps running.
		OnChange func(ctx context.Context, changes []Change) error

		Logger *slog.Logger
	}

	// Watcher monitors the roots and fires OnChange. Run must be called
	// exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		roots    []string
		ignores  []string
		debounce time.Duration
		logger   *slog.Logger
		started  atomic.Bool
	}
)

// New validates cfg and registers every non-ignored directory under the
// roots with fsnotify.
func New(cfg Config) (*Watcher, error) {
	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve root %q: %w", r, err)
		}
		if slices.Contains(roots, abs) {
			continue
		}
		roots = append(roots, abs)
	}
	if len(roots) == 0 {
		return nil, errors.New("watch: no root to watch")
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		roots:    roots,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: debounce,
		logger:   logger,
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				logger.Warn("cannot close watcher after init failure", "error", closeErr)
			}
			return nil, err
		}
	}
	return w, nil
}

// Roots returns the watched roots.
func (w *Watcher) Roots() []string { return slices.Clone(w.roots) }

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when fsnotify breaks for good.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[Change]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	var fire func()
	fire = func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changes := make([]Change, 0, len(pending))
		for c := range pending {
			changes = append(changes, c)
		}
		clear(pending)
		mu.Unlock()

		slices.SortFunc(changes, func(a, b Change) int {
			if c := strings.Compare(a.Root, b.Root); c != 0 {
				return c
			}
			return strings.Compare(a.Path, b.Path)
		})
		if w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changes); err != nil {
			w.logger.Error("change handler failed", "error", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("cannot close watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			change, ok := w.classify(evt.Name)
			if !ok {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !w.matchesPatterns(change.Path) {
				continue
			}

			mu.Lock()
			pending[change] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// classify maps an absolute event path to the innermost root containing it.
// Ignored paths and paths outside every root are dropped.
func (w *Watcher) classify(path string) (Change, bool) {
	best := ""
	for _, root := range w.roots {
		if (path == root || strings.HasPrefix(path, root+string(filepath.Separator))) && len(root) > len(best) {
			best = root
		}
	}
	if best == "" {
		return Change{}, false
	}
	rel, err := filepath.Rel(best, path)
	if err != nil {
		return Change{}, false
	}
	rel = filepath.ToSlash(rel)
	if w.isIgnored(rel) {
		return Change{}, false
	}
	return Change{Root: best, Path: rel}, true
}

// addTree registers root and every non-ignored directory below it.
func (w *Watcher) addTree(root string) error {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		w.logger.Debug("watch root is not a directory, skipping it", "root", root)
		return nil
	}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "error", walkErr)
			return nil //nolint:nilerr // inaccessible directories are not watched
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", root, err)
	}
	return nil
}

// maybeAddDir extends the watch to a directory created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("cannot watch new directory", "path", path, "error", err)
	}
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matchesPatterns(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
