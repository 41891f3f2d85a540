// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

type (
	// Factory creates fresh instances of one extension.
	Factory struct {
		Scope Scope
		New   func() Extension
	}

	// Catalog maps qualified names to extension factories and to early
	// static initializers. It is filled at program start (see the builtin
	// package) and read by every execution context.
	Catalog struct {
		mu        sync.RWMutex
		factories map[string]Factory
		statics   map[string]*staticInit
	}

	staticInit struct {
		once sync.Once
		fn   func() error
		err  error
	}
)

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		factories: make(map[string]Factory),
		statics:   make(map[string]*staticInit),
	}
}

// Register adds an extension factory under name, replacing any previous one.
func (c *Catalog) Register(name string, scope Scope, newFn func() Extension) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = Factory{Scope: scope, New: newFn}
}

// RegisterStatic adds a one-time initializer under name.
func (c *Catalog) RegisterStatic(name string, fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statics[name] = &staticInit{fn: fn}
}

// Lookup returns the factory registered under name.
func (c *Catalog) Lookup(name string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[name]
	return f, ok
}

// Names returns every registered extension name, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.factories))
}

// initStatic runs the initializer registered under name at most once per
// process. Later calls return the first outcome.
func (c *Catalog) initStatic(name string) error {
	c.mu.RLock()
	s, ok := c.statics[name]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no static initializer named %q", name)
	}
	s.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				s.err = fmt.Errorf("static initializer %q panicked: %v", name, r)
			}
		}()
		s.err = s.fn()
	})
	return s.err
}
