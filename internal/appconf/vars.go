// SPDX-License-Identifier: MPL-2.0

package appconf

import (
	"maps"
	"os"
	"sync"
)

type (
	// Vars supplies values for ${name} placeholders.
	Vars interface {
		Lookup(name string) (string, bool)
	}

	// MapVars is a fixed variable set.
	MapVars map[string]string

	// SystemVars holds process-wide variables published by the runtime
	// (appvisor.path, application.path, ...) and falls back to the process
	// environment for any other name.
	SystemVars struct {
		mu     sync.RWMutex
		values map[string]string
		env    func(string) (string, bool)
	}
)

// Lookup implements Vars.
func (m MapVars) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// NewSystemVars creates a SystemVars. A nil env means os.LookupEnv.
func NewSystemVars(env func(string) (string, bool)) *SystemVars {
	if env == nil {
		env = os.LookupEnv
	}
	return &SystemVars{values: make(map[string]string), env: env}
}

// Set publishes a process variable.
func (s *SystemVars) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

// Lookup implements Vars. Published variables shadow environment variables.
func (s *SystemVars) Lookup(name string) (string, bool) {
	s.mu.RLock()
	v, ok := s.values[name]
	s.mu.RUnlock()
	if ok {
		return v, true
	}
	return s.env(name)
}

// Snapshot returns a copy of the published variables.
func (s *SystemVars) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}
