// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package osd

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/gogpu/subdiv"
)

// Factory creates an evaluator.
type Factory func() (Evaluator, error)

// RegistryEntry describes a registered backend.
type RegistryEntry struct {
	// Name is the unique identifier of the backend.
	Name string

	// Priority orders backends for Default (higher is preferred).
	// Built-in priorities:
	//   - 100: GPU compute
	//   - 50: task-parallel CPU
	//   - 10: sequential CPU
	Priority int

	// Factory creates evaluator instances.
	Factory Factory

	// Available reports whether the backend can run on this system.
	Available func() bool
}

// Registry maps backend names to evaluator factories.
//
// Example registration:
//
//	func init() {
//	    osd.Register("mybackend", 80, newMyEvaluator, nil)
//	}
//
// Example usage:
//
//	ev, err := osd.New("parallel")
//	// or the best available backend:
//	ev, err := osd.Default()
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

var globalRegistry = &Registry{}

// NewRegistry returns an empty registry. Most code uses the package-level
// functions, which share a global registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegistryEntry)}
}

// Register adds a backend to the global registry. A nil available means
// always available. Registering an existing name replaces it.
func Register(name string, priority int, factory Factory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) { globalRegistry.Unregister(name) }

// List returns all registered backend names, highest priority first.
func List() []string { return globalRegistry.List() }

// Available returns the names of available backends, highest priority first.
func Available() []string { return globalRegistry.Available() }

// Get returns a copy of the entry registered under name.
func Get(name string) (*RegistryEntry, bool) { return globalRegistry.Get(name) }

// New creates the evaluator registered under name.
func New(name string) (Evaluator, error) { return globalRegistry.New(name) }

// Default creates an evaluator from the best available backend.
func Default() (Evaluator, error) { return globalRegistry.Default() }

// Register adds a backend to r.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*RegistryEntry)
	}
	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &RegistryEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backend from r.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// List returns all backend names in r, highest priority first.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(false)
}

// Available returns the available backend names in r, highest priority first.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(true)
}

// Get returns a copy of the entry registered under name.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	entryCopy := *entry
	return &entryCopy, true
}

// New creates the evaluator registered under name.
func (r *Registry) New(name string) (Evaluator, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	if !entry.Available() {
		return nil, &BackendUnavailableError{Name: name}
	}
	ev, err := entry.Factory()
	if err != nil {
		return nil, err
	}
	if ls, ok := ev.(subdiv.LoggerSetter); ok {
		ls.SetLogger(subdiv.Logger())
	}
	subdiv.Logger().Debug("osd: evaluator selected", "name", name, "priority", entry.Priority)
	return ev, nil
}

// Default tries available backends in priority order and returns the
// first evaluator created successfully.
func (r *Registry) Default() (Evaluator, error) {
	r.mu.RLock()
	names := r.sortedNames(true)
	r.mu.RUnlock()

	if len(names) == 0 {
		return nil, &BackendUnavailableError{Name: "any"}
	}
	var lastErr error
	for _, name := range names {
		ev, err := r.New(name)
		if err == nil {
			return ev, nil
		}
		subdiv.Logger().Warn("osd: backend failed, trying next", "name", name, "err", err)
		lastErr = err
	}
	return nil, lastErr
}

// sortedNames returns names by descending priority, then by name.
// Must be called with the lock held.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	if len(r.entries) == 0 {
		return nil
	}
	entries := make([]*RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *RegistryEntry) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func init() {
	Register("cpu", 10, func() (Evaluator, error) {
		return NewCPUEvaluator(), nil
	}, nil)
	Register("parallel", 50, func() (Evaluator, error) {
		return NewParallelEvaluator(), nil
	}, nil)
}
