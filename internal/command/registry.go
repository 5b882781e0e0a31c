// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package command

import (
	"sync"

	"github.com/samber/oops"
)

// Registry manages command registration and lookup.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Entry
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Entry),
	}
}

// Register adds a command to the registry. Registering a name twice is
// a programming error and is rejected.
func (r *Registry) Register(entry Entry) error {
	if entry.Name == "" {
		return oops.Errorf("command name is required")
	}
	if entry.Handler == nil {
		return oops.With("command", entry.Name).Errorf("command handler is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[entry.Name]; ok {
		return oops.With("command", entry.Name).Errorf("command already registered")
	}
	r.commands[entry.Name] = entry
	return nil
}

// Get retrieves a command by name.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.commands[name]
	return entry, ok
}

// All returns all registered commands. The returned slice is a copy.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.commands))
	for _, e := range r.commands {
		entries = append(entries, e)
	}
	return entries
}
