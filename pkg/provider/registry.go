// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider implements a generic factory registry for pluggable backends.
//
// Storage drivers and storage catalogs each own a typed Registry, and
// implementations register themselves from init(). As with database/sql
// drivers, a blank import activates an implementation and Registry.New
// instantiates it from a storage record's driver name and configuration.
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory builds a backend from a storage configuration map. Implementations
// read the keys they understand and ignore the rest.
type Factory[T any] func(ctx context.Context, configuration map[string]string) (T, error)

type registration[T any] struct {
	factory  Factory[T]
	required []string
}

// Registry is a concurrency-safe set of named factories for backend type T.
type Registry[T any] struct {
	kind          string
	mu            sync.RWMutex
	registrations map[string]registration[T]
}

// NewRegistry creates an empty Registry. kind names the backend family in
// error messages, e.g. "storage driver".
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:          kind,
		registrations: make(map[string]registration[T]),
	}
}

// Register adds a named factory together with the configuration keys a
// storage record must set for it. It panics on a duplicate name so that two
// packages claiming the same driver key fail at process start.
func (r *Registry[T]) Register(name string, f Factory[T], required ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.registrations[name]; exists {
		panic(fmt.Sprintf("provider: %s %q already registered", r.kind, name))
	}
	r.registrations[name] = registration[T]{factory: f, required: required}
}

// Validate checks that name is registered and that configuration sets every
// key it requires. Empty values count as unset.
func (r *Registry[T]) Validate(name string, configuration map[string]string) error {
	_, err := r.lookup(name, configuration)
	return err
}

// New instantiates the backend registered under name.
func (r *Registry[T]) New(ctx context.Context, name string, configuration map[string]string) (T, error) {
	f, err := r.lookup(name, configuration)
	if err != nil {
		var zero T
		return zero, err
	}
	if configuration == nil {
		configuration = map[string]string{}
	}
	return f(ctx, configuration)
}

func (r *Registry[T]) lookup(name string, configuration map[string]string) (Factory[T], error) {
	r.mu.RLock()
	reg, ok := r.registrations[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown %s: %q (available: %v)", r.kind, name, r.Available())
	}
	var missing []string
	for _, key := range reg.required {
		if configuration[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s %q: missing configuration %v", r.kind, name, missing)
	}
	return reg.factory, nil
}

// Available returns the registered names in sorted order.
func (r *Registry[T]) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.registrations))
	for name := range r.registrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
