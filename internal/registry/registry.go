// Package registry provides the typed, role-scoped adapter registries at
// the heart of the pipeline. A registry binds adapter names to factories
// (blueprints, not live instances) and tracks at most one active,
// lazily-instantiated adapter per role.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"clipline/internal/adapter"
	cliperrors "clipline/pkg/errors"
)

// Factory constructs a fresh adapter instance.
type Factory[T adapter.Adapter] func() T

// Registry is a thread-safe name→factory table for one role's capability
// interface. The mutex is held only across map mutation and snapshotting,
// never across factory invocation, so factories may re-enter the registry.
type Registry[T adapter.Adapter] struct {
	role adapter.Role

	mu         sync.Mutex
	cond       *sync.Cond
	factories  map[string]Factory[T]
	activeName string
	active     T
	hasActive  bool
	building   bool
	generation uint64
}

// New constructs an empty registry for the given role.
func New[T adapter.Adapter](role adapter.Role) *Registry[T] {
	r := &Registry[T]{
		role:      role,
		factories: make(map[string]Factory[T]),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Role reports which pipeline role this registry serves.
func (r *Registry[T]) Role() adapter.Role { return r.role }

// Register binds name to factory. Duplicate names are rejected unless
// replace is set. A nil factory is always rejected.
func (r *Registry[T]) Register(name string, factory Factory[T], replace bool) error {
	if factory == nil {
		return cliperrors.NewRegistryError(r.role.String(), name, "factory is nil", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists && !replace {
		return cliperrors.NewRegistryError(r.role.String(), name, "already registered", nil)
	}
	r.factories[name] = factory
	return nil
}

// RegisterFactory registers an untyped factory, asserting that it produces
// implementations of this registry's capability interface. Used by the
// descriptor bootstrap, which cannot know the concrete type statically.
func (r *Registry[T]) RegisterFactory(name string, factory func() adapter.Adapter, replace bool) error {
	if factory == nil {
		return cliperrors.NewRegistryError(r.role.String(), name, "factory is nil", nil)
	}
	probe := factory()
	if _, ok := probe.(T); !ok {
		return cliperrors.NewRegistryError(r.role.String(), name,
			fmt.Sprintf("%T does not satisfy the %s capability interface", probe, r.role), nil)
	}
	return r.Register(name, func() T { return factory().(T) }, replace)
}

// Get returns the factory bound to name, erroring when absent.
func (r *Registry[T]) Get(name string) (Factory[T], error) {
	factory, ok := r.TryGet(name)
	if !ok {
		return nil, cliperrors.NewRegistryError(r.role.String(), name, "not registered", nil)
	}
	return factory, nil
}

// TryGet returns the factory bound to name, reporting presence.
func (r *Registry[T]) TryGet(name string) (Factory[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	factory, ok := r.factories[name]
	return factory, ok
}

// Contains reports whether name is registered.
func (r *Registry[T]) Contains(name string) bool {
	_, ok := r.TryGet(name)
	return ok
}

// Names returns a sorted snapshot of registered names.
func (r *Registry[T]) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}

// Instantiate constructs a fresh, unconfigured instance of the named
// adapter. The factory runs outside the registry lock.
func (r *Registry[T]) Instantiate(name string) (T, error) {
	factory, err := r.Get(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return factory(), nil
}

// Clear drops all registrations, the active selection, and any cached
// instance. Used before a full plugin rescan.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]Factory[T])
	r.activeName = ""
	var zero T
	r.active = zero
	r.hasActive = false
	r.generation++
}

// SetActive selects the adapter to serve this role. The name must be
// registered. Changing the selection discards any cached instance so the
// next Active call re-instantiates and re-configures; adapters are not
// assumed to tolerate silent identity swaps.
func (r *Registry[T]) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; !ok {
		return cliperrors.NewRegistryError(r.role.String(), name, "not registered", nil)
	}
	if r.activeName == name {
		return nil
	}
	r.activeName = name
	var zero T
	r.active = zero
	r.hasActive = false
	r.generation++
	return nil
}

// ActiveName returns the currently selected adapter name, empty when none.
func (r *Registry[T]) ActiveName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeName
}

// ActiveFactory returns the factory bound to the active name.
func (r *Registry[T]) ActiveFactory() (Factory[T], bool) {
	r.mu.Lock()
	name := r.activeName
	r.mu.Unlock()
	if name == "" {
		return nil, false
	}
	return r.TryGet(name)
}

// Active returns the cached singleton instance of the active adapter,
// constructing it on first access. At most one instance is constructed per
// active-name generation even under concurrent first access; the factory
// itself always runs outside the lock so it may re-enter the registry.
func (r *Registry[T]) Active() (T, error) {
	var zero T
	r.mu.Lock()
	for {
		if r.activeName == "" {
			r.mu.Unlock()
			return zero, cliperrors.NewRegistryError(r.role.String(), "", "no active adapter", nil)
		}
		if r.hasActive {
			instance := r.active
			r.mu.Unlock()
			return instance, nil
		}
		if r.building {
			// Another goroutine is constructing; wait for it.
			r.cond.Wait()
			continue
		}

		factory := r.factories[r.activeName]
		generation := r.generation
		r.building = true
		r.mu.Unlock()

		instance := factory()

		r.mu.Lock()
		r.building = false
		r.cond.Broadcast()
		if r.generation != generation {
			// Selection changed while constructing; discard and retry.
			continue
		}
		r.active = instance
		r.hasActive = true
		r.mu.Unlock()
		return instance, nil
	}
}

// ActiveAdapter exposes the active instance through the role-agnostic
// RoleRegistry interface.
func (r *Registry[T]) ActiveAdapter() (adapter.Adapter, error) {
	return r.Active()
}
