// Package observer wires side effects onto the event bus. Observers never
// call each other; the bus is their only coupling, so any observer can be
// disabled without touching the rest.
package observer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/internal/logger"
	"clipline/internal/manifest"
	"clipline/internal/profile"
)

// Notifier delivers a user-facing notification. The notify service
// satisfies this.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// WatcherControl starts the replay watcher. The watcher service satisfies
// this.
type WatcherControl interface {
	StartWatching(ctx context.Context, overrides adapter.Settings) error
}

// Context carries everything an observer may need. Fields an observer does
// not use may be nil; each observer guards its own dependencies.
type Context struct {
	Profile  *profile.Profile
	Manifest *manifest.Service
	Watcher  WatcherControl
	Notifier Notifier
	Bus      *bus.Bus
	Log      *logger.Logger
}

func (c *Context) logger() *logger.Logger {
	if c.Log == nil {
		return logger.Nop()
	}
	return c.Log
}

func (c *Context) profileKey() string {
	if c.Profile == nil {
		return ""
	}
	return c.Profile.Key
}

// Observer reacts to bus events. Attach subscribes it; it is called once
// per process.
type Observer interface {
	Key() string
	Attach() error
}

// Constructor builds an observer over a context.
type Constructor func(octx *Context) Observer

// Registry maps observer keys to constructors. Instances are created at
// attach time so each process run gets fresh observers.
type Registry struct {
	mu    sync.Mutex
	ctors map[string]Constructor
}

// NewRegistry returns an empty observer registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a constructor under key, rejecting duplicates.
func (r *Registry) Register(key string, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[key]; exists {
		return fmt.Errorf("observer %q already registered", key)
	}
	r.ctors[key] = ctor
	return nil
}

// Keys returns registered observer keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.ctors))
	for k := range r.ctors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AttachAll constructs and attaches every registered observer. A failing
// attach is logged and skipped; one broken observer must not take down the
// rest. The returned map records per-observer attach errors.
func (r *Registry) AttachAll(octx *Context) map[string]error {
	r.mu.Lock()
	ctors := make(map[string]Constructor, len(r.ctors))
	for k, c := range r.ctors {
		ctors[k] = c
	}
	r.mu.Unlock()

	failures := make(map[string]error)
	for _, key := range sortedKeys(ctors) {
		obs := ctors[key](octx)
		if err := obs.Attach(); err != nil {
			octx.logger().With("observer", key).Error(err, "observer attach failed")
			failures[key] = err
			continue
		}
		octx.logger().With("observer", key).Debug("observer attached")
	}
	return failures
}

func sortedKeys(m map[string]Constructor) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns a registry preloaded with the built-in observers.
func Defaults() *Registry {
	r := NewRegistry()
	r.Register("manifest", func(octx *Context) Observer { return NewManifestObserver(octx) })
	r.Register("notification", func(octx *Context) Observer { return NewNotificationObserver(octx) })
	r.Register("watcher_autostart", func(octx *Context) Observer { return NewWatcherAutoStart(octx) })
	return r
}
