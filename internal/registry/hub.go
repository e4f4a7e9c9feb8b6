package registry

import (
	"clipline/internal/adapter"
)

// RoleRegistry is the role-agnostic surface a registry exposes to generic
// code (profile activation, preflight dispatch, descriptor bootstrap).
type RoleRegistry interface {
	Role() adapter.Role
	RegisterFactory(name string, factory func() adapter.Adapter, replace bool) error
	SetActive(name string) error
	ActiveName() string
	ActiveAdapter() (adapter.Adapter, error)
	Names() []string
	Contains(name string) bool
	Clear()
}

// Hub owns one registry per pipeline role. It is constructed once at
// process start and handed to everything that needs registry access, so
// tests can build fresh, isolated hubs instead of mutating shared state.
type Hub struct {
	capture  *Registry[adapter.CaptureAdapter]
	watcher  *Registry[adapter.WatcherAdapter]
	mux      *Registry[adapter.MuxAdapter]
	color    *Registry[adapter.ColorAdapter]
	uploader *Registry[adapter.UploaderAdapter]
	notifier *Registry[adapter.NotifierAdapter]
	ai       *Registry[adapter.AIAdapter]

	byRole map[adapter.Role]RoleRegistry
}

// NewHub constructs a hub with an empty registry for every known role.
func NewHub() *Hub {
	h := &Hub{
		capture:  New[adapter.CaptureAdapter](adapter.RoleCapture),
		watcher:  New[adapter.WatcherAdapter](adapter.RoleWatcher),
		mux:      New[adapter.MuxAdapter](adapter.RoleMux),
		color:    New[adapter.ColorAdapter](adapter.RoleColor),
		uploader: New[adapter.UploaderAdapter](adapter.RoleUploader),
		notifier: New[adapter.NotifierAdapter](adapter.RoleNotifier),
		ai:       New[adapter.AIAdapter](adapter.RoleAI),
	}
	h.byRole = map[adapter.Role]RoleRegistry{
		adapter.RoleCapture:  h.capture,
		adapter.RoleWatcher:  h.watcher,
		adapter.RoleMux:      h.mux,
		adapter.RoleColor:    h.color,
		adapter.RoleUploader: h.uploader,
		adapter.RoleNotifier: h.notifier,
		adapter.RoleAI:       h.ai,
	}
	return h
}

// ForRole looks up the registry serving role. Generic code uses this
// instead of a hardcoded role switch; absence means the role is not
// hosted in this process.
func (h *Hub) ForRole(role adapter.Role) (RoleRegistry, bool) {
	reg, ok := h.byRole[role]
	return reg, ok
}

// ClearAll empties every role registry before a full plugin rescan.
func (h *Hub) ClearAll() {
	for _, reg := range h.byRole {
		reg.Clear()
	}
}

// Capture returns the typed capture registry.
func (h *Hub) Capture() *Registry[adapter.CaptureAdapter] { return h.capture }

// Watcher returns the typed watcher registry.
func (h *Hub) Watcher() *Registry[adapter.WatcherAdapter] { return h.watcher }

// Mux returns the typed mux registry.
func (h *Hub) Mux() *Registry[adapter.MuxAdapter] { return h.mux }

// Color returns the typed color registry.
func (h *Hub) Color() *Registry[adapter.ColorAdapter] { return h.color }

// Uploader returns the typed uploader registry.
func (h *Hub) Uploader() *Registry[adapter.UploaderAdapter] { return h.uploader }

// Notifier returns the typed notifier registry.
func (h *Hub) Notifier() *Registry[adapter.NotifierAdapter] { return h.notifier }

// AI returns the typed AI registry.
func (h *Hub) AI() *Registry[adapter.AIAdapter] { return h.ai }
