package profile

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"clipline/internal/adapter"
	"clipline/internal/logger"
	"clipline/internal/registry"
	"clipline/pkg/errors"
)

type document struct {
	Profiles map[string]*Profile `yaml:"profiles"`
}

// Manager holds the parsed profile set and tracks which profile is active.
// Activation configures the role registries; it does not construct adapters.
type Manager struct {
	mu        sync.RWMutex
	profiles  map[string]*Profile
	activeKey string
	validate  *validator.Validate
	log       *logger.Logger
}

// NewManager returns an empty manager. Load or LoadFile populates it.
func NewManager(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		profiles: make(map[string]*Profile),
		validate: validator.New(),
		log:      log,
	}
}

// LoadFile reads and parses a profiles YAML document from disk.
func (m *Manager) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading profiles file: %w", err)
	}
	return m.Load(data, path)
}

// Load parses a profiles YAML document. A successful load replaces the
// current profile set; the active key is kept if it still resolves.
func (m *Manager) Load(data []byte, path string) error {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.NewParseError(path, 0, err)
	}
	if len(doc.Profiles) == 0 {
		return errors.NewParseError(path, 0, fmt.Errorf("no profiles defined"))
	}

	for key, p := range doc.Profiles {
		if p == nil {
			return errors.NewProfileError(key, "profile body is empty", nil)
		}
		p.Key = key
		if p.Label == "" {
			p.Label = key
		}
		if err := m.validate.Struct(p); err != nil {
			return errors.NewProfileError(key, "invalid profile", err)
		}
		for role, binding := range p.Adapters {
			if strings.TrimSpace(binding.Name) == "" {
				return errors.NewProfileError(key, fmt.Sprintf("adapter binding for role %q has no name", role), nil)
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = doc.Profiles
	if _, ok := m.profiles[m.activeKey]; !ok {
		m.activeKey = ""
	}
	return nil
}

// Get returns the profile for key.
func (m *Manager) Get(key string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[key]
	if !ok {
		return nil, errors.NewProfileError(key, "unknown profile", nil)
	}
	return p, nil
}

// Keys returns all profile keys in sorted order.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.profiles))
	for k := range m.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ActiveKey returns the key of the most recently activated profile, or ""
// when none has been activated.
func (m *Manager) ActiveKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeKey
}

// Active returns the active profile, if any.
func (m *Manager) Active() (*Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[m.activeKey]
	return p, ok
}

// Activate selects each bound adapter on its role registry. Roles named in
// the profile that this process does not host are skipped. Activating the
// already-active profile is a no-op for unchanged bindings, so cached
// adapter instances survive. The last activation wins.
func (m *Manager) Activate(key string, hub *registry.Hub) (*Profile, error) {
	p, err := m.Get(key)
	if err != nil {
		return nil, err
	}

	for roleName, binding := range p.Adapters {
		role, err := adapter.ParseRole(roleName)
		if err != nil {
			m.log.With("role", roleName).Debug("skipping binding for unhosted role")
			continue
		}
		reg, ok := hub.ForRole(role)
		if !ok {
			m.log.With("role", roleName).Debug("no registry for role, skipping binding")
			continue
		}
		if err := reg.SetActive(strings.ToLower(binding.Name)); err != nil {
			return nil, errors.NewProfileError(key, fmt.Sprintf("activating role %q", roleName), err)
		}
	}

	m.mu.Lock()
	m.activeKey = key
	m.mu.Unlock()

	m.log.With("profile", key).Info("profile activated")
	return p, nil
}

// Resolve computes the effective settings for role: with a profile key it
// activates that profile, then shallow-merges the binding's overrides with
// the caller's overrides, caller values winning. An empty key touches no
// registry and returns the caller's overrides unchanged, so ad-hoc
// invocations work against whatever adapter is already active.
func (m *Manager) Resolve(key string, role adapter.Role, overrides adapter.Settings, hub *registry.Hub) (*Profile, adapter.Settings, error) {
	if key == "" {
		if p, ok := m.Active(); ok {
			if binding, bound := p.Binding(role); bound {
				return p, adapter.Merge(adapter.Settings(binding.Overrides), overrides), nil
			}
			return p, adapter.Merge(nil, overrides), nil
		}
		return nil, adapter.Merge(nil, overrides), nil
	}

	p, err := m.Activate(key, hub)
	if err != nil {
		return nil, nil, err
	}
	binding, ok := p.Binding(role)
	if !ok {
		return p, adapter.Merge(nil, overrides), nil
	}
	return p, adapter.Merge(adapter.Settings(binding.Overrides), overrides), nil
}
