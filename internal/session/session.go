// Package session mints and tracks clip session identifiers. A session
// groups every pipeline event between capture start and final handoff.
package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Manager tracks the current session id for one process. It is
// instance-based so concurrent tools and tests never share state.
type Manager struct {
	mu      sync.Mutex
	current string
	newID   func() string
}

// NewManager returns a manager with no current session.
func NewManager() *Manager {
	return &Manager{newID: GenerateID}
}

// GenerateID returns a fresh 32-character hex session id.
func GenerateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Start unconditionally begins a new session and returns its id.
func (m *Manager) Start() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.newID()
	return m.current
}

// Ensure returns the current session id, starting one first if none is
// active.
func (m *Manager) Ensure() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == "" {
		m.current = m.newID()
	}
	return m.current
}

// Current returns the active session id, or "" when none exists.
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Adopt sets the current session to an externally supplied id, trimming
// whitespace. Empty input leaves the current session untouched.
func (m *Manager) Adopt(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		m.current = trimmed
	}
	return m.current
}

// Clear forgets the current session.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = ""
}
