// Package manifest records a per-session audit trail of pipeline events
// as one JSON document per session. Separate processes share the manifest
// root, so writes take a file lock and land via rename.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"clipline/internal/bus"
	"clipline/internal/logger"
)

// Event is one recorded pipeline occurrence.
type Event struct {
	Timestamp int64          `json:"timestamp"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Manifest is the on-disk document for one session.
type Manifest struct {
	SessionID  string  `json:"session_id"`
	ProfileKey string  `json:"profile_key"`
	CreatedAt  int64   `json:"created_at"`
	Events     []Event `json:"events"`
}

// Service owns the manifest root directory. All mutations flow through it
// so the in-memory cache and the files stay consistent.
type Service struct {
	mu    sync.Mutex
	root  string
	cache map[string]*Manifest
	bus   *bus.Bus
	log   *logger.Logger
	now   func() time.Time
}

// NewService builds a service writing under root. The bus may be nil in
// tools that only read manifests.
func NewService(root string, b *bus.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		root:  root,
		cache: make(map[string]*Manifest),
		bus:   b,
		log:   log,
		now:   time.Now,
	}
}

// Root returns the manifest directory.
func (s *Service) Root() string { return s.root }

// Path returns the manifest file path for a session id.
func (s *Service) Path(sessionID string) string {
	return filepath.Join(s.root, sessionID+".json")
}

// StartSession creates the manifest for sessionID if it does not exist
// yet. Calling it again for a live session is a no-op, so callers can
// start defensively.
func (s *Service) StartSession(sessionID, profileKey string) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(sessionID, profileKey)
}

// AppendEvent records an event on the session, starting the session first
// when needed, and flushes to disk.
func (s *Service) AppendEvent(sessionID, profileKey, kind string, payload map[string]any) error {
	s.mu.Lock()
	m, err := s.ensureLocked(sessionID, profileKey)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	m.Events = append(m.Events, Event{
		Timestamp: s.now().Unix(),
		Kind:      kind,
		Payload:   payload,
	})
	err = s.flushLocked(m)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if s.bus != nil {
		s.bus.Publish(bus.TopicManifestUpdated, bus.Payload{
			"session_id":  sessionID,
			"event":       kind,
			"profile_key": m.ProfileKey,
		})
	}
	return nil
}

// CloseSession flushes the session a final time and drops it from the
// cache. Closing an unknown session is a no-op.
func (s *Service) CloseSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.cache[sessionID]
	if !ok {
		return nil
	}
	if err := s.flushLocked(m); err != nil {
		return err
	}
	delete(s.cache, sessionID)
	return nil
}

// Load returns the manifest for sessionID, reading it from disk when not
// cached.
func (s *Service) Load(sessionID string) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.cache[sessionID]; ok {
		return m, nil
	}
	data, err := os.ReadFile(s.Path(sessionID))
	if err != nil {
		return nil, fmt.Errorf("loading manifest for session %s: %w", sessionID, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest for session %s: %w", sessionID, err)
	}
	return &m, nil
}

// Sessions lists the session ids with a manifest on disk, in directory
// order. Callers sort as needed.
func (s *Service) Sessions() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, name[:len(name)-len(".json")])
	}
	return ids, nil
}

func (s *Service) ensureLocked(sessionID, profileKey string) (*Manifest, error) {
	if m, ok := s.cache[sessionID]; ok {
		return m, nil
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest root: %w", err)
	}
	// Another process may have started this session already; adopt its
	// document instead of minting a fresh one over it.
	if data, err := os.ReadFile(s.Path(sessionID)); err == nil {
		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decoding manifest for session %s: %w", sessionID, err)
		}
		s.cache[sessionID] = &m
		return &m, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading manifest for session %s: %w", sessionID, err)
	}
	m := &Manifest{
		SessionID:  sessionID,
		ProfileKey: profileKey,
		CreatedAt:  s.now().Unix(),
		Events:     []Event{},
	}
	if err := s.flushLocked(m); err != nil {
		return nil, err
	}
	s.cache[sessionID] = m
	s.log.With("session", sessionID).Debug("manifest session started")
	return m, nil
}

// flushLocked writes the manifest under the root lock: marshal to a temp
// file in the same directory, then rename over the target so readers
// never observe a torn document.
func (s *Service) flushLocked(m *Manifest) error {
	lock := flock.New(filepath.Join(s.root, ".lock"))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking manifest root: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, ".manifest-*")
	if err != nil {
		return fmt.Errorf("creating manifest temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing manifest temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(m.SessionID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}
