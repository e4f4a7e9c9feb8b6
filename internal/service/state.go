package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CaptureState is the persisted recording state. It lives in a JSON file
// so recording started by one CLI invocation can be stopped by another.
type CaptureState struct {
	Recording  bool   `json:"recording"`
	SessionID  string `json:"session_id,omitempty"`
	ProfileKey string `json:"profile_key,omitempty"`
	Adapter    string `json:"adapter,omitempty"`
	StartedAt  int64  `json:"started_at,omitempty"`
}

// StateStore reads and writes the capture state file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore builds a store over path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the backing file path.
func (s *StateStore) Path() string { return s.path }

// Load reads the state. A missing file means nothing is recording.
func (s *StateStore) Load() (CaptureState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CaptureState{}, nil
		}
		return CaptureState{}, fmt.Errorf("reading capture state: %w", err)
	}
	var st CaptureState
	if err := json.Unmarshal(data, &st); err != nil {
		return CaptureState{}, fmt.Errorf("decoding capture state: %w", err)
	}
	return st, nil
}

// Save writes the state atomically.
func (s *StateStore) Save(st CaptureState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding capture state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*")
	if err != nil {
		return fmt.Errorf("creating state temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing capture state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing state temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing capture state: %w", err)
	}
	return nil
}

// Clear resets the state to not-recording.
func (s *StateStore) Clear() error {
	return s.Save(CaptureState{})
}
