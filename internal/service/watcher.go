package service

import (
	"context"
	"fmt"
	"sync"

	"clipline/internal/adapter"
	"clipline/pkg/errors"
)

// WatcherService starts and stops the replay render watcher. The watcher
// adapter publishes replay.render.detected itself; this service only
// manages its lifecycle.
type WatcherService struct {
	mu      sync.Mutex
	d       Deps
	running adapter.WatcherAdapter
}

// NewWatcherService builds the service.
func NewWatcherService(d Deps) *WatcherService {
	return &WatcherService{d: d}
}

// StartWatching resolves the active profile's watcher binding, points the
// adapter at the configured path, runs preflights, and starts it. Also
// satisfies the observer's watcher handle.
func (s *WatcherService) StartWatching(ctx context.Context, overrides adapter.Settings) error {
	return s.Start(ctx, "", overrides)
}

// Start begins watching under the given profile key ("" = currently
// active profile). Starting an already-running watcher is an error.
func (s *WatcherService) Start(ctx context.Context, profileKey string, overrides adapter.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running != nil {
		return fmt.Errorf("watcher is already running")
	}

	prof, settings, err := s.d.Profiles.Resolve(profileKey, adapter.RoleWatcher, overrides, s.d.Hub)
	if err != nil {
		return err
	}
	adp, err := s.d.Hub.Watcher().Active()
	if err != nil {
		return err
	}
	// Detected renders must land in the session's manifest, so the watcher
	// always carries a session id unless the caller pinned one.
	if _, ok := settings["session_id"]; !ok && s.d.Sessions != nil {
		settings = adapter.Merge(settings, adapter.Settings{"session_id": s.d.Sessions.Ensure()})
	}
	if err := adp.Configure(settings, s.d.Secrets); err != nil {
		return errors.NewAdapterError(adapter.RoleWatcher.String(), "configure", err)
	}
	if path := settingString(settings, "watch_path"); path != "" {
		if err := adp.SetWatchPath(path); err != nil {
			return errors.NewAdapterError(adapter.RoleWatcher.String(), "set_watch_path", err)
		}
	}
	if err := s.d.gate(ctx, adapter.RoleWatcher, prof, s.d.Hub.Watcher().ActiveName(), adp, settings); err != nil {
		return err
	}
	if err := adp.Start(ctx); err != nil {
		return errors.NewAdapterError(adapter.RoleWatcher.String(), "start", err)
	}
	s.running = adp
	s.d.logger().With("adapter", s.d.Hub.Watcher().ActiveName()).Info("watcher started")
	return nil
}

// Stop halts the running watcher. Stopping an idle watcher is a no-op.
func (s *WatcherService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running == nil {
		return nil
	}
	if err := s.running.Stop(ctx); err != nil {
		return errors.NewAdapterError(adapter.RoleWatcher.String(), "stop", err)
	}
	s.running = nil
	s.d.logger().Info("watcher stopped")
	return nil
}

// Running reports whether a watcher is active.
func (s *WatcherService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running != nil
}
