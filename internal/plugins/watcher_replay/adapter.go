// Package watcherreplay watches a replay render output directory and
// announces finished renders on the bus. A render counts as finished when
// its file has stopped growing for a settle window, since the replay mod
// writes large files over many seconds.
package watcherreplay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/internal/logger"
)

const (
	defaultSettle = 2 * time.Second
	defaultPoll   = 500 * time.Millisecond
)

var defaultExtensions = []string{".mp4", ".mkv", ".mov"}

type pendingFile struct {
	lastSize  int64
	lastEvent time.Time
}

// Adapter is the fsnotify-backed watcher.
type Adapter struct {
	adapter.Base

	mu         sync.Mutex
	path       string
	sessionID  string
	settle     time.Duration
	poll       time.Duration
	extensions []string

	bus     *bus.Bus
	log     *logger.Logger
	cancel  context.CancelFunc
	done    chan struct{}
	pending map[string]*pendingFile
}

// New returns an unconfigured watcher publishing on b.
func New(b *bus.Bus, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	return &Adapter{
		settle:     defaultSettle,
		poll:       defaultPoll,
		extensions: defaultExtensions,
		bus:        b,
		log:        log,
	}
}

func (a *Adapter) Meta() adapter.Meta {
	return adapter.Meta{
		Name:         "watcher_replay",
		Role:         adapter.RoleWatcher,
		Version:      "1.1.0",
		RequiresAPI:  ">=1.0,<2.0",
		Capabilities: []string{"watch"},
	}
}

func (a *Adapter) Configure(settings, secrets adapter.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if path, ok := settings["watch_path"].(string); ok && path != "" {
		a.path = path
	}
	if id, ok := settings["session_id"].(string); ok && id != "" {
		a.sessionID = id
	}
	if secs, ok := settings["settle_secs"].(int); ok && secs > 0 {
		a.settle = time.Duration(secs) * time.Second
	}
	if exts, ok := settings["extensions"].([]any); ok && len(exts) > 0 {
		parsed := make([]string, 0, len(exts))
		for _, e := range exts {
			if s, ok := e.(string); ok {
				parsed = append(parsed, strings.ToLower(s))
			}
		}
		if len(parsed) > 0 {
			a.extensions = parsed
		}
	}
	return nil
}

// SetWatchPath overrides the watched directory.
func (a *Adapter) SetWatchPath(path string) error {
	if path == "" {
		return fmt.Errorf("watch path is empty")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.path = path
	return nil
}

// Start begins watching. It fails when no path is configured or the
// directory cannot be watched.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done != nil {
		return fmt.Errorf("watcher is already running")
	}
	if a.path == "" {
		return fmt.Errorf("no watch path configured")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fs watcher: %w", err)
	}
	if err := fsw.Add(a.path); err != nil {
		fsw.Close()
		return fmt.Errorf("watching %s: %w", a.path, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	a.pending = make(map[string]*pendingFile)

	go a.run(runCtx, fsw, done)
	a.log.With("path", a.path).Info("replay watcher started")
	return nil
}

// Stop halts the watch loop and waits for it to exit.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (a *Adapter) Health(ctx context.Context) adapter.Health {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.path == "" {
		return adapter.Health{Message: "no watch path configured"}
	}
	if _, err := os.Stat(a.path); err != nil {
		return adapter.Health{Message: err.Error()}
	}
	return adapter.Health{OK: true, Message: "watching " + a.path}
}

func (a *Adapter) run(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer fsw.Close()

	ticker := time.NewTicker(a.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			a.track(event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			a.log.Error(err, "fs watcher error")
		case <-ticker.C:
			a.sweep()
		}
	}
}

func (a *Adapter) track(path string) {
	if !a.matches(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[path] = &pendingFile{lastSize: info.Size(), lastEvent: time.Now()}
}

// sweep promotes settled files: still present, unchanged in size, and
// quiet past the settle window.
func (a *Adapter) sweep() {
	a.mu.Lock()
	settle := a.settle
	sessionID := a.sessionID
	candidates := make(map[string]*pendingFile, len(a.pending))
	for p, f := range a.pending {
		candidates[p] = f
	}
	a.mu.Unlock()

	now := time.Now()
	for path, f := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			a.forget(path)
			continue
		}
		if info.Size() != f.lastSize {
			a.mu.Lock()
			f.lastSize = info.Size()
			f.lastEvent = now
			a.mu.Unlock()
			continue
		}
		if now.Sub(f.lastEvent) < settle {
			continue
		}
		a.forget(path)
		a.log.With("path", path).Info("replay render detected")
		if a.bus != nil {
			payload := bus.Payload{
				"path":       path,
				"size_bytes": info.Size(),
			}
			if sessionID != "" {
				payload["session_id"] = sessionID
			}
			a.bus.Publish(bus.TopicReplayRenderDetected, payload)
		}
	}
}

func (a *Adapter) forget(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, path)
}

func (a *Adapter) matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, want := range a.extensions {
		if ext == want {
			return true
		}
	}
	return false
}
