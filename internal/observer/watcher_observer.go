package observer

import (
	"context"
	"fmt"

	"clipline/internal/adapter"
	"clipline/internal/bus"
)

// WatcherAutoStart starts the replay watcher when capture begins, so a
// render dropped mid-session is picked up without a separate command.
// Gated on hooks.watcher.start_on_capture_started.
type WatcherAutoStart struct {
	octx *Context
}

// NewWatcherAutoStart builds the observer.
func NewWatcherAutoStart(octx *Context) *WatcherAutoStart {
	return &WatcherAutoStart{octx: octx}
}

func (o *WatcherAutoStart) Key() string { return "watcher_autostart" }

// Attach subscribes to capture.started when the hook is enabled and a
// watcher handle is available.
func (o *WatcherAutoStart) Attach() error {
	if o.octx.Bus == nil {
		return fmt.Errorf("watcher auto-start observer needs a bus")
	}
	if o.octx.Profile == nil || !o.octx.Profile.Hooks.Watcher.StartOnCaptureStarted {
		return nil
	}
	if o.octx.Watcher == nil {
		return fmt.Errorf("watcher auto-start enabled but no watcher service available")
	}

	o.octx.Bus.Subscribe(bus.TopicCaptureStarted, o.onCaptureStarted)
	return nil
}

func (o *WatcherAutoStart) onCaptureStarted(topic string, payload bus.Payload) {
	var overrides adapter.Settings
	if binding, ok := o.octx.Profile.Binding(adapter.RoleWatcher); ok {
		overrides = adapter.Settings(binding.Overrides)
	}
	if err := o.octx.Watcher.StartWatching(context.Background(), overrides); err != nil {
		o.octx.logger().Error(err, "auto-starting watcher")
	}
}
