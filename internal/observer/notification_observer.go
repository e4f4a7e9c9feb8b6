package observer

import (
	"context"
	"fmt"

	"clipline/internal/bus"
)

// NotificationObserver turns selected pipeline events into user-facing
// notifications. Which events fire is controlled per profile through
// hooks.notify, so a quiet profile stays quiet.
type NotificationObserver struct {
	octx *Context
}

// NewNotificationObserver builds the observer.
func NewNotificationObserver(octx *Context) *NotificationObserver {
	return &NotificationObserver{octx: octx}
}

func (o *NotificationObserver) Key() string { return "notification" }

// Attach subscribes only to the topics the active profile enables.
func (o *NotificationObserver) Attach() error {
	if o.octx.Bus == nil {
		return fmt.Errorf("notification observer needs a bus")
	}
	if o.octx.Profile == nil {
		// No profile means no hooks to honor; stay silent.
		return nil
	}

	hooks := o.octx.Profile.Hooks.Notify
	if hooks.CaptureStarted {
		o.octx.Bus.Subscribe(bus.TopicCaptureStarted, func(topic string, payload bus.Payload) {
			o.emit("Recording started", fmt.Sprintf("Session %s is recording.", payloadString(payload, "session_id")), "info", payload)
		})
	}
	if hooks.CaptureStopped {
		o.octx.Bus.Subscribe(bus.TopicCaptureStopped, func(topic string, payload bus.Payload) {
			o.emit("Recording stopped", fmt.Sprintf("Session %s stopped recording.", payloadString(payload, "session_id")), "info", payload)
		})
	}
	if hooks.UploadDone {
		o.octx.Bus.Subscribe(bus.TopicUploadDone, func(topic string, payload bus.Payload) {
			o.emit("Upload finished", fmt.Sprintf("Clip uploaded to %s.", payloadString(payload, "remote")), "info", payload)
		})
	}
	if hooks.MuxFailed {
		o.octx.Bus.Subscribe(bus.TopicMuxFailed, func(topic string, payload bus.Payload) {
			o.emit("Mux failed", payloadString(payload, "error"), "error", payload)
		})
	}
	return nil
}

func (o *NotificationObserver) emit(title, message, level string, source bus.Payload) {
	o.octx.Bus.Publish(bus.TopicUserNotification, bus.Payload{
		"title":      title,
		"message":    message,
		"level":      level,
		"session_id": payloadString(source, "session_id"),
	})
	if o.octx.Notifier != nil {
		if err := o.octx.Notifier.Notify(context.Background(), title, message); err != nil {
			o.octx.logger().Error(err, "delivering notification")
		}
	}
}
