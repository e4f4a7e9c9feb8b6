package observer

import (
	"fmt"

	"clipline/internal/bus"
)

// ManifestObserver mirrors pipeline events into the session manifest so
// every clip has an auditable history on disk.
type ManifestObserver struct {
	octx *Context
}

// NewManifestObserver builds the observer. It needs a manifest service.
func NewManifestObserver(octx *Context) *ManifestObserver {
	return &ManifestObserver{octx: octx}
}

func (o *ManifestObserver) Key() string { return "manifest" }

// Attach subscribes to every topic the manifest records.
func (o *ManifestObserver) Attach() error {
	if o.octx.Manifest == nil {
		return fmt.Errorf("manifest observer needs a manifest service")
	}
	if o.octx.Bus == nil {
		return fmt.Errorf("manifest observer needs a bus")
	}

	o.octx.Bus.Subscribe(bus.TopicCaptureStarted, o.onCaptureStarted)
	o.octx.Bus.Subscribe(bus.TopicCaptureStopped, o.onCaptureStopped)
	for _, topic := range []string{
		bus.TopicCaptureError,
		bus.TopicReplayRenderDetected,
		bus.TopicMuxDone,
		bus.TopicMuxFailed,
		bus.TopicColorDone,
		bus.TopicColorFailed,
		bus.TopicUploadDone,
		bus.TopicUploadFailed,
		bus.TopicAIOptionsReady,
	} {
		o.octx.Bus.Subscribe(topic, o.record)
	}
	return nil
}

func (o *ManifestObserver) onCaptureStarted(topic string, payload bus.Payload) {
	sessionID := payloadString(payload, "session_id")
	if sessionID == "" {
		o.octx.logger().Warn("capture.started without session_id, not recorded")
		return
	}
	if _, err := o.octx.Manifest.StartSession(sessionID, o.resolveProfileKey(payload)); err != nil {
		o.octx.logger().Error(err, "starting manifest session")
		return
	}
	o.record(topic, payload)
}

func (o *ManifestObserver) onCaptureStopped(topic string, payload bus.Payload) {
	o.record(topic, payload)
	sessionID := payloadString(payload, "session_id")
	if sessionID == "" {
		return
	}
	if err := o.octx.Manifest.CloseSession(sessionID); err != nil {
		o.octx.logger().Error(err, "closing manifest session")
	}
}

func (o *ManifestObserver) record(topic string, payload bus.Payload) {
	sessionID := payloadString(payload, "session_id")
	if sessionID == "" {
		o.octx.logger().With("topic", topic).Debug("event without session_id, not recorded")
		return
	}
	body := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == "session_id" {
			continue
		}
		body[k] = v
	}
	if err := o.octx.Manifest.AppendEvent(sessionID, o.resolveProfileKey(payload), topic, body); err != nil {
		o.octx.logger().With("topic", topic).Error(err, "appending manifest event")
	}
}

func (o *ManifestObserver) resolveProfileKey(payload bus.Payload) string {
	if key := payloadString(payload, "profile_key"); key != "" {
		return key
	}
	return o.octx.profileKey()
}

func payloadString(payload bus.Payload, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
