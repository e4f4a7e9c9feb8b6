// Package adapter defines the capability contracts that pipeline adapters
// implement. The core consumes these interfaces; concrete implementations
// live under internal/plugins and are selected at runtime through the
// role registries.
package adapter

import "context"

// Settings is the flat key/value configuration map handed to adapters.
// Typed settings structs are converted to this shape at the adapter
// boundary, the one place genuinely generic configuration is warranted.
type Settings map[string]any

// Merge returns a new map with overlay entries written over base entries.
// Shallow, last-writer-wins per key.
func Merge(base, overlay Settings) Settings {
	merged := make(Settings, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// Health reports an adapter's self-assessed status.
type Health struct {
	OK      bool
	Message string
	Details map[string]string
}

// Meta describes an adapter's identity and declared capabilities.
type Meta struct {
	Name         string
	Role         Role
	Version      string
	RequiresAPI  string
	Capabilities []string
	Source       string
}

// Adapter is the minimal lifecycle every adapter satisfies. Start and
// Stop are optional concerns (watchers, servers); embed Base to inherit
// no-op implementations.
type Adapter interface {
	Meta() Meta
	Configure(settings Settings, secrets Settings) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Base provides default lifecycle behaviour for adapters that only need
// Configure. Embedders override what they actually implement.
type Base struct{}

func (Base) Start(ctx context.Context) error { return nil }

func (Base) Stop(ctx context.Context) error { return nil }

func (Base) Health(ctx context.Context) Health {
	return Health{OK: true, Message: "ok"}
}

// CaptureAdapter records gameplay footage (OBS and friends).
type CaptureAdapter interface {
	Adapter
	ListScenes(ctx context.Context) ([]string, error)
	ListProfiles(ctx context.Context) ([]string, error)
	SelectScene(ctx context.Context, name string) error
	SelectProfile(ctx context.Context, name string) error
	StartCapture(ctx context.Context) error
	StopCapture(ctx context.Context) error
	IsRecording(ctx context.Context) (bool, error)
}

// WatcherAdapter watches a directory and emits replay.render.detected
// events on the bus when a finished render settles.
type WatcherAdapter interface {
	Adapter
	SetWatchPath(path string) error
}

// MuxParams carries the inputs for a mux operation.
type MuxParams struct {
	Input       string
	Output      string
	OffsetMS    int64
	DurationMS  int64
	AudioTracks []string
	SessionID   string
}

// MuxAdapter assembles the final clip container (ffmpeg and friends).
type MuxAdapter interface {
	Adapter
	Mux(ctx context.Context, params MuxParams) error
}

// GradeParams carries the inputs for a color grade pass.
type GradeParams struct {
	Input     string
	Output    string
	LUT       string
	SessionID string
}

// ColorAdapter applies a color grade to a rendered clip.
type ColorAdapter interface {
	Adapter
	Grade(ctx context.Context, params GradeParams) error
}

// UploadParams carries the inputs for an upload operation.
type UploadParams struct {
	Source    string
	Remote    string
	SessionID string
}

// UploaderAdapter ships finished clips to a remote destination.
type UploaderAdapter interface {
	Adapter
	Upload(ctx context.Context, params UploadParams) error
}

// Notification is a user-facing message routed through a notifier adapter.
type Notification struct {
	Title   string
	Message string
	Fields  map[string]string
}

// NotifierAdapter delivers notifications (webhooks, chat channels).
type NotifierAdapter interface {
	Adapter
	Send(ctx context.Context, note Notification) error
}

// CaptionRequest asks an AI adapter for caption candidates.
type CaptionRequest struct {
	SessionID string
	ClipPath  string
	Tone      string
	Count     int
}

// AIAdapter produces caption/title options for a finished clip.
type AIAdapter interface {
	Adapter
	SuggestCaptions(ctx context.Context, req CaptionRequest) ([]string, error)
}
