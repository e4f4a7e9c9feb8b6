// Package profile loads named pipeline profiles — declarative bindings of
// role to adapter name, configuration overrides, and preflight policy —
// and activates them against the role registries.
package profile

import (
	"clipline/internal/adapter"
)

// PreflightRef configures one preflight check within a binding. Required
// left nil defers to the check's own default.
type PreflightRef struct {
	ID       string         `yaml:"id" validate:"required"`
	Required *bool          `yaml:"required"`
	Params   map[string]any `yaml:"params"`
}

// Binding declares which adapter serves a role under a profile, plus
// configuration overrides and the ordered preflight checks to run before
// risky operations.
type Binding struct {
	Name       string         `yaml:"name" validate:"required"`
	Overrides  map[string]any `yaml:"overrides"`
	Preflights []PreflightRef `yaml:"preflights" validate:"dive"`
}

// Stage is one informational step in a named pipeline DAG.
type Stage struct {
	Kind          string   `yaml:"kind"`
	WaitsForTopic string   `yaml:"waits_for_topic"`
	Next          []string `yaml:"next"`
}

// Pipeline names a stage DAG. The conductor treats these as informational;
// services advance stages by reacting to bus topics.
type Pipeline struct {
	Entry  string           `yaml:"entry"`
	Stages map[string]Stage `yaml:"stages"`
}

// NotifyHooks toggles which lifecycle events raise user notifications.
type NotifyHooks struct {
	CaptureStarted bool `yaml:"capture_started"`
	CaptureStopped bool `yaml:"capture_stopped"`
	UploadDone     bool `yaml:"upload_done"`
	MuxFailed      bool `yaml:"mux_failed"`
}

// WatcherHooks toggles watcher automation.
type WatcherHooks struct {
	StartOnCaptureStarted bool `yaml:"start_on_capture_started"`
}

// Hooks groups per-feature toggle configuration.
type Hooks struct {
	Notify  NotifyHooks  `yaml:"notify"`
	Watcher WatcherHooks `yaml:"watcher"`
}

// Profile is one named pipeline profile. Adapters is keyed by role name;
// keys for roles this process does not host are preserved and skipped at
// activation time.
type Profile struct {
	Key       string              `yaml:"-"`
	Label     string              `yaml:"label" validate:"required"`
	Adapters  map[string]Binding  `yaml:"adapters" validate:"dive"`
	Pipelines map[string]Pipeline `yaml:"pipelines"`
	Hooks     Hooks               `yaml:"hooks"`
}

// Binding returns the adapter binding for role, if declared.
func (p *Profile) Binding(role adapter.Role) (Binding, bool) {
	if p == nil {
		return Binding{}, false
	}
	binding, ok := p.Adapters[role.String()]
	return binding, ok
}
