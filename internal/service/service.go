// Package service orchestrates the pipeline roles: each service resolves
// the profile, configures the active adapter, gates the operation on
// preflight checks, invokes the adapter, and publishes the outcome on the
// bus. Services never call each other; downstream reactions belong to
// observers.
package service

import (
	"context"
	"fmt"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/internal/logger"
	"clipline/internal/preflight"
	"clipline/internal/profile"
	"clipline/internal/registry"
	"clipline/internal/session"
)

// Deps bundles the shared collaborators every service needs.
type Deps struct {
	Hub       *registry.Hub
	Profiles  *profile.Manager
	Preflight *preflight.Engine
	Bus       *bus.Bus
	Sessions  *session.Manager
	Secrets   adapter.Settings
	Log       *logger.Logger
}

func (d Deps) logger() *logger.Logger {
	if d.Log == nil {
		return logger.Nop()
	}
	return d.Log
}

func (d Deps) publish(topic string, payload bus.Payload) {
	if d.Bus != nil {
		d.Bus.Publish(topic, payload)
	}
}

// PreflightFailure aborts an operation whose required preflight checks
// did not pass. It carries every failed check so the caller can show the
// full list in one go.
type PreflightFailure struct {
	Role     adapter.Role
	Failures []preflight.Result
}

func (e *PreflightFailure) Error() string {
	return fmt.Sprintf("preflight failed for role %q: %s", e.Role, preflight.Summarize(e.Failures))
}

// gate runs the profile's preflight checks for role. Required failures
// abort; soft failures are logged and the operation proceeds.
func (d Deps) gate(ctx context.Context, role adapter.Role, prof *profile.Profile, adapterName string, adp adapter.Adapter, settings adapter.Settings) error {
	if d.Preflight == nil || prof == nil {
		return nil
	}
	binding, ok := prof.Binding(role)
	if !ok || len(binding.Preflights) == 0 {
		return nil
	}

	results, err := d.Preflight.Run(ctx, role, binding.Preflights, preflight.Request{
		Role:        role,
		Settings:    settings,
		AdapterName: adapterName,
		Adapter:     adp,
	})
	if err != nil {
		return err
	}

	required, soft := preflight.Partition(results)
	for _, f := range soft {
		d.logger().With("check", f.ID).With("role", role.String()).Warn("soft preflight failed: " + f.Message)
	}
	if len(required) > 0 {
		return &PreflightFailure{Role: role, Failures: required}
	}
	return nil
}

// prepared carries the resolved context of a service call.
type prepared struct {
	prof *profile.Profile
	name string
}

func (p *prepared) profileKey() string {
	if p.prof == nil {
		return ""
	}
	return p.prof.Key
}

func settingString(s adapter.Settings, key string) string {
	if v, ok := s[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}
