package service

import (
	"context"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/pkg/errors"
)

// MuxService cuts and remuxes captured footage into the final clip
// container.
type MuxService struct {
	d Deps
}

// NewMuxService builds the service.
func NewMuxService(d Deps) *MuxService {
	return &MuxService{d: d}
}

// Mux runs the mux operation and publishes started/done/failed events.
func (s *MuxService) Mux(ctx context.Context, profileKey string, overrides adapter.Settings, params adapter.MuxParams) error {
	prof, settings, err := s.d.Profiles.Resolve(profileKey, adapter.RoleMux, overrides, s.d.Hub)
	if err != nil {
		return err
	}
	adp, err := s.d.Hub.Mux().Active()
	if err != nil {
		return err
	}
	if err := adp.Configure(settings, s.d.Secrets); err != nil {
		return errors.NewAdapterError(adapter.RoleMux.String(), "configure", err)
	}
	if err := s.d.gate(ctx, adapter.RoleMux, prof, s.d.Hub.Mux().ActiveName(), adp, settings); err != nil {
		return err
	}

	base := bus.Payload{
		"session_id": params.SessionID,
		"input":      params.Input,
		"output":     params.Output,
	}
	if prof != nil {
		base["profile_key"] = prof.Key
	}
	s.d.publish(bus.TopicMuxStarted, base)

	if err := adp.Mux(ctx, params); err != nil {
		werr := errors.NewAdapterError(adapter.RoleMux.String(), "mux", err)
		failed := clonePayload(base)
		failed["error"] = err.Error()
		s.d.publish(bus.TopicMuxFailed, failed)
		return werr
	}

	s.d.publish(bus.TopicMuxDone, clonePayload(base))
	return nil
}

func clonePayload(p bus.Payload) bus.Payload {
	out := make(bus.Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
