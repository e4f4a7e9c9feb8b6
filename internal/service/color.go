package service

import (
	"context"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/pkg/errors"
)

// ColorService applies a color grade to a rendered clip.
type ColorService struct {
	d Deps
}

// NewColorService builds the service.
func NewColorService(d Deps) *ColorService {
	return &ColorService{d: d}
}

// Grade runs the grade operation and publishes done/failed events.
func (s *ColorService) Grade(ctx context.Context, profileKey string, overrides adapter.Settings, params adapter.GradeParams) error {
	prof, settings, err := s.d.Profiles.Resolve(profileKey, adapter.RoleColor, overrides, s.d.Hub)
	if err != nil {
		return err
	}
	adp, err := s.d.Hub.Color().Active()
	if err != nil {
		return err
	}
	if err := adp.Configure(settings, s.d.Secrets); err != nil {
		return errors.NewAdapterError(adapter.RoleColor.String(), "configure", err)
	}
	if err := s.d.gate(ctx, adapter.RoleColor, prof, s.d.Hub.Color().ActiveName(), adp, settings); err != nil {
		return err
	}

	base := bus.Payload{
		"session_id": params.SessionID,
		"input":      params.Input,
		"output":     params.Output,
		"lut":        params.LUT,
	}
	if prof != nil {
		base["profile_key"] = prof.Key
	}

	if err := adp.Grade(ctx, params); err != nil {
		werr := errors.NewAdapterError(adapter.RoleColor.String(), "grade", err)
		failed := clonePayload(base)
		failed["error"] = err.Error()
		s.d.publish(bus.TopicColorFailed, failed)
		return werr
	}

	s.d.publish(bus.TopicColorDone, base)
	return nil
}
