package service

import (
	"context"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/pkg/errors"
)

// NotifyService delivers user notifications through the active notifier
// adapter.
type NotifyService struct {
	d Deps
}

// NewNotifyService builds the service.
func NewNotifyService(d Deps) *NotifyService {
	return &NotifyService{d: d}
}

// Send delivers a notification and publishes sent/failed events.
func (s *NotifyService) Send(ctx context.Context, profileKey string, overrides adapter.Settings, note adapter.Notification) error {
	prof, settings, err := s.d.Profiles.Resolve(profileKey, adapter.RoleNotifier, overrides, s.d.Hub)
	if err != nil {
		return err
	}
	adp, err := s.d.Hub.Notifier().Active()
	if err != nil {
		return err
	}
	if err := adp.Configure(settings, s.d.Secrets); err != nil {
		return errors.NewAdapterError(adapter.RoleNotifier.String(), "configure", err)
	}
	if err := s.d.gate(ctx, adapter.RoleNotifier, prof, s.d.Hub.Notifier().ActiveName(), adp, settings); err != nil {
		return err
	}

	base := bus.Payload{"title": note.Title}
	if prof != nil {
		base["profile_key"] = prof.Key
	}

	if err := adp.Send(ctx, note); err != nil {
		werr := errors.NewAdapterError(adapter.RoleNotifier.String(), "send", err)
		failed := clonePayload(base)
		failed["error"] = err.Error()
		s.d.publish(bus.TopicNotifyFailed, failed)
		return werr
	}

	s.d.publish(bus.TopicNotifySent, base)
	return nil
}

// Notify satisfies the observer's notifier handle using the currently
// active profile.
func (s *NotifyService) Notify(ctx context.Context, title, message string) error {
	return s.Send(ctx, "", nil, adapter.Notification{Title: title, Message: message})
}
