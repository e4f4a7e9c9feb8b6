package service

import (
	"context"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/pkg/errors"
)

// UploadService ships finished clips to the configured remote.
type UploadService struct {
	d Deps
}

// NewUploadService builds the service.
func NewUploadService(d Deps) *UploadService {
	return &UploadService{d: d}
}

// Upload runs the upload and publishes done/failed events. An empty
// params.Remote falls back to the resolved remote setting.
func (s *UploadService) Upload(ctx context.Context, profileKey string, overrides adapter.Settings, params adapter.UploadParams) error {
	prof, settings, err := s.d.Profiles.Resolve(profileKey, adapter.RoleUploader, overrides, s.d.Hub)
	if err != nil {
		return err
	}
	adp, err := s.d.Hub.Uploader().Active()
	if err != nil {
		return err
	}
	if err := adp.Configure(settings, s.d.Secrets); err != nil {
		return errors.NewAdapterError(adapter.RoleUploader.String(), "configure", err)
	}
	if err := s.d.gate(ctx, adapter.RoleUploader, prof, s.d.Hub.Uploader().ActiveName(), adp, settings); err != nil {
		return err
	}

	if params.Remote == "" {
		params.Remote = settingString(settings, "remote")
	}

	base := bus.Payload{
		"session_id": params.SessionID,
		"source":     params.Source,
		"remote":     params.Remote,
	}
	if prof != nil {
		base["profile_key"] = prof.Key
	}

	if err := adp.Upload(ctx, params); err != nil {
		werr := errors.NewAdapterError(adapter.RoleUploader.String(), "upload", err)
		failed := clonePayload(base)
		failed["error"] = err.Error()
		s.d.publish(bus.TopicUploadFailed, failed)
		return werr
	}

	s.d.publish(bus.TopicUploadDone, base)
	return nil
}
