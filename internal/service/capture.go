package service

import (
	"context"
	"fmt"
	"time"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/pkg/errors"
)

// CaptureService drives the capture adapter: scene inspection, recording
// start/stop, and recording status. Recording state is persisted so
// separate CLI invocations see each other.
type CaptureService struct {
	d     Deps
	state *StateStore
	now   func() time.Time
}

// NewCaptureService builds the service. state may be nil for tools that
// only list scenes.
func NewCaptureService(d Deps, state *StateStore) *CaptureService {
	return &CaptureService{d: d, state: state, now: time.Now}
}

func (s *CaptureService) prepare(profileKey string, overrides adapter.Settings) (adapter.CaptureAdapter, adapter.Settings, *prepared, error) {
	prof, settings, err := s.d.Profiles.Resolve(profileKey, adapter.RoleCapture, overrides, s.d.Hub)
	if err != nil {
		return nil, nil, nil, err
	}
	adp, err := s.d.Hub.Capture().Active()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := adp.Configure(settings, s.d.Secrets); err != nil {
		return nil, nil, nil, errors.NewAdapterError(adapter.RoleCapture.String(), "configure", err)
	}
	return adp, settings, &prepared{prof: prof, name: s.d.Hub.Capture().ActiveName()}, nil
}

// ListScenes returns the scene names the capture backend exposes.
func (s *CaptureService) ListScenes(ctx context.Context, profileKey string, overrides adapter.Settings) ([]string, error) {
	adp, _, _, err := s.prepare(profileKey, overrides)
	if err != nil {
		return nil, err
	}
	scenes, err := adp.ListScenes(ctx)
	if err != nil {
		return nil, errors.NewAdapterError(adapter.RoleCapture.String(), "list_scenes", err)
	}
	return scenes, nil
}

// ListProfiles returns the capture backend's own profile names (OBS
// profiles, not pipeline profiles).
func (s *CaptureService) ListProfiles(ctx context.Context, profileKey string, overrides adapter.Settings) ([]string, error) {
	adp, _, _, err := s.prepare(profileKey, overrides)
	if err != nil {
		return nil, err
	}
	names, err := adp.ListProfiles(ctx)
	if err != nil {
		return nil, errors.NewAdapterError(adapter.RoleCapture.String(), "list_profiles", err)
	}
	return names, nil
}

// SelectScene switches the capture backend to the named scene.
func (s *CaptureService) SelectScene(ctx context.Context, profileKey string, overrides adapter.Settings, scene string) error {
	adp, _, _, err := s.prepare(profileKey, overrides)
	if err != nil {
		return err
	}
	if err := adp.SelectScene(ctx, scene); err != nil {
		return errors.NewAdapterError(adapter.RoleCapture.String(), "select_scene", err)
	}
	return nil
}

// Start begins recording and returns the new session id. Preflight
// failures and an already-running recording both abort before the adapter
// is asked to record.
func (s *CaptureService) Start(ctx context.Context, profileKey string, overrides adapter.Settings) (string, error) {
	adp, settings, prep, err := s.prepare(profileKey, overrides)
	if err != nil {
		return "", err
	}

	if recording, err := adp.IsRecording(ctx); err == nil && recording {
		return "", fmt.Errorf("capture is already running")
	}

	if err := s.d.gate(ctx, adapter.RoleCapture, prep.prof, prep.name, adp, settings); err != nil {
		return "", err
	}

	if scene := settingString(settings, "scene"); scene != "" {
		if err := adp.SelectScene(ctx, scene); err != nil {
			return "", errors.NewAdapterError(adapter.RoleCapture.String(), "select_scene", err)
		}
	}
	if obsProfile := settingString(settings, "obs_profile"); obsProfile != "" {
		if err := adp.SelectProfile(ctx, obsProfile); err != nil {
			return "", errors.NewAdapterError(adapter.RoleCapture.String(), "select_profile", err)
		}
	}

	sessionID := s.d.Sessions.Start()
	profKey := prep.profileKey()

	if err := adp.StartCapture(ctx); err != nil {
		werr := errors.NewAdapterError(adapter.RoleCapture.String(), "start_capture", err)
		s.d.publish(bus.TopicCaptureError, bus.Payload{
			"session_id":  sessionID,
			"profile_key": profKey,
			"op":          "start_capture",
			"error":       err.Error(),
		})
		return "", werr
	}

	if s.state != nil {
		st := CaptureState{
			Recording:  true,
			SessionID:  sessionID,
			ProfileKey: profKey,
			Adapter:    prep.name,
			StartedAt:  s.now().Unix(),
		}
		if err := s.state.Save(st); err != nil {
			s.d.logger().Error(err, "persisting capture state")
		}
	}

	s.d.publish(bus.TopicCaptureStarted, bus.Payload{
		"session_id":  sessionID,
		"profile_key": profKey,
		"adapter":     prep.name,
	})
	return sessionID, nil
}

// Stop ends the running recording and returns its session id.
func (s *CaptureService) Stop(ctx context.Context) (string, error) {
	st := CaptureState{}
	if s.state != nil {
		var err error
		st, err = s.state.Load()
		if err != nil {
			return "", err
		}
	}
	if s.state != nil && !st.Recording {
		return "", fmt.Errorf("no capture in progress")
	}

	adp, _, prep, err := s.prepare(st.ProfileKey, nil)
	if err != nil {
		return "", err
	}

	if err := adp.StopCapture(ctx); err != nil {
		werr := errors.NewAdapterError(adapter.RoleCapture.String(), "stop_capture", err)
		s.d.publish(bus.TopicCaptureError, bus.Payload{
			"session_id":  st.SessionID,
			"profile_key": st.ProfileKey,
			"op":          "stop_capture",
			"error":       err.Error(),
		})
		return "", werr
	}

	payload := bus.Payload{
		"session_id":  st.SessionID,
		"profile_key": st.ProfileKey,
		"adapter":     prep.name,
	}
	if st.StartedAt > 0 {
		payload["duration_secs"] = s.now().Unix() - st.StartedAt
	}
	s.d.publish(bus.TopicCaptureStopped, payload)

	if s.state != nil {
		if err := s.state.Clear(); err != nil {
			s.d.logger().Error(err, "clearing capture state")
		}
	}
	return st.SessionID, nil
}

// Status reports the persisted state alongside the adapter's live view.
type Status struct {
	State CaptureState
	Live  bool
}

// Status returns the recording status. The live flag comes from the
// adapter when reachable; otherwise the persisted state stands alone.
func (s *CaptureService) Status(ctx context.Context) (Status, error) {
	st := CaptureState{}
	if s.state != nil {
		var err error
		st, err = s.state.Load()
		if err != nil {
			return Status{}, err
		}
	}

	status := Status{State: st}
	adp, _, _, err := s.prepare(st.ProfileKey, nil)
	if err != nil {
		return status, nil
	}
	if live, err := adp.IsRecording(ctx); err == nil {
		status.Live = live
	}
	return status, nil
}
