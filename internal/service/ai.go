package service

import (
	"context"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/pkg/errors"
)

// AIService asks the active AI adapter for caption options for a clip.
type AIService struct {
	d Deps
}

// NewAIService builds the service.
func NewAIService(d Deps) *AIService {
	return &AIService{d: d}
}

// SuggestCaptions returns caption candidates and publishes
// ai.options.ready with the full option list.
func (s *AIService) SuggestCaptions(ctx context.Context, profileKey string, overrides adapter.Settings, req adapter.CaptionRequest) ([]string, error) {
	prof, settings, err := s.d.Profiles.Resolve(profileKey, adapter.RoleAI, overrides, s.d.Hub)
	if err != nil {
		return nil, err
	}
	adp, err := s.d.Hub.AI().Active()
	if err != nil {
		return nil, err
	}
	if err := adp.Configure(settings, s.d.Secrets); err != nil {
		return nil, errors.NewAdapterError(adapter.RoleAI.String(), "configure", err)
	}
	if err := s.d.gate(ctx, adapter.RoleAI, prof, s.d.Hub.AI().ActiveName(), adp, settings); err != nil {
		return nil, err
	}

	if req.Count <= 0 {
		req.Count = 3
	}
	if req.Tone == "" {
		req.Tone = settingString(settings, "tone")
	}

	options, err := adp.SuggestCaptions(ctx, req)
	if err != nil {
		return nil, errors.NewAdapterError(adapter.RoleAI.String(), "suggest_captions", err)
	}

	payload := bus.Payload{
		"session_id": req.SessionID,
		"clip_path":  req.ClipPath,
		"options":    options,
	}
	if prof != nil {
		payload["profile_key"] = prof.Key
	}
	s.d.publish(bus.TopicAIOptionsReady, payload)
	return options, nil
}
