// Package captureobsreplaymod is the capture_obs variant for replay-mod
// workflows: starting capture also arms OBS's replay buffer, and stopping
// saves the buffer before ending the recording.
package captureobsreplaymod

import (
	"context"

	"clipline/internal/adapter"
	"clipline/internal/logger"
	captureobs "clipline/internal/plugins/capture_obs"
)

// Adapter wraps the OBS adapter with replay buffer handling.
type Adapter struct {
	*captureobs.Adapter
	log *logger.Logger
}

// New returns an unconfigured replay-mod capture adapter.
func New(log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	return &Adapter{Adapter: captureobs.New(log), log: log}
}

func (a *Adapter) Meta() adapter.Meta {
	return adapter.Meta{
		Name:         "capture_obs_replaymod",
		Role:         adapter.RoleCapture,
		Version:      "1.0.0",
		RequiresAPI:  ">=1.0,<2.0",
		Capabilities: []string{"scenes", "profiles", "record", "replay_buffer"},
	}
}

// StartCapture starts recording and arms the replay buffer. A failing
// buffer arm is logged but does not abort the recording.
func (a *Adapter) StartCapture(ctx context.Context) error {
	if err := a.Adapter.StartCapture(ctx); err != nil {
		return err
	}
	if err := a.StartReplayBuffer(ctx); err != nil {
		a.log.Warn("replay buffer not armed: " + err.Error())
	}
	return nil
}

// StopCapture saves the replay buffer, then stops recording.
func (a *Adapter) StopCapture(ctx context.Context) error {
	if err := a.SaveReplayBuffer(ctx); err != nil {
		a.log.Warn("replay buffer not saved: " + err.Error())
	}
	if err := a.StopReplayBuffer(ctx); err != nil {
		a.log.Warn("replay buffer not disarmed: " + err.Error())
	}
	return a.Adapter.StopCapture(ctx)
}
