package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/internal/manifest"
	"clipline/internal/observer"
	"clipline/internal/preflight"
	"clipline/internal/profile"
)

// Full capture-to-handoff run with observers attached: the manifest must
// end up with the complete event history for the session.
func TestPipelineRecordsFullSessionHistory(t *testing.T) {
	h := newHarness(t)
	manifests := manifest.NewService(t.TempDir(), h.bus, nil)

	prof, err := h.deps.Profiles.Get("demo")
	require.NoError(t, err)
	failures := observer.Defaults().AttachAll(&observer.Context{
		Profile:  prof,
		Manifest: manifests,
		Watcher:  NewWatcherService(h.deps),
		Bus:      h.bus,
	})
	require.Empty(t, failures)

	capture := NewCaptureService(h.deps, newStateStore(t))
	mux := NewMuxService(h.deps)
	upload := NewUploadService(h.deps)
	ai := NewAIService(h.deps)

	sessionID, err := capture.Start(context.Background(), "demo", nil)
	require.NoError(t, err)
	require.NoError(t, mux.Mux(context.Background(), "demo", nil, adapter.MuxParams{
		Input:     "/replays/render.mp4",
		Output:    "/clips/out.mp4",
		SessionID: sessionID,
	}))
	require.NoError(t, upload.Upload(context.Background(), "demo", nil, adapter.UploadParams{
		Source:    "/clips/out.mp4",
		SessionID: sessionID,
	}))
	_, err = ai.SuggestCaptions(context.Background(), "demo", nil, adapter.CaptionRequest{
		SessionID: sessionID,
		ClipPath:  "/clips/out.mp4",
	})
	require.NoError(t, err)
	_, err = capture.Stop(context.Background())
	require.NoError(t, err)

	m, err := manifests.Load(sessionID)
	require.NoError(t, err)
	require.Equal(t, sessionID, m.SessionID)
	require.Equal(t, "demo", m.ProfileKey)

	kinds := make([]string, len(m.Events))
	for i, e := range m.Events {
		kinds[i] = e.Kind
	}
	require.Equal(t, []string{
		bus.TopicCaptureStarted,
		bus.TopicMuxDone,
		bus.TopicUploadDone,
		bus.TopicAIOptionsReady,
		bus.TopicCaptureStopped,
	}, kinds)
}

// An unsatisfiable required preflight must abort before the adapter is
// touched: no recording, no capture.started, no manifest session.
func TestPipelinePreflightAbortsStart(t *testing.T) {
	h := newHarness(t)
	manifests := manifest.NewService(t.TempDir(), h.bus, nil)

	doc := fmt.Sprintf(`
profiles:
  strict:
    adapters:
      capture:
        name: capture_obs
        overrides:
          record_dir: %s
        preflights:
          - id: capture.disk_space
            params:
              min_record_free_gb: 1000000000
`, t.TempDir())
	profiles := profile.NewManager(nil)
	require.NoError(t, profiles.Load([]byte(doc), "profiles.yaml"))
	h.deps.Profiles = profiles

	prof, err := profiles.Get("strict")
	require.NoError(t, err)
	failures := observer.Defaults().AttachAll(&observer.Context{
		Profile:  prof,
		Manifest: manifests,
		Bus:      h.bus,
	})
	require.Empty(t, failures)

	capture := NewCaptureService(h.deps, newStateStore(t))
	_, err = capture.Start(context.Background(), "strict", nil)
	require.Error(t, err)

	var pf *PreflightFailure
	require.ErrorAs(t, err, &pf)
	require.Equal(t, adapter.RoleCapture, pf.Role)
	require.Len(t, pf.Failures, 1)
	require.Equal(t, preflight.CheckDiskSpace, pf.Failures[0].ID)

	require.False(t, h.capture.recording)
	require.Empty(t, h.events[bus.TopicCaptureStarted])

	ids, err := manifests.Sessions()
	require.NoError(t, err)
	require.Empty(t, ids)
}

// Soft preflight failures must not block the operation.
func TestPipelineSoftPreflightProceeds(t *testing.T) {
	h := newHarness(t)

	doc := fmt.Sprintf(`
profiles:
  lenient:
    adapters:
      capture:
        name: capture_obs
        overrides:
          record_dir: %s
        preflights:
          - id: capture.disk_space
            required: false
            params:
              min_record_free_gb: 1000000000
`, t.TempDir())
	profiles := profile.NewManager(nil)
	require.NoError(t, profiles.Load([]byte(doc), "profiles.yaml"))
	h.deps.Profiles = profiles

	capture := NewCaptureService(h.deps, newStateStore(t))
	sessionID, err := capture.Start(context.Background(), "lenient", nil)
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)
	require.True(t, h.capture.recording)
	require.Len(t, h.events[bus.TopicCaptureStarted], 1)
}

// The watcher auto-start hook brings the watcher up alongside capture.
func TestPipelineWatcherAutoStart(t *testing.T) {
	h := newHarness(t)

	doc := `
profiles:
  auto:
    adapters:
      capture:
        name: capture_obs
      watcher:
        name: watcher_replay
        overrides:
          watch_path: /replays
    hooks:
      watcher:
        start_on_capture_started: true
`
	profiles := profile.NewManager(nil)
	require.NoError(t, profiles.Load([]byte(doc), "profiles.yaml"))
	h.deps.Profiles = profiles

	watcher := NewWatcherService(h.deps)
	prof, err := profiles.Get("auto")
	require.NoError(t, err)
	failures := observer.Defaults().AttachAll(&observer.Context{
		Profile:  prof,
		Watcher:  watcher,
		Bus:      h.bus,
		Manifest: manifest.NewService(t.TempDir(), h.bus, nil),
	})
	require.Empty(t, failures)

	capture := NewCaptureService(h.deps, newStateStore(t))
	_, err = capture.Start(context.Background(), "auto", nil)
	require.NoError(t, err)

	// The bus is synchronous, so the hook has already fired.
	require.True(t, watcher.Running())
	require.Equal(t, "/replays", h.watcher.path)
}
