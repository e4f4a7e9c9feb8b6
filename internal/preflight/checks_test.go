package preflight

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clipline/internal/adapter"
	"clipline/internal/profile"
)

type healthStub struct {
	adapter.Base
	ok      bool
	msg     string
	details map[string]string
}

func (h *healthStub) Meta() adapter.Meta {
	return adapter.Meta{Name: "capture_obs", Role: adapter.RoleCapture}
}
func (h *healthStub) Configure(settings, secrets adapter.Settings) error { return nil }
func (h *healthStub) Health(ctx context.Context) adapter.Health {
	return adapter.Health{OK: h.ok, Message: h.msg, Details: h.details}
}

func builtinEngine(t *testing.T) *Engine {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))
	return NewEngine(reg, 5*time.Second, nil)
}

func runSingle(t *testing.T, eng *Engine, role adapter.Role, id string, req Request) Result {
	t.Helper()
	results, err := eng.Run(context.Background(), role, []profile.PreflightRef{{ID: id}}, req)
	require.NoError(t, err)
	require.Len(t, results, 1)
	return results[0]
}

func TestDiskSpaceCheck(t *testing.T) {
	eng := builtinEngine(t)
	dir := t.TempDir()

	res := runSingle(t, eng, adapter.RoleCapture, CheckDiskSpace, Request{
		Settings: adapter.Settings{"record_dir": dir, "min_record_free_gb": 0.001},
	})
	require.True(t, res.OK, res.Message)

	res = runSingle(t, eng, adapter.RoleCapture, CheckDiskSpace, Request{
		Settings: adapter.Settings{"record_dir": dir, "min_record_free_gb": 1e9},
	})
	require.True(t, res.Failed())
	require.Contains(t, res.Message, "free")
	require.Equal(t, dir, res.Details["dir"])

	res = runSingle(t, eng, adapter.RoleCapture, CheckDiskSpace, Request{})
	require.True(t, res.Failed())
	require.Contains(t, res.Message, "record_dir")
}

func TestDiskSpaceCheckHonorsRefParams(t *testing.T) {
	eng := builtinEngine(t)

	refs := []profile.PreflightRef{{
		ID:     CheckDiskSpace,
		Params: map[string]any{"min_record_free_gb": 999999.0},
	}}
	results, err := eng.Run(context.Background(), adapter.RoleCapture, refs, Request{
		Settings: adapter.Settings{"record_dir": t.TempDir()},
	})
	require.NoError(t, err)

	required, _ := Partition(results)
	require.Len(t, required, 1)
	require.Equal(t, CheckDiskSpace, required[0].ID)
}

func TestRecordDirWritableCheck(t *testing.T) {
	eng := builtinEngine(t)

	res := runSingle(t, eng, adapter.RoleCapture, CheckRecordDirWritable, Request{
		Settings: adapter.Settings{"record_dir": t.TempDir()},
	})
	require.True(t, res.OK, res.Message)

	res = runSingle(t, eng, adapter.RoleCapture, CheckRecordDirWritable, Request{
		Settings: adapter.Settings{"record_dir": filepath.Join(t.TempDir(), "missing")},
	})
	require.True(t, res.Failed())
}

func TestOBSHealthCheckScopedToAdapter(t *testing.T) {
	eng := builtinEngine(t)

	// Active adapter outside the check's scope: skipped, not failed.
	res := runSingle(t, eng, adapter.RoleCapture, CheckOBSHealth, Request{
		AdapterName: "capture_other",
		Adapter:     &healthStub{ok: false, msg: "down"},
	})
	require.True(t, res.Skipped)
	require.False(t, res.Failed())

	res = runSingle(t, eng, adapter.RoleCapture, CheckOBSHealth, Request{
		AdapterName: "capture_obs",
		Adapter:     &healthStub{ok: true, msg: "connected"},
	})
	require.True(t, res.OK)
	require.Equal(t, "connected", res.Message)

	res = runSingle(t, eng, adapter.RoleCapture, CheckOBSHealth, Request{
		AdapterName: "capture_obs",
		Adapter:     &healthStub{ok: false, msg: "websocket closed"},
	})
	require.True(t, res.Failed())
	require.Equal(t, "websocket closed", res.Message)
}

func TestOBSHealthCheckCarriesProbeDetails(t *testing.T) {
	eng := builtinEngine(t)

	res := runSingle(t, eng, adapter.RoleCapture, CheckOBSHealth, Request{
		AdapterName: "capture_obs",
		Adapter: &healthStub{
			ok:      false,
			msg:     "identify rejected",
			details: map[string]string{"endpoint": "ws://localhost:4455", "close_code": "4009"},
		},
	})
	require.True(t, res.Failed())
	require.Equal(t, "ws://localhost:4455", res.Details["endpoint"])
	require.Equal(t, "4009", res.Details["close_code"])
}

func TestWindowForegroundCheckIsSoft(t *testing.T) {
	eng := builtinEngine(t)

	res := runSingle(t, eng, adapter.RoleCapture, CheckWindowForeground, Request{})
	require.True(t, res.Skipped)
	require.False(t, res.Required)
}

func TestWatchPathExistsCheck(t *testing.T) {
	eng := builtinEngine(t)

	res := runSingle(t, eng, adapter.RoleWatcher, CheckWatchPathExists, Request{
		Settings: adapter.Settings{"watch_path": t.TempDir()},
	})
	require.True(t, res.OK)

	res = runSingle(t, eng, adapter.RoleWatcher, CheckWatchPathExists, Request{
		Settings: adapter.Settings{"watch_path": filepath.Join(t.TempDir(), "gone")},
	})
	require.True(t, res.Failed())
}

func TestMuxBinaryCheck(t *testing.T) {
	eng := builtinEngine(t)

	res := runSingle(t, eng, adapter.RoleMux, CheckMuxBinary, Request{
		Settings: adapter.Settings{"ffmpeg_path": "sh"},
	})
	require.True(t, res.OK, res.Message)

	res = runSingle(t, eng, adapter.RoleMux, CheckMuxBinary, Request{
		Settings: adapter.Settings{"ffmpeg_path": "definitely-not-a-binary-4217"},
	})
	require.True(t, res.Failed())
}

func TestRemoteConfiguredCheck(t *testing.T) {
	eng := builtinEngine(t)

	res := runSingle(t, eng, adapter.RoleUploader, CheckRemoteConfigured, Request{
		Settings: adapter.Settings{"remote": "gdrive:clips"},
	})
	require.True(t, res.OK)

	res = runSingle(t, eng, adapter.RoleUploader, CheckRemoteConfigured, Request{
		Settings: adapter.Settings{"remote": "gdrive"},
	})
	require.True(t, res.Failed())

	res = runSingle(t, eng, adapter.RoleUploader, CheckRemoteConfigured, Request{})
	require.True(t, res.Failed())
}

func TestWebhookURLCheck(t *testing.T) {
	eng := builtinEngine(t)

	res := runSingle(t, eng, adapter.RoleNotifier, CheckWebhookURL, Request{
		Settings: adapter.Settings{"webhook_url": "https://hooks.example.com/T123"},
	})
	require.True(t, res.OK)

	res = runSingle(t, eng, adapter.RoleNotifier, CheckWebhookURL, Request{
		Settings: adapter.Settings{"webhook_url": "not a url"},
	})
	require.True(t, res.Failed())
}
