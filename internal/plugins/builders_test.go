package plugins

import (
	"testing"

	"github.com/stretchr/testify/require"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/internal/descriptor"
	"clipline/internal/registry"
)

func TestEveryBuiltinDescriptorResolves(t *testing.T) {
	table := Builders(bus.New(nil), nil)

	for _, d := range Descriptors() {
		build, err := table.Resolve(d, descriptor.PkgRoot)
		require.NoError(t, err, d.Name)
		inst := build()
		require.Equal(t, d.Name, inst.Meta().Name)
		require.Equal(t, d.Role, inst.Meta().Role.String())
	}
}

func TestBootstrapWiresAllRoles(t *testing.T) {
	hub := registry.NewHub()
	table := Builders(bus.New(nil), nil)

	require.NoError(t, descriptor.Bootstrap(hub, table, Descriptors(), nil))

	require.ElementsMatch(t, []string{"capture_obs", "capture_obs_replaymod"}, hub.Capture().Names())
	require.Equal(t, []string{"watcher_replay"}, hub.Watcher().Names())
	require.Equal(t, []string{"mux_ffmpeg"}, hub.Mux().Names())
	require.Equal(t, []string{"color_ffmpeg"}, hub.Color().Names())
	require.Equal(t, []string{"uploader_rclone"}, hub.Uploader().Names())
	require.Equal(t, []string{"notifier_webhook"}, hub.Notifier().Names())
	require.Equal(t, []string{"ai_caption"}, hub.AI().Names())
}

func TestRegisteredFactoriesSatisfyRoleCapabilities(t *testing.T) {
	hub := registry.NewHub()
	require.NoError(t, descriptor.Bootstrap(hub, Builders(bus.New(nil), nil), Descriptors(), nil))

	require.NoError(t, hub.Mux().SetActive("mux_ffmpeg"))
	adp, err := hub.Mux().Active()
	require.NoError(t, err)
	require.Equal(t, adapter.RoleMux, adp.Meta().Role)

	require.NoError(t, hub.Capture().SetActive("capture_obs_replaymod"))
	replay, err := hub.Capture().Active()
	require.NoError(t, err)
	require.Contains(t, replay.Meta().Capabilities, "replay_buffer")
}
