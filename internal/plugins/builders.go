// Package plugins assembles the compiled-in constructor table. Descriptor
// locators resolve against this table, so a plugin exists exactly when
// its package is linked in and registered here.
package plugins

import (
	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/internal/descriptor"
	"clipline/internal/logger"
	aicaption "clipline/internal/plugins/ai_caption"
	captureobs "clipline/internal/plugins/capture_obs"
	captureobsreplaymod "clipline/internal/plugins/capture_obs_replaymod"
	colorffmpeg "clipline/internal/plugins/color_ffmpeg"
	muxffmpeg "clipline/internal/plugins/mux_ffmpeg"
	notifierwebhook "clipline/internal/plugins/notifier_webhook"
	uploaderrclone "clipline/internal/plugins/uploader_rclone"
	watcherreplay "clipline/internal/plugins/watcher_replay"
)

// Builders returns the constructor table for every built-in plugin.
// Adapters that publish events receive the bus; the rest only log.
func Builders(b *bus.Bus, log *logger.Logger) *descriptor.BuilderTable {
	table := descriptor.NewBuilderTable()
	table.Add(descriptor.PkgRoot+"/plugins/capture_obs/adapter.Adapter", func() adapter.Adapter {
		return captureobs.New(log)
	})
	table.Add(descriptor.PkgRoot+"/plugins/capture_obs_replaymod/adapter.Adapter", func() adapter.Adapter {
		return captureobsreplaymod.New(log)
	})
	table.Add(descriptor.PkgRoot+"/plugins/watcher_replay/adapter.Adapter", func() adapter.Adapter {
		return watcherreplay.New(b, log)
	})
	table.Add(descriptor.PkgRoot+"/plugins/mux_ffmpeg/adapter.Adapter", func() adapter.Adapter {
		return muxffmpeg.New(log)
	})
	table.Add(descriptor.PkgRoot+"/plugins/color_ffmpeg/adapter.Adapter", func() adapter.Adapter {
		return colorffmpeg.New(log)
	})
	table.Add(descriptor.PkgRoot+"/plugins/uploader_rclone/adapter.Adapter", func() adapter.Adapter {
		return uploaderrclone.New(b, log)
	})
	table.Add(descriptor.PkgRoot+"/plugins/notifier_webhook/adapter.Adapter", func() adapter.Adapter {
		return notifierwebhook.New(log)
	})
	table.Add(descriptor.PkgRoot+"/plugins/ai_caption/adapter.Adapter", func() adapter.Adapter {
		return aicaption.New(log)
	})
	return table
}

// Descriptors returns the built-in descriptors, used when no plugins
// directory is configured on disk.
func Descriptors() []descriptor.Descriptor {
	builtin := func(name, role string, caps ...string) descriptor.Descriptor {
		return descriptor.Descriptor{
			Name:         name,
			Role:         role,
			Module:       descriptor.DefaultModule,
			Class:        descriptor.DefaultClass,
			Version:      descriptor.DefaultVersion,
			RequiresAPI:  descriptor.DefaultRequiresAPI,
			Capabilities: caps,
			Source:       "builtin",
		}
	}
	return []descriptor.Descriptor{
		builtin("capture_obs", "capture", "scenes", "profiles", "record"),
		builtin("capture_obs_replaymod", "capture", "scenes", "profiles", "record", "replay_buffer"),
		builtin("watcher_replay", "watcher", "watch"),
		builtin("mux_ffmpeg", "mux", "mux", "trim", "audio_tracks"),
		builtin("color_ffmpeg", "color", "lut"),
		builtin("uploader_rclone", "uploader", "upload", "progress"),
		builtin("notifier_webhook", "notifier", "notify"),
		builtin("ai_caption", "ai", "captions"),
	}
}
