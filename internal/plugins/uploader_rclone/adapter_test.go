package uploaderrclone

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"clipline/internal/adapter"
	"clipline/internal/bus"
)

func stubbed(t *testing.T) (*Adapter, *bus.Bus, *[]string) {
	t.Helper()
	b := bus.New(nil)
	a := New(b, nil)
	var gotArgs []string
	a.runCommand = func(ctx context.Context, name string, args []string, onProgress func(string)) error {
		gotArgs = args
		onProgress("42% done")
		return nil
	}
	return a, b, &gotArgs
}

func TestUploadBuildsCopyto(t *testing.T) {
	a, _, args := stubbed(t)
	require.NoError(t, a.Configure(adapter.Settings{"remote": "gdrive:clips"}, nil))

	err := a.Upload(context.Background(), adapter.UploadParams{
		Source:    "/clips/out.mp4",
		SessionID: "s1",
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"copyto", "/clips/out.mp4", "gdrive:clips/out.mp4",
		"--progress", "--stats-one-line",
	}, *args)
}

func TestUploadPublishesProgress(t *testing.T) {
	a, b, _ := stubbed(t)
	require.NoError(t, a.Configure(adapter.Settings{"remote": "gdrive:clips"}, nil))

	var got bus.Payload
	b.Subscribe(bus.TopicUploadProgress, func(topic string, payload bus.Payload) {
		got = payload
	})

	require.NoError(t, a.Upload(context.Background(), adapter.UploadParams{
		Source:    "/clips/out.mp4",
		SessionID: "s1",
	}))
	require.Equal(t, "42% done", got["progress"])
	require.Equal(t, "s1", got["session_id"])
}

func TestUploadParamsRemoteWins(t *testing.T) {
	a, _, args := stubbed(t)
	require.NoError(t, a.Configure(adapter.Settings{"remote": "gdrive:clips"}, nil))

	require.NoError(t, a.Upload(context.Background(), adapter.UploadParams{
		Source: "/clips/out.mp4",
		Remote: "s3:bucket/highlights",
	}))
	require.Equal(t, "s3:bucket/highlights/out.mp4", (*args)[2])
}

func TestUploadValidatesRemote(t *testing.T) {
	a, _, _ := stubbed(t)
	require.ErrorContains(t, a.Upload(context.Background(), adapter.UploadParams{Source: "/a.mp4"}), "no upload remote")

	require.NoError(t, a.Configure(adapter.Settings{"remote": "not-a-remote"}, nil))
	require.ErrorContains(t, a.Upload(context.Background(), adapter.UploadParams{Source: "/a.mp4"}), "remote:path")
}

func TestSecretsConfigPathAppended(t *testing.T) {
	a, _, args := stubbed(t)
	require.NoError(t, a.Configure(
		adapter.Settings{"remote": "gdrive:clips"},
		adapter.Settings{"rclone_config": "/home/u/.config/rclone/rclone.conf"},
	))

	require.NoError(t, a.Upload(context.Background(), adapter.UploadParams{Source: "/a.mp4"}))
	require.Equal(t, "--config", (*args)[len(*args)-2])
	require.Equal(t, "/home/u/.config/rclone/rclone.conf", (*args)[len(*args)-1])
}
