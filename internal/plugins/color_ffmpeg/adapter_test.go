package colorffmpeg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"clipline/internal/adapter"
)

func stubbed(t *testing.T) (*Adapter, *[]string, *string) {
	t.Helper()
	a := New(nil)
	var gotArgs []string
	var gotBin string
	a.runCommand = func(ctx context.Context, name string, args []string) error {
		gotBin = name
		gotArgs = args
		return nil
	}
	return a, &gotArgs, &gotBin
}

func TestGradeBuildsFilterCommand(t *testing.T) {
	a, args, bin := stubbed(t)

	err := a.Grade(context.Background(), adapter.GradeParams{
		Input:  "/clips/out.mp4",
		Output: "/clips/out_graded.mp4",
		LUT:    "/luts/teal.cube",
	})
	require.NoError(t, err)
	require.Equal(t, "ffmpeg", *bin)
	require.Equal(t, []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", "/clips/out.mp4",
		"-vf", "lut3d=/luts/teal.cube",
		"-c:a", "copy",
		"/clips/out_graded.mp4",
	}, *args)
}

func TestGradeFallsBackToConfiguredLUT(t *testing.T) {
	a, args, _ := stubbed(t)
	require.NoError(t, a.Configure(adapter.Settings{"lut": "/luts/default.cube"}, nil))

	err := a.Grade(context.Background(), adapter.GradeParams{
		Input:  "/clips/out.mp4",
		Output: "/clips/out_graded.mp4",
	})
	require.NoError(t, err)
	require.Contains(t, *args, "lut3d=/luts/default.cube")
}

func TestGradeParamsLUTWinsOverConfigured(t *testing.T) {
	a, args, _ := stubbed(t)
	require.NoError(t, a.Configure(adapter.Settings{"lut": "/luts/default.cube"}, nil))

	err := a.Grade(context.Background(), adapter.GradeParams{
		Input:  "/clips/out.mp4",
		Output: "/clips/out_graded.mp4",
		LUT:    "/luts/override.cube",
	})
	require.NoError(t, err)
	require.Contains(t, *args, "lut3d=/luts/override.cube")
}

func TestGradeRequiresLUT(t *testing.T) {
	a, _, _ := stubbed(t)
	err := a.Grade(context.Background(), adapter.GradeParams{
		Input:  "/clips/out.mp4",
		Output: "/clips/out_graded.mp4",
	})
	require.ErrorContains(t, err, "no LUT configured")
}

func TestGradeRequiresPaths(t *testing.T) {
	a, _, _ := stubbed(t)
	require.Error(t, a.Grade(context.Background(), adapter.GradeParams{Input: "/a.mp4", LUT: "/l.cube"}))
	require.Error(t, a.Grade(context.Background(), adapter.GradeParams{Output: "/b.mp4", LUT: "/l.cube"}))
}

func TestEscapeFilterPath(t *testing.T) {
	require.Equal(t, `C\:/luts/teal.cube`, escapeFilterPath(`C:\luts\teal.cube`))
	require.Equal(t, "/luts/teal.cube", escapeFilterPath("/luts/teal.cube"))
}

func TestMetaIdentity(t *testing.T) {
	meta := New(nil).Meta()
	require.Equal(t, "color_ffmpeg", meta.Name)
	require.Equal(t, adapter.RoleColor, meta.Role)
}
