package watcherreplay

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clipline/internal/adapter"
	"clipline/internal/bus"
)

func fastWatcher(t *testing.T, b *bus.Bus) *Adapter {
	t.Helper()
	a := New(b, nil)
	a.settle = 50 * time.Millisecond
	a.poll = 10 * time.Millisecond
	return a
}

func TestDetectsSettledRender(t *testing.T) {
	dir := t.TempDir()
	b := bus.New(nil)

	var mu sync.Mutex
	var got []bus.Payload
	b.Subscribe(bus.TopicReplayRenderDetected, func(topic string, payload bus.Payload) {
		mu.Lock()
		got = append(got, payload)
		mu.Unlock()
	})

	a := fastWatcher(t, b)
	require.NoError(t, a.SetWatchPath(dir))
	require.NoError(t, a.Start(context.Background()))
	defer a.Stop(context.Background())

	target := filepath.Join(dir, "replay_2026-08-31.mp4")
	require.NoError(t, os.WriteFile(target, []byte("frames"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, target, got[0]["path"])
	require.EqualValues(t, int64(len("frames")), got[0]["size_bytes"])
}

func TestDetectionCarriesSessionID(t *testing.T) {
	dir := t.TempDir()
	b := bus.New(nil)

	var mu sync.Mutex
	var got []bus.Payload
	b.Subscribe(bus.TopicReplayRenderDetected, func(topic string, payload bus.Payload) {
		mu.Lock()
		got = append(got, payload)
		mu.Unlock()
	})

	a := fastWatcher(t, b)
	require.NoError(t, a.Configure(adapter.Settings{
		"watch_path": dir,
		"session_id": "sess-42",
	}, nil))
	require.NoError(t, a.Start(context.Background()))
	defer a.Stop(context.Background())

	target := filepath.Join(dir, "clutch.mkv")
	require.NoError(t, os.WriteFile(target, []byte("frames"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "sess-42", got[0]["session_id"])
}

func TestIgnoresNonVideoFiles(t *testing.T) {
	dir := t.TempDir()
	b := bus.New(nil)

	var mu sync.Mutex
	count := 0
	b.Subscribe(bus.TopicReplayRenderDetected, func(topic string, payload bus.Payload) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	a := fastWatcher(t, b)
	require.NoError(t, a.SetWatchPath(dir))
	require.NoError(t, a.Start(context.Background()))
	defer a.Stop(context.Background())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "render.tmp"), []byte("partial"), 0o644))
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Zero(t, count)
}

func TestStartValidation(t *testing.T) {
	a := fastWatcher(t, bus.New(nil))
	require.ErrorContains(t, a.Start(context.Background()), "no watch path")

	dir := t.TempDir()
	require.NoError(t, a.SetWatchPath(dir))
	require.NoError(t, a.Start(context.Background()))
	require.ErrorContains(t, a.Start(context.Background()), "already running")
	require.NoError(t, a.Stop(context.Background()))

	// A stopped watcher can be started again.
	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Stop(context.Background()))

	// Stopping twice is quiet.
	require.NoError(t, a.Stop(context.Background()))
}

func TestConfigure(t *testing.T) {
	a := New(nil, nil)
	require.NoError(t, a.Configure(adapter.Settings{
		"watch_path":  "/replays",
		"settle_secs": 5,
		"extensions":  []any{".MKV"},
	}, nil))
	require.Equal(t, "/replays", a.path)
	require.Equal(t, 5*time.Second, a.settle)
	require.Equal(t, []string{".mkv"}, a.extensions)
	require.True(t, a.matches("/replays/x.mkv"))
	require.False(t, a.matches("/replays/x.mp4"))
}

func TestHealth(t *testing.T) {
	a := New(nil, nil)
	require.False(t, a.Health(context.Background()).OK)

	dir := t.TempDir()
	require.NoError(t, a.SetWatchPath(dir))
	require.True(t, a.Health(context.Background()).OK)
}
