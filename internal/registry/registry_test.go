package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"clipline/internal/adapter"
)

type fakeCapture struct {
	adapter.Base
	serial int
}

func (f *fakeCapture) Meta() adapter.Meta {
	return adapter.Meta{Name: "fake_capture", Role: adapter.RoleCapture}
}

func (f *fakeCapture) Configure(settings, secrets adapter.Settings) error { return nil }

func (f *fakeCapture) ListScenes(ctx context.Context) ([]string, error)   { return nil, nil }
func (f *fakeCapture) ListProfiles(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeCapture) SelectScene(ctx context.Context, name string) error { return nil }
func (f *fakeCapture) SelectProfile(ctx context.Context, name string) error {
	return nil
}
func (f *fakeCapture) StartCapture(ctx context.Context) error        { return nil }
func (f *fakeCapture) StopCapture(ctx context.Context) error         { return nil }
func (f *fakeCapture) IsRecording(ctx context.Context) (bool, error) { return false, nil }

// lifecycleOnly satisfies adapter.Adapter but not any role capability.
type lifecycleOnly struct {
	adapter.Base
}

func (l *lifecycleOnly) Meta() adapter.Meta                                 { return adapter.Meta{Name: "bare"} }
func (l *lifecycleOnly) Configure(settings, secrets adapter.Settings) error { return nil }

func newCaptureRegistry(t *testing.T) *Registry[adapter.CaptureAdapter] {
	t.Helper()
	return New[adapter.CaptureAdapter](adapter.RoleCapture)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := newCaptureRegistry(t)

	require.NoError(t, reg.Register("obs", func() adapter.CaptureAdapter { return &fakeCapture{} }, false))
	err := reg.Register("obs", func() adapter.CaptureAdapter { return &fakeCapture{} }, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")

	// Explicit replacement is allowed.
	require.NoError(t, reg.Register("obs", func() adapter.CaptureAdapter { return &fakeCapture{serial: 2} }, true))
	inst, err := reg.Instantiate("obs")
	require.NoError(t, err)
	require.Equal(t, 2, inst.(*fakeCapture).serial)
}

func TestRegisterFactoryRejectsWrongCapability(t *testing.T) {
	reg := newCaptureRegistry(t)

	err := reg.RegisterFactory("bare", func() adapter.Adapter { return &lifecycleOnly{} }, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "capability interface")
	require.False(t, reg.Contains("bare"))

	require.NoError(t, reg.RegisterFactory("obs", func() adapter.Adapter { return &fakeCapture{} }, false))
	require.True(t, reg.Contains("obs"))
}

func TestGetAndTryGet(t *testing.T) {
	reg := newCaptureRegistry(t)
	require.NoError(t, reg.Register("obs", func() adapter.CaptureAdapter { return &fakeCapture{} }, false))

	_, err := reg.Get("obs")
	require.NoError(t, err)

	_, err = reg.Get("missing")
	require.Error(t, err)

	_, ok := reg.TryGet("missing")
	require.False(t, ok)
}

func TestNamesSortedSnapshot(t *testing.T) {
	reg := newCaptureRegistry(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Register(name, func() adapter.CaptureAdapter { return &fakeCapture{} }, false))
	}
	require.Equal(t, []string{"alpha", "mid", "zeta"}, reg.Names())
}

func TestSetActiveUnknownNameFails(t *testing.T) {
	reg := newCaptureRegistry(t)
	err := reg.SetActive("ghost")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not registered")
}

func TestActiveWithoutSelectionFails(t *testing.T) {
	reg := newCaptureRegistry(t)
	_, err := reg.Active()
	require.Error(t, err)
	require.Contains(t, err.Error(), "no active adapter")

	_, ok := reg.ActiveFactory()
	require.False(t, ok)
}

func TestActiveCachesInstanceUntilSelectionChanges(t *testing.T) {
	reg := newCaptureRegistry(t)
	require.NoError(t, reg.Register("obs", func() adapter.CaptureAdapter { return &fakeCapture{serial: 1} }, false))
	require.NoError(t, reg.Register("replay", func() adapter.CaptureAdapter { return &fakeCapture{serial: 2} }, false))

	require.NoError(t, reg.SetActive("obs"))
	first, err := reg.Active()
	require.NoError(t, err)
	second, err := reg.Active()
	require.NoError(t, err)
	require.Same(t, first, second)

	// Re-selecting the same name keeps the cached instance.
	require.NoError(t, reg.SetActive("obs"))
	again, err := reg.Active()
	require.NoError(t, err)
	require.Same(t, first, again)

	// A different selection discards the cache.
	require.NoError(t, reg.SetActive("replay"))
	require.Equal(t, "replay", reg.ActiveName())
	swapped, err := reg.Active()
	require.NoError(t, err)
	require.NotSame(t, first, swapped)
	require.Equal(t, 2, swapped.(*fakeCapture).serial)
}

func TestActiveConcurrentFirstAccessConstructsOnce(t *testing.T) {
	reg := newCaptureRegistry(t)

	var constructions sync.Map
	var counter int
	var counterMu sync.Mutex
	require.NoError(t, reg.Register("obs", func() adapter.CaptureAdapter {
		counterMu.Lock()
		counter++
		counterMu.Unlock()
		return &fakeCapture{}
	}, false))
	require.NoError(t, reg.SetActive("obs"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inst, err := reg.Active()
			require.NoError(t, err)
			constructions.Store(inst, struct{}{})
		}()
	}
	wg.Wait()

	distinct := 0
	constructions.Range(func(_, _ any) bool {
		distinct++
		return true
	})
	require.Equal(t, 1, distinct)

	counterMu.Lock()
	defer counterMu.Unlock()
	require.Equal(t, 1, counter)
}

func TestClearDropsEverything(t *testing.T) {
	reg := newCaptureRegistry(t)
	require.NoError(t, reg.Register("obs", func() adapter.CaptureAdapter { return &fakeCapture{} }, false))
	require.NoError(t, reg.SetActive("obs"))
	_, err := reg.Active()
	require.NoError(t, err)

	reg.Clear()
	require.Empty(t, reg.Names())
	require.Empty(t, reg.ActiveName())
	_, err = reg.Active()
	require.Error(t, err)
}

func TestHubRoleLookup(t *testing.T) {
	hub := NewHub()

	for _, role := range adapter.Roles() {
		reg, ok := hub.ForRole(role)
		require.True(t, ok, "missing registry for role %s", role)
		require.Equal(t, role, reg.Role())
	}

	_, ok := hub.ForRole(adapter.Role("transcode"))
	require.False(t, ok)
}

func TestHubClearAll(t *testing.T) {
	hub := NewHub()
	require.NoError(t, hub.Capture().Register("obs", func() adapter.CaptureAdapter { return &fakeCapture{} }, false))
	hub.ClearAll()
	require.Empty(t, hub.Capture().Names())
}
