package manifest

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clipline/internal/bus"
)

func newTestService(t *testing.T) (*Service, *bus.Bus) {
	t.Helper()
	b := bus.New(nil)
	svc := NewService(t.TempDir(), b, nil)
	return svc, b
}

func TestStartSessionIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.StartSession("abc123", "demo")
	require.NoError(t, err)
	second, err := svc.StartSession("abc123", "other")
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, "demo", second.ProfileKey)
}

func TestAppendEventLazilyStartsSession(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.AppendEvent("sess1", "demo", "capture.started", map[string]any{"scene": "Game"})
	require.NoError(t, err)

	m, err := svc.Load("sess1")
	require.NoError(t, err)
	require.Equal(t, "sess1", m.SessionID)
	require.Equal(t, "demo", m.ProfileKey)
	require.Len(t, m.Events, 1)
	require.Equal(t, "capture.started", m.Events[0].Kind)
	require.Equal(t, "Game", m.Events[0].Payload["scene"])
}

func TestAppendEventAdoptsManifestFromAnotherProcess(t *testing.T) {
	root := t.TempDir()
	first := NewService(root, nil, nil)
	require.NoError(t, first.AppendEvent("sess1", "demo", "capture.started", nil))

	// A later CLI invocation is a fresh service with a cold cache; it
	// must extend the session history, not restart it.
	second := NewService(root, nil, nil)
	require.NoError(t, second.AppendEvent("sess1", "demo", "capture.stopped", nil))

	data, err := os.ReadFile(second.Path("sess1"))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	require.Len(t, m.Events, 2)
	require.Equal(t, "capture.started", m.Events[0].Kind)
	require.Equal(t, "capture.stopped", m.Events[1].Kind)
}

func TestAppendEventPublishesManifestUpdated(t *testing.T) {
	svc, b := newTestService(t)

	var got bus.Payload
	b.Subscribe(bus.TopicManifestUpdated, func(topic string, payload bus.Payload) {
		got = payload
	})

	require.NoError(t, svc.AppendEvent("sess2", "demo", "mux.done", nil))
	require.NotNil(t, got)
	require.Equal(t, "sess2", got["session_id"])
	require.Equal(t, "mux.done", got["event"])
	require.Equal(t, "demo", got["profile_key"])
}

func TestManifestDocumentShape(t *testing.T) {
	svc, _ := newTestService(t)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, svc.AppendEvent("sess3", "demo", "upload.done", map[string]any{"remote": "gdrive:clips"}))

	raw, err := os.ReadFile(svc.Path("sess3"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Equal(t, "sess3", doc["session_id"])
	require.Equal(t, "demo", doc["profile_key"])
	require.EqualValues(t, 1700000000, doc["created_at"])
	events := doc["events"].([]any)
	require.Len(t, events, 1)
	event := events[0].(map[string]any)
	require.EqualValues(t, 1700000000, event["timestamp"])
	require.Equal(t, "upload.done", event["kind"])
}

func TestCloseSessionDropsCacheButKeepsFile(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.AppendEvent("sess4", "demo", "capture.started", nil))
	cached, err := svc.Load("sess4")
	require.NoError(t, err)

	require.NoError(t, svc.CloseSession("sess4"))
	// Unknown or already-closed sessions close quietly.
	require.NoError(t, svc.CloseSession("sess4"))

	reloaded, err := svc.Load("sess4")
	require.NoError(t, err)
	require.NotSame(t, cached, reloaded)
	require.Len(t, reloaded.Events, 1)
}

func TestLoadUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Load("missing")
	require.Error(t, err)
}

func TestSessionsListsManifests(t *testing.T) {
	svc, _ := newTestService(t)

	ids, err := svc.Sessions()
	require.NoError(t, err)
	require.Empty(t, ids)

	require.NoError(t, svc.AppendEvent("a", "demo", "capture.started", nil))
	require.NoError(t, svc.AppendEvent("b", "demo", "capture.started", nil))

	ids, err = svc.Sessions()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, ids)
}
