package notifierwebhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"clipline/internal/adapter"
)

func TestSendPostsJSON(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	a := New(nil)
	require.NoError(t, a.Configure(adapter.Settings{
		"webhook_url": srv.URL,
		"username":    "clipline",
	}, nil))

	err := a.Send(context.Background(), adapter.Notification{
		Title:   "Upload finished",
		Message: "Clip shipped to gdrive:clips.",
		Fields:  map[string]string{"session": "s1"},
	})
	require.NoError(t, err)

	require.Equal(t, "clipline", body["username"])
	require.Equal(t, "Upload finished\nClip shipped to gdrive:clips.\nsession: s1", body["content"])
	require.Equal(t, body["content"], body["text"])
}

func TestSendRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := New(nil)
	require.NoError(t, a.Configure(adapter.Settings{"webhook_url": srv.URL}, nil))

	err := a.Send(context.Background(), adapter.Notification{Title: "hi"})
	require.ErrorContains(t, err, "429")
}

func TestSendWithoutURL(t *testing.T) {
	a := New(nil)
	err := a.Send(context.Background(), adapter.Notification{Title: "hi"})
	require.ErrorContains(t, err, "webhook_url")
}

func TestSecretURLWinsOverSettings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := New(nil)
	require.NoError(t, a.Configure(
		adapter.Settings{"webhook_url": "https://example.invalid/hook"},
		adapter.Settings{"webhook_url": srv.URL},
	))
	require.NoError(t, a.Send(context.Background(), adapter.Notification{Title: "hi"}))
}

func TestHealthValidatesURL(t *testing.T) {
	a := New(nil)
	require.False(t, a.Health(context.Background()).OK)

	require.NoError(t, a.Configure(adapter.Settings{"webhook_url": "https://hooks.example.com/T1"}, nil))
	h := a.Health(context.Background())
	require.True(t, h.OK)
	require.Equal(t, "hooks.example.com", h.Message)
}
