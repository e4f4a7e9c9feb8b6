// Package captureobs drives OBS Studio over the obs-websocket v5
// protocol: scene and profile selection, recording start/stop, and
// recording status.
package captureobs

import (
	"context"
	"sync"
	"time"

	"clipline/internal/adapter"
	"clipline/internal/logger"
)

const (
	defaultHost    = "127.0.0.1"
	defaultPort    = 4455
	defaultTimeout = 10 * time.Second
)

// Adapter implements the capture role against a local OBS instance. The
// websocket connection is established lazily on first use and reused.
type Adapter struct {
	adapter.Base

	mu       sync.Mutex
	host     string
	port     int
	password string
	timeout  time.Duration
	conn     *client
	log      *logger.Logger
}

// New returns an unconfigured OBS capture adapter.
func New(log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	return &Adapter{
		host:    defaultHost,
		port:    defaultPort,
		timeout: defaultTimeout,
		log:     log,
	}
}

func (a *Adapter) Meta() adapter.Meta {
	return adapter.Meta{
		Name:         "capture_obs",
		Role:         adapter.RoleCapture,
		Version:      "1.2.0",
		RequiresAPI:  ">=1.0,<2.0",
		Capabilities: []string{"scenes", "profiles", "record"},
	}
}

// Configure reads connection settings. The websocket password comes from
// secrets, never from profile overrides.
func (a *Adapter) Configure(settings, secrets adapter.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if host, ok := settings["host"].(string); ok && host != "" {
		a.host = host
	}
	if port, ok := asInt(settings["port"]); ok && port > 0 {
		a.port = port
	}
	if secs, ok := asInt(settings["timeout_secs"]); ok && secs > 0 {
		a.timeout = time.Duration(secs) * time.Second
	}
	if pw, ok := secrets["obs_password"].(string); ok {
		a.password = pw
	}

	// A settings change invalidates any existing connection.
	if a.conn != nil {
		a.conn.close()
		a.conn = nil
	}
	return nil
}

// Stop drops the websocket connection.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn != nil {
		err := a.conn.close()
		a.conn = nil
		return err
	}
	return nil
}

// Health probes OBS with a GetVersion request.
func (a *Adapter) Health(ctx context.Context) adapter.Health {
	c, err := a.connect(ctx)
	if err != nil {
		return adapter.Health{Message: err.Error()}
	}
	var version struct {
		ObsVersion string `json:"obsVersion"`
	}
	if err := c.request("GetVersion", nil, &version); err != nil {
		return adapter.Health{Message: err.Error()}
	}
	return adapter.Health{
		OK:      true,
		Message: "connected",
		Details: map[string]string{"obs_version": version.ObsVersion},
	}
}

func (a *Adapter) ListScenes(ctx context.Context) ([]string, error) {
	c, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Scenes []struct {
			SceneName string `json:"sceneName"`
		} `json:"scenes"`
	}
	if err := c.request("GetSceneList", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, len(resp.Scenes))
	for i, s := range resp.Scenes {
		names[i] = s.SceneName
	}
	return names, nil
}

func (a *Adapter) ListProfiles(ctx context.Context) ([]string, error) {
	c, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Profiles []string `json:"profiles"`
	}
	if err := c.request("GetProfileList", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Profiles, nil
}

func (a *Adapter) SelectScene(ctx context.Context, name string) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	return c.request("SetCurrentProgramScene", map[string]any{"sceneName": name}, nil)
}

func (a *Adapter) SelectProfile(ctx context.Context, name string) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	return c.request("SetCurrentProfile", map[string]any{"profileName": name}, nil)
}

func (a *Adapter) StartCapture(ctx context.Context) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	if err := c.request("StartRecord", nil, nil); err != nil {
		return err
	}
	a.log.With("host", a.host).Info("obs recording started")
	return nil
}

func (a *Adapter) StopCapture(ctx context.Context) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	var resp struct {
		OutputPath string `json:"outputPath"`
	}
	if err := c.request("StopRecord", nil, &resp); err != nil {
		return err
	}
	a.log.With("output", resp.OutputPath).Info("obs recording stopped")
	return nil
}

func (a *Adapter) IsRecording(ctx context.Context) (bool, error) {
	c, err := a.connect(ctx)
	if err != nil {
		return false, err
	}
	var resp struct {
		OutputActive bool `json:"outputActive"`
	}
	if err := c.request("GetRecordStatus", nil, &resp); err != nil {
		return false, err
	}
	return resp.OutputActive, nil
}

// StartReplayBuffer arms OBS's replay buffer.
func (a *Adapter) StartReplayBuffer(ctx context.Context) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	return c.request("StartReplayBuffer", nil, nil)
}

// StopReplayBuffer disarms the replay buffer.
func (a *Adapter) StopReplayBuffer(ctx context.Context) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	return c.request("StopReplayBuffer", nil, nil)
}

// SaveReplayBuffer flushes the buffered footage to disk.
func (a *Adapter) SaveReplayBuffer(ctx context.Context) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	return c.request("SaveReplayBuffer", nil, nil)
}

func (a *Adapter) connect(ctx context.Context) (*client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn != nil {
		return a.conn, nil
	}
	c, err := dial(ctx, a.host, a.port, a.password, a.timeout)
	if err != nil {
		return nil, err
	}
	a.conn = c
	return c, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
