// Package notifierwebhook posts notifications as JSON to a webhook URL,
// shaped so Slack- and Discord-style endpoints both accept it.
package notifierwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"clipline/internal/adapter"
	"clipline/internal/logger"
)

const defaultTimeout = 10 * time.Second

// Adapter delivers notifications over HTTP POST.
type Adapter struct {
	adapter.Base

	mu       sync.Mutex
	url      string
	username string
	client   *http.Client
	log      *logger.Logger
}

// New returns an unconfigured webhook notifier.
func New(log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	return &Adapter{
		client: &http.Client{Timeout: defaultTimeout},
		log:    log,
	}
}

func (a *Adapter) Meta() adapter.Meta {
	return adapter.Meta{
		Name:         "notifier_webhook",
		Role:         adapter.RoleNotifier,
		Version:      "1.0.0",
		RequiresAPI:  ">=1.0,<2.0",
		Capabilities: []string{"notify"},
	}
}

func (a *Adapter) Configure(settings, secrets adapter.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if raw, ok := settings["webhook_url"].(string); ok && raw != "" {
		a.url = raw
	}
	if raw, ok := secrets["webhook_url"].(string); ok && raw != "" {
		a.url = raw
	}
	if name, ok := settings["username"].(string); ok && name != "" {
		a.username = name
	}
	if secs, ok := settings["timeout_secs"].(int); ok && secs > 0 {
		a.client.Timeout = time.Duration(secs) * time.Second
	}
	return nil
}

func (a *Adapter) Health(ctx context.Context) adapter.Health {
	a.mu.Lock()
	raw := a.url
	a.mu.Unlock()
	if raw == "" {
		return adapter.Health{Message: "no webhook_url configured"}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return adapter.Health{Message: fmt.Sprintf("webhook_url %q is not a valid URL", raw)}
	}
	return adapter.Health{OK: true, Message: u.Host}
}

// Send posts the notification. Non-2xx responses are failures.
func (a *Adapter) Send(ctx context.Context, note adapter.Notification) error {
	a.mu.Lock()
	target, username, client := a.url, a.username, a.client
	a.mu.Unlock()
	if target == "" {
		return fmt.Errorf("no webhook_url configured")
	}

	body := map[string]any{
		// "content" for Discord, "text" for Slack; both fields carry
		// the same rendered message.
		"content": renderText(note),
		"text":    renderText(note),
	}
	if username != "" {
		body["username"] = username
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	a.log.With("title", note.Title).Debug("notification delivered")
	return nil
}

func renderText(note adapter.Notification) string {
	text := note.Title
	if note.Message != "" {
		text += "\n" + note.Message
	}
	keys := make([]string, 0, len(note.Fields))
	for k := range note.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text += fmt.Sprintf("\n%s: %s", k, note.Fields[k])
	}
	return text
}
