package preflight

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"clipline/internal/adapter"
)

// Built-in check ids. Profiles reference these from binding preflight
// lists.
const (
	CheckDiskSpace         = "capture.disk_space"
	CheckRecordDirWritable = "capture.record_dir_writable"
	CheckOBSHealth         = "capture.obs_health"
	CheckWindowForeground  = "capture.window_foreground"
	CheckWatchPathExists   = "watcher.path_exists"
	CheckMuxBinary         = "mux.binary_available"
	CheckRemoteConfigured  = "upload.remote_configured"
	CheckWebhookURL        = "notify.webhook_url"
)

// builtin implements Check with a closure body. appliesTo limits a check
// to specific adapter names; any other active adapter skips it.
type builtin struct {
	id          string
	role        adapter.Role
	description string
	required    bool
	appliesTo   []string
	run         func(ctx context.Context, req Request) Outcome
}

func (b *builtin) ID() string            { return b.id }
func (b *builtin) Role() adapter.Role    { return b.role }
func (b *builtin) Description() string   { return b.description }
func (b *builtin) DefaultRequired() bool { return b.required }

func (b *builtin) Run(ctx context.Context, req Request) Outcome {
	if len(b.appliesTo) > 0 {
		matched := false
		for _, name := range b.appliesTo {
			if strings.EqualFold(name, req.AdapterName) {
				matched = true
				break
			}
		}
		if !matched {
			return skip(fmt.Sprintf("not applicable to adapter %q", req.AdapterName))
		}
	}
	return b.run(ctx, req)
}

// RegisterBuiltins installs every built-in check into reg.
func RegisterBuiltins(reg *Registry) error {
	checks := []*builtin{
		diskSpaceCheck(),
		recordDirWritableCheck(),
		obsHealthCheck(),
		windowForegroundCheck(),
		watchPathExistsCheck(),
		muxBinaryCheck(),
		remoteConfiguredCheck(),
		webhookURLCheck(),
	}
	for _, c := range checks {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func diskSpaceCheck() *builtin {
	return &builtin{
		id:          CheckDiskSpace,
		role:        adapter.RoleCapture,
		description: "recording target has enough free disk space",
		required:    true,
		run: func(ctx context.Context, req Request) Outcome {
			dir := settingString(req.Settings, "record_dir", "")
			if dir == "" {
				return fail("record_dir is not configured")
			}
			minGB := settingFloat(req.Settings, "min_record_free_gb", 5.0)
			freeBytes, err := diskFree(dir)
			if err != nil {
				return failf("cannot stat %s: %v", dir, err)
			}
			freeGB := float64(freeBytes) / (1 << 30)
			if freeGB < minGB {
				return Outcome{
					Message: fmt.Sprintf("only %.1f GiB free in %s, need %.1f GiB", freeGB, dir, minGB),
					Details: map[string]any{"free_gb": freeGB, "min_record_free_gb": minGB, "dir": dir},
				}
			}
			return pass(fmt.Sprintf("%.1f GiB free in %s", freeGB, dir))
		},
	}
}

func recordDirWritableCheck() *builtin {
	return &builtin{
		id:          CheckRecordDirWritable,
		role:        adapter.RoleCapture,
		description: "recording directory exists and is writable",
		required:    true,
		run: func(ctx context.Context, req Request) Outcome {
			dir := settingString(req.Settings, "record_dir", "")
			if dir == "" {
				return fail("record_dir is not configured")
			}
			info, err := os.Stat(dir)
			if err != nil {
				return failf("%s: %v", dir, err)
			}
			if !info.IsDir() {
				return failf("%s is not a directory", dir)
			}
			probe, err := os.CreateTemp(dir, ".preflight-*")
			if err != nil {
				return failf("%s is not writable: %v", dir, err)
			}
			probe.Close()
			os.Remove(probe.Name())
			return pass(dir + " is writable")
		},
	}
}

func obsHealthCheck() *builtin {
	return &builtin{
		id:          CheckOBSHealth,
		role:        adapter.RoleCapture,
		description: "OBS websocket responds to a health probe",
		required:    true,
		appliesTo:   []string{"capture_obs", "capture_obs_replaymod"},
		run: func(ctx context.Context, req Request) Outcome {
			if req.Adapter == nil {
				return fail("no active capture adapter to probe")
			}
			health := req.Adapter.Health(ctx)
			if !health.OK {
				return Outcome{Message: health.Message, Details: healthDetails(health)}
			}
			return pass(health.Message)
		},
	}
}

func windowForegroundCheck() *builtin {
	return &builtin{
		id:          CheckWindowForeground,
		role:        adapter.RoleCapture,
		description: "the target game window is in the foreground",
		required:    false,
		run: func(ctx context.Context, req Request) Outcome {
			title := settingString(req.Settings, "window_title", "")
			if title == "" {
				return skip("no window_title configured")
			}
			// Foreground detection needs a display session; headless
			// hosts cannot answer, and that must not block capture.
			return skip("foreground detection unavailable on this host")
		},
	}
}

func watchPathExistsCheck() *builtin {
	return &builtin{
		id:          CheckWatchPathExists,
		role:        adapter.RoleWatcher,
		description: "replay render output directory exists",
		required:    true,
		run: func(ctx context.Context, req Request) Outcome {
			path := settingString(req.Settings, "watch_path", "")
			if path == "" {
				return fail("watch_path is not configured")
			}
			info, err := os.Stat(path)
			if err != nil {
				return failf("%s: %v", path, err)
			}
			if !info.IsDir() {
				return failf("%s is not a directory", path)
			}
			return pass(path + " exists")
		},
	}
}

func muxBinaryCheck() *builtin {
	return &builtin{
		id:          CheckMuxBinary,
		role:        adapter.RoleMux,
		description: "the configured mux binary is on PATH",
		required:    true,
		run: func(ctx context.Context, req Request) Outcome {
			bin := settingString(req.Settings, "ffmpeg_path", "ffmpeg")
			resolved, err := exec.LookPath(bin)
			if err != nil {
				return failf("%s not found: %v", bin, err)
			}
			return pass(resolved)
		},
	}
}

func remoteConfiguredCheck() *builtin {
	return &builtin{
		id:          CheckRemoteConfigured,
		role:        adapter.RoleUploader,
		description: "upload remote is configured",
		required:    true,
		run: func(ctx context.Context, req Request) Outcome {
			remote := settingString(req.Settings, "remote", "")
			if remote == "" {
				return fail("remote is not configured")
			}
			if !strings.Contains(remote, ":") {
				return failf("remote %q is not in remote:path form", remote)
			}
			return pass("remote " + remote)
		},
	}
}

func webhookURLCheck() *builtin {
	return &builtin{
		id:          CheckWebhookURL,
		role:        adapter.RoleNotifier,
		description: "notification webhook URL parses",
		required:    true,
		run: func(ctx context.Context, req Request) Outcome {
			raw := settingString(req.Settings, "webhook_url", "")
			if raw == "" {
				return fail("webhook_url is not configured")
			}
			u, err := url.Parse(raw)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return failf("webhook_url %q is not a valid URL", raw)
			}
			return pass(u.Host)
		},
	}
}

func healthDetails(h adapter.Health) map[string]any {
	if len(h.Details) == 0 {
		return nil
	}
	details := make(map[string]any, len(h.Details))
	for k, v := range h.Details {
		details[k] = v
	}
	return details
}

func settingString(s adapter.Settings, key, def string) string {
	if v, ok := s[key]; ok {
		if str, ok := v.(string); ok && str != "" {
			return str
		}
	}
	return def
}

func settingFloat(s adapter.Settings, key string, def float64) float64 {
	v, ok := s[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}
