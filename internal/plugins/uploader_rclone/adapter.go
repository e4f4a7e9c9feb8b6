// Package uploaderrclone ships finished clips with rclone copyto, so any
// remote rclone knows about (drive, s3, sftp) works without new code
// here.
package uploaderrclone

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path"
	"strings"
	"sync"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/internal/logger"
)

// Adapter shells out to rclone for uploads and publishes progress lines
// on the bus.
type Adapter struct {
	adapter.Base

	mu         sync.Mutex
	binary     string
	remote     string
	configPath string

	bus        *bus.Bus
	log        *logger.Logger
	runCommand func(ctx context.Context, name string, args []string, onProgress func(string)) error
}

// New returns an uploader publishing progress on b.
func New(b *bus.Bus, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	a := &Adapter{binary: "rclone", bus: b, log: log}
	a.runCommand = a.execCommand
	return a
}

func (a *Adapter) Meta() adapter.Meta {
	return adapter.Meta{
		Name:         "uploader_rclone",
		Role:         adapter.RoleUploader,
		Version:      "1.0.0",
		RequiresAPI:  ">=1.0,<2.0",
		Capabilities: []string{"upload", "progress"},
	}
}

func (a *Adapter) Configure(settings, secrets adapter.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if bin, ok := settings["rclone_path"].(string); ok && bin != "" {
		a.binary = bin
	}
	if remote, ok := settings["remote"].(string); ok && remote != "" {
		a.remote = remote
	}
	if cfg, ok := secrets["rclone_config"].(string); ok && cfg != "" {
		a.configPath = cfg
	}
	return nil
}

func (a *Adapter) Health(ctx context.Context) adapter.Health {
	a.mu.Lock()
	bin := a.binary
	a.mu.Unlock()
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return adapter.Health{Message: fmt.Sprintf("%s not found: %v", bin, err)}
	}
	return adapter.Health{OK: true, Message: resolved}
}

// Upload copies the source file to remote/<basename>. An explicit
// params.Remote overrides the configured one.
func (a *Adapter) Upload(ctx context.Context, params adapter.UploadParams) error {
	if params.Source == "" {
		return fmt.Errorf("upload requires a source path")
	}
	a.mu.Lock()
	bin, remote, cfg := a.binary, a.remote, a.configPath
	a.mu.Unlock()
	if params.Remote != "" {
		remote = params.Remote
	}
	if remote == "" {
		return fmt.Errorf("no upload remote configured")
	}
	if !strings.Contains(remote, ":") {
		return fmt.Errorf("remote %q is not in remote:path form", remote)
	}

	dest := strings.TrimRight(remote, "/") + "/" + path.Base(filepathToSlash(params.Source))
	args := []string{"copyto", params.Source, dest, "--progress", "--stats-one-line"}
	if cfg != "" {
		args = append(args, "--config", cfg)
	}

	a.log.With("source", params.Source).With("dest", dest).Info("uploading clip")
	return a.runCommand(ctx, bin, args, func(line string) {
		if a.bus == nil {
			return
		}
		a.bus.Publish(bus.TopicUploadProgress, bus.Payload{
			"session_id": params.SessionID,
			"source":     params.Source,
			"remote":     remote,
			"progress":   line,
		})
	})
}

func (a *Adapter) execCommand(ctx context.Context, name string, args []string, onProgress func(string)) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && onProgress != nil {
			onProgress(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%s: %w: %s", name, err, stderr.String())
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, `/`)
}
