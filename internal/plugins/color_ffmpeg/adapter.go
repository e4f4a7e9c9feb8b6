// Package colorffmpeg applies a LUT color grade to a rendered clip with
// ffmpeg's lut3d filter.
package colorffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"clipline/internal/adapter"
	"clipline/internal/logger"
)

// Adapter shells out to ffmpeg for color grading.
type Adapter struct {
	adapter.Base

	mu         sync.Mutex
	binary     string
	defaultLUT string
	log        *logger.Logger
	runCommand func(ctx context.Context, name string, args []string) error
}

// New returns a color adapter using the default ffmpeg binary.
func New(log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	a := &Adapter{binary: "ffmpeg", log: log}
	a.runCommand = a.execCommand
	return a
}

func (a *Adapter) Meta() adapter.Meta {
	return adapter.Meta{
		Name:         "color_ffmpeg",
		Role:         adapter.RoleColor,
		Version:      "1.0.0",
		RequiresAPI:  ">=1.0,<2.0",
		Capabilities: []string{"lut"},
	}
}

func (a *Adapter) Configure(settings, secrets adapter.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if bin, ok := settings["ffmpeg_path"].(string); ok && bin != "" {
		a.binary = bin
	}
	if lut, ok := settings["lut"].(string); ok && lut != "" {
		a.defaultLUT = lut
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

// Grade re-encodes the clip through a lut3d filter. The LUT comes from
// the params or, failing that, the configured default.
func (a *Adapter) Grade(ctx context.Context, params adapter.GradeParams) error {
	if params.Input == "" || params.Output == "" {
		return fmt.Errorf("grade requires input and output paths")
	}
	a.mu.Lock()
	bin, lut := a.binary, a.defaultLUT
	a.mu.Unlock()
	if params.LUT != "" {
		lut = params.LUT
	}
	if lut == "" {
		return fmt.Errorf("no LUT configured for color grade")
	}

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", params.Input,
		"-vf", "lut3d=" + escapeFilterPath(lut),
		"-c:a", "copy",
		params.Output,
	}

	a.log.With("input", params.Input).With("lut", lut).Debug("running ffmpeg grade")
	return a.runCommand(ctx, bin, args)
}

func (a *Adapter) execCommand(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%s: %w: %s", name, err, stderr.String())
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// escapeFilterPath quotes characters ffmpeg's filter parser treats
// specially (Windows drive colons in particular).
func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, `\`, `/`)
	return strings.ReplaceAll(p, `:`, `\:`)
}
