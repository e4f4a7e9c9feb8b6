// Package muxffmpeg assembles final clips by invoking ffmpeg: stream
// copy remux with optional offset trim and audio track selection.
package muxffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"clipline/internal/adapter"
	"clipline/internal/logger"
)

// Adapter shells out to ffmpeg for mux operations.
type Adapter struct {
	adapter.Base

	mu     sync.Mutex
	binary string
	log    *logger.Logger
	// runCommand is swapped in tests to capture the argv without
	// needing a real ffmpeg.
	runCommand func(ctx context.Context, name string, args []string) error
}

// New returns a mux adapter using the default ffmpeg binary.
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
		Name:         "mux_ffmpeg",
		Role:         adapter.RoleMux,
		Version:      "1.0.0",
		RequiresAPI:  ">=1.0,<2.0",
		Capabilities: []string{"mux", "trim", "audio_tracks"},
	}
}

func (a *Adapter) Configure(settings, secrets adapter.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if bin, ok := settings["ffmpeg_path"].(string); ok && bin != "" {
		a.binary = bin
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

// Mux runs the remux. Offset and duration of zero mean the whole input;
// an empty audio track list keeps every audio stream.
func (a *Adapter) Mux(ctx context.Context, params adapter.MuxParams) error {
	if params.Input == "" || params.Output == "" {
		return fmt.Errorf("mux requires input and output paths")
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if params.OffsetMS > 0 {
		args = append(args, "-ss", msToSeconds(params.OffsetMS))
	}
	args = append(args, "-i", params.Input)
	if params.DurationMS > 0 {
		args = append(args, "-t", msToSeconds(params.DurationMS))
	}
	if len(params.AudioTracks) > 0 {
		args = append(args, "-map", "0:v:0")
		for _, track := range params.AudioTracks {
			args = append(args, "-map", "0:a:"+track)
		}
	}
	args = append(args, "-c", "copy", params.Output)

	a.mu.Lock()
	bin := a.binary
	a.mu.Unlock()

	a.log.With("input", params.Input).With("output", params.Output).Debug("running ffmpeg mux")
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

func msToSeconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000.0, 'f', 3, 64)
}
