// Package aicaption generates caption options for finished clips from
// tone-keyed templates. It runs entirely locally; a hosted model can
// replace it behind the same role interface later.
package aicaption

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"

	"clipline/internal/adapter"
	"clipline/internal/logger"
)

var templatesByTone = map[string][]string{
	"hype": {
		"NO WAY that just happened 🔥",
		"Clip it. Ship it. %s delivers.",
		"This is the one. Watch until the end.",
		"Certified highlight reel material.",
		"The lobby was NOT ready for this.",
	},
	"casual": {
		"Decent round from %s today.",
		"Caught a fun moment, had to save it.",
		"One of those clips you rewatch twice.",
		"Nothing fancy, it just worked.",
		"Saving this one for later.",
	},
	"dry": {
		"%s played. It went fine.",
		"A clip exists. Here it is.",
		"Documented for the record.",
		"This happened.",
		"Evidence, as requested.",
	},
}

const defaultTone = "hype"

// Adapter produces caption candidates without calling out anywhere.
type Adapter struct {
	adapter.Base

	mu      sync.Mutex
	tone    string
	handle  string
	randSrc *rand.Rand
	log     *logger.Logger
}

// New returns a caption adapter with the default tone.
func New(log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	return &Adapter{
		tone:    defaultTone,
		randSrc: rand.New(rand.NewSource(rand.Int63())),
		log:     log,
	}
}

func (a *Adapter) Meta() adapter.Meta {
	return adapter.Meta{
		Name:         "ai_caption",
		Role:         adapter.RoleAI,
		Version:      "0.3.0",
		RequiresAPI:  ">=1.0,<2.0",
		Capabilities: []string{"captions"},
	}
}

func (a *Adapter) Configure(settings, secrets adapter.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if tone, ok := settings["tone"].(string); ok && tone != "" {
		if _, known := templatesByTone[tone]; !known {
			return fmt.Errorf("unknown caption tone %q", tone)
		}
		a.tone = tone
	}
	if handle, ok := settings["handle"].(string); ok {
		a.handle = handle
	}
	return nil
}

// Tones lists the supported caption tones.
func Tones() []string {
	tones := make([]string, 0, len(templatesByTone))
	for t := range templatesByTone {
		tones = append(tones, t)
	}
	return tones
}

// SuggestCaptions returns up to req.Count distinct caption options for
// the requested tone.
func (a *Adapter) SuggestCaptions(ctx context.Context, req adapter.CaptionRequest) ([]string, error) {
	a.mu.Lock()
	tone, handle, src := a.tone, a.handle, a.randSrc
	a.mu.Unlock()

	if req.Tone != "" {
		tone = req.Tone
	}
	templates, ok := templatesByTone[tone]
	if !ok {
		return nil, fmt.Errorf("unknown caption tone %q", tone)
	}

	count := req.Count
	if count <= 0 {
		count = 3
	}
	if count > len(templates) {
		count = len(templates)
	}
	if handle == "" {
		handle = subjectFromClip(req.ClipPath)
	}

	order := src.Perm(len(templates))
	options := make([]string, 0, count)
	for _, idx := range order[:count] {
		options = append(options, render(templates[idx], handle))
	}
	return options, nil
}

func render(template, handle string) string {
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, handle)
	}
	return template
}

func subjectFromClip(clipPath string) string {
	if clipPath == "" {
		return "the squad"
	}
	base := filepath.Base(clipPath)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		return "the squad"
	}
	return base
}
