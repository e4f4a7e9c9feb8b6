package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipline/internal/adapter"
	"clipline/internal/bus"
	"clipline/internal/config"
	"clipline/internal/descriptor"
	"clipline/internal/jobs"
	"clipline/internal/logger"
	"clipline/internal/manifest"
	"clipline/internal/observer"
	"clipline/internal/plugins"
	"clipline/internal/preflight"
	"clipline/internal/profile"
	"clipline/internal/registry"
	"clipline/internal/service"
	"clipline/internal/session"
)

// appContext wires the full pipeline stack for one CLI invocation.
type appContext struct {
	cfg       *config.Config
	log       *logger.Logger
	bus       *bus.Bus
	hub       *registry.Hub
	profiles  *profile.Manager
	checks    *preflight.Registry
	engine    *preflight.Engine
	manifests *manifest.Service
	sessions  *session.Manager
	state     *service.StateStore
	secrets   adapter.Settings
	jobs      *jobs.Orchestrator

	capture *service.CaptureService
	watcher *service.WatcherService
	mux     *service.MuxService
	color   *service.ColorService
	upload  *service.UploadService
	notify  *service.NotifyService
	ai      *service.AIService
}

func newAppContext(flags *rootFlags) (*appContext, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if flags.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: cfg.Logging.Human})
	if err != nil {
		return nil, err
	}

	b := bus.New(log)
	hub := registry.NewHub()

	descriptors := plugins.Descriptors()
	if cfg.Paths.PluginsDir != "" {
		scanned, err := descriptor.Scan(cfg.Paths.PluginsDir)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, scanned...)
	}
	if err := descriptor.Bootstrap(hub, plugins.Builders(b, log), descriptors, log); err != nil {
		return nil, err
	}

	profiles := profile.NewManager(log)
	if _, statErr := os.Stat(cfg.Paths.Profiles); statErr == nil {
		if err := profiles.LoadFile(cfg.Paths.Profiles); err != nil {
			return nil, err
		}
	} else {
		log.With("path", cfg.Paths.Profiles).Warn("profiles file not found; no profiles loaded")
	}

	app := &appContext{
		cfg:       cfg,
		log:       log,
		bus:       b,
		hub:       hub,
		profiles:  profiles,
		checks:    preflight.NewRegistry(),
		manifests: manifest.NewService(cfg.Paths.ManifestRoot, b, log),
		sessions:  session.NewManager(),
	}
	if err := preflight.RegisterBuiltins(app.checks); err != nil {
		return nil, err
	}

	if key := app.loadActiveProfile(); key != "" && flags.profileKey == "" {
		if _, err := profiles.Activate(key, hub); err != nil {
			log.With("profile", key).Warn("persisted active profile no longer resolves: " + err.Error())
		}
	}
	if flags.profileKey != "" {
		if _, err := profiles.Activate(flags.profileKey, hub); err != nil {
			return nil, err
		}
	}

	app.engine = preflight.NewEngine(app.checks, time.Duration(cfg.PreflightTimeoutSecs)*time.Second, log)
	app.secrets = adapter.Settings(cfg.EnvSecrets(os.Environ()))

	deps := service.Deps{
		Hub:       hub,
		Profiles:  profiles,
		Preflight: app.engine,
		Bus:       b,
		Sessions:  app.sessions,
		Secrets:   app.secrets,
		Log:       log,
	}

	app.state = service.NewStateStore(filepath.Join(cfg.Paths.StateDir, "capture.json"))
	app.capture = service.NewCaptureService(deps, app.state)
	app.watcher = service.NewWatcherService(deps)
	app.mux = service.NewMuxService(deps)
	app.color = service.NewColorService(deps)
	app.upload = service.NewUploadService(deps)
	app.notify = service.NewNotifyService(deps)
	app.ai = service.NewAIService(deps)

	app.jobs = jobs.New(log)
	if err := app.registerJobs(); err != nil {
		return nil, err
	}

	app.attachObservers()

	return app, nil
}

// Job kinds run through the orchestrator so every post-capture stage
// leaves a ledger entry behind.
const (
	jobKindMux    = "mux"
	jobKindColor  = "color"
	jobKindUpload = "upload"
)

func (a *appContext) registerJobs() error {
	if err := a.jobs.Register(jobKindMux, func(ctx context.Context, job *jobs.Job) error {
		params, _ := job.Payload["params"].(adapter.MuxParams)
		return a.mux.Mux(ctx, jobProfileKey(job), jobOverrides(job), params)
	}); err != nil {
		return err
	}
	if err := a.jobs.Register(jobKindColor, func(ctx context.Context, job *jobs.Job) error {
		params, _ := job.Payload["params"].(adapter.GradeParams)
		return a.color.Grade(ctx, jobProfileKey(job), jobOverrides(job), params)
	}); err != nil {
		return err
	}
	return a.jobs.Register(jobKindUpload, func(ctx context.Context, job *jobs.Job) error {
		params, _ := job.Payload["params"].(adapter.UploadParams)
		return a.upload.Upload(ctx, jobProfileKey(job), jobOverrides(job), params)
	})
}

func jobProfileKey(job *jobs.Job) string {
	key, _ := job.Payload["profile_key"].(string)
	return key
}

func jobOverrides(job *jobs.Job) adapter.Settings {
	settings, _ := job.Payload["overrides"].(adapter.Settings)
	return settings
}

func (a *appContext) attachObservers() {
	active, _ := a.profiles.Active()
	observer.Defaults().AttachAll(&observer.Context{
		Profile:  active,
		Manifest: a.manifests,
		Watcher:  a.watcher,
		Notifier: a.notify,
		Bus:      a.bus,
		Log:      a.log,
	})
}

func (a *appContext) activeProfilePath() string {
	return filepath.Join(a.cfg.Paths.StateDir, "active_profile")
}

// loadActiveProfile reads the profile key persisted by `profiles activate`.
func (a *appContext) loadActiveProfile() string {
	data, err := os.ReadFile(a.activeProfilePath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (a *appContext) saveActiveProfile(key string) error {
	path := a.activeProfilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	return os.WriteFile(path, []byte(key+"\n"), 0o644)
}
