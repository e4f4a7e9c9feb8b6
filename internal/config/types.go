package config

// Config is the application configuration loaded from clipline.yaml. It
// wires paths and ambient settings; adapter behavior lives in profiles.
type Config struct {
	Version string        `yaml:"version" validate:"required,semver"`
	Logging LoggingConfig `yaml:"logging"`
	Paths   PathsConfig   `yaml:"paths"`
	Secrets SecretsConfig `yaml:"secrets"`

	// PreflightTimeoutSecs caps each preflight check. Zero means the
	// engine default.
	PreflightTimeoutSecs int `yaml:"preflight_timeout_secs" validate:"gte=0,lte=300"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,log_level"`
	Human bool   `yaml:"human"`
}

type PathsConfig struct {
	// PluginsDir, when set, is scanned for plugin.yaml descriptors in
	// addition to the compiled-in set.
	PluginsDir   string `yaml:"plugins_dir"`
	Profiles     string `yaml:"profiles" validate:"required"`
	ManifestRoot string `yaml:"manifest_root" validate:"required"`
	StateDir     string `yaml:"state_dir" validate:"required"`
}

type SecretsConfig struct {
	// EnvPrefix selects which environment variables become adapter
	// secrets. CLIPLINE_WEBHOOK_URL with the default prefix surfaces
	// as the secret "webhook_url".
	EnvPrefix string `yaml:"env_prefix" validate:"omitempty,env_prefix"`
}
