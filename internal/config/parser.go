// Package config loads and validates the clipline.yaml application
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	cliperrors "clipline/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "clipline.yaml"

// Default returns the configuration used when no clipline.yaml exists.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Logging: LoggingConfig{Level: "info", Human: true},
		Paths: PathsConfig{
			Profiles:     "profiles.yaml",
			ManifestRoot: filepath.Join(".clipline", "manifests"),
			StateDir:     filepath.Join(".clipline", "state"),
		},
		Secrets: SecretsConfig{EnvPrefix: "CLIPLINE_"},
	}
}

// Load reads, parses, and validates the configuration at path. A missing
// file at the default path is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, cliperrors.NewParseError(path, 0, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, cliperrors.NewParseError(path, extractLine(err), err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnvSecrets collects environment variables carrying the configured
// prefix into a secrets map, keys lowercased with the prefix stripped.
func (c *Config) EnvSecrets(environ []string) map[string]any {
	prefix := c.Secrets.EnvPrefix
	if prefix == "" {
		return nil
	}
	secrets := make(map[string]any)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, prefix))
		if name == "" {
			continue
		}
		secrets[name] = value
	}
	return secrets
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}

	return line
}
