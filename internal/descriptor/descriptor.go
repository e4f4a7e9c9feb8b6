// Package descriptor discovers adapter plugins through sidecar plugin.yaml
// files and resolves their implementation locators against a compiled-in
// constructor table. Discovery and resolution are side-effect free; a
// separate bootstrap step populates the role registries.
package descriptor

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	cliperrors "clipline/pkg/errors"
)

// Default values applied to optional descriptor fields.
const (
	DefaultModule      = "adapter"
	DefaultClass       = "Adapter"
	DefaultVersion     = "0.0.0"
	DefaultRequiresAPI = ">=1.0,<2.0"
)

// Descriptor is the declarative record describing one plugin, read once at
// bootstrap and immutable afterward.
type Descriptor struct {
	Name         string   `yaml:"name"`
	Role         string   `yaml:"role"`
	Module       string   `yaml:"module"`
	Class        string   `yaml:"class"`
	Version      string   `yaml:"version"`
	RequiresAPI  string   `yaml:"requires_api"`
	Capabilities []string `yaml:"capabilities"`

	// Source is a provenance tag (local, builtin, entrypoint) assigned by
	// the discovery path, not the descriptor file.
	Source string `yaml:"-"`

	// Path records where the descriptor was read from, for diagnostics.
	Path string `yaml:"-"`
}

// Parse decodes a descriptor document and applies defaults. Malformed
// documents are configuration errors and fail immediately.
func Parse(data []byte, path string) (Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, cliperrors.NewParseError(path, 0, err)
	}
	d.Path = path
	d.applyDefaults()
	if err := d.validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

func (d *Descriptor) applyDefaults() {
	if d.Module == "" {
		d.Module = DefaultModule
	}
	if d.Class == "" {
		d.Class = DefaultClass
	}
	if d.Version == "" {
		d.Version = DefaultVersion
	}
	if d.RequiresAPI == "" {
		d.RequiresAPI = DefaultRequiresAPI
	}
	if d.Source == "" {
		d.Source = "local"
	}
}

func (d *Descriptor) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return cliperrors.NewValidationError("name", "descriptor requires a name ("+d.Path+")", nil)
	}
	if strings.TrimSpace(d.Role) == "" {
		return cliperrors.NewValidationError("role", "descriptor '"+d.Name+"' requires a role", nil)
	}
	return nil
}

// Locator builds the fully-qualified implementation locator for this
// descriptor under pkgRoot, mirroring the plugin package layout:
// <pkgRoot>/plugins/<name>/<module>.<Class>. Dashes in the plugin name
// normalize to underscores.
func (d Descriptor) Locator(pkgRoot string) string {
	name := strings.ReplaceAll(d.Name, "-", "_")
	return fmt.Sprintf("%s/plugins/%s/%s.%s", pkgRoot, name, d.Module, d.Class)
}
