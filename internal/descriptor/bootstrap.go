package descriptor

import (
	"strings"

	"clipline/internal/adapter"
	"clipline/internal/logger"
	"clipline/internal/registry"
)

// Bootstrap clears the role registries and registers every descriptor's
// resolved constructor into the registry matching its role. Descriptors
// with roles this process does not host are logged and skipped so a newer
// plugin set keeps working against an older binary. Resolution and
// registration failures are configuration errors and abort the bootstrap.
func Bootstrap(hub *registry.Hub, table *BuilderTable, descriptors []Descriptor, log *logger.Logger) error {
	hub.ClearAll()

	for _, d := range descriptors {
		role, err := adapter.ParseRole(d.Role)
		if err != nil {
			log.WithFields(map[string]any{"plugin": d.Name, "role": d.Role}).
				Warn("skipping plugin with unknown role")
			continue
		}
		reg, ok := hub.ForRole(role)
		if !ok {
			log.WithFields(map[string]any{"plugin": d.Name, "role": d.Role}).
				Warn("skipping plugin: role not hosted in this process")
			continue
		}

		build, err := table.Resolve(d, PkgRoot)
		if err != nil {
			return err
		}
		if err := reg.RegisterFactory(strings.ToLower(d.Name), build, false); err != nil {
			return err
		}
		log.WithFields(map[string]any{"plugin": d.Name, "role": d.Role, "version": d.Version}).
			Debug("registered plugin")
	}
	return nil
}
