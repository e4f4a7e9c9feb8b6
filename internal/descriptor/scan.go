package descriptor

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DescriptorFileName is the sidecar file that marks a plugin directory.
const DescriptorFileName = "plugin.yaml"

// Scan recursively walks root; every directory containing a plugin.yaml
// yields one descriptor. Results are sorted by name for deterministic
// bootstrap order. A missing root yields no descriptors rather than an
// error so a fresh install without a plugins directory still boots.
func Scan(root string) ([]Descriptor, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var descriptors []Descriptor
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || entry.Name() != DescriptorFileName {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		d, parseErr := Parse(data, path)
		if parseErr != nil {
			return parseErr
		}
		descriptors = append(descriptors, d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})
	return descriptors, nil
}
