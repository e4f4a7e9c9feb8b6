package descriptor

import (
	"fmt"
	"sort"
	"sync"

	"clipline/internal/adapter"
)

// PkgRoot is the locator prefix for adapters compiled into this binary.
const PkgRoot = "clipline/internal"

// BuilderTable maps implementation locators to adapter constructors.
// Builtin plugin packages register themselves here at bootstrap; the
// table replaces dynamic class loading with an explicit factory lookup.
type BuilderTable struct {
	mu       sync.Mutex
	builders map[string]func() adapter.Adapter
}

// NewBuilderTable constructs an empty table.
func NewBuilderTable() *BuilderTable {
	return &BuilderTable{builders: make(map[string]func() adapter.Adapter)}
}

// Add binds a locator to a constructor. Later registrations win, matching
// a rescan that re-registers builtins.
func (t *BuilderTable) Add(locator string, build func() adapter.Adapter) {
	if build == nil {
		return
	}
	t.mu.Lock()
	t.builders[locator] = build
	t.mu.Unlock()
}

// Locators returns a sorted snapshot of known locators.
func (t *BuilderTable) Locators() []string {
	t.mu.Lock()
	locators := make([]string, 0, len(t.builders))
	for locator := range t.builders {
		locators = append(locators, locator)
	}
	t.mu.Unlock()
	sort.Strings(locators)
	return locators
}

// Resolve deterministically builds the descriptor's locator under pkgRoot
// and returns the registered constructor. The error names the attempted
// locator so a misdeclared descriptor is diagnosable from the message
// alone.
func (t *BuilderTable) Resolve(d Descriptor, pkgRoot string) (func() adapter.Adapter, error) {
	locator := d.Locator(pkgRoot)
	t.mu.Lock()
	build, ok := t.builders[locator]
	t.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("cannot resolve implementation %q for plugin %q: no constructor registered for that locator", locator, d.Name)
	}
	return build, nil
}
