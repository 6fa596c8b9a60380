package bureaus

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bher20/fxratemanager/pkg/providers"
)

// Factory builds a Bureau from its descriptor.
type Factory func(d Descriptor, env Env) (Bureau, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register registers a bureau factory for a kind.
func Register(kind string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f == nil {
		panic("bureaus: Register factory is nil")
	}
	if _, dup := registry[kind]; dup {
		panic("bureaus: Register called twice for kind " + kind)
	}
	registry[kind] = f
}

// Get returns the factory registered for kind.
func Get(kind string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[kind]
	return f, ok
}

// Kinds returns a sorted list of registered bureau kinds.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var kinds []string
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build instantiates a bureau for each descriptor, preserving order.
func Build(list []Descriptor, env Env) ([]Bureau, error) {
	out := make([]Bureau, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, d := range list {
		if d.Key == "" {
			return nil, fmt.Errorf("bureau %q: empty key", d.Name)
		}
		if seen[d.Key] {
			return nil, fmt.Errorf("bureau %q: duplicate key", d.Key)
		}
		seen[d.Key] = true
		if d.Name == "" {
			d.Name = d.Key
		}
		if d.Group == "" {
			d.Group = providers.GroupFX
		}
		if !d.Group.Valid() {
			return nil, fmt.Errorf("bureau %q: unknown group %q", d.Key, d.Group)
		}
		f, ok := Get(d.Kind)
		if !ok {
			return nil, fmt.Errorf("bureau %q: kind %q: %w", d.Key, d.Kind, providers.ErrProviderNotFound)
		}
		b, err := f(d, env)
		if err != nil {
			return nil, fmt.Errorf("bureau %q: %w", d.Key, err)
		}
		out = append(out, b)
	}
	return out, nil
}
