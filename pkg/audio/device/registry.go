// ABOUTME: Audio backend registry
// ABOUTME: Backends register a factory from init and are opened by name
package device

import (
	"fmt"
	"sort"
	"sync"

	"github.com/decred/slog"
)

// Factory creates a platform for a backend
type Factory func(log slog.Logger) (Platform, error)

var (
	registryMu sync.Mutex
	factories  = map[string]Factory{}

	// preference order used when no backend is named
	defaultOrder = []string{"malgo", "oto", "null"}
)

// Register makes a backend available under name. Registering the same name
// twice panics.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := factories[name]; ok {
		panic(fmt.Sprintf("audio backend %q registered twice", name))
	}
	factories[name] = f
}

// Backends lists the registered backend names
func Backends() []string {
	registryMu.Lock()
	defer registryMu.Unlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the named platform. An empty name picks the first registered
// backend in preference order.
func Open(name string, log slog.Logger) (Platform, error) {
	if log == nil {
		log = slog.Disabled
	}

	registryMu.Lock()
	if name == "" {
		for _, n := range defaultOrder {
			if _, ok := factories[n]; ok {
				name = n
				break
			}
		}
	}
	f, ok := factories[name]
	registryMu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown audio backend %q (available: %v)", name, Backends())
	}

	p, err := f(log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s audio backend: %w", name, err)
	}
	return p, nil
}
