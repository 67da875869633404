package store

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultDriver is used when no driver is configured.
const DefaultDriver = "sqlite"

// Constructor opens a Store for one backend.
// Backends register themselves in their init functions.
type Constructor func(opts Options) (Store, error)

var (
	registry      = make(map[string]Constructor)
	registryMutex sync.RWMutex
)

// Register registers a backend constructor under a driver name.
// Called from init functions; registering the same name twice is a bug.
func Register(driver string, constructor Constructor) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if constructor == nil {
		panic(fmt.Sprintf("store: Register constructor is nil for driver %s", driver))
	}
	if _, exists := registry[driver]; exists {
		panic(fmt.Sprintf("store: Register called twice for driver %s", driver))
	}
	registry[driver] = constructor
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens a store using the named driver. An empty driver selects
// DefaultDriver.
func Open(driver string, opts Options) (Store, error) {
	if driver == "" {
		driver = DefaultDriver
	}

	registryMutex.RLock()
	constructor := registry[driver]
	registryMutex.RUnlock()

	if constructor == nil {
		return nil, fmt.Errorf("unknown storage driver %q (available: %v)", driver, Drivers())
	}

	st, err := constructor(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}
	return st, nil
}
