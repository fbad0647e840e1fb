package checkpoint

import (
	"fmt"
	"slices"
	"sync"
)

// Factory builds a Store from configuration.
type Factory func(cfg Config) (Store, error)

var (
	factories = map[string]Factory{
		"memory": func(Config) (Store, error) { return NewMemoryStore(), nil },
		"sqlite": func(cfg Config) (Store, error) { return OpenSQLite(cfg.Path) },
		"file":   func(cfg Config) (Store, error) { return NewFileStore(cfg.Path), nil },
	}
	mutex sync.RWMutex
)

// Open resolves cfg.Store in the registry and builds the store.
//
// Example:
//
//	cfg := checkpoint.DefaultConfig()
//	cfg.Store = "sqlite"
//	cfg.Path = "chatgraph.db"
//	store, err := checkpoint.Open(cfg)
func Open(cfg Config) (Store, error) {
	mutex.RLock()
	factory, exists := factories[cfg.Store]
	mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown checkpoint store: %s", cfg.Store)
	}
	return factory(cfg)
}

// Register adds or replaces a named store factory.
func Register(name string, factory Factory) {
	mutex.Lock()
	defer mutex.Unlock()

	factories[name] = factory
}

// Names returns the registered store names in sorted order.
func Names() []string {
	mutex.RLock()
	defer mutex.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
