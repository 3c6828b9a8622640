package observability

import (
	"fmt"
	"log/slog"
	"sync"
)

var (
	mu        sync.RWMutex
	observers = map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(slog.Default()),
	}
)

// GetObserver returns a registered observer by name. Config files and CLI
// flags reference observers by these names; "noop" and "slog" (the default
// logger) are pre-registered.
func GetObserver(name string) (Observer, error) {
	mu.RLock()
	defer mu.RUnlock()

	obs, exists := observers[name]
	if !exists {
		return nil, fmt.Errorf("unknown observer: %s", name)
	}
	return obs, nil
}

// RegisterObserver adds or replaces a named observer in the global registry.
func RegisterObserver(name string, observer Observer) {
	mu.Lock()
	defer mu.Unlock()

	observers[name] = observer
}
