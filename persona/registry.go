package persona

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a thread-safe named persona store. Lookups that miss can
// either fail (Lookup) or degrade to a generic fallback persona (Get), so
// a convene request naming an unknown member never aborts a session.
type Registry struct {
	mu       sync.RWMutex
	personas map[string]Persona
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		personas: make(map[string]Persona),
	}
}

// Register adds a persona to the registry, keyed by its Name.
func (r *Registry) Register(p Persona) error {
	if p.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.personas[p.Name]; exists {
		return fmt.Errorf("%w: %s", ErrExists, p.Name)
	}

	r.personas[p.Name] = p
	return nil
}

// Replace updates an existing persona definition.
func (r *Registry) Replace(p Persona) error {
	if p.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.personas[p.Name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, p.Name)
	}

	r.personas[p.Name] = p
	return nil
}

// Unregister removes a persona from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.personas[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	delete(r.personas, name)
	return nil
}

// Lookup retrieves a persona by name, failing with ErrNotFound on a miss.
func (r *Registry) Lookup(name string) (Persona, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.personas[name]
	if !exists {
		return Persona{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

// Get retrieves a persona by name, falling back to Generic(name) on a
// miss. Use Lookup when a miss should be surfaced instead.
func (r *Registry) Get(name string) Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, exists := r.personas[name]; exists {
		return p
	}
	return Generic(name)
}

// List returns all registered personas, sorted by name.
func (r *Registry) List() []Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Persona, 0, len(r.personas))
	for _, p := range r.personas {
		all = append(all, p)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})

	return all
}
