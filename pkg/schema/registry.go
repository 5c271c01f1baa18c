package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a named table of schemas. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*Schema),
	}
}

// Register adds schemas under their names. Registering a name twice fails.
// Either every schema is registered or, on error, none is.
func (r *Registry) Register(schemas ...*Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		if s == nil {
			return &DefinitionError{Reason: "cannot register a nil schema"}
		}
		if _, exists := r.schemas[s.name]; exists || batch[s.name] {
			return &DefinitionError{Schema: s.name, Reason: "schema is already registered"}
		}
		batch[s.name] = true
	}
	for _, s := range schemas {
		r.schemas[s.name] = s
	}
	return nil
}

// Clone returns a new Registry holding the same schemas.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := &Registry{schemas: make(map[string]*Schema, len(r.schemas))}
	for name, s := range r.schemas {
		c.schemas[name] = s
	}
	return c
}

// Get returns the schema registered under name.
func (r *Registry) Get(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// MustGet is like Get but panics when the schema is unknown.
func (r *Registry) MustGet(name string) *Schema {
	s, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("schema: unknown schema %q", name))
	}
	return s
}

// Names returns the registered schema names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered schemas.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}
