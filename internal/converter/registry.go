package converter

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownPipeline is returned when a definition name is not registered.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// Registry holds pipeline definitions by name.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates a registry preloaded with the built-in definitions.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	for _, d := range []Definition{Hotels(), Bank()} {
		r.defs[d.Name] = d
	}
	return r
}

// Register validates and adds a definition, replacing one with the same name.
func (r *Registry) Register(d Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[d.Name] = d
	return nil
}

// RegisterFile loads definitions from a YAML file into the registry.
func (r *Registry) RegisterFile(path string) error {
	defs, err := LoadDefinitions(path)
	if err != nil {
		return err
	}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownPipeline, name)
	}
	return d, nil
}

// SetSource overrides the default source path of a registered definition.
func (r *Registry) SetSource(name, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.defs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPipeline, name)
	}
	d.Source = path
	r.defs[name] = d
	return nil
}

// All returns the definitions sorted by name.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
