package ai

import (
	"fmt"
	"strings"
)

// Registry holds the generators whose credentials are configured. Built once
// at process start and injected into the transform pipeline; never mutated
// afterwards.
type Registry struct {
	generators  map[string]Generator
	names       []string
	defaultName string
}

// NewRegistry builds a registry from the available generators, preserving the
// given order for listing. defaultName falls back to the first generator when
// empty or not registered.
func NewRegistry(defaultName string, generators ...Generator) (*Registry, error) {
	r := &Registry{generators: make(map[string]Generator, len(generators))}
	for _, gen := range generators {
		name := strings.ToLower(strings.TrimSpace(gen.Name()))
		if name == "" {
			return nil, fmt.Errorf("generator with empty name")
		}
		if _, exists := r.generators[name]; exists {
			return nil, fmt.Errorf("duplicate generator: %s", name)
		}
		r.generators[name] = gen
		r.names = append(r.names, name)
	}
	defaultName = strings.ToLower(strings.TrimSpace(defaultName))
	if _, ok := r.generators[defaultName]; !ok {
		defaultName = ""
		if len(r.names) > 0 {
			defaultName = r.names[0]
		}
	}
	r.defaultName = defaultName
	return r, nil
}

// Get returns the generator registered under name (case-insensitive).
func (r *Registry) Get(name string) (Generator, bool) {
	gen, ok := r.generators[strings.ToLower(strings.TrimSpace(name))]
	return gen, ok
}

// Names lists registered provider names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// DefaultName returns the provider used when a request omits api_provider.
func (r *Registry) DefaultName() string { return r.defaultName }

// Empty reports whether no provider credential was configured at all.
func (r *Registry) Empty() bool { return len(r.generators) == 0 }
