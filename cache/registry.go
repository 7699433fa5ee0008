package cache

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// DefaultName is the name under which the default backend is registered.
const DefaultName = "default"

// ErrUnknownBackend is returned when a backend name has not been registered.
var ErrUnknownBackend = errors.New("cache: unknown backend")

// Registry maps backend names to Cache implementations. It is built once at
// startup and handed to whatever needs to select a backend by name.
type Registry struct {
	backends    map[string]Cache
	defaultName string
}

// NewRegistry returns a Registry over backends. defaultName selects the
// backend used for an empty name and must be present in backends.
func NewRegistry(defaultName string, backends map[string]Cache) (*Registry, error) {
	if defaultName == "" {
		defaultName = DefaultName
	}
	if _, ok := backends[defaultName]; !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "default %q", defaultName)
	}
	m := make(map[string]Cache, len(backends))
	for name, c := range backends {
		if c == nil {
			return nil, errors.Newf("cache: backend %q is nil", name)
		}
		m[name] = c
	}
	return &Registry{backends: m, defaultName: defaultName}, nil
}

// Single returns a Registry whose only backend, c, is the default.
func Single(c Cache) *Registry {
	return &Registry{backends: map[string]Cache{DefaultName: c}, defaultName: DefaultName}
}

// Get returns the backend registered under name, or the default backend
// when name is empty.
func (r *Registry) Get(name string) (Cache, error) {
	if name == "" {
		name = r.defaultName
	}
	c, ok := r.backends[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "%q", name)
	}
	return c, nil
}

// Default returns the name of the default backend.
func (r *Registry) Default() string {
	return r.defaultName
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every registered backend and returns the first error.
func (r *Registry) Close() error {
	var firstErr error
	for _, name := range r.Names() {
		if err := r.backends[name].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
