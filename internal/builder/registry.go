package builder

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/docshell/internal/config"
	"git.home.luguber.info/inful/docshell/internal/preset"
)

// DefaultBackend is used when no preset sets core.builder.
const DefaultBackend = config.DefaultBuilder

// ErrUnknownBackend is returned for a builder name nobody registered.
var ErrUnknownBackend = errors.New("unknown builder backend")

// Backend describes a bundler backend.
type Backend struct {
	Name string
	// CorePresets are registered right after the built-in core presets.
	CorePresets []preset.Source
	// OverridePresets are registered after user presets.
	OverridePresets []preset.Source
	// Presets adds the backend's own presets to the catalog.
	Presets func(c *preset.Catalog) error
	// New constructs a preview builder.
	New func() Builder[any]
}

// Registry holds the available backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates a registry holding the given backends.
func NewRegistry(backends ...Backend) (*Registry, error) {
	r := &Registry{backends: make(map[string]Backend)}
	for _, b := range backends {
		if err := r.Register(b); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a backend. Names are case-insensitive.
func (r *Registry) Register(b Backend) error {
	name := strings.ToLower(strings.TrimSpace(b.Name))
	if name == "" {
		return fmt.Errorf("cannot register backend without a name")
	}
	if b.New == nil {
		return fmt.Errorf("backend %s has no constructor", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("backend %s already registered", name)
	}
	b.Name = name
	r.backends[name] = b
	return nil
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Backend, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultBackend
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[key]
	if !ok {
		return Backend{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownBackend, name, strings.Join(r.namesLocked(), ", "))
	}
	return b, nil
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	out := make([]string, 0, len(r.backends))
	for name := range r.backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RegisterPresets adds the presets of every backend to c.
func (r *Registry) RegisterPresets(c *preset.Catalog) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.namesLocked() {
		b := r.backends[name]
		if b.Presets == nil {
			continue
		}
		if err := b.Presets(c); err != nil {
			return fmt.Errorf("backend %s presets: %w", name, err)
		}
	}
	return nil
}
