package preset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Source identifies a preset and the options it is invoked with.
type Source struct {
	Name    string
	Options map[string]any
}

// S is shorthand for a Source without options.
func S(name string) Source { return Source{Name: name} }

// LoadedPreset is the resolved, invoked form of a Source.
type LoadedPreset struct {
	Name    string
	Preset  *Preset
	Options map[string]any
}

// Factory builds a preset for the given arguments. Options of the source
// are already merged into args.
type Factory func(ctx context.Context, args Args) (*Preset, error)

// ErrUnresolved is returned by a Loader that does not know a source.
var ErrUnresolved = errors.New("preset not resolvable")

// Loader resolves a source into a preset.
type Loader interface {
	Resolve(ctx context.Context, src Source, args Args) (*Preset, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, src Source, args Args) (*Preset, error)

// Resolve implements Loader.
func (f LoaderFunc) Resolve(ctx context.Context, src Source, args Args) (*Preset, error) {
	return f(ctx, src, args)
}

// Catalog resolves sources against in-process named factories.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register adds a factory. Returns an error if the name is already taken.
func (c *Catalog) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("cannot register preset without a name")
	}
	if f == nil {
		return fmt.Errorf("cannot register nil factory for preset %s", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.factories[name]; exists {
		return fmt.Errorf("preset %s already registered", name)
	}
	c.factories[name] = f
	return nil
}

// MustRegister is Register for package initialization.
func (c *Catalog) MustRegister(name string, f Factory) {
	if err := c.Register(name, f); err != nil {
		panic(err)
	}
}

// RegisterPreset registers a fixed preset that ignores its arguments.
func (c *Catalog) RegisterPreset(p *Preset) error {
	return c.Register(p.Name(), func(context.Context, Args) (*Preset, error) { return p, nil })
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[name]
	return ok
}

// Names returns the registered preset names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.factories))
	for name := range c.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve implements Loader.
func (c *Catalog) Resolve(ctx context.Context, src Source, args Args) (*Preset, error) {
	c.mu.RLock()
	f, ok := c.factories[src.Name]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrUnresolved
	}
	return f(ctx, args)
}

// ChainLoader tries each loader in order until one resolves the source.
type ChainLoader []Loader

// Resolve implements Loader.
func (c ChainLoader) Resolve(ctx context.Context, src Source, args Args) (*Preset, error) {
	for _, l := range c {
		p, err := l.Resolve(ctx, src, args)
		if errors.Is(err, ErrUnresolved) {
			continue
		}
		return p, err
	}
	return nil, ErrUnresolved
}
