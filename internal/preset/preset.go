package preset

import (
	"context"
	"sort"
)

// Handler transforms the current value of an extension point.
type Handler[T any] func(ctx context.Context, value T, args Args) (T, error)

// Preset is a composable configuration contributor. It is built once by a
// Factory and treated as immutable after Load returns.
type Preset struct {
	name     string
	presets  []Source
	handlers map[string][]any
}

// New creates an empty preset.
func New(name string) *Preset {
	return &Preset{name: name, handlers: make(map[string][]any)}
}

// Name returns the preset name.
func (p *Preset) Name() string { return p.name }

// With declares sub-presets. They are loaded before p and in the given order.
func (p *Preset) With(sources ...Source) *Preset {
	p.presets = append(p.presets, sources...)
	return p
}

// SubPresets returns the declared sub-presets.
func (p *Preset) SubPresets() []Source {
	out := make([]Source, len(p.presets))
	copy(out, p.presets)
	return out
}

// Handles reports whether p contributes to the named extension point.
func (p *Preset) Handles(name string) bool {
	return len(p.handlers[name]) > 0
}

// Extensions lists the extension points p contributes to.
func (p *Preset) Extensions() []string {
	out := make([]string, 0, len(p.handlers))
	for name := range p.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Contribute registers h for ep. Registering several handlers for the same
// point on one preset chains them in registration order.
func Contribute[T any](p *Preset, ep ExtensionPoint[T], h Handler[T]) *Preset {
	p.handlers[ep.name] = append(p.handlers[ep.name], h)
	return p
}

// Set registers a handler replacing the current value with v.
func Set[T any](p *Preset, ep ExtensionPoint[T], v T) *Preset {
	return Contribute(p, ep, func(context.Context, T, Args) (T, error) { return v, nil })
}

// Append registers a handler appending items to a slice extension point.
func Append[T any](p *Preset, ep ExtensionPoint[[]T], items ...T) *Preset {
	return Contribute(p, ep, func(_ context.Context, cur []T, _ Args) ([]T, error) {
		out := make([]T, 0, len(cur)+len(items))
		out = append(out, cur...)
		return append(out, items...), nil
	})
}

// Merge registers a handler writing entries into a map extension point.
// Keys already present are overwritten.
func Merge[K comparable, V any](p *Preset, ep ExtensionPoint[map[K]V], entries map[K]V) *Preset {
	return Contribute(p, ep, func(_ context.Context, cur map[K]V, _ Args) (map[K]V, error) {
		out := make(map[K]V, len(cur)+len(entries))
		for k, v := range cur {
			out[k] = v
		}
		for k, v := range entries {
			out[k] = v
		}
		return out, nil
	})
}
