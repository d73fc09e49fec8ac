package preset

import (
	"fmt"
	"sort"
)

// Well-known argument keys supplied by the orchestrator.
const (
	ArgConfigDir  = "configDir"
	ArgConfigType = "configType"
	ArgOutputDir  = "outputDir"
	ArgFramework  = "framework"
	ArgDocsMode   = "docsMode"
	ArgCache      = "cache"
	ArgPreviewURL = "previewUrl"
)

// Configuration types passed under ArgConfigType.
const (
	ConfigTypeDevelopment = "DEVELOPMENT"
	ConfigTypeProduction  = "PRODUCTION"
)

// Args is the argument bag handed to factories and handlers. The zero value
// is an empty bag. Args values are never mutated in place; With returns a copy.
type Args struct {
	values  map[string]any
	presets *Presets
}

// NewArgs creates a bag from values.
func NewArgs(values map[string]any) Args {
	return Args{}.With(values)
}

// With returns a copy with values layered over a's.
func (a Args) With(values map[string]any) Args {
	out := Args{values: make(map[string]any, len(a.values)+len(values)), presets: a.presets}
	for k, v := range a.values {
		out.values[k] = v
	}
	for k, v := range values {
		out.values[k] = v
	}
	return out
}

// Set returns a copy with key set to value.
func (a Args) Set(key string, value any) Args {
	return a.With(map[string]any{key: value})
}

// WithPresets returns a copy carrying the dispatcher handle.
func (a Args) WithPresets(p *Presets) Args {
	out := a.With(nil)
	out.presets = p
	return out
}

// Presets returns the dispatcher handle so a handler can resolve other
// extension points. It is nil during Load.
func (a Args) Presets() *Presets { return a.presets }

// Get returns the raw value for key.
func (a Args) Get(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

// String returns key as a string, or "" when absent or of another type.
func (a Args) String(key string) string {
	if v, ok := a.values[key]; ok {
		switch s := v.(type) {
		case string:
			return s
		case fmt.Stringer:
			return s.String()
		}
	}
	return ""
}

// Bool returns key as a bool, or false when absent.
func (a Args) Bool(key string) bool {
	v, _ := a.values[key].(bool)
	return v
}

// Strings returns key as a string slice. YAML sources decode lists as
// []any, which is accepted as well.
func (a Args) Strings(key string) []string {
	switch v := a.values[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Keys returns the sorted keys of the bag.
func (a Args) Keys() []string {
	out := make([]string, 0, len(a.values))
	for k := range a.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Values returns a copy of the underlying map.
func (a Args) Values() map[string]any {
	out := make(map[string]any, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Value reads key from args as T. It is the typed counterpart of Get for
// values such as the build cache that are not plain data.
func Value[T any](a Args, key string) (T, bool) {
	v, ok := a.values[key].(T)
	return v, ok
}
