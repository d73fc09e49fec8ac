package preset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docshell/internal/logfields"
)

// ErrTypeMismatch reports a handler registered for an extension point with a
// different payload type than the one it is applied with.
var ErrTypeMismatch = errors.New("extension point payload type mismatch")

// ApplyError wraps a failing handler with the preset and extension names.
type ApplyError struct {
	Preset    string
	Extension string
	Err       error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("preset %q failed on %q: %v", e.Preset, e.Extension, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Presets is the dispatcher handle over a flattened preset sequence.
type Presets struct {
	loaded []LoadedPreset
	base   Args
}

// NewPresets creates a dispatcher. base is merged under the per-call args
// of every Apply.
func NewPresets(loaded []LoadedPreset, base Args) *Presets {
	cp := make([]LoadedPreset, len(loaded))
	copy(cp, loaded)
	return &Presets{loaded: cp, base: base}
}

// LoadPresets is Load followed by NewPresets with opts.Args as base.
func LoadPresets(ctx context.Context, loader Loader, opts LoadOptions) (*Presets, error) {
	loaded, err := Load(ctx, loader, opts)
	if err != nil {
		return nil, err
	}
	return NewPresets(loaded, opts.Args), nil
}

// Loaded returns the flattened sequence.
func (p *Presets) Loaded() []LoadedPreset {
	if p == nil {
		return nil
	}
	out := make([]LoadedPreset, len(p.loaded))
	copy(out, p.loaded)
	return out
}

// Names returns preset names in application order.
func (p *Presets) Names() []string {
	if p == nil {
		return nil
	}
	return names(p.loaded)
}

// Args returns the base arguments with the dispatcher handle attached.
func (p *Presets) Args() Args {
	if p == nil {
		return Args{}
	}
	return p.base.WithPresets(p)
}

// Contributors lists the presets handling the named extension point.
func (p *Presets) Contributors(extension string) []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, lp := range p.loaded {
		if lp.Preset.Handles(extension) {
			out = append(out, lp.Name)
		}
	}
	return out
}

// Apply folds seed through every handler registered for ep, in registration
// order. Presets without a handler leave the value unchanged, so a point
// nobody contributes to returns seed. The first failing handler aborts the
// fold.
func Apply[T any](ctx context.Context, p *Presets, ep ExtensionPoint[T], seed T, args Args) (T, error) {
	if p == nil {
		return seed, nil
	}
	value := seed
	callArgs := p.base.With(args.values).WithPresets(p)
	for _, lp := range p.loaded {
		hs := lp.Preset.handlers[ep.name]
		if len(hs) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return value, err
		}
		handlerArgs := callArgs.With(lp.Options)
		for _, raw := range hs {
			h, ok := raw.(Handler[T])
			if !ok {
				return value, &ApplyError{
					Preset:    lp.Name,
					Extension: ep.name,
					Err:       fmt.Errorf("%w: handler is %T, want %T", ErrTypeMismatch, raw, h),
				}
			}
			next, err := h(ctx, value, handlerArgs)
			if err != nil {
				return value, &ApplyError{Preset: lp.Name, Extension: ep.name, Err: err}
			}
			value = next
		}
		slog.Debug("Extension applied", logfields.Preset(lp.Name), logfields.Extension(ep.name))
	}
	return value, nil
}
