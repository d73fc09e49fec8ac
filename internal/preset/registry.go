package preset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/docshell/internal/logfields"
)

// LoadOptions lists preset sources by layer. Layers are registered in the
// order core, framework, user, override.
type LoadOptions struct {
	CorePresets      []Source
	FrameworkPresets []Source
	UserPresets      []Source
	OverridePresets  []Source
	Args             Args
}

// Sources returns every source in registration order.
func (o LoadOptions) Sources() []Source {
	out := make([]Source, 0, len(o.CorePresets)+len(o.FrameworkPresets)+len(o.UserPresets)+len(o.OverridePresets))
	out = append(out, o.CorePresets...)
	out = append(out, o.FrameworkPresets...)
	out = append(out, o.UserPresets...)
	return append(out, o.OverridePresets...)
}

// NotFoundError is returned when a source cannot be resolved by the loader.
type NotFoundError struct {
	Name string
	// Chain is the path of declaring presets leading to Name.
	Chain []string
}

func (e *NotFoundError) Error() string {
	if len(e.Chain) == 0 {
		return fmt.Sprintf("preset %q not found", e.Name)
	}
	return fmt.Sprintf("preset %q not found (required by %s)", e.Name, strings.Join(e.Chain, " -> "))
}

// Is matches ErrUnresolved.
func (e *NotFoundError) Is(target error) bool { return target == ErrUnresolved }

// CycleError is returned when sub-preset declarations form a cycle.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("preset cycle: %s", strings.Join(e.Chain, " -> "))
}

// Load resolves every source through loader and flattens sub-presets
// depth-first. Sub-presets precede their declarer so that the declarer can
// override what it pulled in. Load fails as a whole; no partial set is
// returned.
func Load(ctx context.Context, loader Loader, opts LoadOptions) ([]LoadedPreset, error) {
	if loader == nil {
		return nil, fmt.Errorf("preset loader is nil")
	}
	l := &flattener{loader: loader, args: opts.Args, active: make(map[string]bool)}
	for _, src := range opts.Sources() {
		if err := l.load(ctx, src); err != nil {
			return nil, err
		}
	}
	slog.Debug("Presets loaded", logfields.Count(len(l.out)), slog.Any("presets", names(l.out)))
	return l.out, nil
}

type flattener struct {
	loader Loader
	args   Args
	active map[string]bool
	stack  []string
	out    []LoadedPreset
}

func (l *flattener) load(ctx context.Context, src Source) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := strings.TrimSpace(src.Name)
	if name == "" {
		return fmt.Errorf("preset source without a name")
	}
	if l.active[name] {
		chain := append(append([]string{}, l.stack...), name)
		return &CycleError{Chain: chain}
	}

	p, err := l.loader.Resolve(ctx, src, l.args.With(src.Options))
	if err != nil {
		if errors.Is(err, ErrUnresolved) {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				return err
			}
			return &NotFoundError{Name: name, Chain: append([]string{}, l.stack...)}
		}
		return fmt.Errorf("load preset %q: %w", name, err)
	}
	if p == nil {
		return fmt.Errorf("load preset %q: loader returned nil preset", name)
	}

	l.active[name] = true
	l.stack = append(l.stack, name)
	for _, sub := range p.SubPresets() {
		if err := l.load(ctx, sub); err != nil {
			return err
		}
	}
	l.stack = l.stack[:len(l.stack)-1]
	delete(l.active, name)

	l.out = append(l.out, LoadedPreset{Name: name, Preset: p, Options: copyMap(src.Options)})
	slog.Debug("Preset resolved", logfields.Preset(name), slog.Any("extensions", p.Extensions()))
	return nil
}

func names(loaded []LoadedPreset) []string {
	out := make([]string, len(loaded))
	for i, lp := range loaded {
		out[i] = lp.Name
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
