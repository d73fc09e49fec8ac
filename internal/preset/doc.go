// Package preset implements the layered configuration system.
//
// A Preset contributes typed handlers to named extension points. Load
// resolves an ordered list of sources (core, framework, user, override)
// through a Loader into a flattened sequence; Apply folds a seed value
// through every handler registered for an extension point in that order.
//
//	core := preset.New("core-a")
//	preset.Contribute(core, preset.Core, func(ctx context.Context, c preset.CoreConfig, _ preset.Args) (preset.CoreConfig, error) {
//		c.Builder = "esbuild"
//		return c, nil
//	})
//
//	loaded, err := preset.Load(ctx, loader, preset.LoadOptions{CorePresets: []preset.Source{{Name: "core-a"}}})
//	presets := preset.NewPresets(loaded, preset.Args{})
//	cfg, err := preset.Apply(ctx, presets, preset.Core, preset.CoreConfig{}, preset.Args{})
package preset
