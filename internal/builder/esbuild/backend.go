package esbuild

import (
	"context"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/preset"
)

// Name is the builder name selecting this backend.
const Name = "esbuild"

// Preset names contributed by the backend.
const (
	CorePreset     = "esbuild-core"
	OverridePreset = "esbuild-override"
)

var resolveExtensions = []string{".tsx", ".ts", ".jsx", ".js", ".mjs", ".css", ".json", ".md", ".mdx"}

// Backend describes the esbuild backend.
func Backend() builder.Backend {
	return builder.Backend{
		Name:            Name,
		CorePresets:     []preset.Source{preset.S(CorePreset)},
		OverridePresets: []preset.Source{preset.S(OverridePreset)},
		Presets:         RegisterPresets,
		New:             func() builder.Builder[any] { return builder.Erase[Config](NewPreview()) },
	}
}

// Manager returns the manager builder. The manager is always compiled with
// esbuild.
func Manager() builder.Builder[any] {
	return builder.Erase[Config](NewManager())
}

// ManagerBackend describes the manager compiler. Its core and override
// presets are layered for every preview backend.
func ManagerBackend() builder.Backend {
	b := Backend()
	b.New = Manager
	return b
}

// RegisterPresets adds the esbuild core and override presets to c. The
// manager relies on them too, so they are registered for every backend.
func RegisterPresets(c *preset.Catalog) error {
	if c.Has(CorePreset) {
		return nil
	}
	core := preset.New(CorePreset)
	for _, point := range []preset.ExtensionPoint[api.BuildOptions]{PreviewPoint, ManagerPoint} {
		preset.Contribute(core, point, func(_ context.Context, o api.BuildOptions, _ preset.Args) (api.BuildOptions, error) {
			o.ResolveExtensions = append([]string{}, resolveExtensions...)
			o.MainFields = []string{"browser", "module", "main"}
			return o, nil
		})
	}

	override := preset.New(OverridePreset)
	for _, point := range []preset.ExtensionPoint[api.BuildOptions]{PreviewPoint, ManagerPoint} {
		preset.Contribute(override, point, func(_ context.Context, o api.BuildOptions, _ preset.Args) (api.BuildOptions, error) {
			o.Bundle = true
			o.Format = api.FormatESModule
			o.EntryNames = "[dir]/[name]"
			return o, nil
		})
	}

	if err := c.RegisterPreset(core); err != nil {
		return err
	}
	return c.RegisterPreset(override)
}
