package builder

import (
	"git.home.luguber.info/inful/docshell/internal/cache"
	"git.home.luguber.info/inful/docshell/internal/preset"
)

// Options carries what a backend needs to resolve and compile a target.
type Options struct {
	ConfigType string // preset.ConfigTypeProduction or preset.ConfigTypeDevelopment
	ConfigDir  string
	OutputDir  string
	Framework  string
	DocsMode   bool
	PreviewURL string
	Quiet      bool

	Minify    bool
	Sourcemap string
	Target    []string
	// Command is the external bundler executable used by command backends.
	Command string

	Cache   *cache.Store
	Presets *preset.Presets
}

// Production reports whether the options describe a static build.
func (o Options) Production() bool {
	return o.ConfigType != preset.ConfigTypeDevelopment
}

// Args returns the preset argument bag for o.
func (o Options) Args() preset.Args {
	values := map[string]any{
		preset.ArgConfigDir:  o.ConfigDir,
		preset.ArgConfigType: o.ConfigType,
		preset.ArgOutputDir:  o.OutputDir,
		preset.ArgFramework:  o.Framework,
		preset.ArgDocsMode:   o.DocsMode,
	}
	if o.PreviewURL != "" {
		values[preset.ArgPreviewURL] = o.PreviewURL
	}
	if o.Cache != nil {
		values[preset.ArgCache] = o.Cache
	}
	return preset.NewArgs(values).WithPresets(o.Presets)
}
