package staticbuild

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/cache"
	"git.home.luguber.info/inful/docshell/internal/logfields"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/preset/builtin"
	"git.home.luguber.info/inful/docshell/internal/staticfiles"
)

// Resolution is the loaded preset set and the backends it selected.
type Resolution struct {
	Backend   builder.Backend
	Manager   builder.Backend
	Framework string
	Presets   *preset.Presets
	// Options carry the presets and are passed to every builder call.
	Options builder.Options
}

// Resolve loads the preset layers for opts. A first pass without backend
// presets evaluates core.builder to pick the preview backend; the second
// pass adds the backend's core and override presets. configType is one of
// the preset.ConfigType constants.
func (o *Orchestrator) Resolve(ctx context.Context, opts Options, configType string, store *cache.Store) (*Resolution, error) {
	cfg := opts.config()
	framework := opts.Framework
	if framework == "" {
		framework = cfg.Framework
	}
	configDir, outDir, err := opts.dirs()
	if err != nil {
		return nil, err
	}

	catalog := o.catalog()
	if err := builtin.RegisterMain(catalog, cfg); err != nil {
		return nil, err
	}
	if err := o.backends.RegisterPresets(catalog); err != nil {
		return nil, err
	}
	if o.manager.Presets != nil {
		if err := o.manager.Presets(catalog); err != nil {
			return nil, err
		}
	}
	loader := builtin.Loader(catalog)

	bo := builder.Options{
		ConfigType: configType,
		ConfigDir:  configDir,
		OutputDir:  outDir,
		Framework:  framework,
		DocsMode:   opts.DocsMode,
		PreviewURL: opts.PreviewURL,
		Quiet:      opts.Quiet,
		Minify:     cfg.Build.MinifyEnabled(),
		Sourcemap:  string(cfg.Build.Sourcemap),
		Target:     cfg.Build.Target,
		Command:    cfg.Build.Command,
		Cache:      store,
	}

	var frameworkLayer []preset.Source
	if framework != "" {
		fw, err := builtin.FrameworkPreset(framework)
		if err != nil {
			return nil, err
		}
		frameworkLayer = []preset.Source{fw}
	}
	userLayer := []preset.Source{preset.S(builtin.Main)}

	name := opts.Builder
	if name == "" {
		probe, err := preset.LoadPresets(ctx, loader, preset.LoadOptions{
			CorePresets:      builtin.CorePresets(),
			FrameworkPresets: frameworkLayer,
			UserPresets:      userLayer,
			Args:             bo.Args(),
		})
		if err != nil {
			return nil, err
		}
		core, err := preset.Apply(ctx, probe, preset.Core, preset.CoreConfig{}, bo.Args().WithPresets(probe))
		if err != nil {
			return nil, err
		}
		name = core.Builder
	}
	backend, err := o.backends.Get(name)
	if err != nil {
		return nil, err
	}

	presets, err := preset.LoadPresets(ctx, loader, preset.LoadOptions{
		CorePresets:      layers(builtin.CorePresets(), o.manager.CorePresets, backend.CorePresets, []preset.Source{builtin.CachePreset()}),
		FrameworkPresets: frameworkLayer,
		UserPresets:      userLayer,
		OverridePresets:  layers(backend.OverridePresets, o.manager.OverridePresets),
		Args:             bo.Args(),
	})
	if err != nil {
		return nil, err
	}
	bo.Presets = presets

	o.logger.Info("Resolved presets",
		logfields.Builder(backend.Name),
		logfields.Count(len(presets.Names())),
		slog.String("framework", framework))

	return &Resolution{
		Backend:   backend,
		Manager:   o.manager,
		Framework: framework,
		Presets:   presets,
		Options:   bo,
	}, nil
}

// Stories returns the story files matched by the stories extension point.
func (r *Resolution) Stories(ctx context.Context) ([]string, error) {
	patterns, err := preset.Apply(ctx, r.Presets, preset.Stories, nil, r.Options.Args())
	if err != nil {
		return nil, err
	}
	return builder.ResolveStories(r.Options.ConfigDir, patterns)
}

// StaticDirs returns the static directories to serve or copy. flags replace
// the staticDirs extension point when set.
func (r *Resolution) StaticDirs(ctx context.Context, flags []string) ([]staticfiles.Dir, error) {
	if len(flags) > 0 {
		return parseStaticDirs(flags, "")
	}
	specs, err := preset.Apply(ctx, r.Presets, preset.StaticDirs, nil, r.Options.Args())
	if err != nil {
		return nil, err
	}
	return parseStaticDirs(specs, r.Options.ConfigDir)
}

// layers returns sources in order with duplicates removed, keeping the
// first occurrence.
func layers(groups ...[]preset.Source) []preset.Source {
	seen := map[string]bool{}
	var out []preset.Source
	for _, g := range groups {
		for _, s := range g {
			if seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			out = append(out, s)
		}
	}
	return out
}
