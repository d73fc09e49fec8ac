package builtin

import (
	"context"
	"sort"

	"git.home.luguber.info/inful/docshell/internal/config"
	"git.home.luguber.info/inful/docshell/internal/preset"
)

// Sources converts main.yaml preset entries.
func Sources(entries []config.PresetEntry) []preset.Source {
	out := make([]preset.Source, 0, len(entries))
	for _, e := range entries {
		out = append(out, preset.Source{Name: e.Name, Options: e.Options})
	}
	return out
}

// RegisterMain registers the preset built from main.yaml. Its sub-presets are
// the configured presets and addons, so they are applied before main.yaml's
// own values.
func RegisterMain(c *preset.Catalog, cfg *config.Config) error {
	return c.Register(Main, func(_ context.Context, _ preset.Args) (*preset.Preset, error) {
		return mainPreset(cfg), nil
	})
}

func mainPreset(cfg *config.Config) *preset.Preset {
	p := preset.New(Main).With(Sources(cfg.UserPresets())...)

	if cfg.Core.Builder != "" || cfg.Core.DisableTelemetry || len(cfg.Core.Options) > 0 {
		overlayCore(p, preset.CoreConfig{
			Builder:          cfg.Core.Builder,
			DisableTelemetry: cfg.Core.DisableTelemetry,
			Options:          cfg.Core.Options,
		})
	}
	if len(cfg.Stories) > 0 {
		preset.Append(p, preset.Stories, cfg.Stories...)
	}
	if len(cfg.StaticDirs) > 0 {
		preset.Append(p, preset.StaticDirs, cfg.StaticDirs...)
	}
	if len(cfg.Env) > 0 {
		preset.Merge(p, preset.Env, cfg.Env)
	}
	if len(cfg.Refs) > 0 {
		preset.Merge(p, preset.Refs, refsFromConfig(cfg.Refs))
	}
	if cfg.Manager.Head != "" {
		head := cfg.Manager.Head
		preset.Contribute(p, preset.ManagerHead, func(_ context.Context, cur string, _ preset.Args) (string, error) {
			return joinHead(cur, head), nil
		})
	}
	return p
}

func refsFromConfig(in map[string]config.RefConfig) map[string]preset.Ref {
	ids := make([]string, 0, len(in))
	for id := range in {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make(map[string]preset.Ref, len(in))
	for _, id := range ids {
		r := in[id]
		out[id] = preset.Ref{ID: id, URL: r.URL, Title: r.Title, Version: r.Version, Type: r.Type}
	}
	return out
}

// overlayCore contributes core: non-empty fields of core replace the current
// value and options are merged key by key.
func overlayCore(p *preset.Preset, core preset.CoreConfig) {
	preset.Contribute(p, preset.Core, func(_ context.Context, c preset.CoreConfig, _ preset.Args) (preset.CoreConfig, error) {
		if core.Builder != "" {
			c.Builder = core.Builder
		}
		c.DisableTelemetry = c.DisableTelemetry || core.DisableTelemetry
		if len(core.Options) > 0 {
			opts := make(map[string]any, len(c.Options)+len(core.Options))
			for k, v := range c.Options {
				opts[k] = v
			}
			for k, v := range core.Options {
				opts[k] = v
			}
			c.Options = opts
		}
		return c, nil
	})
}

func joinHead(cur, add string) string {
	if cur == "" {
		return add
	}
	return cur + "\n" + add
}
