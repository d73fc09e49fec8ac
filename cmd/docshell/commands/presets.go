package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docshell/internal/foundation/errors"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/staticbuild"
)

// PresetsCmd implements the 'presets' command.
type PresetsCmd struct {
	SelectionFlags

	Extension string `arg:"" optional:"" help:"Extension point to resolve and print (${extensions})"`
	Dev       bool   `help:"Resolve with the development configuration type"`
}

// extensionPrinters resolves an extension point to a YAML-encodable value.
var extensionPrinters = map[string]func(ctx context.Context, p *preset.Presets, args preset.Args) (any, error){
	preset.Core.Name(): func(ctx context.Context, p *preset.Presets, args preset.Args) (any, error) {
		return preset.Apply(ctx, p, preset.Core, preset.CoreConfig{}, args)
	},
	preset.Stories.Name():        listPrinter(preset.Stories),
	preset.Entries.Name():        listPrinter(preset.Entries),
	preset.ManagerEntries.Name(): listPrinter(preset.ManagerEntries),
	preset.StaticDirs.Name():     listPrinter(preset.StaticDirs),
	preset.Refs.Name(): func(ctx context.Context, p *preset.Presets, args preset.Args) (any, error) {
		return preset.Apply(ctx, p, preset.Refs, map[string]preset.Ref{}, args)
	},
	preset.Env.Name(): func(ctx context.Context, p *preset.Presets, args preset.Args) (any, error) {
		return preset.Apply(ctx, p, preset.Env, map[string]string{}, args)
	},
	preset.Transpile.Name(): func(ctx context.Context, p *preset.Presets, args preset.Args) (any, error) {
		return preset.Apply(ctx, p, preset.Transpile, preset.TranspileOptions{}, args)
	},
	preset.ManagerHead.Name(): stringPrinter(preset.ManagerHead),
	preset.PreviewHead.Name(): stringPrinter(preset.PreviewHead),
}

func listPrinter(ep preset.ExtensionPoint[[]string]) func(context.Context, *preset.Presets, preset.Args) (any, error) {
	return func(ctx context.Context, p *preset.Presets, args preset.Args) (any, error) {
		return preset.Apply(ctx, p, ep, nil, args)
	}
}

func stringPrinter(ep preset.ExtensionPoint[string]) func(context.Context, *preset.Presets, preset.Args) (any, error) {
	return func(ctx context.Context, p *preset.Presets, args preset.Args) (any, error) {
		return preset.Apply(ctx, p, ep, "", args)
	}
}

// extensionNames lists the printable extension points.
func extensionNames() string {
	names := make([]string, 0, len(extensionPrinters))
	for name := range extensionPrinters {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func (p *PresetsCmd) Run(_ *Global, root *CLI) error {
	printer, ok := extensionPrinters[p.Extension]
	if p.Extension != "" && !ok {
		return errors.ValidationError(fmt.Sprintf("unknown extension point %q", p.Extension)).
			WithContext("known", extensionNames()).
			Build()
	}
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	orch, err := newOrchestrator()
	if err != nil {
		return err
	}
	configType := preset.ConfigTypeProduction
	if p.Dev {
		configType = preset.ConfigTypeDevelopment
	}
	ctx := context.Background()
	res, err := orch.Resolve(ctx, staticbuild.Options{
		Config:    cfg,
		ConfigDir: root.ConfigDir,
		Builder:   p.Builder,
		Framework: p.Framework,
		Quiet:     true,
	}, configType, nil)
	if err != nil {
		return err
	}

	w := root.out()
	if p.Extension == "" {
		printf(w, "builder: %s\n", res.Backend.Name)
		for i, name := range res.Presets.Names() {
			printf(w, "%3d  %s\n", i+1, name)
		}
		return nil
	}

	value, err := printer(ctx, res.Presets, res.Options.Args())
	if err != nil {
		return err
	}
	printf(w, "# contributors: %s\n", strings.Join(res.Presets.Contributors(p.Extension), ", "))
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return err
	}
	return enc.Close()
}
