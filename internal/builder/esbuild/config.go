package esbuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/preset/builtin"
)

// Extension points receiving the native esbuild options.
var (
	PreviewPoint = preset.Point[api.BuildOptions]("esbuild")
	ManagerPoint = preset.Point[api.BuildOptions]("managerEsbuild")
)

// Config is the resolved configuration of one target. Options holds no
// plugins; they are attached when compiling.
type Config struct {
	Target  string
	Options api.BuildOptions
	Entries []string
	Stories []string
	BaseDir string
}

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"es2024": api.ES2024,
	"esnext": api.ESNext,
}

var loaders = map[string]api.Loader{
	"js":      api.LoaderJS,
	"jsx":     api.LoaderJSX,
	"ts":      api.LoaderTS,
	"tsx":     api.LoaderTSX,
	"css":     api.LoaderCSS,
	"json":    api.LoaderJSON,
	"text":    api.LoaderText,
	"file":    api.LoaderFile,
	"dataurl": api.LoaderDataURL,
	"copy":    api.LoaderCopy,
	"empty":   api.LoaderEmpty,
}

var sourcemaps = map[string]api.SourceMap{
	"":         api.SourceMapNone,
	"none":     api.SourceMapNone,
	"inline":   api.SourceMapInline,
	"linked":   api.SourceMapLinked,
	"external": api.SourceMapExternal,
}

var jsxModes = map[string]api.JSX{
	"":          api.JSXTransform,
	"transform": api.JSXTransform,
	"automatic": api.JSXAutomatic,
	"preserve":  api.JSXPreserve,
}

// resolve builds the Config of target from the preset set in opts.
func resolve(ctx context.Context, target string, opts builder.Options) (Config, error) {
	presets := opts.Presets
	args := opts.Args()

	var (
		entries []string
		err     error
		point   = PreviewPoint
	)
	if target == builder.TargetManager {
		point = ManagerPoint
		entries, err = preset.Apply(ctx, presets, preset.ManagerEntries, nil, args)
	} else {
		entries, err = preset.Apply(ctx, presets, preset.Entries, nil, args)
	}
	if err != nil {
		return Config{}, err
	}
	if len(entries) == 0 {
		return Config{}, fmt.Errorf("%s has no entries", target)
	}

	baseDir, err := baseDir(opts.ConfigDir)
	if err != nil {
		return Config{}, err
	}

	var stories []string
	if target == builder.TargetPreview {
		patterns, err := preset.Apply(ctx, presets, preset.Stories, nil, args)
		if err != nil {
			return Config{}, err
		}
		stories, err = builder.ResolveStories(opts.ConfigDir, patterns)
		if err != nil {
			return Config{}, err
		}
	}

	transpile, err := preset.Apply(ctx, presets, preset.Transpile, preset.TranspileOptions{Target: opts.Target}, args)
	if err != nil {
		return Config{}, err
	}
	env, err := preset.Apply(ctx, presets, preset.Env, map[string]string{}, args)
	if err != nil {
		return Config{}, err
	}

	base, err := baseOptions(target, opts, transpile, env, baseDir)
	if err != nil {
		return Config{}, err
	}
	native, err := preset.Apply(ctx, presets, point, base, args)
	if err != nil {
		return Config{}, err
	}
	return Config{Target: target, Options: native, Entries: entries, Stories: stories, BaseDir: baseDir}, nil
}

func baseDir(configDir string) (string, error) {
	dir := configDir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	// Projects keep the config dir next to their sources.
	return filepath.Dir(abs), nil
}

func baseOptions(target string, opts builder.Options, t preset.TranspileOptions, env map[string]string, base string) (api.BuildOptions, error) {
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "."
	}
	absOut, err := filepath.Abs(filepath.Join(outDir, target))
	if err != nil {
		return api.BuildOptions{}, fmt.Errorf("resolve output dir: %w", err)
	}

	esTarget := api.ES2020
	if len(t.Target) > 0 {
		v, ok := targets[strings.ToLower(t.Target[0])]
		if !ok {
			return api.BuildOptions{}, fmt.Errorf("unsupported esbuild target %q", t.Target[0])
		}
		esTarget = v
	}
	sourcemap, ok := sourcemaps[strings.ToLower(opts.Sourcemap)]
	if !ok {
		return api.BuildOptions{}, fmt.Errorf("unsupported sourcemap mode %q", opts.Sourcemap)
	}
	jsx, ok := jsxModes[t.JSX]
	if !ok {
		return api.BuildOptions{}, fmt.Errorf("unsupported jsx mode %q", t.JSX)
	}
	loaderMap := make(map[string]api.Loader, len(t.Loaders))
	for ext, name := range t.Loaders {
		l, ok := loaders[strings.ToLower(name)]
		if !ok {
			return api.BuildOptions{}, fmt.Errorf("unsupported loader %q for %s", name, ext)
		}
		loaderMap[ext] = l
	}

	minify := opts.Minify && opts.Production()
	return api.BuildOptions{
		EntryPointsAdvanced: []api.EntryPoint{{InputPath: entryModule, OutputPath: "main"}},
		Outdir:              absOut,
		AbsWorkingDir:       base,
		Bundle:              true,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		Target:              esTarget,
		JSX:                 jsx,
		JSXImportSource:     t.JSXImportSource,
		Loader:              loaderMap,
		Define:              builtin.EnvDefines(env),
		Sourcemap:           sourcemap,
		MinifySyntax:        minify,
		MinifyWhitespace:    minify,
		MinifyIdentifiers:   minify,
		Metafile:            true,
		Charset:             api.CharsetUTF8,
		LogLevel:            api.LogLevelSilent,
		AssetNames:          "assets/[name]-[hash]",
	}, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
