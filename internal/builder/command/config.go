package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/preset/builtin"
)

// Config is the webpack configuration assembled by presets.
type Config struct {
	Version    int
	Executable string
	Args       []string
	WorkDir    string
	RuntimeDir string
	Entries    []string
	Stories    []string
	Mode       string
	OutputPath string
	PublicPath string
	Devtool    string
	Extensions []string
	Loaders    map[string]string
	Define     map[string]string
	CacheDir   string
	Target     []string
	Minimize   bool
}

// Point is the extension point receiving the webpack configuration.
var Point = preset.Point[Config]("webpack")

var devtools = map[string]string{
	"":         "",
	"none":     "",
	"inline":   "inline-source-map",
	"linked":   "source-map",
	"external": "hidden-source-map",
}

func resolve(ctx context.Context, version int, opts builder.Options) (Config, error) {
	presets := opts.Presets
	args := opts.Args()

	entries, err := preset.Apply(ctx, presets, preset.Entries, nil, args)
	if err != nil {
		return Config{}, err
	}
	if len(entries) == 0 {
		return Config{}, fmt.Errorf("preview has no entries")
	}
	patterns, err := preset.Apply(ctx, presets, preset.Stories, nil, args)
	if err != nil {
		return Config{}, err
	}
	stories, err := builder.ResolveStories(opts.ConfigDir, patterns)
	if err != nil {
		return Config{}, err
	}
	transpile, err := preset.Apply(ctx, presets, preset.Transpile, preset.TranspileOptions{Target: opts.Target}, args)
	if err != nil {
		return Config{}, err
	}
	env, err := preset.Apply(ctx, presets, preset.Env, map[string]string{}, args)
	if err != nil {
		return Config{}, err
	}

	configDir := opts.ConfigDir
	if configDir == "" {
		configDir = "."
	}
	absConfig, err := filepath.Abs(configDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	workDir := filepath.Dir(absConfig)
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "."
	}
	outputPath, err := filepath.Abs(filepath.Join(outDir, builder.TargetPreview))
	if err != nil {
		return Config{}, fmt.Errorf("resolve output dir: %w", err)
	}
	devtool, ok := devtools[strings.ToLower(opts.Sourcemap)]
	if !ok {
		return Config{}, fmt.Errorf("unsupported sourcemap mode %q", opts.Sourcemap)
	}

	mode := "production"
	if !opts.Production() {
		mode = "development"
	}
	runtimeDir := filepath.Join(os.TempDir(), "docshell-webpack-runtime")
	cacheDir := ""
	if opts.Cache != nil {
		runtimeDir = filepath.Join(opts.Cache.Dir(), "webpack-runtime")
		cacheDir = filepath.Join(opts.Cache.Dir(), fmt.Sprintf("webpack%d", version))
	}

	seed := Config{
		Version:    version,
		Executable: opts.Command,
		WorkDir:    workDir,
		RuntimeDir: runtimeDir,
		Entries:    entries,
		Stories:    stories,
		Mode:       mode,
		OutputPath: outputPath,
		PublicPath: "",
		Devtool:    devtool,
		Extensions: []string{".mjs", ".js", ".jsx", ".ts", ".tsx", ".json"},
		Loaders:    transpile.Loaders,
		Define:     builtin.EnvDefines(env),
		CacheDir:   cacheDir,
		Target:     transpile.Target,
		Minimize:   opts.Minify && opts.Production(),
	}
	return preset.Apply(ctx, presets, Point, seed, args)
}
