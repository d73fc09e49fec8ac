package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docshell/internal/cache"
	"git.home.luguber.info/inful/docshell/internal/config"
	"git.home.luguber.info/inful/docshell/internal/preset"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func loadAll(t *testing.T, cfg *config.Config, args preset.Args, framework string) *preset.Presets {
	t.Helper()
	c := NewCatalog()
	require.NoError(t, RegisterMain(c, cfg))
	fw, err := FrameworkPreset(framework)
	require.NoError(t, err)
	core := append(CorePresets(), CachePreset())
	presets, err := preset.LoadPresets(context.Background(), Loader(c), preset.LoadOptions{
		CorePresets:      core,
		FrameworkPresets: []preset.Source{fw},
		UserPresets:      []preset.Source{preset.S(Main)},
		Args:             args,
	})
	require.NoError(t, err)
	return presets
}

func TestMainPresetLayersUserPresetsFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "addon.yaml"), `
name: addon
presets:
  - nested.yml
core:
  builder: webpack5
stories: ["../addon/**/*.stories.js"]
env:
  SHARED: addon
`)
	writeFile(t, filepath.Join(dir, "nested.yml"), `
managerEntries: ["./nested-manager.js"]
previewHead: <script>nested</script>
`)
	cfg := &config.Config{
		Core:    config.CoreConfig{Builder: "esbuild"},
		Stories: []string{"../src/**/*.stories.jsx"},
		Addons:  []config.PresetEntry{{Name: "addon.yaml"}},
		Env:     map[string]string{"SHARED": "main"},
	}

	presets := loadAll(t, cfg, preset.NewArgs(map[string]any{preset.ArgConfigDir: dir}), "react")
	require.Equal(t, []string{Common, Manager, Preview, Env, Static, Cache, "framework-react", "nested", "addon", Main}, presets.Names())

	ctx := context.Background()
	core, err := preset.Apply(ctx, presets, preset.Core, preset.CoreConfig{}, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, "esbuild", core.Builder, "main.yaml is applied after its addons")

	stories, err := preset.Apply(ctx, presets, preset.Stories, nil, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, []string{"../addon/**/*.stories.js", "../src/**/*.stories.jsx"}, stories)

	managers, err := preset.Apply(ctx, presets, preset.ManagerEntries, nil, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, []string{ManagerEntry, "./nested-manager.js"}, managers)

	env, err := preset.Apply(ctx, presets, preset.Env, map[string]string{}, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, "main", env["SHARED"])
	require.Equal(t, "production", env["NODE_ENV"])

	head, err := preset.Apply(ctx, presets, preset.PreviewHead, "", preset.Args{})
	require.NoError(t, err)
	require.Equal(t, "<script>nested</script>", head)

	entries, err := preset.Apply(ctx, presets, preset.Entries, nil, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, []string{PreviewEntry, FrameworkEntry("react")}, entries)

	tr, err := preset.Apply(ctx, presets, preset.Transpile, preset.TranspileOptions{}, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, "automatic", tr.JSX)
	require.Equal(t, "jsx", tr.Loaders[".js"])
}

func TestHeadFilesAndPreviewConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, PreviewHeadFile), "<link rel=\"stylesheet\" href=\"/fonts.css\">")
	writeFile(t, filepath.Join(dir, ManagerHeadFile), "<style>body{}</style>")
	writeFile(t, filepath.Join(dir, "preview.js"), "export const parameters = {};")
	writeFile(t, filepath.Join(dir, "public", "logo.svg"), "<svg/>")

	presets := loadAll(t, &config.Config{}, preset.NewArgs(map[string]any{preset.ArgConfigDir: dir}), "html")
	ctx := context.Background()

	head, err := preset.Apply(ctx, presets, preset.PreviewHead, "", preset.Args{})
	require.NoError(t, err)
	require.Contains(t, head, "/fonts.css")

	mhead, err := preset.Apply(ctx, presets, preset.ManagerHead, "", preset.Args{})
	require.NoError(t, err)
	require.Equal(t, "<style>body{}</style>", mhead)

	entries, err := preset.Apply(ctx, presets, preset.Entries, nil, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, []string{PreviewEntry, filepath.Join(dir, "preview.js"), FrameworkEntry("html")}, entries)

	static, err := preset.Apply(ctx, presets, preset.StaticDirs, nil, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "public")}, static)
}

func TestEnvPresetExposesPrefixedVariables(t *testing.T) {
	t.Setenv("DOCSHELL_API", "https://api.example.com")
	t.Setenv("SECRET_TOKEN", "nope")
	presets := loadAll(t, &config.Config{}, preset.NewArgs(map[string]any{
		preset.ArgConfigType: preset.ConfigTypeDevelopment,
		preset.ArgDocsMode:   true,
	}), "html")

	env, err := preset.Apply(context.Background(), presets, preset.Env, nil, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com", env["DOCSHELL_API"])
	require.Equal(t, "development", env["NODE_ENV"])
	require.Equal(t, "true", env["DOCSHELL_DOCS_MODE"])
	require.NotContains(t, env, "SECRET_TOKEN")

	defines := EnvDefines(map[string]string{"NODE_ENV": "production"})
	require.Equal(t, `"production"`, defines["process.env.NODE_ENV"])
}

func TestCachePresetRecordsDir(t *testing.T) {
	store, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	presets := loadAll(t, &config.Config{}, preset.NewArgs(map[string]any{preset.ArgCache: store}), "html")

	core, err := preset.Apply(context.Background(), presets, preset.Core, preset.CoreConfig{}, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, store.Dir(), core.Options["cacheDir"])
	require.Equal(t, "webpack4", core.Builder)
}

func TestCorePresetsDefaultToWebpack4(t *testing.T) {
	presets, err := preset.LoadPresets(context.Background(), Loader(NewCatalog()), preset.LoadOptions{
		CorePresets: CorePresets(),
	})
	require.NoError(t, err)

	core, err := preset.Apply(context.Background(), presets, preset.Core, preset.CoreConfig{}, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, "webpack4", core.Builder)

	core, err = preset.Apply(context.Background(), presets, preset.Core, preset.CoreConfig{Builder: "esbuild"}, preset.Args{})
	require.NoError(t, err)
	require.Equal(t, "esbuild", core.Builder, "a configured builder is kept")
}

func TestFileLoaderSkipsForeignNames(t *testing.T) {
	_, err := FileLoader{BaseDir: t.TempDir()}.Resolve(context.Background(), preset.S("common"), preset.Args{})
	require.ErrorIs(t, err, preset.ErrUnresolved)

	_, err = FileLoader{BaseDir: t.TempDir()}.Resolve(context.Background(), preset.S("missing.yaml"), preset.Args{})
	require.ErrorIs(t, err, preset.ErrUnresolved)
}

func TestUnknownPresetFileIsNotFound(t *testing.T) {
	c := NewCatalog()
	cfg := &config.Config{Presets: []config.PresetEntry{{Name: "ghost.yaml"}}}
	require.NoError(t, RegisterMain(c, cfg))
	_, err := preset.Load(context.Background(), Loader(c), preset.LoadOptions{
		UserPresets: []preset.Source{preset.S(Main)},
		Args:        preset.NewArgs(map[string]any{preset.ArgConfigDir: t.TempDir()}),
	})
	var nf *preset.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "ghost.yaml", nf.Name)
}

func TestFrameworkPreset(t *testing.T) {
	src, err := FrameworkPreset(" React ")
	require.NoError(t, err)
	require.Equal(t, "framework-react", src.Name)
	_, err = FrameworkPreset("vue")
	require.ErrorContains(t, err, "unsupported framework")
}
