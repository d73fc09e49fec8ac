package esbuild

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/config"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/preset/builtin"
)

func project(t *testing.T, story string) (configDir, outDir string) {
	t.Helper()
	root := t.TempDir()
	configDir = filepath.Join(root, ".docshell")
	require.NoError(t, os.MkdirAll(configDir, 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Button.stories.js"), []byte(story), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Intro.stories.md"), []byte("# Welcome\n\nHello *docs*.\n"), 0o600))
	return configDir, filepath.Join(root, "out")
}

func options(t *testing.T, configDir, outDir string) builder.Options {
	t.Helper()
	c := builtin.NewCatalog()
	require.NoError(t, RegisterPresets(c))
	require.NoError(t, builtin.RegisterMain(c, &config.Config{Stories: []string{"../src/**/*.stories.{js,md}"}}))
	fw, err := builtin.FrameworkPreset("html")
	require.NoError(t, err)

	opts := builder.Options{
		ConfigType: preset.ConfigTypeProduction,
		ConfigDir:  configDir,
		OutputDir:  outDir,
		Framework:  "html",
		Minify:     true,
	}
	core := append(builtin.CorePresets(), preset.S(CorePreset))
	presets, err := preset.LoadPresets(context.Background(), builtin.Loader(c), preset.LoadOptions{
		CorePresets:      core,
		FrameworkPresets: []preset.Source{fw},
		UserPresets:      []preset.Source{preset.S(builtin.Main)},
		OverridePresets:  []preset.Source{preset.S(OverridePreset)},
		Args:             opts.Args(),
	})
	require.NoError(t, err)
	opts.Presets = presets
	return opts
}

const buttonStory = `export default { title: "Button" };
export const Primary = () => "<button>Primary</button>";
`

func TestGetConfigIsIdempotent(t *testing.T) {
	configDir, outDir := project(t, buttonStory)
	opts := options(t, configDir, outDir)
	c := NewPreview()

	first, err := c.GetConfig(context.Background(), opts)
	require.NoError(t, err)
	second, err := c.GetConfig(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.Len(t, first.Stories, 2)
	require.Equal(t, []string{builtin.PreviewEntry, builtin.FrameworkEntry("html")}, first.Entries)
	require.True(t, first.Options.Bundle)
	require.True(t, first.Options.MinifySyntax)
	require.Equal(t, `"production"`, first.Options.Define["process.env.NODE_ENV"])
	require.Equal(t, filepath.Join(outDir, "preview"), first.Options.Outdir)
	require.Contains(t, first.Options.ResolveExtensions, ".md")
}

func TestManagerConfigUsesManagerEntries(t *testing.T) {
	configDir, outDir := project(t, buttonStory)
	cfg, err := NewManager().GetConfig(context.Background(), options(t, configDir, outDir))
	require.NoError(t, err)
	require.Equal(t, []string{builtin.ManagerEntry}, cfg.Entries)
	require.Empty(t, cfg.Stories)
	require.Equal(t, filepath.Join(outDir, "manager"), cfg.Options.Outdir)
}

func TestBuildWritesBundle(t *testing.T) {
	configDir, outDir := project(t, buttonStory)
	opts := options(t, configDir, outDir)

	res, err := NewPreview().Build(context.Background(), builder.BuildArgs{Options: opts})
	require.NoError(t, err)
	require.False(t, res.Failed(), "errors: %v", res.Errors)
	require.FileExists(t, filepath.Join(outDir, "preview", "main.js"))

	res, err = NewManager().Build(context.Background(), builder.BuildArgs{Options: opts})
	require.NoError(t, err)
	require.False(t, res.Failed(), "errors: %v", res.Errors)
	require.FileExists(t, filepath.Join(outDir, "manager", "main.js"))
}

func TestBuildReportsCompileErrorsInResult(t *testing.T) {
	configDir, outDir := project(t, "export const Broken = () => {\n")
	opts := options(t, configDir, outDir)

	res, err := NewPreview().Build(context.Background(), builder.BuildArgs{Options: opts})
	require.NoError(t, err)
	require.True(t, res.Failed())
	var ce *builder.CompilationError
	require.ErrorAs(t, res.Err(), &ce)
}

func TestBailWhenIdle(t *testing.T) {
	require.NoError(t, NewPreview().Bail(context.Background(), nil))
}

func TestMarkdownModule(t *testing.T) {
	out, err := MarkdownModule("/x/Intro.stories.md", []byte("# Getting started\n\nSome **bold** text.\n"))
	require.NoError(t, err)
	require.Contains(t, out, `title: "Getting started"`)
	require.Contains(t, out, `<strong>bold</strong>`)

	out, err = MarkdownModule("/x/Notes.stories.md", []byte("plain text\n"))
	require.NoError(t, err)
	require.Contains(t, out, `title: "Notes"`)
}
