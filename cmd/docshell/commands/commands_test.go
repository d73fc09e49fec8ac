package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docshell/internal/config"
	"git.home.luguber.info/inful/docshell/internal/foundation/errors"
	"git.home.luguber.info/inful/docshell/internal/staticbuild"
)

// run parses args into a fresh CLI and runs the selected command with
// stdout captured.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := &CLI{stdout: &out}
	parser, err := kong.New(cli, kong.Name("docshell"), Vars(), kong.Exit(func(int) {}))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	err = ctx.Run(&Global{}, cli)
	return out.String(), err
}

func TestInitWritesStarterConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".docshell")

	out, err := run(t, "-c", dir, "init")
	require.NoError(t, err)
	require.Contains(t, out, "initialized successfully")
	require.FileExists(t, filepath.Join(dir, config.FileName))
	require.FileExists(t, filepath.Join(dir, "preset.yaml"))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "esbuild", cfg.Core.Builder)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "-c", dir, "init")
	require.NoError(t, err)

	_, err = run(t, "-c", dir, "init")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = run(t, "-c", dir, "init", "--force")
	require.NoError(t, err)
}

func TestPresetsListsResolvedPresets(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "-c", dir, "init")
	require.NoError(t, err)

	out, err := run(t, "-c", dir, "presets")
	require.NoError(t, err)
	require.Contains(t, out, "builder: esbuild")
	require.Contains(t, out, "main")
}

func TestPresetsPrintsExtensionPoint(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "-c", dir, "init")
	require.NoError(t, err)

	out, err := run(t, "-c", dir, "presets", "env")
	require.NoError(t, err)
	require.Contains(t, out, "# contributors:")
	require.Contains(t, out, "DOCSHELL_PROJECT: example")
}

func TestPresetsRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "-c", dir, "presets", "webpackFinal")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestPresetsUnknownBuilder(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "-c", dir, "presets", "--builder", "rollup")
	require.Error(t, err)
}

func TestHistoryOnEmptyStore(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "-c", dir, "history")
	require.NoError(t, err)
	require.Contains(t, out, "BUILD")
	require.Contains(t, out, "OUTCOME")
	require.FileExists(t, filepath.Join(dir, "history.db"))
}

func TestLoadConfigErrorIsConfigCategory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("version: \"7\"\n"), 0o600))
	_, err := run(t, "-c", dir, "history")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLevelOverride(t *testing.T) {
	require.Nil(t, (&CLI{}).levelOverride())
	require.Equal(t, "DEBUG", (&CLI{Verbose: true}).levelOverride().String())
	require.Equal(t, "WARN", (&CLI{Quiet: true}).levelOverride().String())
	require.Equal(t, "DEBUG", (&CLI{Verbose: true, Quiet: true}).levelOverride().String())
}

func TestVarsNameEveryBuilder(t *testing.T) {
	vars := Vars()
	require.Equal(t, "esbuild, webpack4, webpack5", vars["builders"])
	require.Contains(t, vars["extensions"], "staticDirs")
	require.NotEmpty(t, vars["version"])
}

func TestPrintSummary(t *testing.T) {
	start := time.Now()
	report := &staticbuild.BuildReport{
		Builder:         "esbuild",
		OutputDir:       "/tmp/out",
		Start:           start,
		End:             start.Add(1500 * time.Millisecond),
		Presets:         []string{"core", "main"},
		StoryFiles:      4,
		PrebuiltManager: true,
		SkipReasons: map[staticbuild.State]string{
			staticbuild.StateCompilingPreview: "manager only",
		},
	}
	var out bytes.Buffer
	printSummary(&out, report)

	require.Contains(t, out.String(), "Built /tmp/out with esbuild in 1.5s")
	require.Contains(t, out.String(), "stories: 4  presets: 2")
	require.Contains(t, out.String(), "manager: prebuilt")
	require.Contains(t, out.String(), "compiling_preview: skipped (manager only)")
}
