package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/docshell/internal/foundation/errors"
)

func writeMain(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o600))
	return dir
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, CurrentVersion, cfg.Version)
	require.Equal(t, DefaultOutputDir, cfg.Build.OutputDir)
	require.Equal(t, filepath.Join(dir, "history.db"), cfg.History.Path)
	require.True(t, cfg.Manager.CacheEnabled())
	require.True(t, cfg.Build.MinifyEnabled())
	require.Equal(t, dir, cfg.Dir())
}

func TestLoadPresetEntryForms(t *testing.T) {
	dir := writeMain(t, `
version: "1"
framework: React
presets:
  - common-extra
  - name: ./local.yaml
    options:
      docs: true
addons:
  - addon.yaml
`)
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "react", cfg.Framework)
	user := cfg.UserPresets()
	require.Len(t, user, 3)
	require.Equal(t, "common-extra", user[0].Name)
	require.Nil(t, user[0].Options)
	require.Equal(t, "./local.yaml", user[1].Name)
	require.Equal(t, true, user[1].Options["docs"])
	require.Equal(t, "addon.yaml", user[2].Name)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("DOCSHELL_TEST_OUT", "/tmp/docshell-out")
	dir := writeMain(t, `
version: "1"
build:
  output_dir: ${DOCSHELL_TEST_OUT}
  sourcemap: Linked
monitoring:
  logging:
    level: WARNING
    format: Json
`)
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "/tmp/docshell-out", cfg.Build.OutputDir)
	require.Equal(t, SourcemapLinked, cfg.Build.Sourcemap)
	require.Equal(t, LogLevelWarn, cfg.Monitoring.Logging.Level)
	require.Equal(t, LogFormatJSON, cfg.Monitoring.Logging.Format)
}

func TestLoadRejectsVersion(t *testing.T) {
	dir := writeMain(t, "version: \"2\"\n")
	_, err := Load(dir)
	require.ErrorContains(t, err, "unsupported configuration version")
}

func TestValidationIsClassified(t *testing.T) {
	dir := writeMain(t, `
version: "1"
refs:
  design:
    title: Design system
staticDirs: [""]
`)
	_, err := Load(dir)
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
	require.ErrorContains(t, err, "refs.design: url is required")
	require.ErrorContains(t, err, "staticDirs[0]: empty path")
}

func TestInitRoundTrips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".docshell")
	require.NoError(t, Init(dir, false))
	require.FileExists(t, filepath.Join(dir, "preset.yaml"))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "esbuild", cfg.Core.Builder)
	require.Equal(t, "preset.yaml", cfg.Addons[0].Name)

	require.ErrorContains(t, Init(dir, false), "already exists")
	require.NoError(t, Init(dir, true))
}

func TestNewLoggerLevelOverride(t *testing.T) {
	m := &MonitoringConfig{Logging: MonitoringLogging{Level: LogLevelError, Format: LogFormatJSON}}
	logger := NewLogger(m, nil, os.Stderr)
	require.False(t, logger.Enabled(t.Context(), LogLevelWarn.SlogLevel()))

	debug := LogLevelDebug.SlogLevel()
	logger = NewLogger(m, &debug, os.Stderr)
	require.True(t, logger.Enabled(t.Context(), debug))
}
