package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up inside the config directory.
const FileName = "main.yaml"

// DefaultConfigDir is used when no --config-dir flag is supplied.
const DefaultConfigDir = ".docshell"

// CurrentVersion is the only accepted configuration version.
const CurrentVersion = "1"

// Config represents the main.yaml project configuration.
type Config struct {
	Version    string               `yaml:"version"`
	Core       CoreConfig           `yaml:"core,omitempty"`
	Framework  string               `yaml:"framework,omitempty"`
	Stories    []string             `yaml:"stories,omitempty"`
	Presets    []PresetEntry        `yaml:"presets,omitempty"`
	Addons     []PresetEntry        `yaml:"addons,omitempty"`
	StaticDirs []string             `yaml:"staticDirs,omitempty"`
	Refs       map[string]RefConfig `yaml:"refs,omitempty"`
	Manager    ManagerConfig        `yaml:"manager,omitempty"`
	Build      BuildConfig          `yaml:"build,omitempty"`
	Monitoring *MonitoringConfig    `yaml:"monitoring,omitempty"`
	History    HistoryConfig        `yaml:"history,omitempty"`
	Env        map[string]string    `yaml:"env,omitempty"`

	dir string
}

// CoreConfig seeds the "core" extension point.
type CoreConfig struct {
	Builder          string         `yaml:"builder,omitempty"`
	DisableTelemetry bool           `yaml:"disableTelemetry,omitempty"`
	Options          map[string]any `yaml:"options,omitempty"`
}

// RefConfig describes a composed external docshell instance.
type RefConfig struct {
	Title   string `yaml:"title"`
	URL     string `yaml:"url"`
	Version string `yaml:"version,omitempty"`
	Type    string `yaml:"type,omitempty"`
}

// ManagerConfig controls how the manager bundle is produced.
type ManagerConfig struct {
	Cache       *bool  `yaml:"cache,omitempty"`        // Allow reuse of a prebuilt manager bundle (default true)
	PrebuiltDir string `yaml:"prebuilt_dir,omitempty"` // Directory holding a prebuilt manager; empty uses the cache dir
	Head        string `yaml:"head,omitempty"`         // Extra HTML injected into the manager <head>
}

// CacheEnabled reports whether manager caching is on.
func (m ManagerConfig) CacheEnabled() bool {
	return m.Cache == nil || *m.Cache
}

// BuildConfig holds compile settings shared by all backends.
type BuildConfig struct {
	OutputDir string        `yaml:"output_dir,omitempty"`
	CacheDir  string        `yaml:"cache_dir,omitempty"`
	Minify    *bool         `yaml:"minify,omitempty"`
	Sourcemap SourcemapMode `yaml:"sourcemap,omitempty"`
	Target    []string      `yaml:"target,omitempty"`
	Command   string        `yaml:"command,omitempty"` // External bundler executable for webpack backends
}

// MinifyEnabled reports whether production output is minified (default true).
func (b BuildConfig) MinifyEnabled() bool {
	return b.Minify == nil || *b.Minify
}

// MonitoringConfig represents monitoring and observability configuration
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration
type MonitoringMetrics struct {
	Enabled  bool   `yaml:"enabled"`
	Path     string `yaml:"path,omitempty"`
	Textfile string `yaml:"textfile,omitempty"` // Prometheus textfile written after each static build
}

// MonitoringLogging represents logging configuration
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// HistoryConfig controls the SQLite build history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
	Keep    int    `yaml:"keep,omitempty"`
}

// Dir returns the config directory the file was loaded from.
func (c *Config) Dir() string { return c.dir }

// Load reads main.yaml from configDir. A missing file yields the defaults so a
// project without configuration can still be built from CLI flags.
func Load(configDir string) (*Config, error) {
	if err := loadEnvFile(configDir); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	path := filepath.Join(configDir, FileName)
	cfg := &Config{Version: CurrentVersion}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
		}
	}
	cfg.dir = configDir

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)
	}

	if _, err := NormalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	applyDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Init writes a starter main.yaml into configDir.
func Init(configDir string, force bool) error {
	path := filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	cacheOn := true
	example := Config{
		Version:   CurrentVersion,
		Core:      CoreConfig{Builder: "esbuild"},
		Framework: "react",
		Stories:   []string{"../src/**/*.stories.jsx", "../src/**/*.stories.md"},
		Addons: []PresetEntry{
			{Name: "preset.yaml"},
		},
		StaticDirs: []string{"../public"},
		Manager:    ManagerConfig{Cache: &cacheOn},
		Build: BuildConfig{
			OutputDir: "docshell-static",
			Sourcemap: SourcemapLinked,
			Target:    []string{"es2020"},
		},
		Monitoring: &MonitoringConfig{
			Metrics: MonitoringMetrics{Enabled: true, Path: "/metrics"},
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatText},
		},
		History: HistoryConfig{Enabled: true, Keep: 50},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	preset := []byte(starterPreset)
	presetPath := filepath.Join(configDir, "preset.yaml")
	if _, err := os.Stat(presetPath); err == nil && !force {
		return nil
	}
	if err := os.WriteFile(presetPath, preset, 0o600); err != nil {
		return fmt.Errorf("failed to write starter preset: %w", err)
	}
	return nil
}

const starterPreset = `# Declarative preset. Values are merged into the named extension points.
name: project
env:
  DOCSHELL_PROJECT: example
previewHead: |
  <meta name="docshell" content="example">
`
