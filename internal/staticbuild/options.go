package staticbuild

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docshell/internal/cache"
	"git.home.luguber.info/inful/docshell/internal/config"
)

// Options are the inputs of one static build. Zero values fall back to the
// loaded configuration.
type Options struct {
	Config    *config.Config
	ConfigDir string
	OutputDir string
	// StaticDirs are --static-dir flags ("src" or "src:dest"). When set they
	// replace the staticDirs extension point.
	StaticDirs []string
	// Builder overrides core.builder.
	Builder   string
	Framework string

	ManagerOnly bool
	PreviewURL  string
	Watch       bool
	DebugConfig bool
	DocsMode    bool
	Quiet       bool

	// Cache is used for compiler caches and the prebuilt manager. A nil
	// cache makes the build create and remove an ephemeral one.
	Cache *cache.Store
}

func (o Options) config() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	return &config.Config{Version: config.CurrentVersion}
}

func (o Options) outputDir() string {
	if o.OutputDir != "" {
		return o.OutputDir
	}
	if dir := o.config().Build.OutputDir; dir != "" {
		return dir
	}
	return config.DefaultOutputDir
}

func (o Options) configDir() string {
	if o.ConfigDir != "" {
		return o.ConfigDir
	}
	if dir := o.config().Dir(); dir != "" {
		return dir
	}
	return config.DefaultConfigDir
}

// dirs returns the absolute config and output directories.
func (o Options) dirs() (configDir, outDir string, err error) {
	configDir, err = filepath.Abs(o.configDir())
	if err != nil {
		return "", "", fmt.Errorf("resolve config dir: %w", err)
	}
	outDir, err = filepath.Abs(o.outputDir())
	if err != nil {
		return "", "", fmt.Errorf("resolve output dir: %w", err)
	}
	return configDir, outDir, nil
}
