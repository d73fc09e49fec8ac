package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/builder/command"
	"git.home.luguber.info/inful/docshell/internal/builder/esbuild"
	"git.home.luguber.info/inful/docshell/internal/cache"
	"git.home.luguber.info/inful/docshell/internal/config"
	"git.home.luguber.info/inful/docshell/internal/foundation/errors"
	"git.home.luguber.info/inful/docshell/internal/logfields"
	"git.home.luguber.info/inful/docshell/internal/staticbuild"
	"git.home.luguber.info/inful/docshell/internal/version"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	ConfigDir string           `short:"c" name:"config-dir" help:"Directory holding main.yaml and preset files" default:".docshell"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	Quiet     bool             `short:"q" help:"Only log warnings and errors"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build a static docshell into the output directory"`
	Dev     DevCmd     `cmd:"" help:"Serve the manager and preview with rebuild on change"`
	Init    InitCmd    `cmd:"" help:"Write a starter configuration"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the build history"`
	Presets PresetsCmd `cmd:"" help:"List loaded presets or print an extension point"`

	stdout io.Writer
}

// AfterApply runs after flag parsing; it installs the flag-level logger.
// Commands that load main.yaml reinstall it with the configured format.
func (c *CLI) AfterApply() error {
	slog.SetDefault(config.NewLogger(nil, c.levelOverride(), os.Stderr))
	return nil
}

func (c *CLI) levelOverride() *slog.Level {
	var level slog.Level
	switch {
	case c.Verbose:
		level = slog.LevelDebug
	case c.Quiet:
		level = slog.LevelWarn
	default:
		return nil
	}
	return &level
}

func (c *CLI) out() io.Writer {
	if c.stdout != nil {
		return c.stdout
	}
	return os.Stdout
}

// loadConfig reads main.yaml from the config dir and applies its logging
// section unless a flag chose the level.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load configuration").
			WithContext("config_dir", c.ConfigDir).
			Build()
	}
	slog.SetDefault(config.NewLogger(cfg.Monitoring, c.levelOverride(), os.Stderr))
	return cfg, nil
}

// SelectionFlags choose the backend and framework.
type SelectionFlags struct {
	Builder   string `name:"builder" help:"Override core.builder (${builders})"`
	Framework string `name:"framework" help:"Override the configured framework"`
}

// Vars are the interpolation variables used in flag help.
func Vars() kong.Vars {
	names := "esbuild"
	if reg, err := newRegistry(); err == nil {
		names = strings.Join(reg.Names(), ", ")
	}
	return kong.Vars{
		"version":    version.Get(),
		"builders":   names,
		"extensions": extensionNames(),
	}
}

// newRegistry returns the preview backends shipped with docshell.
func newRegistry() (*builder.Registry, error) {
	return builder.NewRegistry(
		esbuild.Backend(),
		command.Webpack4Backend(),
		command.Webpack5Backend(),
	)
}

func newOrchestrator(opts ...staticbuild.Option) (*staticbuild.Orchestrator, error) {
	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}
	return staticbuild.New(reg, esbuild.ManagerBackend(), opts...), nil
}

// openCache opens the persistent cache dir. A nil store makes the build use
// an ephemeral one.
func openCache(cfg *config.Config, disabled bool) *cache.Store {
	if disabled || cfg.Build.CacheDir == "" {
		return nil
	}
	store, err := cache.Open(cfg.Build.CacheDir)
	if err != nil {
		slog.Warn("Cache unavailable, using a temporary one", logfields.Path(cfg.Build.CacheDir), logfields.Error(err))
		return nil
	}
	return store
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
