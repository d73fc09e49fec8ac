package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docshell/internal/config"
	"git.home.luguber.info/inful/docshell/internal/history"
	"git.home.luguber.info/inful/docshell/internal/logfields"
	"git.home.luguber.info/inful/docshell/internal/metrics"
	"git.home.luguber.info/inful/docshell/internal/staticbuild"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SelectionFlags

	OutputDir   string   `short:"o" name:"output-dir" help:"Output directory (default: build.output_dir)"`
	StaticDir   []string `short:"s" name:"static-dir" help:"Static directory to copy, as src or src:dest. Replaces staticDirs from presets."`
	ManagerOnly bool     `name:"manager-only" help:"Only build the manager UI"`
	PreviewURL  string   `name:"preview-url" help:"Use an externally hosted preview instead of compiling one"`
	Watch       bool     `short:"w" help:"Keep rebuilding the preview and static files on change"`
	DebugConfig bool     `name:"debug-config" help:"Log the resolved builder configurations"`
	Docs        bool     `help:"Build in docs mode"`
	NoCache     bool     `name:"no-cache" help:"Use a temporary cache and skip the prebuilt manager"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if b.NoCache {
		off := false
		cfg.Manager.Cache = &off
	}

	reg := prom.NewRegistry()
	var opts []staticbuild.Option
	if cfg.Monitoring != nil && cfg.Monitoring.Metrics.Enabled {
		opts = append(opts, staticbuild.WithRecorder(metrics.NewPrometheusRecorder(reg)))
	}
	store, closeHistory := openHistory(cfg)
	defer closeHistory()
	if store != nil {
		opts = append(opts, staticbuild.WithObserver(&staticbuild.HistoryObserver{Store: store}))
	}

	orch, err := newOrchestrator(opts...)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, err := orch.Build(ctx, b.options(root, cfg))
	writeTextfile(cfg, reg)
	if store != nil {
		pruneHistory(ctx, store, cfg.History.Keep)
	}
	if err != nil {
		return err
	}
	if !root.Quiet {
		printSummary(root.out(), report)
	}
	return nil
}

func (b *BuildCmd) options(root *CLI, cfg *config.Config) staticbuild.Options {
	return staticbuild.Options{
		Config:      cfg,
		ConfigDir:   root.ConfigDir,
		OutputDir:   b.OutputDir,
		StaticDirs:  b.StaticDir,
		Builder:     b.Builder,
		Framework:   b.Framework,
		ManagerOnly: b.ManagerOnly,
		PreviewURL:  b.PreviewURL,
		Watch:       b.Watch,
		DebugConfig: b.DebugConfig,
		DocsMode:    b.Docs,
		Quiet:       root.Quiet,
		Cache:       openCache(cfg, b.NoCache),
	}
}

// openHistory opens the build history when enabled. The returned close
// function is always safe to call.
func openHistory(cfg *config.Config) (*history.SQLiteStore, func()) {
	if !cfg.History.Enabled {
		return nil, func() {}
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("Build history unavailable", logfields.Path(cfg.History.Path), logfields.Error(err))
		return nil, func() {}
	}
	return store, func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close build history", logfields.Error(err))
		}
	}
}

func pruneHistory(ctx context.Context, store *history.SQLiteStore, keep int) {
	removed, err := store.Prune(context.WithoutCancel(ctx), keep)
	if err != nil {
		slog.Warn("Failed to prune build history", logfields.Error(err))
		return
	}
	if removed > 0 {
		slog.Debug("Pruned build history", slog.Int64("events", removed))
	}
}

func writeTextfile(cfg *config.Config, reg *prom.Registry) {
	if cfg.Monitoring == nil || !cfg.Monitoring.Metrics.Enabled || cfg.Monitoring.Metrics.Textfile == "" {
		return
	}
	path := cfg.Monitoring.Metrics.Textfile
	if !filepath.IsAbs(path) && cfg.Dir() != "" {
		path = filepath.Join(cfg.Dir(), path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
		return
	}
	if err := metrics.WriteTextfile(path, reg); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
	}
}

func printSummary(w io.Writer, r *staticbuild.BuildReport) {
	printf(w, "Built %s with %s in %s\n", r.OutputDir, r.Builder, r.Duration().Round(time.Millisecond))
	printf(w, "  stories: %d  presets: %d\n", r.StoryFiles, len(r.Presets))
	if r.PrebuiltManager {
		printf(w, "  manager: prebuilt\n")
	}
	for _, s := range []staticbuild.State{staticbuild.StateCompilingManager, staticbuild.StateCompilingPreview} {
		if reason := r.SkipReasons[s]; reason != "" {
			printf(w, "  %s: skipped (%s)\n", s, reason)
		}
	}
}
