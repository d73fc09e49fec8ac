package staticbuild

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/logfields"
	"git.home.luguber.info/inful/docshell/internal/staticfiles"
	"git.home.luguber.info/inful/docshell/internal/watch"
)

// watch keeps the static output current until ctx is canceled: changed static
// files are re-copied and any other change rebuilds the preview.
func (o *Orchestrator) watch(ctx context.Context, bs *BuildState) error {
	defer bs.bail(nil)

	roots := []string{filepath.Dir(bs.ConfigDir)}
	for _, d := range bs.StaticDirs {
		if !within(d.Source, roots[0]) {
			roots = append(roots, d.Source)
		}
	}
	w, err := watch.New(watch.Options{
		Roots: roots,
		Ignore: func(path string) bool {
			return within(path, bs.OutputDir) || within(path, bs.Cache.Dir())
		},
	})
	if err != nil {
		return classify(err)
	}
	bs.logger.Info("Watching for changes", slog.Any("roots", roots))
	return w.Run(ctx, func(ctx context.Context, changed []string) {
		o.rebuild(ctx, bs, changed)
	})
}

func (o *Orchestrator) rebuild(ctx context.Context, bs *BuildState, changed []string) {
	staticChanged, sourceChanged := false, false
	for _, p := range changed {
		if inStaticDir(p, bs.StaticDirs) {
			staticChanged = true
		} else {
			sourceChanged = true
		}
	}

	if staticChanged {
		if err := staticfiles.CopyAll(ctx, bs.OutputDir, bs.StaticDirs); err != nil {
			bs.logger.Error("Static re-sync failed", logfields.Error(err))
		} else {
			bs.logger.Info("Static files synced", logfields.Count(len(bs.StaticDirs)))
		}
	}
	if !sourceChanged {
		return
	}

	started := time.Now()
	res, err := bs.Preview.Build(ctx, builder.BuildArgs{Options: bs.BuilderOptions, StartTime: started, Progress: progress(bs)})
	if err != nil {
		if ctx.Err() == nil {
			bs.logger.Error("Preview rebuild failed", logfields.Error(err))
		}
		return
	}
	logMessages(bs.logger, res)
	bs.logger.Info("Preview rebuilt",
		logfields.Duration(time.Since(started)),
		slog.Int("errors", len(res.Errors)),
		slog.Int("warnings", len(res.Warnings)),
		logfields.Count(len(changed)))
	if !res.Failed() {
		if err := writePreviewPage(ctx, bs); err != nil {
			bs.logger.Error("Failed to write preview page", logfields.Error(err))
		}
	}
}

func inStaticDir(path string, dirs []staticfiles.Dir) bool {
	for _, d := range dirs {
		if within(path, d.Source) {
			return true
		}
	}
	return false
}

// within reports whether path is dir or below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
