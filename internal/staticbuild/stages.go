package staticbuild

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/logfields"
	"git.home.luguber.info/inful/docshell/internal/pages"
	"git.home.luguber.info/inful/docshell/internal/prebuilt"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/preset/builtin"
	"git.home.luguber.info/inful/docshell/internal/project"
	"git.home.luguber.info/inful/docshell/internal/staticfiles"
	"git.home.luguber.info/inful/docshell/internal/version"
)

// stageOutput validates, empties and seeds the output directory. Static
// directories given on the command line are copied here; the ones
// contributed by presets are copied once presets are resolved.
func stageOutput(ctx context.Context, bs *BuildState) error {
	if err := validateOutputDir(bs.OutputDir, bs.ConfigDir); err != nil {
		return err
	}
	if err := bs.cleanDir(bs.OutputDir); err != nil {
		return err
	}
	if err := staticfiles.WriteDefaults(bs.OutputDir); err != nil {
		return fmt.Errorf("write default assets: %w", err)
	}
	if len(bs.Options.StaticDirs) == 0 {
		return nil
	}
	dirs, err := parseStaticDirs(bs.Options.StaticDirs, "")
	if err != nil {
		return err
	}
	bs.StaticDirs = dirs
	return staticfiles.CopyAll(ctx, bs.OutputDir, dirs)
}

func parseStaticDirs(specs []string, base string) ([]staticfiles.Dir, error) {
	dirs := make([]staticfiles.Dir, 0, len(specs))
	for _, spec := range specs {
		d, err := staticfiles.ParseDir(spec, base)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, d)
	}
	return dirs, nil
}

// resolvePresets loads presets, selects the backends, counts stories and
// copies the static directories contributed by presets.
func (o *Orchestrator) resolvePresets(ctx context.Context, bs *BuildState) error {
	res, err := o.Resolve(ctx, bs.Options, preset.ConfigTypeProduction, bs.Cache)
	if err != nil {
		return err
	}
	bs.Backend = res.Backend
	bs.Framework = res.Framework
	bs.Presets = res.Presets
	bs.BuilderOptions = res.Options
	bs.Report.Builder = res.Backend.Name
	bs.Report.Framework = res.Framework
	bs.Report.Presets = res.Presets.Names()

	stories, err := res.Stories(ctx)
	if err != nil {
		return err
	}
	bs.Report.StoryFiles = len(stories)

	if len(bs.Options.StaticDirs) == 0 {
		dirs, err := res.StaticDirs(ctx, nil)
		if err != nil {
			return err
		}
		bs.StaticDirs = dirs
		if err := staticfiles.CopyAll(ctx, bs.OutputDir, dirs); err != nil {
			return err
		}
	}

	bs.Manager = o.manager.New()
	if !bs.Options.ManagerOnly && bs.Options.PreviewURL == "" {
		bs.Preview = res.Backend.New()
	}
	if bs.Options.DebugConfig {
		return logConfigs(ctx, bs)
	}
	return nil
}

// logConfigs logs the resolved manager and preview configurations.
func logConfigs(ctx context.Context, bs *BuildState) error {
	managerCfg, err := bs.Manager.GetConfig(ctx, bs.BuilderOptions)
	if err != nil {
		return err
	}
	bs.logger.Info("Manager config", logfields.Target(builder.TargetManager), slog.Any("config", managerCfg))
	if bs.Preview == nil {
		return nil
	}
	previewCfg, err := bs.Preview.GetConfig(ctx, bs.BuilderOptions)
	if err != nil {
		return err
	}
	bs.logger.Info("Preview config", logfields.Target(builder.TargetPreview), logfields.Builder(bs.Backend.Name), slog.Any("config", previewCfg))
	return nil
}

func progress(bs *BuildState) builder.ProgressReporter {
	if bs.Options.Quiet {
		return builder.NoopProgress{}
	}
	return builder.SlogProgress{Logger: bs.logger}
}

// compileManager copies a reusable prebuilt manager or compiles one and
// renders index.html.
func (o *Orchestrator) compileManager(ctx context.Context, bs *BuildState) error {
	cfg := bs.Options.config()
	args := bs.BuilderOptions.Args()

	refs, err := preset.Apply(ctx, bs.Presets, preset.Refs, map[string]preset.Ref{}, args)
	if err != nil {
		return err
	}
	entries, err := preset.Apply(ctx, bs.Presets, preset.ManagerEntries, nil, args)
	if err != nil {
		return err
	}
	head, err := preset.Apply(ctx, bs.Presets, preset.ManagerHead, "", args)
	if err != nil {
		return err
	}

	prebuiltDir := cfg.Manager.PrebuiltDir
	if prebuiltDir == "" {
		prebuiltDir = filepath.Join(bs.Cache.Dir(), prebuilt.CacheSubdir)
	}
	check := prebuilt.Check{
		CacheEnabled:   cfg.Manager.CacheEnabled(),
		Refs:           refs,
		ManagerEntries: entries,
		DefaultEntries: []string{builtin.ManagerEntry},
		Head:           head,
		PreviewURL:     bs.Options.PreviewURL,
		Dir:            prebuiltDir,
	}
	if check.Usable() {
		bs.Report.PrebuiltManager = true
		return prebuilt.Copy(ctx, prebuiltDir, bs.OutputDir)
	}
	bs.logger.Debug("Compiling manager", slog.String("reason", check.Reason()))

	bs.track(bs.Manager)
	res, err := bs.Manager.Build(ctx, builder.BuildArgs{Options: bs.BuilderOptions, StartTime: bs.Report.Start, Progress: progress(bs)})
	bs.Report.ManagerResult = res
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	logMessages(bs.logger, res)

	page := pages.Manager(pages.ManagerInput{
		Head:       head,
		Refs:       refs,
		PreviewURL: bs.Options.PreviewURL,
		DocsMode:   bs.Options.DocsMode,
		ConfigType: preset.ConfigTypeProduction,
		BundleDir:  filepath.Join(bs.OutputDir, builder.TargetManager),
	})
	if err := pages.Write(bs.OutputDir, pages.ManagerFile, page); err != nil {
		return err
	}

	if check.Eligible() && cfg.Manager.PrebuiltDir == "" && bs.Cache.Persistent() {
		if err := prebuilt.Save(ctx, bs.OutputDir, prebuiltDir); err != nil {
			bs.logger.Warn("Failed to save prebuilt manager", logfields.Error(err))
		}
	}
	return nil
}

// compilePreview builds the preview once and renders iframe.html. It is
// skipped for manager-only builds and when an external preview is used.
func compilePreview(ctx context.Context, bs *BuildState) error {
	switch {
	case bs.Options.ManagerOnly:
		bs.Report.skip(StateCompilingPreview, "manager only")
		return nil
	case bs.Options.PreviewURL != "":
		bs.Report.skip(StateCompilingPreview, "external preview url")
		return nil
	}

	bs.track(bs.Preview)
	res, err := bs.Preview.Build(ctx, builder.BuildArgs{Options: bs.BuilderOptions, StartTime: bs.Report.Start, Progress: progress(bs)})
	bs.Report.PreviewResult = res
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	logMessages(bs.logger, res)
	return writePreviewPage(ctx, bs)
}

func writePreviewPage(ctx context.Context, bs *BuildState) error {
	head, err := preset.Apply(ctx, bs.Presets, preset.PreviewHead, "", bs.BuilderOptions.Args())
	if err != nil {
		return err
	}
	page := pages.Preview(pages.PreviewInput{
		Head:       head,
		DocsMode:   bs.Options.DocsMode,
		ConfigType: bs.BuilderOptions.ConfigType,
		BundleDir:  filepath.Join(bs.OutputDir, builder.TargetPreview),
	})
	return pages.Write(bs.OutputDir, pages.PreviewFile, page)
}

// finalize writes project.json.
func finalize(_ context.Context, bs *BuildState) error {
	rev, err := project.DetectRevision(bs.ConfigDir)
	if err != nil {
		bs.logger.Warn("Could not read source revision", logfields.Error(err))
	}
	bs.Report.Revision = rev.Commit
	info := project.Info{
		BuildID:   bs.BuildID,
		Builder:   bs.Backend.Name,
		Framework: bs.Framework,
		Version:   version.Get(),
		Revision:  rev,
		Presets:   bs.Report.Presets,
		Stories:   bs.Report.StoryFiles,
		BuiltAt:   time.Now().UTC(),
	}
	if err := project.Write(bs.OutputDir, info); err != nil {
		return err
	}
	bs.Report.ProjectInfoSaved = true
	return nil
}
