package staticbuild

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/cache"
	"git.home.luguber.info/inful/docshell/internal/logfields"
	"git.home.luguber.info/inful/docshell/internal/metrics"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/preset/builtin"
	"git.home.luguber.info/inful/docshell/internal/staticfiles"
)

// Orchestrator runs static builds against a set of backends.
type Orchestrator struct {
	backends *builder.Registry
	manager  builder.Backend
	observer BuildObserver
	logger   *slog.Logger
	catalog  func() *preset.Catalog
	newID    func() string
	cleanDir func(string) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver adds a build observer.
func WithObserver(o BuildObserver) Option {
	return func(or *Orchestrator) {
		if existing, ok := or.observer.(Observers); ok {
			or.observer = append(existing, o)
			return
		}
		or.observer = Observers{or.observer, o}
	}
}

// WithRecorder records stage and build metrics.
func WithRecorder(r metrics.Recorder) Option {
	return WithObserver(RecorderObserver{Recorder: r})
}

// WithLogger sets the logger used for build progress.
func WithLogger(l *slog.Logger) Option {
	return func(or *Orchestrator) { or.logger = l }
}

// WithCatalog replaces the built-in preset catalog factory.
func WithCatalog(f func() *preset.Catalog) Option {
	return func(or *Orchestrator) { or.catalog = f }
}

// WithBuildID fixes the build ID generator.
func WithBuildID(f func() string) Option {
	return func(or *Orchestrator) { or.newID = f }
}

// New creates an orchestrator. manager describes the backend compiling the
// manager UI; its presets are layered for every preview backend.
func New(backends *builder.Registry, manager builder.Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backends: backends,
		manager:  manager,
		observer: NoopObserver{},
		logger:   slog.Default(),
		catalog:  builtin.NewCatalog,
		newID:    uuid.NewString,
		cleanDir: staticfiles.Clean,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Build runs a static build. In watch mode it returns once ctx is canceled.
// The returned report is never nil.
func (o *Orchestrator) Build(ctx context.Context, opts Options) (*BuildReport, error) {
	bs, err := o.newState(opts)
	if err != nil {
		report := newReport(o.newID())
		report.finish(OutcomeFailed, err)
		return report, classify(err)
	}
	if bs.Cache == nil {
		store, err := cache.NewEphemeral("")
		if err != nil {
			bs.Report.finish(OutcomeFailed, err)
			return bs.Report, classify(err)
		}
		bs.Cache = store
		defer func() {
			if err := store.Cleanup(); err != nil {
				bs.logger.Warn("Failed to remove ephemeral cache", logfields.Error(err))
			}
		}()
	}

	o.observer.OnBuildStart(bs.Report)
	bs.logger.Info("Building static docshell", logfields.OutputDir(bs.OutputDir), logfields.Path(bs.ConfigDir))

	err = o.run(ctx, bs, o.stages())
	if err != nil {
		return o.fail(bs, err)
	}

	bs.Report.finish(OutcomeSuccess, nil)
	o.observer.OnBuildComplete(bs.Report)
	bs.logger.Info("Output directory", logfields.OutputDir(bs.OutputDir), logfields.Duration(bs.Report.Duration()))

	if opts.Watch && bs.Preview != nil {
		return bs.Report, o.watch(ctx, bs)
	}
	return bs.Report, nil
}

func (o *Orchestrator) newState(opts Options) (*BuildState, error) {
	configDir, outDir, err := opts.dirs()
	if err != nil {
		return nil, err
	}
	id := o.newID()
	report := newReport(id)
	report.OutputDir = outDir
	return &BuildState{
		Options:   opts,
		BuildID:   id,
		ConfigDir: configDir,
		OutputDir: outDir,
		Cache:     opts.Cache,
		Report:    report,
		state:     StateInit,
		cleanDir:  o.cleanDir,
		logger:    o.logger.With(logfields.BuildID(id)),
	}, nil
}

func (o *Orchestrator) stages() []stageDef {
	return []stageDef{
		{StateStagingOutput, stageOutput},
		{StateResolvingPresets, o.resolvePresets},
		{StateCompilingManager, o.compileManager},
		{StateCompilingPreview, compilePreview},
		{StateDone, finalize},
	}
}

// fail moves the build into the failed state: every compilation message is
// logged, active builders are bailed and the error is classified.
func (o *Orchestrator) fail(bs *BuildState, err error) (*BuildReport, error) {
	bs.enter(StateFailed)
	for _, res := range []*builder.Result{bs.Report.ManagerResult, bs.Report.PreviewResult} {
		logMessages(bs.logger, res)
	}
	bs.bail(err)

	outcome := OutcomeFailed
	if isCanceled(err) {
		outcome = OutcomeCanceled
	}
	classified := classify(err)
	bs.Report.finish(outcome, classified)
	o.observer.OnBuildComplete(bs.Report)
	return bs.Report, classified
}

// logMessages logs each error and warning of a compilation individually.
func logMessages(logger *slog.Logger, res *builder.Result) {
	if res == nil {
		return
	}
	for _, w := range res.Warnings {
		logger.Warn(firstLine(w), logfields.Target(res.Target), slog.String("detail", w))
	}
	for _, e := range res.Errors {
		logger.Error(firstLine(e), logfields.Target(res.Target), slog.String("detail", e))
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// validateOutputDir rejects output directories whose cleaning would destroy
// the filesystem root, the home directory or the configuration.
func validateOutputDir(outDir, configDir string) error {
	clean := filepath.Clean(outDir)
	if filepath.Dir(clean) == clean {
		return &InvalidOutputPathError{Path: outDir, Reason: "filesystem root"}
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" && filepath.Clean(home) == clean {
		return &InvalidOutputPathError{Path: outDir, Reason: "home directory"}
	}
	if configDir != "" && within(filepath.Clean(configDir), clean) {
		return &InvalidOutputPathError{Path: outDir, Reason: "contains the config directory"}
	}
	return nil
}
