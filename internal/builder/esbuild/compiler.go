package esbuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/logfields"
)

// Compiler compiles one target (manager or preview) with esbuild.
type Compiler struct {
	target string

	mu     sync.Mutex
	active api.BuildContext
}

var _ builder.Builder[Config] = (*Compiler)(nil)

// NewPreview returns the preview compiler.
func NewPreview() *Compiler { return &Compiler{target: builder.TargetPreview} }

// NewManager returns the manager compiler.
func NewManager() *Compiler { return &Compiler{target: builder.TargetManager} }

// Target returns the compiled target name.
func (c *Compiler) Target() string { return c.target }

// GetConfig implements builder.Builder.
func (c *Compiler) GetConfig(ctx context.Context, opts builder.Options) (Config, error) {
	return resolve(ctx, c.target, opts)
}

func (c *Compiler) context(cfg Config, reporter builder.ProgressReporter, onEnd func(*api.BuildResult, *builder.Result)) (api.BuildContext, error) {
	opts := cfg.Options
	opts.Plugins = append([]api.Plugin{
		virtualModules(cfg),
		markdownStories(),
		progress(c.target, reporter, onEnd),
	}, opts.Plugins...)

	bctx, cerr := api.Context(opts)
	if cerr != nil {
		msgs := api.FormatMessages(cerr.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		return nil, fmt.Errorf("invalid esbuild options for %s: %v", c.target, msgs)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		bctx.Dispose()
		return nil, fmt.Errorf("%s compiler is already running", c.target)
	}
	c.active = bctx
	return bctx, nil
}

func (c *Compiler) release(bctx api.BuildContext) {
	c.mu.Lock()
	if c.active == bctx {
		c.active = nil
	}
	c.mu.Unlock()
	bctx.Dispose()
}

// Build implements builder.Builder.
func (c *Compiler) Build(ctx context.Context, args builder.BuildArgs) (*builder.Result, error) {
	reporter := builder.ProgressOrNoop(args.Progress)
	cfg, err := c.GetConfig(ctx, args.Options)
	if err != nil {
		return nil, err
	}
	cfg.Options.Write = true
	if err := ensureDir(cfg.Options.Outdir); err != nil {
		return nil, err
	}

	bctx, err := c.context(cfg, reporter, nil)
	if err != nil {
		return nil, err
	}
	defer c.release(bctx)

	stop := context.AfterFunc(ctx, bctx.Cancel)
	defer stop()

	started := time.Now()
	res := bctx.Rebuild()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := toResult(c.target, &res, time.Since(started))
	if !result.Failed() {
		c.storeMetafile(args.Options, res.Metafile)
	}
	return result, nil
}

func (c *Compiler) storeMetafile(opts builder.Options, metafile string) {
	if opts.Cache == nil || metafile == "" {
		return
	}
	dir, err := opts.Cache.Subdir("esbuild")
	if err != nil {
		slog.Warn("Cannot store esbuild metafile", logfields.Error(err))
		return
	}
	path := filepath.Join(dir, c.target+"-meta.json")
	if err := os.WriteFile(path, []byte(metafile), 0o600); err != nil {
		slog.Warn("Cannot store esbuild metafile", logfields.Path(path), logfields.Error(err))
	}
}

// Start implements builder.Builder. Output stays in memory and is served
// below /<target>/ on the router.
func (c *Compiler) Start(ctx context.Context, args builder.StartArgs) (*builder.StartResult, error) {
	if args.Router == nil {
		return nil, errors.New("start requires a router")
	}
	reporter := builder.ProgressOrNoop(args.Progress)
	cfg, err := c.GetConfig(ctx, args.Options)
	if err != nil {
		return nil, err
	}
	cfg.Options.Write = false

	assets := newMemoryAssets(cfg.Options.Outdir)
	onEnd := func(res *api.BuildResult, r *builder.Result) {
		if !r.Failed() {
			assets.replace(res.OutputFiles)
		}
		for _, w := range r.Warnings {
			slog.Warn(w, logfields.Target(c.target))
		}
		for _, e := range r.Errors {
			slog.Error(e, logfields.Target(c.target))
		}
	}
	bctx, err := c.context(cfg, reporter, onEnd)
	if err != nil {
		return nil, err
	}
	assets.mount(args.Router, "/"+c.target)

	first := bctx.Rebuild()
	stats := toResult(c.target, &first, time.Since(args.StartTime))
	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		c.release(bctx)
		return nil, fmt.Errorf("start watching %s: %w", c.target, err)
	}
	context.AfterFunc(ctx, func() { _ = c.Bail(context.Background(), ctx.Err()) })

	total := time.Duration(0)
	if !args.StartTime.IsZero() {
		total = time.Since(args.StartTime)
	}
	return &builder.StartResult{Stats: stats, TotalTime: total, Bail: c.Bail}, nil
}

// Bail implements builder.Builder.
func (c *Compiler) Bail(_ context.Context, cause error) error {
	c.mu.Lock()
	bctx := c.active
	c.active = nil
	c.mu.Unlock()
	if bctx == nil {
		return nil
	}
	if cause != nil {
		slog.Debug("Stopping compiler", logfields.Target(c.target), logfields.Error(cause))
	}
	bctx.Cancel()
	bctx.Dispose()
	return nil
}
