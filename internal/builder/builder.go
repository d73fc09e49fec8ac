package builder

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
)

// Targets compiled by the orchestrator.
const (
	TargetManager = "manager"
	TargetPreview = "preview"
)

// StartArgs are the inputs of a dev-mode compilation.
type StartArgs struct {
	Options   Options
	StartTime time.Time
	Progress  ProgressReporter
	Router    chi.Router
}

// BuildArgs are the inputs of a one-shot compilation.
type BuildArgs struct {
	Options   Options
	StartTime time.Time
	Progress  ProgressReporter
}

// StartResult is returned once the first dev-mode compilation finished.
type StartResult struct {
	Stats     *Result
	TotalTime time.Duration
	Bail      func(ctx context.Context, err error) error
}

// Builder compiles one target with a specific backend. C is the
// backend-native configuration type.
type Builder[C any] interface {
	// GetConfig resolves the backend configuration from the preset set. It
	// does not compile and returns equal values for equal inputs.
	GetConfig(ctx context.Context, opts Options) (C, error)
	// Start compiles in watch mode and mounts asset serving on args.Router.
	// It returns after the first compilation.
	Start(ctx context.Context, args StartArgs) (*StartResult, error)
	// Build compiles once and writes artifacts to the output dir. The error
	// return is reserved for configuration problems; compile errors are in
	// the Result.
	Build(ctx context.Context, args BuildArgs) (*Result, error)
	// Bail stops in-flight work. It is safe to call when idle.
	Bail(ctx context.Context, err error) error
}

// Erase adapts a typed builder to Builder[any].
func Erase[C any](b Builder[C]) Builder[any] {
	if e, ok := any(b).(Builder[any]); ok {
		return e
	}
	return erased[C]{b}
}

type erased[C any] struct{ b Builder[C] }

func (e erased[C]) GetConfig(ctx context.Context, opts Options) (any, error) {
	return e.b.GetConfig(ctx, opts)
}

func (e erased[C]) Start(ctx context.Context, args StartArgs) (*StartResult, error) {
	return e.b.Start(ctx, args)
}

func (e erased[C]) Build(ctx context.Context, args BuildArgs) (*Result, error) {
	return e.b.Build(ctx, args)
}

func (e erased[C]) Bail(ctx context.Context, err error) error {
	return e.b.Bail(ctx, err)
}
