package staticbuild

import (
	"context"
	stdErrors "errors"
	"fmt"

	"git.home.luguber.info/inful/docshell/internal/builder"
	"git.home.luguber.info/inful/docshell/internal/foundation/errors"
	"git.home.luguber.info/inful/docshell/internal/preset"
	"git.home.luguber.info/inful/docshell/internal/staticfiles"
)

// InvalidOutputPathError is returned before anything is deleted when the
// output directory would destroy something important.
type InvalidOutputPathError struct {
	Path   string
	Reason string
}

func (e *InvalidOutputPathError) Error() string {
	return fmt.Sprintf("refusing to use %s as output directory: %s", e.Path, e.Reason)
}

// StageError records the state in which a build failed.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.State, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func isCanceled(err error) bool {
	return stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded)
}

// classify wraps err into a ClassifiedError whose category selects the exit
// code and log presentation.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	var (
		outputErr  *InvalidOutputPathError
		copyErr    *staticfiles.CopyError
		compileErr *builder.CompilationError
		notFound   *preset.NotFoundError
		cycleErr   *preset.CycleError
		applyErr   *preset.ApplyError
	)
	var b *errors.ErrorBuilder
	switch {
	case isCanceled(err):
		b = errors.WrapError(err, errors.CategoryRuntime, "build canceled")
	case stdErrors.As(err, &outputErr):
		b = errors.WrapError(err, errors.CategoryOutput, "invalid output directory").WithContext("path", outputErr.Path)
	case stdErrors.As(err, &copyErr):
		b = errors.WrapError(err, errors.CategoryStaticCopy, "static directory copy failed").WithContext("static_dir", copyErr.Dir.Source)
	case stdErrors.As(err, &compileErr):
		b = errors.WrapError(err, errors.CategoryCompile, "compilation failed").
			WithContext("target", compileErr.Target).
			WithContext("errors", len(compileErr.Errors))
	case stdErrors.As(err, &notFound):
		b = errors.WrapError(err, errors.CategoryPreset, "preset could not be resolved").WithContext("preset", notFound.Name)
	case stdErrors.As(err, &cycleErr), stdErrors.As(err, &applyErr), stdErrors.Is(err, preset.ErrTypeMismatch):
		b = errors.WrapError(err, errors.CategoryPreset, "preset evaluation failed")
	case stdErrors.Is(err, builder.ErrUnknownBackend):
		b = errors.WrapError(err, errors.CategoryConfig, "unknown builder")
	default:
		b = errors.WrapError(err, errors.CategoryBuilder, "build failed")
	}

	var stageErr *StageError
	if stdErrors.As(err, &stageErr) {
		b = b.WithContext("state", string(stageErr.State))
	}
	return b.Build()
}
