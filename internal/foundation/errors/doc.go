// Package errors provides classified error primitives used across docshell.
//
// Domain packages return typed errors (preset.NotFoundError,
// builder.CompilationError, staticfiles.CopyError, ...). The static build
// orchestrator wraps them into a ClassifiedError so the CLI and HTTP adapters
// can pick exit codes, status codes and log levels from the category.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryPreset, "resolve presets").
//		Fatal().
//		WithContext("preset", name).
//		Build()
package errors
