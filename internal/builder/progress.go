package builder

import (
	"log/slog"

	"git.home.luguber.info/inful/docshell/internal/logfields"
)

// ProgressReporter observes compilation start and end.
type ProgressReporter interface {
	CompileStarted(target string)
	CompileFinished(target string, result *Result)
}

// NoopProgress ignores progress.
type NoopProgress struct{}

func (NoopProgress) CompileStarted(string)           {}
func (NoopProgress) CompileFinished(string, *Result) {}

// SlogProgress logs progress through a slog.Logger.
type SlogProgress struct {
	Logger *slog.Logger
}

func (p SlogProgress) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p SlogProgress) CompileStarted(target string) {
	p.logger().Info("Compiling", logfields.Target(target))
}

func (p SlogProgress) CompileFinished(target string, r *Result) {
	if r == nil {
		return
	}
	attrs := []any{
		logfields.Target(target),
		logfields.Duration(r.Duration),
		slog.Int("errors", len(r.Errors)),
		slog.Int("warnings", len(r.Warnings)),
	}
	if r.Failed() {
		p.logger().Error("Compilation failed", attrs...)
		return
	}
	p.logger().Info("Compiled", attrs...)
}

// ProgressOrNoop returns p, or NoopProgress when p is nil.
func ProgressOrNoop(p ProgressReporter) ProgressReporter {
	if p == nil {
		return NoopProgress{}
	}
	return p
}
