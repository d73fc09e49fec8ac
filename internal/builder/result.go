package builder

import (
	"fmt"
	"strings"
	"time"
)

// Result is the structured outcome of a compilation. Compilation problems
// are reported here rather than as an error.
type Result struct {
	Target   string
	Errors   []string
	Warnings []string
	Outputs  []string
	Duration time.Duration
}

// Failed reports whether the compilation produced errors.
func (r *Result) Failed() bool {
	return r != nil && len(r.Errors) > 0
}

// Err returns a *CompilationError when r failed, nil otherwise.
func (r *Result) Err() error {
	if !r.Failed() {
		return nil
	}
	return &CompilationError{Target: r.Target, Errors: r.Errors, Warnings: r.Warnings}
}

// CompilationError wraps a failed Result for the orchestrator.
type CompilationError struct {
	Target   string
	Errors   []string
	Warnings []string
}

func (e *CompilationError) Error() string {
	target := e.Target
	if target == "" {
		target = "bundle"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s compilation failed: %s", target, firstLine(e.Errors[0]))
	}
	return fmt.Sprintf("%s compilation failed with %d errors", target, len(e.Errors))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
