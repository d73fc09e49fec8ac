// Package builder defines the adapter every bundler backend implements.
//
// A backend produces a native configuration from the preset set (GetConfig),
// compiles once for static output (Build), serves and recompiles in dev mode
// (Start) and cancels in-flight work (Bail). Backends are described by a
// Backend value and selected by name from a Registry, using the "builder"
// field of the "core" extension point.
package builder
