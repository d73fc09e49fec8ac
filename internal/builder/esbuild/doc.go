// Package esbuild is the in-process bundler backend built on the esbuild Go
// API. It compiles the preview for the "esbuild" builder and always compiles
// the manager, whatever backend the preview uses.
package esbuild
