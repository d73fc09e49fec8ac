// Package command implements bundler backends that run an external bundler
// CLI as a subprocess. The webpack4 and webpack5 builders generate a webpack
// configuration file from the preset set, run the webpack CLI with --json and
// read errors and warnings from its stats output.
package command
